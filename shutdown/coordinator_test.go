package shutdown

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vinayprograms/gsdk/logging"
)

func testConfig() Config {
	l := logging.New()
	l.SetOutput(io.Discard)
	cfg := DefaultConfig()
	cfg.Logger = l
	cfg.Exit = func(int) {}
	return cfg
}

func TestShutdownSingleHandler(t *testing.T) {
	coord := NewCoordinator(testConfig())

	called := false
	coord.RegisterFunc("game", func(ctx context.Context) error {
		called = true
		return nil
	})

	if err := coord.ShutdownWithTimeout(time.Second); err != nil {
		t.Fatalf("ShutdownWithTimeout error: %v", err)
	}
	if !called {
		t.Fatal("handler not called")
	}

	select {
	case <-coord.Done():
	default:
		t.Fatal("Done() not closed")
	}
	if coord.Err() != nil {
		t.Errorf("Err() = %v, want nil", coord.Err())
	}

	result := coord.Result()
	if result == nil || len(result.Results) != 1 || result.Results[0].Name != "game" {
		t.Fatalf("Result() = %+v", result)
	}
	if result.Results[0].Phase != PhaseGame {
		t.Errorf("Phase = %d, want %d", result.Results[0].Phase, PhaseGame)
	}
	if result.Failed() {
		t.Error("Failed() = true")
	}
}

func TestShutdownPhaseOrder(t *testing.T) {
	coord := NewCoordinator(testConfig())

	var mu sync.Mutex
	var order []string
	record := func(name string) func(context.Context) error {
		return func(context.Context) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		}
	}

	coord.RegisterFuncWithPhase("telemetry", record("telemetry"), PhaseTelemetry)
	coord.RegisterFuncWithPhase("events", record("events"), PhaseEvents)
	coord.RegisterFuncWithPhase("heartbeat", record("heartbeat"), PhaseHeartbeat)
	coord.RegisterFunc("game", record("game"))

	if err := coord.ShutdownWithTimeout(time.Second); err != nil {
		t.Fatalf("ShutdownWithTimeout error: %v", err)
	}

	want := []string{"game", "heartbeat", "events", "telemetry"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %s, want %s", i, order[i], want[i])
		}
	}
}

func TestShutdownSamePhaseConcurrent(t *testing.T) {
	coord := NewCoordinator(testConfig())

	var running, peak atomic.Int32
	handler := func(context.Context) error {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(30 * time.Millisecond)
		running.Add(-1)
		return nil
	}
	coord.RegisterFuncWithPhase("a", handler, PhaseEvents)
	coord.RegisterFuncWithPhase("b", handler, PhaseEvents)

	if err := coord.ShutdownWithTimeout(time.Second); err != nil {
		t.Fatalf("ShutdownWithTimeout error: %v", err)
	}
	if peak.Load() != 2 {
		t.Errorf("peak concurrency = %d, want 2", peak.Load())
	}
}

func TestShutdownHandlerFailure(t *testing.T) {
	tests := []struct {
		name        string
		stopOnError bool
		wantLater   bool
	}{
		{"continue on error", false, true},
		{"stop on error", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.StopOnError = tt.stopOnError
			coord := NewCoordinator(cfg)

			laterCalled := false
			coord.RegisterFuncWithPhase("bus", func(context.Context) error {
				return errors.New("drain failed")
			}, PhaseEvents)
			coord.RegisterFuncWithPhase("tracer", func(context.Context) error {
				laterCalled = true
				return nil
			}, PhaseTelemetry)

			err := coord.ShutdownWithTimeout(time.Second)
			if !errors.Is(err, ErrHandlerFailed) {
				t.Errorf("error = %v, want ErrHandlerFailed", err)
			}
			if laterCalled != tt.wantLater {
				t.Errorf("later phase called = %v, want %v", laterCalled, tt.wantLater)
			}
			failed := coord.Result().FailedHandlers()
			if len(failed) != 1 || failed[0] != "bus" {
				t.Errorf("FailedHandlers() = %v, want [bus]", failed)
			}
		})
	}
}

func TestShutdownTimeoutSkipsRemainingPhases(t *testing.T) {
	coord := NewCoordinator(testConfig())

	coord.RegisterFuncWithPhase("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}, PhaseGame)
	later := false
	coord.RegisterFuncWithPhase("later", func(context.Context) error {
		later = true
		return nil
	}, PhaseTelemetry)

	err := coord.ShutdownWithTimeout(20 * time.Millisecond)
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("error = %v, want ErrTimeout", err)
	}
	if later {
		t.Error("phase after timeout should not run")
	}
}

func TestShutdownRunsOnce(t *testing.T) {
	coord := NewCoordinator(testConfig())

	release := make(chan struct{})
	var calls atomic.Int32
	coord.RegisterFunc("game", func(context.Context) error {
		calls.Add(1)
		<-release
		return nil
	})

	first := make(chan error, 1)
	go func() { first <- coord.ShutdownWithTimeout(time.Second) }()

	// wait for the first shutdown to be in progress
	for calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	if err := coord.Shutdown(context.Background()); !errors.Is(err, ErrAlreadyShutdown) {
		t.Errorf("concurrent Shutdown() = %v, want ErrAlreadyShutdown", err)
	}

	close(release)
	if err := <-first; err != nil {
		t.Fatalf("first Shutdown() = %v", err)
	}
	if err := coord.Shutdown(context.Background()); err != nil {
		t.Errorf("later Shutdown() = %v, want first result", err)
	}
	if calls.Load() != 1 {
		t.Errorf("handler calls = %d, want 1", calls.Load())
	}
}

func TestFatalExits(t *testing.T) {
	cfg := testConfig()
	var code atomic.Int32
	code.Store(-1)
	cfg.Exit = func(c int) { code.Store(int32(c)) }
	coord := NewCoordinator(cfg)

	called := false
	coord.RegisterFuncWithPhase("heartbeat", func(context.Context) error {
		called = true
		return nil
	}, PhaseHeartbeat)

	coord.Fatal(errors.New("retries exhausted"))

	if !called {
		t.Error("handler not called before exit")
	}
	if code.Load() != 1 {
		t.Errorf("exit code = %d, want 1", code.Load())
	}
}

func TestFatalWaitsForRunningShutdown(t *testing.T) {
	cfg := testConfig()
	var finished, finishedAtExit atomic.Bool
	cfg.Exit = func(int) { finishedAtExit.Store(finished.Load()) }
	coord := NewCoordinator(cfg)

	started := make(chan struct{})
	coord.RegisterFunc("game", func(context.Context) error {
		close(started)
		time.Sleep(200 * time.Millisecond)
		finished.Store(true)
		return nil
	})

	go coord.ShutdownWithTimeout(0)
	<-started

	coord.Fatal(errors.New("retries exhausted"))

	if !finishedAtExit.Load() {
		t.Error("exit ran before the running shutdown finished")
	}
}

func TestFatalWaitIsBounded(t *testing.T) {
	cfg := testConfig()
	cfg.Timeout = 50 * time.Millisecond
	exited := make(chan struct{})
	cfg.Exit = func(int) { close(exited) }
	coord := NewCoordinator(cfg)

	started := make(chan struct{})
	release := make(chan struct{})
	defer close(release)
	coord.RegisterFunc("stuck", func(context.Context) error {
		close(started)
		<-release
		return nil
	})

	go coord.Shutdown(context.Background())
	<-started

	go coord.Fatal(nil)

	select {
	case <-exited:
	case <-time.After(2 * time.Second):
		t.Fatal("Fatal did not exit after the shutdown timeout")
	}
}

func TestSignalTriggersShutdown(t *testing.T) {
	coord := NewCoordinator(testConfig())
	coord.HandleSignals()
	defer coord.StopSignals()

	called := make(chan struct{})
	coord.RegisterFunc("game", func(context.Context) error {
		close(called)
		return nil
	})

	coord.Trigger()

	select {
	case <-coord.Done():
	case <-time.After(time.Second):
		t.Fatal("shutdown not triggered")
	}
	select {
	case <-called:
	default:
		t.Error("handler not called")
	}
}

func TestErrAndResultBeforeShutdown(t *testing.T) {
	coord := NewCoordinator(testConfig())
	if coord.Err() != nil {
		t.Error("Err() before shutdown should be nil")
	}
	if coord.Result() != nil {
		t.Error("Result() before shutdown should be nil")
	}
}
