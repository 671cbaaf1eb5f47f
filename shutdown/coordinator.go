package shutdown

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sort"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/vinayprograms/gsdk/logging"
)

// Coordinator runs registered handlers phase by phase, once.
type Coordinator struct {
	config Config
	logger *logging.Logger

	mu       sync.Mutex
	handlers []registration
	begun    atomic.Bool
	err      error
	done     chan struct{}
	result   *Result
	signals  chan os.Signal
	stopSig  chan struct{}
	started  time.Time
}

// NewCoordinator creates a coordinator. Zero fields of config take their
// DefaultConfig values.
func NewCoordinator(config Config) *Coordinator {
	defaults := DefaultConfig()
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if config.DefaultPhase == 0 {
		config.DefaultPhase = defaults.DefaultPhase
	}
	if config.Exit == nil {
		config.Exit = defaults.Exit
	}
	logger := config.Logger
	if logger == nil {
		logger = logging.New()
	}

	return &Coordinator{
		config:  config,
		logger:  logger.WithComponent("shutdown"),
		done:    make(chan struct{}),
		signals: make(chan os.Signal, 1),
		stopSig: make(chan struct{}),
	}
}

// Register adds a handler in the default phase.
func (c *Coordinator) Register(name string, handler Handler) {
	c.RegisterWithPhase(name, handler, c.config.DefaultPhase)
}

// RegisterWithPhase adds a handler to phase. Handlers in the same phase run
// concurrently.
func (c *Coordinator) RegisterWithPhase(name string, handler Handler, phase int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = append(c.handlers, registration{name: name, handler: handler, phase: phase})
}

// RegisterFunc registers fn in the default phase.
func (c *Coordinator) RegisterFunc(name string, fn func(ctx context.Context) error) {
	c.Register(name, HandlerFunc(fn))
}

// RegisterFuncWithPhase registers fn in phase.
func (c *Coordinator) RegisterFuncWithPhase(name string, fn func(ctx context.Context) error, phase int) {
	c.RegisterWithPhase(name, HandlerFunc(fn), phase)
}

// Shutdown runs all handlers. Only the first call does work; callers that
// arrive while it is running get ErrAlreadyShutdown, later callers the
// first call's error.
func (c *Coordinator) Shutdown(ctx context.Context) error {
	if !c.begun.CompareAndSwap(false, true) {
		select {
		case <-c.done:
			return c.err
		default:
			return ErrAlreadyShutdown
		}
	}

	c.started = time.Now()
	c.err = c.run(ctx)
	close(c.done)
	return c.err
}

// ShutdownWithTimeout runs Shutdown bounded by timeout (0 uses the
// configured timeout).
func (c *Coordinator) ShutdownWithTimeout(timeout time.Duration) error {
	if timeout <= 0 {
		timeout = c.config.Timeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return c.Shutdown(ctx)
}

// Fatal shuts down after an unrecoverable SDK failure and then exits the
// process with status 1.
func (c *Coordinator) Fatal(cause error) {
	fields := map[string]interface{}{}
	if cause != nil {
		fields["error"] = cause.Error()
	}
	c.logger.Error("fatal_shutdown", fields)

	err := c.ShutdownWithTimeout(0)
	if errors.Is(err, ErrAlreadyShutdown) {
		// Another caller is running the handlers; let them finish.
		select {
		case <-c.done:
			err = c.err
		case <-time.After(c.config.Timeout):
			err = ErrTimeout
		}
	}
	if err != nil {
		c.logger.Warn("shutdown_incomplete", map[string]interface{}{"error": err.Error()})
	}
	c.config.Exit(1)
}

// HandleSignals shuts down on SIGTERM or SIGINT. StopSignals undoes it.
func (c *Coordinator) HandleSignals() {
	signal.Notify(c.signals, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		select {
		case sig := <-c.signals:
			c.logger.Info("signal_received", map[string]interface{}{"signal": sig.String()})
			_ = c.ShutdownWithTimeout(0)
		case <-c.stopSig:
		}
	}()
}

// StopSignals stops signal handling started by HandleSignals.
func (c *Coordinator) StopSignals() {
	signal.Stop(c.signals)
	c.mu.Lock()
	defer c.mu.Unlock()
	select {
	case <-c.stopSig:
	default:
		close(c.stopSig)
	}
}

// Trigger simulates SIGTERM.
func (c *Coordinator) Trigger() {
	select {
	case c.signals <- syscall.SIGTERM:
	default:
	}
}

// Done is closed when shutdown completes.
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}

// Err returns the shutdown error once Done is closed.
func (c *Coordinator) Err() error {
	select {
	case <-c.done:
		return c.err
	default:
		return nil
	}
}

// Result returns per-handler outcomes once Done is closed.
func (c *Coordinator) Result() *Result {
	select {
	case <-c.done:
		return c.result
	default:
		return nil
	}
}

func (c *Coordinator) run(ctx context.Context) error {
	c.mu.Lock()
	handlers := make([]registration, len(c.handlers))
	copy(handlers, c.handlers)
	c.mu.Unlock()

	sort.SliceStable(handlers, func(i, j int) bool {
		return handlers[i].phase < handlers[j].phase
	})

	result := &Result{Results: make([]HandlerResult, 0, len(handlers))}
	finish := func(err error) error {
		result.Err = err
		result.TotalDuration = time.Since(c.started)
		c.result = result
		c.logger.Info("shutdown_complete", map[string]interface{}{
			"handlers": len(result.Results),
			"duration": result.TotalDuration.String(),
			"failed":   len(result.FailedHandlers()),
		})
		return err
	}

	var overall error
	for _, group := range groupByPhase(handlers) {
		if ctx.Err() != nil {
			return finish(ErrTimeout)
		}

		results := c.runPhase(ctx, group)
		result.Results = append(result.Results, results...)

		for _, hr := range results {
			if hr.Err == nil {
				continue
			}
			overall = ErrHandlerFailed
			if c.config.StopOnError {
				return finish(overall)
			}
		}
	}
	return finish(overall)
}

func (c *Coordinator) runPhase(ctx context.Context, handlers []registration) []HandlerResult {
	results := make([]HandlerResult, len(handlers))
	var wg sync.WaitGroup

	for i, reg := range handlers {
		wg.Add(1)
		go func(idx int, r registration) {
			defer wg.Done()

			start := time.Now()
			err := r.handler.OnShutdown(ctx)
			results[idx] = HandlerResult{
				Name:     r.name,
				Phase:    r.phase,
				Duration: time.Since(start),
				Err:      err,
			}

			fields := map[string]interface{}{"handler": r.name, "phase": r.phase}
			if err != nil {
				fields["error"] = err.Error()
				c.logger.Warn("handler_failed", fields)
			} else {
				c.logger.Debug("handler_done", fields)
			}
		}(i, reg)
	}

	wg.Wait()
	return results
}

// groupByPhase splits phase-sorted handlers into runs of equal phase.
func groupByPhase(handlers []registration) [][]registration {
	var groups [][]registration
	for i, h := range handlers {
		if i == 0 || h.phase != handlers[i-1].phase {
			groups = append(groups, nil)
		}
		groups[len(groups)-1] = append(groups[len(groups)-1], h)
	}
	return groups
}
