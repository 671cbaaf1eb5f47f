package heartbeat

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/vinayprograms/gsdk/bus"
	sdkerrors "github.com/vinayprograms/gsdk/errors"
	"github.com/vinayprograms/gsdk/logging"
	"github.com/vinayprograms/gsdk/metrics"
	"github.com/vinayprograms/gsdk/telemetry"
)

// Config configures a Worker.
type Config struct {
	// ServerID is the session host id (required).
	ServerID string

	// Transport performs single heartbeat attempts (required).
	Transport Transport

	// Retry bounds each exchange.
	// Default: DefaultRetryPolicy()
	Retry RetryPolicy

	// Settings seeds the config settings map.
	Settings map[string]string

	// Logger receives operational messages.
	// Default: stdout logger
	Logger *logging.Logger

	// Metrics records heartbeat metrics. Nil records nothing.
	Metrics *metrics.Collector

	// Tracer records one span per exchange.
	// Default: telemetry.GetTracer()
	Tracer *telemetry.Tracer

	// Events mirrors lifecycle events. Nil disables mirroring.
	Events bus.Publisher

	// EventPrefix is the first subject token of mirrored events.
	// Default: "gsdk"
	EventPrefix string
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.ServerID == "" {
		return sdkerrors.InvalidInput("heartbeat worker requires a server id")
	}
	if c.Transport == nil {
		return sdkerrors.InvalidInput("heartbeat worker requires a transport")
	}
	return nil
}

// Worker is the heartbeat loop. It owns the state machine, the callback
// registry and the settings store, and is the only writer of the latter two.
type Worker struct {
	serverID    string
	transport   Transport
	retry       RetryPolicy
	logger      *logging.Logger
	metrics     *metrics.Collector
	tracer      *telemetry.Tracer
	events      bus.Publisher
	eventPrefix string

	state     *StateMachine
	callbacks *Registry
	settings  *SettingsStore

	mu      sync.RWMutex
	players []ConnectedPlayer

	interval        atomic.Int64
	lastMaintenance *time.Time // worker goroutine only
	running         atomic.Bool
}

// NewWorker builds a worker and performs the first heartbeat synchronously,
// reporting Initializing. If that exchange fails the worker is not returned
// and the error has code INITIALIZATION.
func NewWorker(ctx context.Context, cfg Config) (*Worker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	retry := cfg.Retry
	if retry.MaxAttempts <= 0 {
		retry = DefaultRetryPolicy()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.New()
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = telemetry.GetTracer()
	}
	prefix := cfg.EventPrefix
	if prefix == "" {
		prefix = DefaultEventPrefix
	}

	w := &Worker{
		serverID:    cfg.ServerID,
		transport:   cfg.Transport,
		retry:       retry,
		logger:      logger.WithComponent("heartbeat"),
		metrics:     cfg.Metrics,
		tracer:      tracer,
		events:      cfg.Events,
		eventPrefix: prefix,
		callbacks:   NewRegistry(),
		settings:    NewSettingsStore(cfg.Settings),
		players:     []ConnectedPlayer{},
	}
	w.state = NewStateMachine(StatusInitializing, logger)
	w.state.OnChange(func(from, to SessionHostStatus) {
		w.metrics.SetSessionState(string(to))
		w.publish(context.Background(), Event{Kind: EventState, From: from, State: to})
	})
	w.metrics.SetSessionState(string(StatusInitializing))

	resp, err := w.exchange(ctx, StatusInitializing)
	if err != nil {
		return nil, sdkerrors.Initialization("failed to contact agent", err)
	}
	w.apply(ctx, resp)

	w.logger.Info("heartbeat_initialized", map[string]interface{}{
		"server_id": w.serverID,
		"interval":  w.Interval().String(),
	})
	return w, nil
}

// Run executes the heartbeat loop until the session terminates, an exchange
// fails fatally, or ctx is done.
//
// Returns nil after the final Terminated heartbeat. On exhausted retries or
// a panic, the shutdown callback is invoked best-effort and the
// RETRY_EXHAUSTED or PANIC error is returned. Cancellation returns a
// CANCELED or TIMEOUT error without a terminal heartbeat.
func (w *Worker) Run(ctx context.Context) (err error) {
	if w.running.Swap(true) {
		return sdkerrors.InvalidInput("heartbeat worker already running")
	}

	defer func() {
		if r := recover(); r != nil {
			perr := sdkerrors.RecoverPanic(r)
			w.fail(ctx, perr)
			err = perr
		}
	}()

	timer := time.NewTimer(w.Interval())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return sdkerrors.Wrap(ctx.Err(), "heartbeat stopped")
		case <-w.state.Wakeups():
			w.state.Drain()
			w.logger.Debug("heartbeat_wake")
		case <-timer.C:
		}

		current := w.state.State()
		resp, err := w.exchange(ctx, current)
		if err != nil {
			if ctx.Err() != nil {
				return sdkerrors.Wrap(ctx.Err(), "heartbeat stopped")
			}
			w.fail(ctx, err)
			return err
		}
		w.apply(ctx, resp)

		if current == StatusTerminating {
			w.state.Set(StatusTerminated)
			if _, err := w.exchange(ctx, StatusTerminated); err != nil {
				w.logger.Error("final_heartbeat_failed", map[string]interface{}{"error": err.Error()})
			}
			w.logger.Info("terminated")
			return nil
		}

		timer.Reset(w.Interval())
	}
}

// exchange sends one heartbeat reporting state, retrying per policy.
func (w *Worker) exchange(ctx context.Context, state SessionHostStatus) (*Response, error) {
	correlationID := uuid.NewString()
	log := w.logger.WithTraceID(correlationID)

	ctx, span := w.tracer.StartHeartbeatSpan(ctx, w.serverID, correlationID)
	start := time.Now()

	var req *Request
	var resp *Response
	attempts, err := w.retry.Do(ctx, func(ctx context.Context, attempt int) error {
		req = w.buildRequest(state)
		w.metrics.IncAttempts()

		r, err := w.transport.Send(ctx, req)
		if err != nil {
			w.metrics.IncFailures(string(sdkerrors.Code(err)))
			if sdkerrors.IsRetryable(err) {
				log.RetryAttempt(attempt+1, err)
			}
			return err
		}
		resp = r
		return nil
	})

	w.metrics.ObserveHeartbeatLatency(time.Since(start).Seconds())

	opts := telemetry.HeartbeatSpanOptions{State: string(state), Attempts: attempts}
	if req != nil {
		opts.Players = req.PlayerIDs()
	}
	if resp != nil {
		opts.Operation = string(resp.Operation)
		opts.Interval = resp.Interval()
	}
	w.tracer.EndHeartbeatSpan(span, opts, err)

	if err != nil {
		log.Error("heartbeat_exchange_failed", map[string]interface{}{
			"state":    string(state),
			"attempts": attempts,
			"error":    err.Error(),
		})
		return nil, err
	}

	log.HeartbeatExchange(string(state), req.PlayerIDs(), string(resp.Operation), resp.Interval())
	return resp, nil
}

// buildRequest snapshots the player list and queries health for one attempt.
func (w *Worker) buildRequest(state SessionHostStatus) *Request {
	req := &Request{
		CurrentGameState: state,
		CurrentPlayers:   w.Players(),
	}
	if h, ok := w.callbacks.Health(); ok {
		req.CurrentGameHealth = h
	}
	return req
}

// apply folds a response into local state and fires callbacks.
func (w *Worker) apply(ctx context.Context, resp *Response) {
	w.interval.Store(int64(resp.Interval()))

	w.settings.Merge(resp.SessionConfig)

	if t := resp.NextScheduledMaintenanceUtc; t != nil {
		w.callbacks.Maintenance(*t)
		if w.lastMaintenance == nil || !w.lastMaintenance.Equal(*t) {
			next := *t
			w.lastMaintenance = &next
			w.publish(ctx, Event{Kind: EventMaintenance, Maintenance: &next})
		}
	}

	if s := resp.MaintenanceSchedule; s != nil {
		w.callbacks.MaintenanceSchedule(*s)
		w.publish(ctx, Event{Kind: EventSchedule, Schedule: s})
	}

	w.metrics.IncOperations(string(resp.Operation))
	if t := w.state.Apply(resp.Operation); t.Shutdown {
		w.logger.Info("terminate_requested")
		w.callbacks.Shutdown()
	}
}

// fail reports a fatal loop failure: shutdown callback first, then the
// fatal event.
func (w *Worker) fail(ctx context.Context, err error) {
	w.logger.Error("heartbeat_loop_failed", map[string]interface{}{
		"code":  string(sdkerrors.Code(err)),
		"error": err.Error(),
	})

	func() {
		defer func() {
			if r := recover(); r != nil {
				w.logger.Error("shutdown_callback_panicked", map[string]interface{}{"panic": r})
			}
		}()
		w.callbacks.Shutdown()
	}()

	w.publish(ctx, Event{Kind: EventFatal, State: w.state.State(), Error: err.Error()})
}

// UpdatePlayers replaces the connected player list sent with every heartbeat.
func (w *Worker) UpdatePlayers(players []ConnectedPlayer) {
	cp := make([]ConnectedPlayer, len(players))
	copy(cp, players)

	w.mu.Lock()
	w.players = cp
	w.mu.Unlock()

	w.metrics.SetConnectedPlayers(len(cp))
}

// Players returns a copy of the connected player list. Never nil.
func (w *Worker) Players() []ConnectedPlayer {
	w.mu.RLock()
	defer w.mu.RUnlock()
	cp := make([]ConnectedPlayer, len(w.players))
	copy(cp, w.players)
	return cp
}

// Interval returns the wait before the next scheduled heartbeat.
func (w *Worker) Interval() time.Duration {
	return time.Duration(w.interval.Load())
}

// ServerID returns the session host id.
func (w *Worker) ServerID() string {
	return w.serverID
}

// State returns the current lifecycle state.
func (w *Worker) State() SessionHostStatus {
	return w.state.State()
}

// MarkReady requests the StandingBy state.
func (w *Worker) MarkReady() bool {
	return w.state.MarkReady()
}

// WaitForActivation blocks on the activation gate. See StateMachine.WaitGate.
func (w *Worker) WaitForActivation(ctx context.Context, timeout time.Duration) (bool, error) {
	return w.state.WaitGate(ctx, timeout)
}

// Callbacks returns the host callback registry.
func (w *Worker) Callbacks() *Registry {
	return w.callbacks
}

// Settings returns the config settings store.
func (w *Worker) Settings() *SettingsStore {
	return w.settings
}
