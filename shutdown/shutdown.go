package shutdown

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/vinayprograms/gsdk/logging"
)

// Common errors.
var (
	// ErrAlreadyShutdown indicates shutdown was already initiated.
	ErrAlreadyShutdown = errors.New("shutdown already initiated")

	// ErrTimeout indicates shutdown did not complete within the timeout.
	ErrTimeout = errors.New("shutdown timeout exceeded")

	// ErrHandlerFailed indicates one or more handlers failed during shutdown.
	ErrHandlerFailed = errors.New("one or more handlers failed")
)

// Phases used by the SDK. Lower phases run first.
const (
	// PhaseGame is for the host's own teardown (stop matches, flush saves).
	PhaseGame = 10

	// PhaseHeartbeat stops the heartbeat worker.
	PhaseHeartbeat = 20

	// PhaseEvents drains and closes the lifecycle event bus.
	PhaseEvents = 30

	// PhaseTelemetry flushes spans and stops the metrics listener.
	PhaseTelemetry = 40
)

// Handler is implemented by components that need graceful shutdown.
type Handler interface {
	// OnShutdown releases the component's resources. ctx is cancelled when
	// the shutdown timeout is reached.
	OnShutdown(ctx context.Context) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context) error

// OnShutdown implements Handler.
func (f HandlerFunc) OnShutdown(ctx context.Context) error {
	return f(ctx)
}

// HandlerResult is the outcome of one handler.
type HandlerResult struct {
	Name     string
	Phase    int
	Duration time.Duration
	Err      error
}

// Result is the outcome of a complete shutdown.
type Result struct {
	TotalDuration time.Duration
	Results       []HandlerResult

	// Err is nil if all handlers succeeded.
	Err error
}

// Failed returns true if any handler failed.
func (r *Result) Failed() bool {
	return r.Err != nil
}

// FailedHandlers returns the names of handlers that failed.
func (r *Result) FailedHandlers() []string {
	var failed []string
	for _, hr := range r.Results {
		if hr.Err != nil {
			failed = append(failed, hr.Name)
		}
	}
	return failed
}

// Config configures the shutdown coordinator.
type Config struct {
	// Timeout bounds a shutdown started by a signal or by Fatal.
	// Default: 10 seconds
	Timeout time.Duration

	// DefaultPhase is assigned to handlers registered without a phase.
	// Default: PhaseGame
	DefaultPhase int

	// StopOnError aborts the remaining phases after a handler fails.
	StopOnError bool

	// Exit terminates the process after Fatal.
	// Default: os.Exit
	Exit func(code int)

	// Logger receives shutdown progress.
	// Default: stdout logger
	Logger *logging.Logger
}

// DefaultConfig returns the configuration used by the SDK.
func DefaultConfig() Config {
	return Config{
		Timeout:      10 * time.Second,
		DefaultPhase: PhaseGame,
		Exit:         os.Exit,
	}
}

type registration struct {
	name    string
	handler Handler
	phase   int
}
