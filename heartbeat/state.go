package heartbeat

import (
	"context"
	"sync"
	"time"

	sdkerrors "github.com/vinayprograms/gsdk/errors"
	"github.com/vinayprograms/gsdk/logging"
)

// Transition describes the effect of applying one Operation.
type Transition struct {
	Operation Operation
	From      SessionHostStatus
	To        SessionHostStatus

	// Changed is true if the held state moved.
	Changed bool

	// Shutdown is true the first time terminate is observed; the caller
	// owes the host its shutdown callback.
	Shutdown bool

	// Ignored is true for operations with no local effect.
	Ignored bool
}

// StateMachine holds the session host's lifecycle state, the early-wake
// signal for the worker and the one-shot activation gate.
//
// Once Terminating is reached the only further move is to Terminated.
type StateMachine struct {
	mu       sync.Mutex
	state    SessionHostStatus
	observer func(from, to SessionHostStatus)

	wake     chan struct{}
	gate     chan struct{}
	gateOnce sync.Once

	logger *logging.Logger
}

// NewStateMachine creates a state machine holding initial.
func NewStateMachine(initial SessionHostStatus, logger *logging.Logger) *StateMachine {
	if logger == nil {
		logger = logging.New()
	}
	return &StateMachine{
		state:  initial,
		wake:   make(chan struct{}, 1),
		gate:   make(chan struct{}),
		logger: logger.WithComponent("state"),
	}
}

// OnChange registers fn to run after every state change, outside the lock.
func (m *StateMachine) OnChange(fn func(from, to SessionHostStatus)) {
	m.mu.Lock()
	m.observer = fn
	m.mu.Unlock()
}

// State returns the current state.
func (m *StateMachine) State() SessionHostStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Set moves to s and signals the worker. Setting the held value is a no-op.
// Leaving Terminating or Terminated is refused, except Terminating to
// Terminated. Returns whether the state changed.
func (m *StateMachine) Set(s SessionHostStatus) bool {
	return m.setIf(s, func(SessionHostStatus) bool { return true })
}

// MarkReady moves to StandingBy unless the session is already Active or
// terminal. This is the only transition hosts may request.
func (m *StateMachine) MarkReady() bool {
	return m.setIf(StatusStandingBy, func(cur SessionHostStatus) bool {
		return cur != StatusActive
	})
}

func (m *StateMachine) setIf(s SessionHostStatus, allowed func(SessionHostStatus) bool) bool {
	m.mu.Lock()
	from := m.state
	if from == s || !allowed(from) || (from.IsTerminal() && !(from == StatusTerminating && s == StatusTerminated)) {
		m.mu.Unlock()
		return false
	}
	m.state = s
	observer := m.observer
	m.mu.Unlock()

	m.Wake()
	m.logger.StateTransition(string(from), string(s))
	if observer != nil {
		observer(from, s)
	}
	return true
}

// Apply interprets an agent operation.
func (m *StateMachine) Apply(op Operation) Transition {
	t := Transition{Operation: op, From: m.State()}

	switch op {
	case OperationContinue:
	case OperationActive:
		if m.Set(StatusActive) {
			t.Changed = true
			m.ReleaseGate()
		}
	case OperationTerminate:
		if m.Set(StatusTerminating) {
			t.Changed = true
			t.Shutdown = true
			m.ReleaseGate()
		}
	default:
		t.Ignored = true
		m.logger.OperationIgnored(string(op))
	}

	t.To = m.State()
	return t
}

// Wake signals the worker to heartbeat early. Signals sent while one is
// already pending are coalesced.
func (m *StateMachine) Wake() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// Wakeups returns the channel the worker waits on.
func (m *StateMachine) Wakeups() <-chan struct{} {
	return m.wake
}

// Drain discards a pending wake signal.
func (m *StateMachine) Drain() {
	for {
		select {
		case <-m.wake:
		default:
			return
		}
	}
}

// ReleaseGate opens the activation gate. Only the first call has an effect.
func (m *StateMachine) ReleaseGate() {
	m.gateOnce.Do(func() { close(m.gate) })
}

// GateReleased reports whether the activation gate has opened.
func (m *StateMachine) GateReleased() bool {
	select {
	case <-m.gate:
		return true
	default:
		return false
	}
}

// WaitGate blocks until the activation gate opens, ctx is done, or timeout
// elapses (timeout <= 0 waits without limit). It returns true if the session
// is Active when the gate opens. Cancellation of ctx yields an INTERRUPTED
// error; a timeout yields (false, nil).
func (m *StateMachine) WaitGate(ctx context.Context, timeout time.Duration) (bool, error) {
	if m.GateReleased() {
		return m.State() == StatusActive, nil
	}

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case <-m.gate:
		return m.State() == StatusActive, nil
	case <-ctx.Done():
		return false, sdkerrors.Interrupted(ctx.Err())
	case <-expired:
		return false, nil
	}
}
