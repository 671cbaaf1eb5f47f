package heartbeat

import (
	"sync"
	"time"
)

// Registry holds at most one host callback per kind. Registering replaces
// the previous callback and nil deregisters. Callbacks run on the worker
// goroutine and must return quickly.
type Registry struct {
	mu          sync.RWMutex
	shutdown    func()
	health      func() Health
	maintenance func(time.Time)
	schedule    func(MaintenanceSchedule)

	// last maintenance time delivered to the maintenance callback
	lastMaintenance *time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// RegisterShutdown sets the callback run when the agent terminates the session.
func (r *Registry) RegisterShutdown(fn func()) {
	r.mu.Lock()
	r.shutdown = fn
	r.mu.Unlock()
}

// RegisterHealth sets the callback queried once per outgoing heartbeat.
func (r *Registry) RegisterHealth(fn func() Health) {
	r.mu.Lock()
	r.health = fn
	r.mu.Unlock()
}

// RegisterMaintenance sets the callback for the next scheduled maintenance time.
func (r *Registry) RegisterMaintenance(fn func(time.Time)) {
	r.mu.Lock()
	r.maintenance = fn
	r.mu.Unlock()
}

// RegisterMaintenanceSchedule sets the callback for full maintenance schedules.
func (r *Registry) RegisterMaintenanceSchedule(fn func(MaintenanceSchedule)) {
	r.mu.Lock()
	r.schedule = fn
	r.mu.Unlock()
}

// Shutdown runs the shutdown callback, if any, and reports whether it ran.
func (r *Registry) Shutdown() bool {
	r.mu.RLock()
	fn := r.shutdown
	r.mu.RUnlock()

	if fn == nil {
		return false
	}
	fn()
	return true
}

// Health queries the health callback. ok is false when none is registered.
func (r *Registry) Health() (h Health, ok bool) {
	r.mu.RLock()
	fn := r.health
	r.mu.RUnlock()

	if fn == nil {
		return "", false
	}
	return fn(), true
}

// Maintenance delivers t unless it equals the last delivered value.
// Reports whether the callback ran.
func (r *Registry) Maintenance(t time.Time) bool {
	r.mu.Lock()
	fn := r.maintenance
	if fn == nil || (r.lastMaintenance != nil && r.lastMaintenance.Equal(t)) {
		r.mu.Unlock()
		return false
	}
	delivered := t
	r.lastMaintenance = &delivered
	r.mu.Unlock()

	fn(t)
	return true
}

// MaintenanceSchedule delivers s on every call.
func (r *Registry) MaintenanceSchedule(s MaintenanceSchedule) bool {
	r.mu.RLock()
	fn := r.schedule
	r.mu.RUnlock()

	if fn == nil {
		return false
	}
	fn(s)
	return true
}
