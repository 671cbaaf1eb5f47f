package heartbeat

import (
	"sync"

	"github.com/google/uuid"
)

// Keys merged from the agent's session config.
const (
	SessionIDKey     = "sessionId"
	SessionCookieKey = "sessionCookie"
)

// SettingsStore is the config settings map shared between the worker and
// host goroutines. It only grows: merges add or overwrite keys, never remove.
type SettingsStore struct {
	mu             sync.RWMutex
	values         map[string]string
	initialPlayers []string
}

// NewSettingsStore creates a store seeded with a copy of seed.
func NewSettingsStore(seed map[string]string) *SettingsStore {
	values := make(map[string]string, len(seed))
	for k, v := range seed {
		values[k] = v
	}
	return &SettingsStore{values: values}
}

// Merge folds a session config into the store. Session ids that parse as
// UUIDs are stored in canonical form. The initial player list is replaced
// only by a non-empty list.
func (s *SettingsStore) Merge(sc *SessionConfig) {
	if sc == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if sc.SessionID != "" {
		id := sc.SessionID
		if parsed, err := uuid.Parse(id); err == nil {
			id = parsed.String()
		}
		s.values[SessionIDKey] = id
	}
	if sc.SessionCookie != "" {
		s.values[SessionCookieKey] = sc.SessionCookie
	}
	for k, v := range sc.Metadata {
		s.values[k] = v
	}
	if len(sc.InitialPlayers) > 0 {
		s.initialPlayers = append([]string(nil), sc.InitialPlayers...)
	}
}

// Get returns the value stored under key.
func (s *SettingsStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Snapshot returns a point-in-time copy of all settings.
func (s *SettingsStore) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// InitialPlayers returns a copy of the players the agent expects to join.
func (s *SettingsStore) InitialPlayers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string{}, s.initialPlayers...)
}
