package bus

import (
	"sync"
	"sync/atomic"
)

// MemoryBus is an in-process Publisher with subscriptions. Tests use it to
// observe mirrored events; single-process hosts can consume them directly.
type MemoryBus struct {
	config Config

	mu     sync.RWMutex
	subs   []*memorySub
	closed atomic.Bool
}

type memorySub struct {
	pattern string
	ch      chan *Message
	closed  atomic.Bool
	bus     *MemoryBus
}

var _ Publisher = (*MemoryBus)(nil)

// NewMemoryBus creates a new in-memory message bus.
func NewMemoryBus(cfg Config) *MemoryBus {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultConfig().BufferSize
	}

	return &MemoryBus{config: cfg}
}

// Publish sends a message to all matching subscribers. Subscribers whose
// buffer is full miss the message.
func (b *MemoryBus) Publish(subject string, data []byte) error {
	if err := ValidateSubject(subject); err != nil {
		return err
	}
	if b.closed.Load() {
		return ErrClosed
	}

	msg := &Message{
		Subject: subject,
		Data:    data,
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subs {
		if sub.closed.Load() || !Match(sub.pattern, subject) {
			continue
		}
		select {
		case sub.ch <- msg:
		default:
			// Buffer full, drop message
		}
	}

	return nil
}

// Subscribe creates a subscription to a subject pattern. The pattern may use
// NATS wildcards: "*" matches one token, a trailing ">" matches the rest.
func (b *MemoryBus) Subscribe(subject string) (Subscription, error) {
	if err := ValidateSubject(subject); err != nil {
		return nil, err
	}
	if b.closed.Load() {
		return nil, ErrClosed
	}

	sub := &memorySub{
		pattern: subject,
		ch:      make(chan *Message, b.config.BufferSize),
		bus:     b,
	}

	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()

	return sub, nil
}

// Close shuts down the bus and closes every subscription channel.
func (b *MemoryBus) Close() error {
	if b.closed.Swap(true) {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, sub := range b.subs {
		if !sub.closed.Swap(true) {
			close(sub.ch)
		}
	}
	b.subs = nil

	return nil
}

// Messages returns the message channel.
func (s *memorySub) Messages() <-chan *Message {
	return s.ch
}

// Unsubscribe cancels the subscription.
func (s *memorySub) Unsubscribe() error {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()

	if s.closed.Swap(true) {
		return nil
	}

	for i, sub := range s.bus.subs {
		if sub == s {
			s.bus.subs = append(s.bus.subs[:i], s.bus.subs[i+1:]...)
			break
		}
	}

	close(s.ch)
	return nil
}
