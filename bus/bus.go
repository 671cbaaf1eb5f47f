package bus

import (
	"errors"
	"strings"
)

// Common errors.
var (
	ErrClosed         = errors.New("bus closed")
	ErrInvalidSubject = errors.New("invalid subject")
)

// Message represents a message received from the bus.
type Message struct {
	// Subject the message was published to.
	Subject string

	// Data is the message payload.
	Data []byte
}

// Publisher sends lifecycle events. NATSPublisher and MemoryBus implement it.
type Publisher interface {
	// Publish sends a message to all subscribers of a subject.
	Publish(subject string, data []byte) error
}

// Subscription is an active MemoryBus subscription.
type Subscription interface {
	// Messages returns the channel for incoming messages.
	// Channel is closed when subscription ends.
	Messages() <-chan *Message

	// Unsubscribe cancels the subscription.
	Unsubscribe() error
}

// Config holds MemoryBus configuration.
type Config struct {
	// BufferSize for subscription channels.
	// Default: 256
	BufferSize int
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BufferSize: 256,
	}
}

// ValidateSubject checks that subject is non-empty, has no whitespace and
// no empty tokens.
func ValidateSubject(subject string) error {
	if subject == "" || strings.ContainsAny(subject, " \t\r\n") {
		return ErrInvalidSubject
	}
	for _, tok := range strings.Split(subject, ".") {
		if tok == "" {
			return ErrInvalidSubject
		}
	}
	return nil
}

// Match reports whether subject matches pattern under NATS wildcard rules.
func Match(pattern, subject string) bool {
	pt := strings.Split(pattern, ".")
	st := strings.Split(subject, ".")

	for i, p := range pt {
		if p == ">" {
			return i == len(pt)-1 && len(st) > i
		}
		if i >= len(st) {
			return false
		}
		if p != "*" && p != st[i] {
			return false
		}
	}
	return len(pt) == len(st)
}

// LifecycleSubject builds "<prefix>.<serverID>.<kind>".
func LifecycleSubject(prefix, serverID, kind string) string {
	return prefix + "." + serverID + "." + kind
}
