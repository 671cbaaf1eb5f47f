// Package bus mirrors session lifecycle events onto a message bus.
//
// When a host opts in, the heartbeat worker publishes a JSON event for every
// state change, new maintenance time, maintenance schedule and fatal
// failure. Subjects follow:
//
//	<prefix>.<server-id>.state
//	<prefix>.<server-id>.maintenance
//	<prefix>.<server-id>.schedule
//	<prefix>.<server-id>.fatal
//
// so a fleet-side consumer can follow one host with "<prefix>.<id>.>" or
// every host with "<prefix>.*.state".
//
// # Available Implementations
//
//   - NATSPublisher: publish-only NATS client for production fleets
//   - MemoryBus: in-memory publisher with subscriptions, for tests and
//     single-process hosts
package bus
