// Package shutdown coordinates process teardown for a game server.
//
// Handlers register in numbered phases; lower phases run first and
// handlers sharing a phase run concurrently. A Coordinator runs at most
// once, whether started by a signal, by Shutdown, or by Fatal.
//
// The SDK registers its own components in the phases declared here:
//
//	PhaseGame (10)      host teardown
//	PhaseHeartbeat (20) stop the heartbeat worker
//	PhaseEvents (30)    close the lifecycle event bus
//	PhaseTelemetry (40) flush spans, stop the metrics listener
//
// Fatal is the SDK's default reaction to a heartbeat loop that can no
// longer reach the agent: it runs the shutdown and exits with status 1.
//
//	coord := shutdown.NewCoordinator(shutdown.DefaultConfig())
//	coord.HandleSignals()
//	coord.RegisterFuncWithPhase("match", stopMatch, shutdown.PhaseGame)
//	<-coord.Done()
package shutdown
