// Package gsdk connects a game server to the agent that manages its
// lifecycle on a shared host.
//
// Start sends a first heartbeat and fails fast if the agent cannot be
// reached. After that a background loop reports state, players and health,
// and applies the agent's operations:
//
//	sdk, err := gsdk.StartFromEnvironment(ctx, gsdk.Options{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	sdk.RegisterShutdownCallback(stopMatch)
//	sdk.RegisterHealthCallback(func() gsdk.Health { return gsdk.Healthy })
//
//	active, err := sdk.ReadyForPlayers(ctx)
//	if err != nil || !active {
//	    return
//	}
//	sdk.UpdateConnectedPlayers([]gsdk.ConnectedPlayer{{PlayerID: "p1"}})
//
// If the loop loses the agent for a full retry budget the shutdown
// callback runs and, unless Options.OnFatal says otherwise, the process
// exits with status 1. Done and Err report how the loop ended.
//
// The heavy lifting lives in package heartbeat; config, logging, metrics,
// telemetry and bus provide the surrounding stack.
package gsdk
