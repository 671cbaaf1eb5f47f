// Package heartbeat keeps a game server session host synchronized with the
// agent that controls its lifecycle.
//
// # Overview
//
// A Worker periodically PATCHes the host's status to the agent and applies
// the reply: the next interval, session config, maintenance notices and an
// Operation. Operations drive the StateMachine:
//
//	continue                        no change
//	active                          -> Active, opens the activation gate
//	terminate                       -> Terminating, opens the gate, shutdown callback
//	getmanifest/quarantine/invalid  logged, no change
//
// # Architecture
//
//	┌────────────┐  PATCH /v1/sessionHosts/<id>  ┌─────────┐
//	│   Worker   │ ────────────────────────────> │  Agent  │
//	│            │ <──────────────────────────── │         │
//	└────────────┘   interval, operation, ...    └─────────┘
//	   │  │  │
//	   │  │  └── SettingsStore (config map, initial players)
//	   │  └───── Registry (shutdown, health, maintenance callbacks)
//	   └──────── StateMachine (state, early wake, activation gate)
//
// # Loop
//
// Each iteration waits for the interval or an early wake (any local state
// change), sends one heartbeat through RetryPolicy, and applies the reply.
// Wakes that pile up during a wait collapse into one early heartbeat. After
// a heartbeat that reported Terminating, one final Terminated heartbeat is
// sent and the loop exits.
//
// The first heartbeat happens inside NewWorker, so an unreachable agent is
// reported as an INITIALIZATION error before any lifecycle call is possible.
// A later exchange that exhausts its retries is fatal: Run invokes the
// shutdown callback and returns RETRY_EXHAUSTED.
//
// # Usage
//
//	w, err := heartbeat.NewWorker(ctx, heartbeat.Config{
//	    ServerID:  cfg.ServerID,
//	    Transport: heartbeat.NewHTTPTransport(heartbeat.HTTPConfig{Endpoint: cfg.HeartbeatEndpoint, ServerID: cfg.ServerID}),
//	    Settings:  cfg.Settings(),
//	})
//	go w.Run(ctx)
//	w.MarkReady()
//	active, err := w.WaitForActivation(ctx, 0)
//
// # Callbacks
//
// Callbacks run on the worker goroutine and must return quickly; a slow
// callback delays the next heartbeat.
package heartbeat
