// Package config loads the session host configuration written by the agent.
//
// The agent publishes its configuration either as a JSON file named by
// GSDK_CONFIG_FILE or, on older agents, as individual environment variables.
// Load resolves both and Validate checks the fields the heartbeat cannot run
// without. Settings produces the static seed for the SDK's config map.
//
// A separate, optional TOML file tunes local concerns that the agent does not
// control: log level, trace export, the metrics listener and event mirroring.
// See LoadSettings.
package config
