package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	sdkerrors "github.com/vinayprograms/gsdk/errors"
)

// DefaultSettingsFile is the local tuning file looked up by hosts that do
// not pass an explicit path.
const DefaultSettingsFile = "gsdk.toml"

// LocalSettings holds host-side tuning that the agent does not control.
type LocalSettings struct {
	LogLevel  string            `toml:"log_level"`
	Telemetry TelemetrySettings `toml:"telemetry"`
	Metrics   MetricsSettings   `toml:"metrics"`
	Events    EventsSettings    `toml:"events"`
}

// TelemetrySettings configures OTLP trace export. Empty Endpoint disables it.
type TelemetrySettings struct {
	Endpoint     string  `toml:"endpoint"`
	Protocol     string  `toml:"protocol"`
	Insecure     bool    `toml:"insecure"`
	ServiceName  string  `toml:"service_name"`
	SampleRatio  float64 `toml:"sample_ratio"`
	DebugPlayers bool    `toml:"debug_players"`
}

// MetricsSettings configures the Prometheus listener. Empty Address disables it.
type MetricsSettings struct {
	Address string `toml:"address"`
}

// EventsSettings configures lifecycle event mirroring. Empty NATSURL disables it.
type EventsSettings struct {
	NATSURL       string `toml:"nats_url"`
	SubjectPrefix string `toml:"subject_prefix"`
}

// DefaultLocalSettings returns the settings used when no file exists.
func DefaultLocalSettings() LocalSettings {
	return LocalSettings{
		LogLevel: "info",
		Telemetry: TelemetrySettings{
			Protocol:    "grpc",
			ServiceName: "gsdk",
		},
		Events: EventsSettings{
			SubjectPrefix: "gsdk",
		},
	}
}

// LoadSettings decodes the TOML file at path over the defaults.
// A missing file is not an error.
func LoadSettings(path string) (LocalSettings, error) {
	settings := DefaultLocalSettings()
	if path == "" {
		return settings, nil
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return settings, nil
	}

	md, err := toml.DecodeFile(path, &settings)
	if err != nil {
		return DefaultLocalSettings(), sdkerrors.Configuration(
			fmt.Sprintf("parsing settings file %s", path),
			sdkerrors.WithCause(err),
		)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return DefaultLocalSettings(), sdkerrors.Configuration(
			fmt.Sprintf("unknown key %s in settings file %s", undecoded[0], path),
		)
	}

	return settings, nil
}
