package config

import (
	"os"
	"path/filepath"
	"testing"

	sdkerrors "github.com/vinayprograms/gsdk/errors"
)

func TestLoadSettings_MissingFile(t *testing.T) {
	got, err := LoadSettings(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}
	if got != DefaultLocalSettings() {
		t.Errorf("LoadSettings() = %+v, want defaults", got)
	}
}

func TestLoadSettings_EmptyPath(t *testing.T) {
	got, err := LoadSettings("")
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}
	if got.Events.SubjectPrefix != "gsdk" {
		t.Errorf("SubjectPrefix = %q, want gsdk", got.Events.SubjectPrefix)
	}
}

func TestLoadSettings_File(t *testing.T) {
	content := `
log_level = "debug"

[telemetry]
endpoint = "localhost:4318"
protocol = "http"
insecure = true
sample_ratio = 0.1
debug_players = true

[metrics]
address = ":9090"

[events]
nats_url = "nats://localhost:4222"
`
	path := filepath.Join(t.TempDir(), "gsdk.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	got, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}

	if got.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", got.LogLevel)
	}
	if got.Telemetry.Endpoint != "localhost:4318" || got.Telemetry.Protocol != "http" || !got.Telemetry.Insecure {
		t.Errorf("Telemetry = %+v", got.Telemetry)
	}
	if got.Telemetry.SampleRatio != 0.1 || !got.Telemetry.DebugPlayers {
		t.Errorf("Telemetry sampling = %v, debug = %v", got.Telemetry.SampleRatio, got.Telemetry.DebugPlayers)
	}
	if got.Telemetry.ServiceName != "gsdk" {
		t.Errorf("ServiceName = %q, want default gsdk", got.Telemetry.ServiceName)
	}
	if got.Metrics.Address != ":9090" {
		t.Errorf("Metrics.Address = %q", got.Metrics.Address)
	}
	if got.Events.NATSURL != "nats://localhost:4222" || got.Events.SubjectPrefix != "gsdk" {
		t.Errorf("Events = %+v", got.Events)
	}
}

func TestLoadSettings_Invalid(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		content string
	}{
		{"syntax", "log_level = "},
		{"unknown key", "verbosity = 3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".toml")
			if err := os.WriteFile(path, []byte(tt.content), 0o600); err != nil {
				t.Fatal(err)
			}
			_, err := LoadSettings(path)
			if !sdkerrors.Is(err, sdkerrors.ErrCodeConfiguration) {
				t.Errorf("LoadSettings() error = %v, want CONFIGURATION", err)
			}
		})
	}
}
