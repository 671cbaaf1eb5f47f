package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	sdkerrors "github.com/vinayprograms/gsdk/errors"
)

// Environment variables read by Load.
const (
	EnvConfigFile        = "GSDK_CONFIG_FILE"
	EnvHeartbeatEndpoint = "HEARTBEAT_ENDPOINT"
	EnvSessionHostID     = "SESSION_HOST_ID"
	EnvLogFolder         = "GSDK_LOG_FOLDER"
	EnvTitleID           = "PF_TITLE_ID"
	EnvBuildID           = "PF_BUILD_ID"
	EnvRegion            = "PF_REGION"
)

// Keys of the static entries in the config settings map.
const (
	HeartbeatEndpointKey        = "heartbeatEndpoint"
	ServerIDKey                 = "serverId"
	VMIDKey                     = "vmId"
	LogFolderKey                = "logFolder"
	SharedContentFolderKey      = "sharedContentFolder"
	CertificateFolderKey        = "certificateFolder"
	TitleIDKey                  = "titleId"
	BuildIDKey                  = "buildId"
	RegionKey                   = "region"
	PublicIPv4AddressKey        = "publicIpV4Address"
	FullyQualifiedDomainNameKey = "fullyQualifiedDomainName"
)

// GamePort describes one port mapping exposed to clients.
type GamePort struct {
	Name                 string `json:"name"`
	ServerListeningPort  int    `json:"serverListeningPort"`
	ClientConnectionPort int    `json:"clientConnectionPort"`
}

// PortMap maps a port name to its number. Agents write the numbers either
// as JSON strings or as JSON numbers; both decode to the decimal string.
type PortMap map[string]string

// UnmarshalJSON implements json.Unmarshaler.
func (p *PortMap) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*p = nil
		return nil
	}

	out := make(PortMap, len(raw))
	for name, value := range raw {
		var s string
		if err := json.Unmarshal(value, &s); err == nil {
			out[name] = s
			continue
		}
		var n json.Number
		if err := json.Unmarshal(value, &n); err != nil {
			return fmt.Errorf("game port %q: %w", name, err)
		}
		out[name] = n.String()
	}
	*p = out
	return nil
}

// ConnectionInfo is the public address and port mapping of the host.
// The agent spells the address key "publicIpV4Adress".
type ConnectionInfo struct {
	PublicIPv4Address string     `json:"publicIpV4Adress"`
	GamePorts         []GamePort `json:"gamePortsConfiguration"`
}

// Config is the agent-provided session host configuration.
type Config struct {
	HeartbeatEndpoint        string            `json:"heartbeatEndpoint"`
	ServerID                 string            `json:"sessionHostId"`
	VMID                     string            `json:"vmId"`
	LogFolder                string            `json:"logFolder"`
	SharedContentFolder      string            `json:"sharedContentFolder"`
	CertificateFolder        string            `json:"certificateFolder"`
	GameCertificates         map[string]string `json:"gameCertificates"`
	BuildMetadata            map[string]string `json:"buildMetadata"`
	GamePorts                PortMap           `json:"gamePorts"`
	PublicIPv4Address        string            `json:"publicIpV4Address"`
	FullyQualifiedDomainName string            `json:"fullyQualifiedDomainName"`
	ConnectionInfo           *ConnectionInfo   `json:"gameServerConnectionInfo"`

	// Not part of the agent JSON; always read from the environment.
	TitleID string `json:"-"`
	BuildID string `json:"-"`
	Region  string `json:"-"`
}

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	return LoadFromEnv(os.Getenv)
}

// LoadFromEnv reads the configuration using getenv for every lookup.
// If GSDK_CONFIG_FILE is set the JSON file it names is decoded, otherwise the
// legacy per-field variables are used. The result is not validated.
func LoadFromEnv(getenv func(string) string) (*Config, error) {
	var cfg *Config
	if path := getenv(EnvConfigFile); path != "" {
		var err error
		cfg, err = LoadFile(path)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = &Config{
			HeartbeatEndpoint: getenv(EnvHeartbeatEndpoint),
			ServerID:          getenv(EnvSessionHostID),
			LogFolder:         getenv(EnvLogFolder),
		}
	}

	cfg.TitleID = getenv(EnvTitleID)
	cfg.BuildID = getenv(EnvBuildID)
	cfg.Region = getenv(EnvRegion)
	return cfg, nil
}

// LoadFile decodes an agent JSON configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, sdkerrors.Configuration(
			fmt.Sprintf("reading config file %s", path),
			sdkerrors.WithCause(err),
			sdkerrors.WithMetadata("path", path),
		)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, sdkerrors.Configuration(
			fmt.Sprintf("parsing config file %s", path),
			sdkerrors.WithCause(err),
			sdkerrors.WithMetadata("path", path),
		)
	}
	return &cfg, nil
}

// Validate checks that the heartbeat endpoint and server id are present.
// Blank values count as missing; every missing field is named in the error.
func (c *Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.HeartbeatEndpoint) == "" {
		missing = append(missing, "heartbeat endpoint")
	}
	if strings.TrimSpace(c.ServerID) == "" {
		missing = append(missing, "server id")
	}
	if len(missing) == 0 {
		return nil
	}
	return sdkerrors.Configuration(
		"missing required configuration: "+strings.Join(missing, ", "),
		sdkerrors.WithMetadata("missing", strings.Join(missing, ",")),
	)
}

// Settings returns the static seed of the config settings map.
// Certificate, build metadata and game port entries are added under their
// own names and never overwrite the fixed keys.
func (c *Config) Settings() map[string]string {
	settings := make(map[string]string, 16+len(c.GameCertificates)+len(c.BuildMetadata)+len(c.GamePorts))

	for k, v := range c.GameCertificates {
		settings[k] = v
	}
	for k, v := range c.BuildMetadata {
		settings[k] = v
	}
	for k, v := range c.GamePorts {
		settings[k] = v
	}

	settings[HeartbeatEndpointKey] = c.HeartbeatEndpoint
	settings[ServerIDKey] = c.ServerID
	settings[VMIDKey] = c.VMID
	settings[LogFolderKey] = c.LogFolder
	settings[SharedContentFolderKey] = c.SharedContentFolder
	settings[CertificateFolderKey] = c.CertificateFolder
	settings[TitleIDKey] = c.TitleID
	settings[BuildIDKey] = c.BuildID
	settings[RegionKey] = c.Region
	settings[PublicIPv4AddressKey] = c.PublicIPv4Address
	settings[FullyQualifiedDomainNameKey] = c.FullyQualifiedDomainName

	return settings
}
