package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for deck-core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Deck     DeckConfig     `yaml:"deck"`
	Device   DeviceConfig   `yaml:"device"`
	Render   RenderConfig   `yaml:"render"`
	Sync     SyncConfig     `yaml:"sync"`
	Dispatch DispatchConfig `yaml:"dispatch"`
	Database DatabaseConfig `yaml:"database"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DeckConfig contains deck-wide identity settings.
type DeckConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// DeviceConfig describes the expected button-panel geometry.
// A connected device reports its own geometry; these values size the
// config store and the emulated handle when no hardware is attached.
type DeviceConfig struct {
	// KeyCount is the number of physical keys on the panel.
	KeyCount int `yaml:"key_count"`

	// Columns and Rows describe the key grid layout.
	Columns int `yaml:"columns"`
	Rows    int `yaml:"rows"`

	// KeyPixels is the side length of one key face in pixels (keys are square).
	KeyPixels int `yaml:"key_pixels"`

	// Emulated runs against an in-memory device handle instead of hardware.
	Emulated bool `yaml:"emulated"`
}

// RenderConfig contains button face rendering settings.
type RenderConfig struct {
	// CacheEntries caps the number of cached rendered bitmaps (LRU eviction).
	CacheEntries int `yaml:"cache_entries"`

	// IconDir is an optional directory of PNG icons referenced by buttons.
	IconDir string `yaml:"icon_dir"`
}

// SyncConfig contains device synchronizer timing settings.
type SyncConfig struct {
	// HeartbeatInterval is how often a sync tick runs with no edits (seconds).
	HeartbeatInterval int `yaml:"heartbeat_interval"`

	// PollTimeout is the key event poll timeout (milliseconds).
	PollTimeout int `yaml:"poll_timeout"`

	// Reconnect controls the backoff schedule after device I/O failures.
	Reconnect ReconnectConfig `yaml:"reconnect"`
}

// ReconnectConfig contains device reconnection backoff settings.
type ReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// DispatchConfig contains action dispatch settings.
type DispatchConfig struct {
	// Timeout bounds a single plugin execution (seconds).
	Timeout int `yaml:"timeout"`

	// QueueSize bounds the press event queue between the synchronizer
	// and the dispatcher.
	QueueSize int `yaml:"queue_size"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings for the
// state-change notification channel.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// InfluxDBConfig contains InfluxDB connection settings for press and
// connectivity history.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: DECKD_SECTION_KEY
// For example: DECKD_DATABASE_PATH, DECKD_MQTT_HOST
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
// The device defaults match the 3x2 six-key panels the project targets;
// larger panels override them in config.yaml or report geometry at open.
func defaultConfig() *Config {
	return &Config{
		Deck: DeckConfig{
			ID:   "deck-001",
			Name: "deck-core",
		},
		Device: DeviceConfig{
			KeyCount:  6,
			Columns:   3,
			Rows:      2,
			KeyPixels: 72,
		},
		Render: RenderConfig{
			CacheEntries: 256,
		},
		Sync: SyncConfig{
			HeartbeatInterval: 30,
			PollTimeout:       50,
			Reconnect: ReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     30,
			},
		},
		Dispatch: DispatchConfig{
			Timeout:   10,
			QueueSize: 32,
		},
		Database: DatabaseConfig{
			Path:        "./data/deckd.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "deckd",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: DECKD_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Database
	if v := os.Getenv("DECKD_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("DECKD_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("DECKD_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("DECKD_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("DECKD_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Deck.ID == "" {
		errs = append(errs, "deck.id is required")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.Device.KeyCount < 1 {
		errs = append(errs, "device.key_count must be at least 1")
	}
	if c.Device.Columns*c.Device.Rows != c.Device.KeyCount {
		errs = append(errs, "device.columns * device.rows must equal device.key_count")
	}
	if c.Device.KeyPixels < 16 {
		errs = append(errs, "device.key_pixels must be at least 16")
	}

	if c.Render.CacheEntries < 1 {
		errs = append(errs, "render.cache_entries must be at least 1")
	}

	if c.Sync.HeartbeatInterval < 1 {
		errs = append(errs, "sync.heartbeat_interval must be at least 1 second")
	}
	if c.Sync.PollTimeout < 1 {
		errs = append(errs, "sync.poll_timeout must be at least 1 millisecond")
	}

	if c.Dispatch.Timeout < 1 {
		errs = append(errs, "dispatch.timeout must be at least 1 second")
	}
	if c.Dispatch.QueueSize < 1 {
		errs = append(errs, "dispatch.queue_size must be at least 1")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetHeartbeatInterval returns the sync heartbeat interval as a Duration.
func (c *Config) GetHeartbeatInterval() time.Duration {
	return time.Duration(c.Sync.HeartbeatInterval) * time.Second
}

// GetPollTimeout returns the key event poll timeout as a Duration.
func (c *Config) GetPollTimeout() time.Duration {
	return time.Duration(c.Sync.PollTimeout) * time.Millisecond
}

// GetDispatchTimeout returns the plugin execution timeout as a Duration.
func (c *Config) GetDispatchTimeout() time.Duration {
	return time.Duration(c.Dispatch.Timeout) * time.Second
}
