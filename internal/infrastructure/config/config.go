package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Warehouse store backend names accepted in warehouse.store.
const (
	StoreIoTDB    = "iotdb"
	StoreInfluxDB = "influxdb"
)

// IoTDB backend schema versions. Identifier quoting differs between them,
// so the value is threaded through the path codec rather than compared at
// call sites.
const (
	IoTDBVersionV013 = "v0.13"
	IoTDBVersionV10  = "v1.0"
)

// Config is the root configuration structure for Ferrite Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Site      SiteConfig      `yaml:"site"`
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	API       APIConfig       `yaml:"api"`
	Warehouse WarehouseConfig `yaml:"warehouse"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// SiteConfig contains deployment-specific information.
type SiteConfig struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Timezone string `yaml:"timezone"`
}

// DatabaseConfig contains SQLite database settings for the monitor registry.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings for snapshot ingestion.
type MQTTConfig struct {
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

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings (seconds).
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// WarehouseConfig selects and configures the history store backend.
type WarehouseConfig struct {
	// Store names the active backend: "iotdb" or "influxdb".
	Store    string         `yaml:"store"`
	IoTDB    IoTDBConfig    `yaml:"iotdb"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
}

// IoTDBConfig contains Apache IoTDB connection settings.
type IoTDBConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// NodeURLs lists cluster endpoints ("host:port"). When set, the first
	// reachable endpoint is used and Host/Port are ignored.
	NodeURLs []string `yaml:"node_urls"`

	// ZoneID is the session timezone (e.g., "Asia/Shanghai").
	ZoneID string `yaml:"zone_id"`

	// Version is the backend schema version tag: "v0.13" or "v1.0".
	Version string `yaml:"version"`

	// QueryTimeout bounds history query execution in milliseconds.
	// Non-positive values fall back to the pool's own default.
	QueryTimeout int64 `yaml:"query_timeout"`

	// ExpireTime is the retention TTL in backend-native form (milliseconds,
	// e.g., "7776000000"), or "-1" to cancel any existing TTL. Empty leaves
	// retention untouched.
	ExpireTime string `yaml:"expire_time"`
}

// InfluxDBConfig contains InfluxDB v2 connection settings.
type InfluxDBConfig struct {
	Enabled      bool   `yaml:"enabled"`
	URL          string `yaml:"url"`
	Token        string `yaml:"token"`
	Org          string `yaml:"org"`
	Bucket       string `yaml:"bucket"`
	QueryTimeout int64  `yaml:"query_timeout"`
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
// Environment variables follow the pattern: FERRITE_SECTION_KEY
// For example: FERRITE_DATABASE_PATH, FERRITE_IOTDB_PASSWORD
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			ID:       "site-001",
			Name:     "Ferrite",
			Timezone: "UTC",
		},
		Database: DatabaseConfig{
			Path:        "./data/ferrite.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "ferrite-core",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		Warehouse: WarehouseConfig{
			Store: StoreIoTDB,
			IoTDB: IoTDBConfig{
				Host:         "localhost",
				Port:         18080,
				Username:     "root",
				Password:     "root",
				Version:      IoTDBVersionV10,
				QueryTimeout: 0,
			},
			InfluxDB: InfluxDBConfig{
				URL:    "http://localhost:8086",
				Org:    "ferrite",
				Bucket: "metrics",
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
// Environment variables follow the pattern: FERRITE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Database
	if v := os.Getenv("FERRITE_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("FERRITE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("FERRITE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("FERRITE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// API
	if v := os.Getenv("FERRITE_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("FERRITE_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = port
		}
	}

	// Warehouse credentials (never commit these to config files)
	if v := os.Getenv("FERRITE_IOTDB_HOST"); v != "" {
		cfg.Warehouse.IoTDB.Host = v
	}
	if v := os.Getenv("FERRITE_IOTDB_USERNAME"); v != "" {
		cfg.Warehouse.IoTDB.Username = v
	}
	if v := os.Getenv("FERRITE_IOTDB_PASSWORD"); v != "" {
		cfg.Warehouse.IoTDB.Password = v
	}
	if v := os.Getenv("FERRITE_INFLUXDB_TOKEN"); v != "" {
		cfg.Warehouse.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Site.ID == "" {
		errs = append(errs, "site.id is required")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	switch c.Warehouse.Store {
	case StoreIoTDB, StoreInfluxDB:
	default:
		errs = append(errs, fmt.Sprintf("warehouse.store must be %q or %q", StoreIoTDB, StoreInfluxDB))
	}

	switch c.Warehouse.IoTDB.Version {
	case IoTDBVersionV013, IoTDBVersionV10:
	default:
		errs = append(errs, fmt.Sprintf("warehouse.iotdb.version must be %q or %q", IoTDBVersionV013, IoTDBVersionV10))
	}

	if zone := c.Warehouse.IoTDB.ZoneID; zone != "" {
		if _, err := time.LoadLocation(zone); err != nil {
			errs = append(errs, fmt.Sprintf("warehouse.iotdb.zone_id %q is not a valid timezone", zone))
		}
	}

	if c.Warehouse.Store == StoreInfluxDB && c.Warehouse.InfluxDB.Enabled && c.Warehouse.InfluxDB.Token == "" {
		errs = append(errs, "warehouse.influxdb.token is required (set FERRITE_INFLUXDB_TOKEN environment variable)")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c APIConfig) GetReadTimeout() time.Duration {
	return time.Duration(c.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c APIConfig) GetWriteTimeout() time.Duration {
	return time.Duration(c.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c APIConfig) GetIdleTimeout() time.Duration {
	return time.Duration(c.Timeouts.Idle) * time.Second
}
