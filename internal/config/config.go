package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Log      LogConfig      `yaml:"log"`
	Flux     FluxConfig     `yaml:"flux"`
	Geo      GeoConfig      `yaml:"geo"`
	Database DatabaseConfig `yaml:"database"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Status   StatusConfig   `yaml:"status"`

	// Source is the file the configuration was read from, empty for defaults.
	Source string `yaml:"-"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`
	JSON   bool   `yaml:"json"`
	Colors bool   `yaml:"colors"`
}

// FluxConfig contains the day/night transition settings
type FluxConfig struct {
	MinTemp        int      `yaml:"min_temp"`
	MaxTemp        int      `yaml:"max_temp"`
	Brightness     float64  `yaml:"brightness"`
	Morning        string   `yaml:"morning"` // "HH:MM" or "@sunrise + 30m"
	Night          string   `yaml:"night"`
	ReevalInterval Duration `yaml:"reeval_interval"` // Sleep between schedule re-checks
	StepInterval   Duration `yaml:"step_interval"`   // Sleep between temperature steps
	StepDistance   int      `yaml:"step_distance"`   // Kelvin per step
	Script         string   `yaml:"script"`          // Optional Lua target policy
}

// GeoConfig contains the location used for astronomical boundaries
type GeoConfig struct {
	Lat      float64 `yaml:"lat,omitempty"`
	Lon      float64 `yaml:"lon,omitempty"`
	Timezone string  `yaml:"timezone"`
}

// IsEnabled returns true if coordinates are configured
func (g GeoConfig) IsEnabled() bool {
	return g.Lat != 0 || g.Lon != 0
}

// Location loads the configured timezone
func (g GeoConfig) Location() (*time.Location, error) {
	if g.Timezone == "" || strings.EqualFold(g.Timezone, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(g.Timezone)
}

// DatabaseConfig contains history database settings
type DatabaseConfig struct {
	Path              string   `yaml:"path"`               // Empty disables history
	RetentionPeriod   Duration `yaml:"retention_period"`   // Entries older than this are deleted
	RetentionInterval Duration `yaml:"retention_interval"` // How often cleanup runs during flux
}

// IsEnabled returns true if a database path is configured
func (d DatabaseConfig) IsEnabled() bool {
	return d.Path != ""
}

// MQTTConfig contains status publishing settings
type MQTTConfig struct {
	Broker   string   `yaml:"broker"` // Empty disables publishing
	Topic    string   `yaml:"topic"`
	ClientID string   `yaml:"client_id"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	QoS      int      `yaml:"qos"`
	Retain   bool     `yaml:"retain"`
	Timeout  Duration `yaml:"timeout"`
}

// IsEnabled returns true if a broker is configured
func (m MQTTConfig) IsEnabled() bool {
	return m.Broker != ""
}

// StatusConfig contains the flux status HTTP endpoint settings
type StatusConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

// GetHost returns the listen host, defaulting to loopback
func (s StatusConfig) GetHost() string {
	if s.Host == "" {
		return "127.0.0.1"
	}
	return s.Host
}

// GetPort returns the listen port
func (s StatusConfig) GetPort() int {
	if s.Port == 0 {
		return 8765
	}
	return s.Port
}

// Duration is a wrapper around time.Duration for YAML unmarshalling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Colors: true,
		},
		Flux: FluxConfig{
			MinTemp:        3500,
			MaxTemp:        6000,
			Brightness:     1.0,
			Morning:        "10:00",
			Night:          "22:00",
			ReevalInterval: Duration(10 * time.Second),
			StepInterval:   Duration(50 * time.Millisecond),
			StepDistance:   1,
		},
		Geo: GeoConfig{
			Timezone: "Local",
		},
		Database: DatabaseConfig{
			RetentionPeriod:   Duration(30 * 24 * time.Hour),
			RetentionInterval: Duration(time.Hour),
		},
		MQTT: MQTTConfig{
			Topic:   "gammad/state",
			Retain:  true,
			Timeout: Duration(5 * time.Second),
		},
	}
}

// DefaultPath returns $HOME/.config/gammad/config.yaml
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "gammad", "config.yaml"), nil
}

// LegacyPath returns $HOME/.config/xsctcf/xsctcf.conf
func LegacyPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "xsctcf", "xsctcf.conf"), nil
}

// Load reads the configuration. An empty path tries the default YAML path,
// then the legacy KEY=VALUE path. Missing or unparseable files fall back to
// the built-in defaults; they are never fatal.
func Load(path string) *Config {
	if path != "" {
		return loadFile(path)
	}

	for _, candidate := range []func() (string, error){DefaultPath, LegacyPath} {
		p, err := candidate()
		if err != nil {
			log.Debug().Err(err).Msg("Cannot resolve home directory for configuration")
			break
		}
		if _, err := os.Stat(p); err == nil {
			return loadFile(p)
		}
	}

	log.Debug().Msg("No configuration file found, using defaults")
	return Default()
}

func loadFile(path string) *Config {
	if strings.HasSuffix(path, ".conf") {
		cfg, err := LoadLegacy(path)
		if err != nil {
			logFallback(path, err)
			return Default()
		}
		return cfg
	}

	cfg, err := LoadYAML(path)
	if err != nil {
		logFallback(path, err)
		return Default()
	}
	return cfg
}

func logFallback(path string, err error) {
	if errors.Is(err, fs.ErrNotExist) {
		log.Debug().Str("path", path).Msg("Configuration file not found, using defaults")
		return
	}
	log.Warn().Err(err).Str("path", path).Msg("Failed to load configuration, using defaults")
}

// LoadYAML reads and parses a YAML configuration file on top of the defaults
func LoadYAML(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	expanded := expandEnvVars(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}
	cfg.Source = path

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.MQTT.Topic == "" {
		cfg.MQTT.Topic = "gammad/state"
	}

	return cfg, nil
}

// expandEnvVars expands environment variables in the format ${VAR} or ${VAR:default}
func expandEnvVars(input string) string {
	re := regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

	return re.ReplaceAllStringFunc(input, func(match string) string {
		parts := re.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := parts[1]
		defaultVal := ""
		if len(parts) >= 3 {
			defaultVal = parts[2]
		}

		if val := os.Getenv(varName); val != "" {
			return val
		}
		return defaultVal
	})
}
