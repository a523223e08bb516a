// Package config provides Viper-based configuration loading for the tic-tac-toe server.
package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. TICTACTOE_WEBSOCKET_PORT.
const EnvPrefix = "TICTACTOE"

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// WebSocketConfig holds the WebSocket listener settings.
type WebSocketConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	// Path is the URL path upgraded to a WebSocket.
	Path string `mapstructure:"path"`
	// AllowedOrigins lists accepted Origin headers. Empty or "*" accepts any.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	// SendBuffer is the number of outbound events queued per connection
	// before the connection is dropped as too slow.
	SendBuffer int `mapstructure:"send_buffer"`
	// MaxMessageSize caps inbound frame size in bytes.
	MaxMessageSize int64         `mapstructure:"max_message_size"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	// PongTimeout is how long a connection may stay silent before it is
	// considered dead. Pings are sent at 9/10 of this period.
	PongTimeout time.Duration `mapstructure:"pong_timeout"`
}

// Addr returns the "host:port" listen address.
func (w WebSocketConfig) Addr() string {
	return net.JoinHostPort(w.Host, strconv.Itoa(w.Port))
}

// TelnetConfig holds Telnet acceptor settings.
type TelnetConfig struct {
	// Enabled starts the text client listener.
	Enabled bool `mapstructure:"enabled"`
	// Host is the bind address for the Telnet listener.
	Host string `mapstructure:"host"`
	// Port is the TCP port for the Telnet listener.
	Port int `mapstructure:"port"`
	// ReadTimeout is the per-read timeout for Telnet connections.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the per-write timeout for Telnet connections.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Addr returns the "host:port" listen address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (t TelnetConfig) Addr() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
}

// HealthConfig holds the gRPC health service settings.
type HealthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
}

// Addr returns the "host:port" listen address.
func (h HealthConfig) Addr() string {
	return net.JoinHostPort(h.Host, strconv.Itoa(h.Port))
}

// SessionConfig holds session registry policy.
type SessionConfig struct {
	// IDLength is the length of server-generated session ids.
	IDLength int `mapstructure:"id_length"`
	// IdleTimeout expires sessions waiting for an opponent this long. Zero disables expiry.
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
	// ReapInterval is how often idle sessions are swept.
	ReapInterval time.Duration `mapstructure:"reap_interval"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	WebSocket WebSocketConfig `mapstructure:"websocket"`
	Telnet    TelnetConfig    `mapstructure:"telnet"`
	Health    HealthConfig    `mapstructure:"health"`
	Session   SessionConfig   `mapstructure:"session"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	for _, check := range []func() []string{
		func() []string { return validateLogging(c.Logging) },
		func() []string { return validateWebSocket(c.WebSocket) },
		func() []string { return validateTelnet(c.Telnet) },
		func() []string { return validateHealth(c.Health) },
		func() []string { return validateSession(c.Session) },
	} {
		errs = append(errs, check()...)
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validPort(p int) bool {
	return p >= 1 && p <= 65535
}

func validateLogging(l LoggingConfig) []string {
	var errs []string
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		errs = append(errs, fmt.Sprintf("logging.level must be one of [debug, info, warn, error], got %q", l.Level))
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		errs = append(errs, fmt.Sprintf("logging.format must be one of [json, console], got %q", l.Format))
	}
	return errs
}

func validateWebSocket(w WebSocketConfig) []string {
	var errs []string
	if !validPort(w.Port) {
		errs = append(errs, fmt.Sprintf("websocket.port must be 1-65535, got %d", w.Port))
	}
	if !strings.HasPrefix(w.Path, "/") {
		errs = append(errs, fmt.Sprintf("websocket.path must start with '/', got %q", w.Path))
	}
	if w.Path == "/healthz" {
		errs = append(errs, "websocket.path must not be /healthz")
	}
	if w.SendBuffer < 1 {
		errs = append(errs, fmt.Sprintf("websocket.send_buffer must be >= 1, got %d", w.SendBuffer))
	}
	if w.MaxMessageSize < 1 {
		errs = append(errs, fmt.Sprintf("websocket.max_message_size must be >= 1, got %d", w.MaxMessageSize))
	}
	if w.WriteTimeout <= 0 {
		errs = append(errs, "websocket.write_timeout must be positive")
	}
	if w.PongTimeout <= 0 {
		errs = append(errs, "websocket.pong_timeout must be positive")
	}
	return errs
}

func validateTelnet(t TelnetConfig) []string {
	if !t.Enabled {
		return nil
	}
	var errs []string
	if !validPort(t.Port) {
		errs = append(errs, fmt.Sprintf("telnet.port must be 1-65535, got %d", t.Port))
	}
	if t.ReadTimeout < 0 {
		errs = append(errs, "telnet.read_timeout must not be negative")
	}
	if t.WriteTimeout < 0 {
		errs = append(errs, "telnet.write_timeout must not be negative")
	}
	return errs
}

func validateHealth(h HealthConfig) []string {
	if h.Enabled && !validPort(h.Port) {
		return []string{fmt.Sprintf("health.port must be 1-65535, got %d", h.Port)}
	}
	return nil
}

func validateSession(s SessionConfig) []string {
	var errs []string
	if s.IDLength < 4 || s.IDLength > 32 {
		errs = append(errs, fmt.Sprintf("session.id_length must be 4-32, got %d", s.IDLength))
	}
	if s.IdleTimeout < 0 {
		errs = append(errs, "session.idle_timeout must not be negative")
	}
	if s.IdleTimeout > 0 && s.ReapInterval <= 0 {
		errs = append(errs, "session.reap_interval must be positive when session.idle_timeout is set")
	}
	return errs
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result. An empty path uses defaults and environment only.
//
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := New()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}
	return LoadFromViper(v)
}

// New returns a Viper instance with defaults and TICTACTOE_ environment overrides applied.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("websocket.host", "0.0.0.0")
	v.SetDefault("websocket.port", 8080)
	v.SetDefault("websocket.path", "/ws")
	v.SetDefault("websocket.allowed_origins", []string{})
	v.SetDefault("websocket.send_buffer", 64)
	v.SetDefault("websocket.max_message_size", 4096)
	v.SetDefault("websocket.write_timeout", "10s")
	v.SetDefault("websocket.pong_timeout", "60s")

	v.SetDefault("telnet.enabled", false)
	v.SetDefault("telnet.host", "0.0.0.0")
	v.SetDefault("telnet.port", 4000)
	v.SetDefault("telnet.read_timeout", "5m")
	v.SetDefault("telnet.write_timeout", "30s")

	v.SetDefault("health.enabled", true)
	v.SetDefault("health.host", "0.0.0.0")
	v.SetDefault("health.port", 50051)

	v.SetDefault("session.id_length", 6)
	v.SetDefault("session.idle_timeout", "0s")
	v.SetDefault("session.reap_interval", "1m")
}
