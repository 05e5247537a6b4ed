package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. SGS_SERVER_HTTP_ADDRESS.
const EnvPrefix = "SGS"

// Config is the server configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Decision DecisionConfig `mapstructure:"decision"`
	Sandbox  SandboxConfig  `mapstructure:"sandbox"`
}

// ServerConfig groups the network listeners.
type ServerConfig struct {
	HTTP      HTTPConfig      `mapstructure:"http"`
	GRPC      GRPCConfig      `mapstructure:"grpc"`
	WebSocket WebSocketConfig `mapstructure:"websocket"`
}

// HTTPConfig configures the gin listener serving /ws and the JSON API.
type HTTPConfig struct {
	Address         string        `mapstructure:"address"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// GRPCConfig configures the health/ops gRPC listener. An empty address
// disables it.
type GRPCConfig struct {
	Address              string `mapstructure:"address"`
	MaxConcurrentStreams int    `mapstructure:"max_concurrent_streams"`
}

// WebSocketConfig tunes client connections.
type WebSocketConfig struct {
	Codec        string        `mapstructure:"codec"`
	ReadLimit    int64         `mapstructure:"read_limit"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	PongTimeout  time.Duration `mapstructure:"pong_timeout"`
	SendBuffer   int           `mapstructure:"send_buffer"`
}

// LoggingConfig selects the zap level and encoder.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DecisionConfig holds the session defaults.
type DecisionConfig struct {
	Timeout     time.Duration `mapstructure:"timeout"`
	AutoTarget  bool          `mapstructure:"auto_target"`
	IntelSelect bool          `mapstructure:"intel_select"`
}

// SandboxConfig drives the built-in table used when no rules engine is
// attached.
type SandboxConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Players  []string      `mapstructure:"players"`
	HandSize int           `mapstructure:"hand_size"`
	Seed     int64         `mapstructure:"seed"`
	Idle     time.Duration `mapstructure:"idle"`
}

var (
	validCodecs  = map[string]bool{"json": true, "proto": true}
	validLevels  = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	validFormats = map[string]bool{"json": true, "console": true}
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http.address", ":8080")
	v.SetDefault("server.http.allowed_origins", []string{"*"})
	v.SetDefault("server.http.shutdown_timeout", 10*time.Second)

	v.SetDefault("server.grpc.address", ":9090")
	v.SetDefault("server.grpc.max_concurrent_streams", 100)

	v.SetDefault("server.websocket.codec", "json")
	v.SetDefault("server.websocket.read_limit", 64*1024)
	v.SetDefault("server.websocket.write_timeout", 10*time.Second)
	v.SetDefault("server.websocket.pong_timeout", 60*time.Second)
	v.SetDefault("server.websocket.send_buffer", 256)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("decision.timeout", 0)
	v.SetDefault("decision.auto_target", false)
	v.SetDefault("decision.intel_select", false)

	v.SetDefault("sandbox.enabled", false)
	v.SetDefault("sandbox.players", []string{"liubei", "guanyu", "zhangfei"})
	v.SetDefault("sandbox.hand_size", 4)
	v.SetDefault("sandbox.seed", 1)
	v.SetDefault("sandbox.idle", time.Second)
}

// Load reads the YAML file at path, when it exists, on top of the defaults
// and applies SGS_ environment overrides. An empty path loads defaults and
// environment only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values that cannot be defaulted.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.HTTP.Address == "" {
		errs = append(errs, errors.New("server.http.address is required"))
	}
	if c.Server.HTTP.ShutdownTimeout < 0 {
		errs = append(errs, errors.New("server.http.shutdown_timeout must not be negative"))
	}
	if c.Server.GRPC.MaxConcurrentStreams < 0 {
		errs = append(errs, errors.New("server.grpc.max_concurrent_streams must not be negative"))
	}

	ws := c.Server.WebSocket
	if !validCodecs[ws.Codec] {
		errs = append(errs, fmt.Errorf("server.websocket.codec %q is not json or proto", ws.Codec))
	}
	if ws.ReadLimit <= 0 {
		errs = append(errs, errors.New("server.websocket.read_limit must be positive"))
	}
	if ws.WriteTimeout < 0 || ws.PongTimeout < 0 {
		errs = append(errs, errors.New("server.websocket timeouts must not be negative"))
	}
	if ws.SendBuffer <= 0 {
		errs = append(errs, errors.New("server.websocket.send_buffer must be positive"))
	}

	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Errorf("logging.level %q is unknown", c.Logging.Level))
	}
	if !validFormats[c.Logging.Format] {
		errs = append(errs, fmt.Errorf("logging.format %q is not json or console", c.Logging.Format))
	}

	if c.Decision.Timeout < 0 {
		errs = append(errs, errors.New("decision.timeout must not be negative"))
	}

	if c.Sandbox.Enabled {
		if len(c.Sandbox.Players) < 2 {
			errs = append(errs, errors.New("sandbox.players needs at least two players"))
		}
		if c.Sandbox.HandSize <= 0 {
			errs = append(errs, errors.New("sandbox.hand_size must be positive"))
		}
		seen := make(map[string]bool, len(c.Sandbox.Players))
		for _, p := range c.Sandbox.Players {
			if p == "" || seen[p] {
				errs = append(errs, fmt.Errorf("sandbox.players has an empty or duplicate name %q", p))
			}
			seen[p] = true
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
