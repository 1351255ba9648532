// Package config loads service configuration from YAML files and
// MATERIALS_-prefixed environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root service configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Broker   BrokerConfig   `mapstructure:"broker"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

// DatabaseConfig holds PostgreSQL settings.
type DatabaseConfig struct {
	URL            string `mapstructure:"url"`
	MaxConnections int    `mapstructure:"max_connections"`
	MinConnections int    `mapstructure:"min_connections"`
}

// AuthConfig selects how bearer tokens are validated. In "remote" mode
// tokens are resolved by the user service; in "local" mode they are verified
// with a shared HS256 secret.
type AuthConfig struct {
	Mode           string        `mapstructure:"mode"`
	UserServiceURL string        `mapstructure:"user_service_url"`
	JWTSecret      string        `mapstructure:"jwt_secret"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// BrokerConfig holds MQTT event publishing settings.
type BrokerConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	URL            string        `mapstructure:"url"`
	ClientID       string        `mapstructure:"client_id"`
	Username       string        `mapstructure:"username"`
	Password       string        `mapstructure:"password"`
	KeepAlive      time.Duration `mapstructure:"keep_alive"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	HealthInterval time.Duration `mapstructure:"health_interval"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from the optional file at path and from the
// environment, then validates it.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("MATERIALS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal only sees keys viper already knows about, so every key is
	// registered in setDefaults and bound here. Without the explicit binds,
	// env-only keys like MATERIALS_DATABASE_URL never reach the struct.
	for _, key := range v.AllKeys() {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 10000)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.idle_timeout", time.Minute)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.allowed_origins", []string{
		"https://bleu-ims.vercel.app",
		"https://bleu-ums.onrender.com",
		"https://bleu-pos-eight.vercel.app",
		"https://bleu-oos.vercel.app",
	})

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.min_connections", 2)

	v.SetDefault("auth.mode", "remote")
	v.SetDefault("auth.user_service_url", "")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.request_timeout", 10*time.Second)

	v.SetDefault("broker.enabled", false)
	v.SetDefault("broker.url", "")
	v.SetDefault("broker.username", "")
	v.SetDefault("broker.password", "")
	v.SetDefault("broker.client_id", "materials-service")
	v.SetDefault("broker.keep_alive", 30*time.Second)
	v.SetDefault("broker.connect_timeout", 10*time.Second)
	v.SetDefault("broker.health_interval", 30*time.Second)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks the configuration for missing or inconsistent values.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Database.URL == "" {
		return fmt.Errorf("database.url is required")
	}
	if c.Database.MaxConnections <= 0 {
		return fmt.Errorf("database.max_connections must be positive")
	}
	if c.Database.MinConnections < 0 || c.Database.MinConnections > c.Database.MaxConnections {
		return fmt.Errorf("database.min_connections must be between 0 and max_connections")
	}

	switch c.Auth.Mode {
	case "remote":
		if c.Auth.UserServiceURL == "" {
			return fmt.Errorf("auth.user_service_url is required in remote mode")
		}
	case "local":
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("auth.jwt_secret is required in local mode")
		}
	default:
		return fmt.Errorf("invalid auth.mode: %q", c.Auth.Mode)
	}

	if c.Broker.Enabled && c.Broker.URL == "" {
		return fmt.Errorf("broker.url is required when broker is enabled")
	}
	return nil
}

// Addr returns the host:port address the server binds to.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
