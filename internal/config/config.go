package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the CLI configuration loaded from files and environment variables.
type Config struct {
	AppName      string `mapstructure:"app_name"`
	Env          string `mapstructure:"app_env"`
	LogLevel     string `mapstructure:"log_level"`
	ProfilesFile string `mapstructure:"profiles_file"`
	Profile      string `mapstructure:"api_profile"`

	CustomerID     string        `mapstructure:"api_customer_id"`
	APIKey         string        `mapstructure:"api_key"`
	Endpoint       string        `mapstructure:"api_endpoint"`
	Proxy          string        `mapstructure:"api_proxy"`
	TimeoutSeconds int64         `mapstructure:"api_timeout_seconds"`
	Timeout        time.Duration `mapstructure:"-"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "samvad-rest-client")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("profiles_file", "./configs/profiles.yaml")
	v.SetDefault("api_profile", "")
	v.SetDefault("api_timeout_seconds", 10)

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.TimeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid api_timeout_seconds (must be positive seconds)")
	}
	cfg.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second

	return &cfg, nil
}

// Apply merges a profile into the config; values set directly through the
// environment win over the profile's.
func (c *Config) Apply(p Profile) {
	if c.CustomerID == "" {
		c.CustomerID = p.CustomerID
	}
	if c.APIKey == "" {
		c.APIKey = p.APIKey
	}
	if c.Endpoint == "" {
		c.Endpoint = p.Endpoint
	}
	if c.Proxy == "" {
		c.Proxy = p.Proxy
	}
	if p.TimeoutSeconds > 0 {
		c.Timeout = time.Duration(p.TimeoutSeconds) * time.Second
	}
}
