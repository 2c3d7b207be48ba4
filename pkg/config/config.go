package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Chat    ChatConfig    `mapstructure:"chat"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig holds agent backend connection configuration
type ServerConfig struct {
	URL        string        `mapstructure:"url"`
	Timeout    time.Duration `mapstructure:"-"`
	TimeoutStr string        `mapstructure:"timeout"`
}

// ChatConfig holds chat behaviour configuration
type ChatConfig struct {
	DefaultMode string `mapstructure:"default_mode"`
	SessionID   string `mapstructure:"session_id"`
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	LogFile  string `mapstructure:"log_file"`
	Preserve bool   `mapstructure:"preserve"`
	Level    string `mapstructure:"level"`
}

// Global config instance
var cfg *Config

// Get returns the global config instance
func Get() *Config {
	if cfg == nil {
		panic("config not initialized")
	}
	return cfg
}

// Load loads configuration from file and environment
func Load(cfgFile string) (*Config, error) {
	setDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}

		xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfigHome == "" {
			xdgConfigHome = filepath.Join(home, ".config")
		}

		viper.AddConfigPath("./.coach") // Check project directory first
		viper.AddConfigPath(filepath.Join(xdgConfigHome, ".coach"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("settings.yaml")
	}

	viper.SetEnvPrefix("COACH")
	viper.AutomaticEnv()

	// Missing config file is fine; defaults and env cover everything.
	_ = viper.ReadInConfig()

	cfg = &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Viper doesn't decode time.Duration from the yaml string directly.
	if cfg.Server.TimeoutStr != "" {
		timeout, err := time.ParseDuration(cfg.Server.TimeoutStr)
		if err != nil {
			return nil, fmt.Errorf("invalid server.timeout %q: %w", cfg.Server.TimeoutStr, err)
		}
		cfg.Server.Timeout = timeout
	}

	return cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.url", "http://localhost:8700")
	viper.SetDefault("server.timeout", "5m")

	viper.SetDefault("chat.default_mode", "chat")

	viper.SetDefault("logging.log_file", "./.coach/system.log")
	viper.SetDefault("logging.preserve", true)
	viper.SetDefault("logging.level", "info")
}
