package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	Server  ServerConfig
	Gemini  GeminiConfig
	Auth    AuthConfig
	Storage StorageConfig
	Log     LogConfig
}

// ServerConfig holds the HTTP server configuration
type ServerConfig struct {
	Host      string `mapstructure:"host"`
	Port      string `mapstructure:"port"`
	StaticDir string `mapstructure:"static_dir"`
}

// GeminiConfig holds the upstream generative-language API configuration
type GeminiConfig struct {
	// ServiceAccountFile is the path to the service-account JSON used to
	// mint bearer tokens for the upstream endpoint.
	ServiceAccountFile string `mapstructure:"service_account_file"`
	Endpoint           string `mapstructure:"endpoint"`
	// ProxyBaseURL, when set, makes the send flow call the proxy endpoint
	// over HTTP instead of the upstream client in-process. Mirrors the
	// local-vs-hosted base URL switch of the frontend.
	ProxyBaseURL string `mapstructure:"proxy_base_url"`
}

// AuthConfig holds the bearer-token verification configuration
type AuthConfig struct {
	Secret     string `mapstructure:"secret"`
	AllowGuest bool   `mapstructure:"allow_guest"`
}

// StorageConfig holds the chat persistence configuration
type StorageConfig struct {
	Path string `mapstructure:"path"`
}

// LogConfig holds the logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

const defaultEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.5-pro:generateContent"

// Load loads the configuration from the config.yaml file, with environment
// variable overrides (WANDERCHAT_* prefix). CONFIG_PATH points at an explicit
// config file.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "3000")
	v.SetDefault("server.static_dir", "dist")
	v.SetDefault("gemini.service_account_file", "service-account1.json")
	v.SetDefault("gemini.endpoint", defaultEndpoint)
	v.SetDefault("auth.allow_guest", true)
	v.SetDefault("storage.path", "wanderchat.db")
	v.SetDefault("log.level", "info")

	v.SetEnvPrefix("wanderchat")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		// Defaults are enough to run; only a malformed file is fatal.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
