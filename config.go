package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the service configuration. Every key can be set in
// ridecircle.yaml or through the upper-cased environment variable.
type Config struct {
	Port              string        `mapstructure:"port"`
	GoEnv             string        `mapstructure:"go_env"`
	LogLevel          string        `mapstructure:"log_level"`
	AllowedOrigins    []string      `mapstructure:"allowed_origins"`
	JWTSecret         string        `mapstructure:"jwt_secret"`
	SessionTTL        time.Duration `mapstructure:"session_ttl"`
	DatabaseURL       string        `mapstructure:"database_url"`
	RedisAddr         string        `mapstructure:"redis_addr"`
	RedisPassword     string        `mapstructure:"redis_password"`
	RedisDB           int           `mapstructure:"redis_db"`
	OpenAIAPIKey      string        `mapstructure:"openai_api_key"`
	OpenAIModel       string        `mapstructure:"openai_model"`
	OpenAIBaseURL     string        `mapstructure:"openai_base_url"`
	CompletionTimeout time.Duration `mapstructure:"completion_timeout"`
	CompletionRPS     float64       `mapstructure:"completion_rps"`
	CompletionBurst   int           `mapstructure:"completion_burst"`
	DirectorySeed     int64         `mapstructure:"directory_seed"`
	DirectoryPerRoute int           `mapstructure:"directory_per_route"`
}

const devJWTSecret = "your_secret_key_please_change_in_production"

var configKeys = map[string]any{
	"port":                "8080",
	"go_env":              "development",
	"log_level":           "info",
	"allowed_origins":     "http://localhost:3000,http://localhost:5173",
	"jwt_secret":          devJWTSecret,
	"session_ttl":         "720h",
	"database_url":        "",
	"redis_addr":          "",
	"redis_password":      "",
	"redis_db":            0,
	"openai_api_key":      "",
	"openai_model":        "gpt-3.5-turbo",
	"openai_base_url":     "",
	"completion_timeout":  "15s",
	"completion_rps":      3.0,
	"completion_burst":    5,
	"directory_seed":      42,
	"directory_per_route": 3,
}

// loadConfig reads defaults, then the optional config file, then the
// environment. configFile may be empty to search for ridecircle.yaml in the
// working directory.
func loadConfig(configFile string) (Config, error) {
	v := viper.New()
	for key, def := range configKeys {
		v.SetDefault(key, def)
	}
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("ridecircle")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	cfg.AllowedOrigins = splitList(strings.Join(cfg.AllowedOrigins, ","))
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch {
	case c.DirectoryPerRoute < 0:
		return fmt.Errorf("directory_per_route must not be negative, got %d", c.DirectoryPerRoute)
	case c.CompletionRPS < 0:
		return fmt.Errorf("completion_rps must not be negative, got %v", c.CompletionRPS)
	case c.CompletionBurst < 0:
		return fmt.Errorf("completion_burst must not be negative, got %d", c.CompletionBurst)
	case c.SessionTTL < 0:
		return fmt.Errorf("session_ttl must not be negative, got %s", c.SessionTTL)
	}
	return nil
}

func (c Config) development() bool {
	return c.GoEnv == "" || c.GoEnv == "development"
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
