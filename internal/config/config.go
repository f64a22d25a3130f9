// Package config loads server configuration from a YAML file, a .env file
// and DIDAGOALS_ environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/teemow/didagoals/internal/goals"
	"github.com/teemow/didagoals/internal/progress"
)

// EnvPrefix prefixes every environment override, e.g. DIDAGOALS_BACKEND.
const EnvPrefix = "DIDAGOALS"

// APIKeyEnv is honoured in addition to DIDAGOALS_SERVER_API_KEY.
const APIKeyEnv = "MCP_API_KEY"

// Backends.
const (
	BackendDida   = "dida"
	BackendGoogle = "google"
)

// Config is the full server configuration.
type Config struct {
	Backend  string         `mapstructure:"backend"`
	Goals    GoalsConfig    `mapstructure:"goals"`
	Progress ProgressConfig `mapstructure:"progress"`
	Events   EventsConfig   `mapstructure:"events"`
	Server   ServerConfig   `mapstructure:"server"`
	Dida     DidaConfig     `mapstructure:"dida"`
	Google   GoogleConfig   `mapstructure:"google"`
	Text     TextConfig     `mapstructure:"text"`
}

type GoalsConfig struct {
	ContainerName string `mapstructure:"container_name"`
	Timezone      string `mapstructure:"timezone"`
}

type ProgressConfig struct {
	Store          string `mapstructure:"store"`
	SQLitePath     string `mapstructure:"sqlite_path"`
	RedisURL       string `mapstructure:"redis_url"`
	RedisKeyPrefix string `mapstructure:"redis_key_prefix"`
}

type EventsConfig struct {
	NATSURL       string `mapstructure:"nats_url"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
}

type ServerConfig struct {
	APIKey string `mapstructure:"api_key"`
}

type DidaConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	AccessToken  string `mapstructure:"access_token"`
}

type GoogleConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
}

type TextConfig struct {
	StopWordsFile string `mapstructure:"stop_words_file"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Backend: BackendDida,
		Goals: GoalsConfig{
			ContainerName: goals.DefaultContainerName,
			Timezone:      "Asia/Shanghai",
		},
		Progress: ProgressConfig{
			Store:          progress.KindMemory,
			SQLitePath:     filepath.Join(Dir(), "progress.db"),
			RedisKeyPrefix: "didagoals:",
		},
		Events: EventsConfig{
			SubjectPrefix: "didagoals",
		},
	}
}

// SetDefaults registers the defaults with v.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("backend", d.Backend)
	v.SetDefault("goals.container_name", d.Goals.ContainerName)
	v.SetDefault("goals.timezone", d.Goals.Timezone)
	v.SetDefault("progress.store", d.Progress.Store)
	v.SetDefault("progress.sqlite_path", d.Progress.SQLitePath)
	v.SetDefault("progress.redis_url", d.Progress.RedisURL)
	v.SetDefault("progress.redis_key_prefix", d.Progress.RedisKeyPrefix)
	v.SetDefault("events.nats_url", d.Events.NATSURL)
	v.SetDefault("events.subject_prefix", d.Events.SubjectPrefix)
	v.SetDefault("server.api_key", "")
	v.SetDefault("dida.client_id", "")
	v.SetDefault("dida.client_secret", "")
	v.SetDefault("dida.access_token", "")
	v.SetDefault("google.client_id", "")
	v.SetDefault("google.client_secret", "")
	v.SetDefault("text.stop_words_file", "")
}

// New returns a viper instance with defaults, env binding and the config
// file search path set up. file overrides the search path when non-empty.
func New(file string) *viper.Viper {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(Dir())
		v.AddConfigPath(".")
	}
	return v
}

// Load reads .env (when present), the config file (when present) and the
// environment, then validates the result.
func Load(file string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := New(file)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	return Unmarshal(v)
}

// Unmarshal decodes v into a Config and validates it.
func Unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.Server.APIKey == "" {
		cfg.Server.APIKey = os.Getenv(APIKeyEnv)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, errs
	}
	return &cfg, nil
}

// ProgressStore returns the progress store configuration.
func (c *Config) ProgressStore() progress.Config {
	return progress.Config{
		Kind:           c.Progress.Store,
		SQLitePath:     c.Progress.SQLitePath,
		RedisURL:       c.Progress.RedisURL,
		RedisKeyPrefix: c.Progress.RedisKeyPrefix,
	}
}

// Dir returns the configuration directory, $XDG_CONFIG_HOME/didagoals or
// ~/.config/didagoals.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "didagoals")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".didagoals"
	}
	return filepath.Join(home, ".config", "didagoals")
}
