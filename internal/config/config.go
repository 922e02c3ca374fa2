// Package config loads ra's settings from ~/.ra/config.toml, RA_*
// environment variables and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bnema/rag-agents-cli/internal/application"
	"github.com/bnema/rag-agents-cli/internal/domain"
	"github.com/bnema/rag-agents-cli/internal/logging"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	KeyBackendURL         = "backend.url"
	KeyBackendTimeout     = "backend.timeout"
	KeyLogLevel           = "log.level"
	KeyDefaultAgent       = "agent.default"
	KeyPollInterval       = "ingest.poll_interval"
	KeyGracePeriod        = "ingest.grace_period"
	KeyCooldown           = "ingest.cooldown"
	KeySettingsCloseDelay = "settings.close_delay"
	KeyChatHistoryFile    = "chat.history_file"

	EnvPrefix = "RA"

	configName = "config"
	configType = "toml"
	configDir  = ".ra"
	configFile = "config.toml"

	minDuration = 100 * time.Millisecond
)

// Keys lists every recognised key in display order.
var Keys = []string{
	KeyBackendURL,
	KeyBackendTimeout,
	KeyLogLevel,
	KeyDefaultAgent,
	KeyPollInterval,
	KeyGracePeriod,
	KeyCooldown,
	KeySettingsCloseDelay,
	KeyChatHistoryFile,
}

var ErrUnknownKey = errors.New("unknown config key")

type Config struct {
	Backend  BackendConfig  `mapstructure:"backend"`
	Log      LogConfig      `mapstructure:"log"`
	Agent    AgentConfig    `mapstructure:"agent"`
	Ingest   IngestConfig   `mapstructure:"ingest"`
	Settings SettingsConfig `mapstructure:"settings"`
	Chat     ChatConfig     `mapstructure:"chat"`

	// Path is the config file that was read, empty when none exists.
	Path string `mapstructure:"-"`
}

type BackendConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type AgentConfig struct {
	Default string `mapstructure:"default"`
}

type IngestConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	GracePeriod  time.Duration `mapstructure:"grace_period"`
	Cooldown     time.Duration `mapstructure:"cooldown"`
}

type SettingsConfig struct {
	CloseDelay time.Duration `mapstructure:"close_delay"`
}

type ChatConfig struct {
	HistoryFile string `mapstructure:"history_file"`
}

func defaults() map[string]any {
	opts := application.DefaultOptions()
	return map[string]any{
		KeyBackendURL:         "http://localhost:8000",
		KeyBackendTimeout:     30 * time.Second,
		KeyLogLevel:           logging.DefaultLevel,
		KeyDefaultAgent:       string(opts.DefaultAgentID),
		KeyPollInterval:       opts.PollInterval,
		KeyGracePeriod:        opts.GracePeriod,
		KeyCooldown:           opts.Cooldown,
		KeySettingsCloseDelay: opts.SettingsCloseDelay,
		KeyChatHistoryFile:    "",
	}
}

// DefaultPath is the config file location under home.
func DefaultPath(home string) string {
	return filepath.Join(home, configDir, configFile)
}

// Load reads .env from the working directory, then the config file under
// home, then RA_* variables. Later sources win.
func Load(home string) (*Config, error) {
	home, err := homeDir(home)
	if err != nil {
		return nil, err
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := newViper()
	v.SetConfigName(configName)
	v.SetConfigType(configType)
	v.AddConfigPath(filepath.Join(home, configDir))

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	cfg.Path = v.ConfigFileUsed()
	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	for key, value := range defaults() {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	cfg.Backend.URL = strings.TrimRight(strings.TrimSpace(cfg.Backend.URL), "/")
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := validation.ValidateStruct(&c.Backend,
		validation.Field(&c.Backend.URL, validation.Required, validation.By(httpURL)),
		validation.Field(&c.Backend.Timeout, validation.Min(minDuration)),
	); err != nil {
		return fmt.Errorf("backend: %w", err)
	}
	if err := validation.ValidateStruct(&c.Log,
		validation.Field(&c.Log.Level, validation.By(logLevel)),
	); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	if err := validation.ValidateStruct(&c.Agent,
		validation.Field(&c.Agent.Default, validation.Required),
	); err != nil {
		return fmt.Errorf("agent: %w", err)
	}
	if err := validation.ValidateStruct(&c.Ingest,
		validation.Field(&c.Ingest.PollInterval, validation.Min(minDuration)),
		validation.Field(&c.Ingest.GracePeriod, validation.Min(time.Duration(0))),
		validation.Field(&c.Ingest.Cooldown, validation.Min(time.Duration(0))),
	); err != nil {
		return fmt.Errorf("ingest: %w", err)
	}
	return validation.ValidateStruct(&c.Settings,
		validation.Field(&c.Settings.CloseDelay, validation.Min(time.Duration(0))),
	)
}

func httpURL(value any) error {
	raw, _ := value.(string)
	if raw == "" {
		return nil
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return errors.New("must be a valid URL")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return errors.New("must use http or https")
	}
	if parsed.Host == "" {
		return errors.New("must include a host")
	}
	return nil
}

func logLevel(value any) error {
	level, _ := value.(string)
	if level != "" && !logging.ValidLevel(level) {
		return fmt.Errorf("unknown level %q", level)
	}
	return nil
}

// AppOptions maps the config onto controller options.
func (c *Config) AppOptions() application.Options {
	return application.Options{
		DefaultAgentID:     domain.AgentID(c.Agent.Default),
		PollInterval:       c.Ingest.PollInterval,
		GracePeriod:        c.Ingest.GracePeriod,
		Cooldown:           c.Ingest.Cooldown,
		SettingsCloseDelay: c.Settings.CloseDelay,
	}
}

// Get returns the display value of key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case KeyBackendURL:
		return c.Backend.URL, nil
	case KeyBackendTimeout:
		return c.Backend.Timeout.String(), nil
	case KeyLogLevel:
		return c.Log.Level, nil
	case KeyDefaultAgent:
		return c.Agent.Default, nil
	case KeyPollInterval:
		return c.Ingest.PollInterval.String(), nil
	case KeyGracePeriod:
		return c.Ingest.GracePeriod.String(), nil
	case KeyCooldown:
		return c.Ingest.Cooldown.String(), nil
	case KeySettingsCloseDelay:
		return c.Settings.CloseDelay.String(), nil
	case KeyChatHistoryFile:
		return c.Chat.HistoryFile, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
}

func knownKey(key string) bool {
	for _, candidate := range Keys {
		if candidate == key {
			return true
		}
	}
	return false
}

func homeDir(home string) (string, error) {
	if home != "" {
		return home, nil
	}
	dir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return dir, nil
}
