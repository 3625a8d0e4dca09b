package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/reoring/instruct"
	"github.com/reoring/instruct/llm"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const defaultConfigRelPath = ".instruct/config.yaml"

type LLMConfig struct {
	Provider    string        `yaml:"provider"`
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	Model       string        `yaml:"model"`
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float64       `yaml:"temperature"`
	MaxRetries  int           `yaml:"max_retries"`
	HTTPRetries int           `yaml:"http_retries"`
	Timeout     time.Duration `yaml:"timeout"`
}

type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	BodyLimit       string        `yaml:"body_limit"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type LimitsConfig struct {
	MaxDepth int `yaml:"max_depth"`
	// UnknownPolicy is strip, strict or passthrough.
	UnknownPolicy string `yaml:"unknown_policy"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Config struct {
	LLM    LLMConfig    `yaml:"llm"`
	Server ServerConfig `yaml:"server"`
	Limits LimitsConfig `yaml:"limits"`
	Log    LogConfig    `yaml:"log"`
}

// DefaultPath returns ~/.instruct/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, defaultConfigRelPath), nil
}

// Load loads YAML config over defaults, then applies env overrides. A missing
// file is not an error.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}
	cfg.SetDefaults()

	if configPath == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		configPath = p
	}

	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read config: %w", err)
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func (c *Config) SetDefaults() {
	if c.LLM.Provider == "" {
		c.LLM.Provider = "openai"
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 1000
	}
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = 0.7
	}
	if c.LLM.MaxRetries == 0 {
		c.LLM.MaxRetries = 2
	}
	if c.LLM.HTTPRetries == 0 {
		c.LLM.HTTPRetries = 3
	}
	if c.LLM.Timeout == 0 {
		c.LLM.Timeout = 120 * time.Second
	}
	if c.Server.Host == "" {
		c.Server.Host = "127.0.0.1"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Server.BodyLimit == "" {
		c.Server.BodyLimit = "2M"
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Limits.MaxDepth == 0 {
		c.Limits.MaxDepth = 64
	}
	if c.Limits.UnknownPolicy == "" {
		c.Limits.UnknownPolicy = "strip"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

func (c *Config) Validate() error {
	switch strings.ToLower(c.LLM.Provider) {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("llm.provider %q is not supported", c.LLM.Provider)
	}
	if c.LLM.MaxRetries < 0 {
		return errors.New("llm.max_retries cannot be negative")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Limits.MaxDepth < 0 {
		return errors.New("limits.max_depth cannot be negative")
	}
	if _, ok := instruct.ParseUnknownPolicy(c.Limits.UnknownPolicy); !ok {
		return fmt.Errorf("limits.unknown_policy %q is not one of strip, strict, passthrough", c.Limits.UnknownPolicy)
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format %q is not text or json", c.Log.Format)
	}
	return nil
}

// UnknownPolicy returns the parsed limits.unknown_policy.
func (c *Config) UnknownPolicy() instruct.UnknownPolicy {
	p, _ := instruct.ParseUnknownPolicy(c.Limits.UnknownPolicy)
	return p
}

// ProviderOptions resolves the provider for one call. Empty arguments fall
// back to the llm section; the configured api_key, base_url and model apply
// only when the resolved provider is the configured one.
func (c *Config) ProviderOptions(provider, model, apiKey string) llm.Options {
	opt := llm.Options{Provider: provider, Model: model, APIKey: apiKey, Retries: c.LLM.HTTPRetries}
	if opt.Provider == "" {
		opt.Provider = c.LLM.Provider
	}
	if strings.EqualFold(opt.Provider, c.LLM.Provider) {
		if opt.APIKey == "" {
			opt.APIKey = c.LLM.APIKey
		}
		if opt.Model == "" {
			opt.Model = c.LLM.Model
		}
		opt.BaseURL = c.LLM.BaseURL
	}
	return opt
}

// Addr returns host:port.
func (c *Config) Addr() string {
	return c.Server.Host + ":" + strconv.Itoa(c.Server.Port)
}

// NewLogger builds a logrus logger from the log section.
func (c *Config) NewLogger() *logrus.Logger {
	l := logrus.New()
	if lvl, err := logrus.ParseLevel(c.Log.Level); err == nil {
		l.SetLevel(lvl)
	}
	if c.Log.Format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return l
}

// Marshal renders the config as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

func applyEnvOverrides(c *Config) {
	setString(&c.LLM.Provider, "INSTRUCT_LLM_PROVIDER")
	setString(&c.LLM.APIKey, "INSTRUCT_LLM_API_KEY")
	setString(&c.LLM.BaseURL, "INSTRUCT_LLM_BASE_URL")
	setString(&c.LLM.Model, "INSTRUCT_LLM_MODEL")
	setInt(&c.LLM.MaxTokens, "INSTRUCT_LLM_MAX_TOKENS")
	setFloat(&c.LLM.Temperature, "INSTRUCT_LLM_TEMPERATURE")
	setInt(&c.LLM.MaxRetries, "INSTRUCT_LLM_MAX_RETRIES")
	setDuration(&c.LLM.Timeout, "INSTRUCT_LLM_TIMEOUT")
	setString(&c.Server.Host, "INSTRUCT_SERVER_HOST")
	setInt(&c.Server.Port, "INSTRUCT_SERVER_PORT")
	setString(&c.Server.BodyLimit, "INSTRUCT_SERVER_BODY_LIMIT")
	setInt(&c.Limits.MaxDepth, "INSTRUCT_LIMITS_MAX_DEPTH")
	setString(&c.Limits.UnknownPolicy, "INSTRUCT_LIMITS_UNKNOWN_POLICY")
	setString(&c.Log.Level, "INSTRUCT_LOG_LEVEL")
	setString(&c.Log.Format, "INSTRUCT_LOG_FORMAT")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat(dst *float64, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = n
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
