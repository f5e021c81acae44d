// Package config loads learnstack settings from YAML, the environment, and flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/dhabedank/learnstack/internal/core"
	"github.com/dhabedank/learnstack/internal/llm"
)

// FileName is the config file looked up in the working and home directories.
const FileName = ".learnstack.yaml"

// Config is the full application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	LLM      llm.Config     `yaml:"llm"`
	Curation CurationConfig `yaml:"curation"`
	Cache    CacheConfig    `yaml:"cache"`
	Log      LogConfig      `yaml:"log"`

	// Path is the file the config was loaded from, if any.
	Path string `yaml:"-"`
}

type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	MaxBodyBytes   int64         `yaml:"max_body_bytes"`
	CORSOrigins    []string      `yaml:"cors_origins"`
}

type CurationConfig struct {
	MaxAttempts      int           `yaml:"max_attempts"`
	RetryDelay       time.Duration `yaml:"retry_delay"`
	PlaceholderTasks bool          `yaml:"placeholder_tasks"`
}

type CacheConfig struct {
	RedisURL string        `yaml:"redis_url"`
	TTL      time.Duration `yaml:"ttl"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// Default returns the built-in defaults.
func Default() *Config {
	planner := core.DefaultPlannerConfig()
	return &Config{
		Server: ServerConfig{
			Addr:           ":8000",
			RequestTimeout: 5 * time.Minute,
			MaxBodyBytes:   1 << 20,
			CORSOrigins:    []string{"*"},
		},
		LLM: llm.DefaultConfig(),
		Curation: CurationConfig{
			MaxAttempts:      planner.MaxAttempts,
			RetryDelay:       planner.RetryDelay,
			PlaceholderTasks: planner.PlaceholderTasks,
		},
		Cache: CacheConfig{TTL: 24 * time.Hour},
		Log:   LogConfig{Level: "info", Format: "text"},
	}
}

// FindFile returns the config file to use: explicit if given, else
// .learnstack.yaml in the working directory, else ~/.learnstack.yaml.
// It returns "" when none exists.
func FindFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if _, err := os.Stat(FileName); err == nil {
		return FileName
	}
	if home, err := os.UserHomeDir(); err == nil {
		homePath := filepath.Join(home, FileName)
		if _, err := os.Stat(homePath); err == nil {
			return homePath
		}
	}
	return ""
}

// Load builds a config from defaults, the config file (if any), and the environment.
// An explicit path that does not exist is an error; a missing default file is not.
func Load(explicit string) (*Config, error) {
	cfg := Default()

	if path := FindFile(explicit); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	c.Path = path
	return nil
}

// ApplyEnv overlays environment variables. lookup is usually os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("ANTHROPIC_API_KEY"); ok && v != "" {
		c.LLM.APIKey = v
	}
	if v, ok := lookup("GEMINI_API_KEY"); ok && v != "" {
		c.LLM.GeminiAPIKey = v
	}
	if v, ok := lookup("LEARNSTACK_PROVIDER"); ok && v != "" {
		c.LLM.Provider = v
	}
	if v, ok := lookup("PORT"); ok && v != "" {
		if _, err := strconv.Atoi(v); err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Server.Addr = ":" + v
	}
	if v, ok := lookup("REDIS_URL"); ok && v != "" {
		c.Cache.RedisURL = v
	}
	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		c.Log.Level = v
	}
	if v, ok := lookup("DEBUG"); ok {
		if debug, _ := strconv.ParseBool(v); debug {
			c.Log.Level = "debug"
		}
	}
	return nil
}

// Validate rejects settings the rest of the program cannot work with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.RequestTimeout <= 0 {
		errs = append(errs, errors.New("server.request_timeout must be positive"))
	}
	if c.Server.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("server.max_body_bytes must be positive"))
	}
	if c.Curation.MaxAttempts < 1 {
		errs = append(errs, errors.New("curation.max_attempts must be at least 1"))
	}
	if c.Curation.RetryDelay < 0 {
		errs = append(errs, errors.New("curation.retry_delay must not be negative"))
	}
	if t := c.LLM.Temperature; t != nil && (*t < 0 || *t > 2) {
		errs = append(errs, fmt.Errorf("llm.temperature %v out of range [0, 2]", *t))
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q must be text or json", c.Log.Format))
	}
	return errors.Join(errs...)
}

// PlannerConfig returns the planner settings.
func (c *Config) PlannerConfig() core.PlannerConfig {
	return core.PlannerConfig{
		MaxAttempts:      c.Curation.MaxAttempts,
		RetryDelay:       c.Curation.RetryDelay,
		PlaceholderTasks: c.Curation.PlaceholderTasks,
	}
}

// ConfigureLogger applies the level and format to logger.
func (l LogConfig) ConfigureLogger(logger *log.Logger) error {
	level, err := log.ParseLevel(l.Level)
	if err != nil {
		return err
	}
	logger.SetLevel(level)
	if strings.EqualFold(l.Format, "json") {
		logger.SetFormatter(&log.JSONFormatter{})
	} else {
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}

// SaveModels writes per-stage model choices to path, keeping any other
// settings already in the file.
func SaveModels(path, research, curation, task string) error {
	cfg := Default()
	if _, err := os.Stat(path); err == nil {
		if err := cfg.mergeFile(path); err != nil {
			return err
		}
	}

	cfg.LLM.ResearchModel = research
	cfg.LLM.CurationModel = curation
	cfg.LLM.TaskModel = task

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// DefaultPath is ~/.learnstack.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, FileName), nil
}
