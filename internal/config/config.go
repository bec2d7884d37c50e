// Package config provides configuration loading and structs for the assist server.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/hyperjump/assist/internal/llm"
	"github.com/hyperjump/assist/internal/session"
)

// Index backends.
const (
	IndexTypesense = "typesense"
	IndexLocal     = "local"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	LLM       LLMConfig       `yaml:"llm"`
	Index     IndexConfig     `yaml:"index"`
	Assistant AssistantConfig `yaml:"assistant"`
	Sessions  SessionsConfig  `yaml:"sessions"`
	Watch     WatchConfig     `yaml:"watch"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// LLMConfig selects the chat model.
type LLMConfig struct {
	Provider    string        `yaml:"provider"`
	Model       string        `yaml:"model"`
	APIKey      string        `yaml:"api_key"`
	Vertex      bool          `yaml:"vertex"`
	Project     string        `yaml:"project"`
	Location    string        `yaml:"location"`
	BaseURL     string        `yaml:"base_url"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

// IndexConfig selects the video search backend.
type IndexConfig struct {
	Provider  string          `yaml:"provider"`
	Typesense TypesenseConfig `yaml:"typesense"`
	Local     LocalConfig     `yaml:"local"`
}

// TypesenseConfig holds the remote index connection.
type TypesenseConfig struct {
	URL     string        `yaml:"url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

// LocalConfig holds paths for the embedded catalog database and index.
type LocalConfig struct {
	DatabasePath   string `yaml:"database_path"`
	BleveIndexPath string `yaml:"bleve_index_path"`
}

// AssistantConfig holds conversation settings.
type AssistantConfig struct {
	// Timezone is an IANA name used for calendar dates; "Local" uses the host zone.
	Timezone string `yaml:"timezone"`
}

// SessionsConfig bounds the live conversation sessions.
type SessionsConfig struct {
	TTL         time.Duration `yaml:"ttl"`
	MaxSessions int           `yaml:"max_sessions"`
}

// WatchConfig holds catalog directory watch settings.
type WatchConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
	Recursive   *bool    `yaml:"recursive"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (w *WatchConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return true
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled *bool  `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// EnabledOrDefault returns whether metrics are served; defaults to true when unset.
func (m *MetricsConfig) EnabledOrDefault() bool {
	if m.Enabled != nil {
		return *m.Enabled
	}
	return true
}

// Load reads the config file at path, applies .env and environment overrides,
// defaults, and path expansion. An empty path loads defaults and environment only.
func Load(path string) (*Config, error) {
	var cfg Config
	configDir := "."
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
		configDir = filepath.Dir(path)
	}

	loadEnvFiles(configDir)
	ApplyEnv(&cfg)
	ApplyDefaults(&cfg)

	cfg.Index.Local.DatabasePath = expandPath(cfg.Index.Local.DatabasePath, configDir)
	cfg.Index.Local.BleveIndexPath = expandPath(cfg.Index.Local.BleveIndexPath, configDir)
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}

	return &cfg, nil
}

// loadEnvFiles loads .env from the working directory and the config directory.
// Variables already set in the environment win.
func loadEnvFiles(configDir string) {
	candidates := []string{".env"}
	if dir := filepath.Join(configDir, ".env"); dir != ".env" {
		candidates = append(candidates, dir)
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
		}
	}
}

// ApplyEnv overrides credentials and provider choices from the environment.
func ApplyEnv(cfg *Config) {
	if v := firstEnv("ASSIST_GEMINI_API_KEY", "GEMINI_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("ASSIST_LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := os.Getenv("ASSIST_INDEX_PROVIDER"); v != "" {
		cfg.Index.Provider = v
	}
	if v := os.Getenv("ASSIST_TYPESENSE_URL"); v != "" {
		cfg.Index.Typesense.URL = v
	}
	if v := os.Getenv("ASSIST_TYPESENSE_API_KEY"); v != "" {
		cfg.Index.Typesense.APIKey = v
	}
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

// Validate reports configuration that cannot serve conversations.
func (c *Config) Validate() error {
	var errs []error
	switch c.LLM.Provider {
	case llm.ProviderGemini:
		if c.LLM.Vertex && c.LLM.Project == "" {
			errs = append(errs, errors.New("llm.project is required when llm.vertex is set"))
		}
		if !c.LLM.Vertex && c.LLM.APIKey == "" {
			errs = append(errs, errors.New("llm.api_key (or GEMINI_API_KEY) is required for gemini"))
		}
	case llm.ProviderOllama:
	default:
		errs = append(errs, fmt.Errorf("unknown llm.provider %q", c.LLM.Provider))
	}
	switch c.Index.Provider {
	case IndexTypesense:
		if c.Index.Typesense.URL == "" {
			errs = append(errs, errors.New("index.typesense.url is required"))
		}
	case IndexLocal:
	default:
		errs = append(errs, fmt.Errorf("unknown index.provider %q", c.Index.Provider))
	}
	if _, err := c.Assistant.Location(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Location resolves the configured time zone.
func (a AssistantConfig) Location() (*time.Location, error) {
	if a.Timezone == "" || strings.EqualFold(a.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return nil, fmt.Errorf("assistant.timezone: %w", err)
	}
	return loc, nil
}

// LLMOptions converts the llm section for llm.NewProvider.
func (c *Config) LLMOptions() llm.Options {
	return llm.Options{
		Provider:    c.LLM.Provider,
		Model:       c.LLM.Model,
		APIKey:      c.LLM.APIKey,
		Vertex:      c.LLM.Vertex,
		Project:     c.LLM.Project,
		Location:    c.LLM.Location,
		BaseURL:     c.LLM.BaseURL,
		Temperature: c.LLM.Temperature,
		Timeout:     c.LLM.Timeout,
	}
}

// SessionOptions converts the sessions section for session.NewRegistry.
func (c *Config) SessionOptions() session.Options {
	return session.Options{TTL: c.Sessions.TTL, MaxSessions: c.Sessions.MaxSessions}
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
