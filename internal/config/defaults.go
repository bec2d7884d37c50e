package config

import (
	"strings"
	"time"

	"github.com/hyperjump/assist/internal/llm"
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 2 * time.Minute
	}
	cfg.LLM.Provider = strings.ToLower(cfg.LLM.Provider)
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = llm.ProviderGemini
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = time.Minute
	}
	if cfg.LLM.Vertex && cfg.LLM.Location == "" {
		cfg.LLM.Location = "us-central1"
	}
	cfg.Index.Provider = strings.ToLower(cfg.Index.Provider)
	if cfg.Index.Provider == "" {
		cfg.Index.Provider = IndexLocal
	}
	if cfg.Index.Typesense.Timeout == 0 {
		cfg.Index.Typesense.Timeout = 10 * time.Second
	}
	if cfg.Index.Local.DatabasePath == "" {
		cfg.Index.Local.DatabasePath = "/usr/local/var/assist/data/db/videos.db"
	}
	if cfg.Index.Local.BleveIndexPath == "" {
		cfg.Index.Local.BleveIndexPath = "/usr/local/var/assist/data/indices/bleve"
	}
	if cfg.Sessions.TTL == 0 {
		cfg.Sessions.TTL = 30 * time.Minute
	}
	if cfg.Sessions.MaxSessions == 0 {
		cfg.Sessions.MaxSessions = 1000
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".json", ".jsonl"}
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Watch.Directories) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}
