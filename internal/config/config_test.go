package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hyperjump/assist/internal/llm"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"ASSIST_GEMINI_API_KEY", "GEMINI_API_KEY", "ASSIST_LLM_PROVIDER",
		"ASSIST_INDEX_PROVIDER", "ASSIST_TYPESENSE_URL", "ASSIST_TYPESENSE_API_KEY",
	} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
server:
  host: "127.0.0.1"
  port: 9000
  request_timeout: 45s
llm:
  provider: Ollama
  model: llama3.2
  temperature: 0.2
index:
  provider: typesense
  typesense:
    url: http://localhost:8108
    api_key: xyz
sessions:
  ttl: 5m
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Addr() != "127.0.0.1:9000" {
		t.Errorf("Addr() = %s", cfg.Addr())
	}
	if cfg.Server.RequestTimeout != 45*time.Second {
		t.Errorf("request_timeout = %v", cfg.Server.RequestTimeout)
	}
	if cfg.LLM.Provider != llm.ProviderOllama {
		t.Errorf("llm provider = %q, want lowercased ollama", cfg.LLM.Provider)
	}
	if cfg.Index.Provider != IndexTypesense || cfg.Index.Typesense.APIKey != "xyz" {
		t.Errorf("unexpected index config: %+v", cfg.Index)
	}
	if cfg.Sessions.TTL != 5*time.Minute || cfg.Sessions.MaxSessions != 1000 {
		t.Errorf("unexpected sessions config: %+v", cfg.Sessions)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoad_noFile(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LLM.Provider != llm.ProviderGemini || cfg.Index.Provider != IndexLocal {
		t.Errorf("unexpected providers: llm=%s index=%s", cfg.LLM.Provider, cfg.Index.Provider)
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoad_envOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "from-env")
	t.Setenv("ASSIST_INDEX_PROVIDER", "typesense")
	t.Setenv("ASSIST_TYPESENSE_URL", "http://search:8108")
	path := writeConfig(t, "llm:\n  api_key: from-file\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LLM.APIKey != "from-env" {
		t.Errorf("api key = %q, want env value", cfg.LLM.APIKey)
	}
	if cfg.Index.Provider != IndexTypesense || cfg.Index.Typesense.URL != "http://search:8108" {
		t.Errorf("unexpected index config: %+v", cfg.Index)
	}
}

func TestLoad_dotEnvInConfigDir(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("ASSIST_TYPESENSE_API_KEY=dotenv-key\n"), 0600); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("debug: true\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("ASSIST_TYPESENSE_API_KEY") })
	os.Unsetenv("ASSIST_TYPESENSE_API_KEY")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Index.Typesense.APIKey != "dotenv-key" {
		t.Errorf("typesense api key = %q, want value from .env", cfg.Index.Typesense.APIKey)
	}
	if !cfg.Debug {
		t.Error("debug should be true when set in config")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
index:
  local:
    database_path: "./data/db/videos.db"
watch:
  directories: ["./catalog"]
`)
	dir := filepath.Dir(path)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	wantDB := filepath.Join(dir, "data", "db", "videos.db")
	if cfg.Index.Local.DatabasePath != wantDB {
		t.Errorf("database_path = %s, want %s", cfg.Index.Local.DatabasePath, wantDB)
	}
	if len(cfg.Watch.Directories) != 1 {
		t.Fatalf("watch directories: got %d", len(cfg.Watch.Directories))
	}
	if want := filepath.Join(dir, "catalog"); cfg.Watch.Directories[0] != want {
		t.Errorf("watch directory = %s, want %s", cfg.Watch.Directories[0], want)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" || cfg.Server.Port != 8080 {
		t.Errorf("default server: got %+v", cfg.Server)
	}
	if cfg.Index.Typesense.Timeout != 10*time.Second {
		t.Errorf("default typesense timeout: got %v", cfg.Index.Typesense.Timeout)
	}
	if len(cfg.Watch.Extensions) != 2 || cfg.Watch.Extensions[0] != ".json" || cfg.Watch.Extensions[1] != ".jsonl" {
		t.Errorf("watch extensions: got %v", cfg.Watch.Extensions)
	}
	if cfg.Watch.Recursive != nil {
		t.Error("recursive should stay unset without directories")
	}
	if !cfg.Metrics.EnabledOrDefault() || cfg.Metrics.Path != "/metrics" {
		t.Errorf("metrics defaults: got %+v", cfg.Metrics)
	}
	if cfg.LLM.Location != "" {
		t.Errorf("location should only default for vertex, got %q", cfg.LLM.Location)
	}
}

func TestApplyDefaults_WatchRecursiveWhenDirectoriesSet(t *testing.T) {
	cfg := &Config{Watch: WatchConfig{Directories: []string{"/tmp/catalog"}}}
	ApplyDefaults(cfg)
	if cfg.Watch.Recursive == nil || !*cfg.Watch.Recursive {
		t.Error("recursive should default to true when directories are set")
	}
}

func TestWatchConfig_RecursiveOrDefault(t *testing.T) {
	t.Run("nil_returns_true", func(t *testing.T) {
		w := &WatchConfig{}
		if got := w.RecursiveOrDefault(); !got {
			t.Errorf("RecursiveOrDefault() = %v, want true", got)
		}
	})
	t.Run("false_returns_false", func(t *testing.T) {
		f := false
		w := &WatchConfig{Recursive: &f}
		if got := w.RecursiveOrDefault(); got {
			t.Errorf("RecursiveOrDefault() = %v, want false", got)
		}
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{LLM: LLMConfig{APIKey: "k"}}
		ApplyDefaults(cfg)
		return cfg
	}
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"gemini without key", func(c *Config) { c.LLM.APIKey = "" }, "api_key"},
		{"vertex without project", func(c *Config) { c.LLM.Vertex = true }, "llm.project"},
		{"vertex with project", func(c *Config) { c.LLM.APIKey = ""; c.LLM.Vertex = true; c.LLM.Project = "p" }, ""},
		{"ollama needs no key", func(c *Config) { c.LLM.APIKey = ""; c.LLM.Provider = llm.ProviderOllama }, ""},
		{"unknown llm", func(c *Config) { c.LLM.Provider = "gpt" }, "unknown llm.provider"},
		{"unknown index", func(c *Config) { c.Index.Provider = "solr" }, "unknown index.provider"},
		{"typesense without url", func(c *Config) { c.Index.Provider = IndexTypesense }, "index.typesense.url"},
		{"bad timezone", func(c *Config) { c.Assistant.Timezone = "Mars/Olympus" }, "assistant.timezone"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestAssistantConfig_Location(t *testing.T) {
	loc, err := AssistantConfig{}.Location()
	if err != nil || loc != time.Local {
		t.Errorf("empty timezone: got %v, %v", loc, err)
	}
	loc, err = AssistantConfig{Timezone: "UTC"}.Location()
	if err != nil || loc.String() != "UTC" {
		t.Errorf("UTC timezone: got %v, %v", loc, err)
	}
}

func TestConfig_Options(t *testing.T) {
	cfg := &Config{
		LLM:      LLMConfig{Provider: "gemini", Model: "m", APIKey: "k", Temperature: 0.5, Timeout: time.Second},
		Sessions: SessionsConfig{TTL: time.Minute, MaxSessions: 3},
	}
	opts := cfg.LLMOptions()
	if opts.Provider != "gemini" || opts.Model != "m" || opts.APIKey != "k" || opts.Temperature != 0.5 || opts.Timeout != time.Second {
		t.Errorf("LLMOptions() = %+v", opts)
	}
	so := cfg.SessionOptions()
	if so.TTL != time.Minute || so.MaxSessions != 3 {
		t.Errorf("SessionOptions() = %+v", so)
	}
}
