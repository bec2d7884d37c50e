// Package llm defines the chat-model collaborator and its Gemini and Ollama
// implementations.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Provider names accepted by NewProvider.
const (
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
)

// ErrNoCredentials is returned when the Gemini provider has neither an API key
// nor a Vertex AI project.
var ErrNoCredentials = errors.New("gemini requires an api key or a vertex project")

// Reply is one model response. Text holds the raw output, which may contain a
// fenced JSON block surrounded by prose.
type Reply struct {
	Text string
}

// Session is a stateful chat conversation. Implementations are not required to
// be safe for concurrent use; callers serialize turns on one session.
type Session interface {
	SendMessage(ctx context.Context, prompt string) (*Reply, error)
}

// Provider creates independent chat sessions.
type Provider interface {
	Name() string
	NewSession(ctx context.Context) (Session, error)
}

// Options selects and configures a provider.
type Options struct {
	Provider    string
	Model       string
	APIKey      string
	Vertex      bool
	Project     string
	Location    string
	BaseURL     string
	Temperature float64
	Timeout     time.Duration
}

// NewProvider builds the provider named by opts.Provider.
func NewProvider(ctx context.Context, opts Options) (Provider, error) {
	switch strings.ToLower(opts.Provider) {
	case ProviderGemini, "":
		return NewGeminiProvider(ctx, opts)
	case ProviderOllama:
		return NewOllamaProvider(opts), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", opts.Provider)
	}
}
