package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

const (
	defaultOllamaURL   = "http://localhost:11434"
	defaultOllamaModel = "llama3.2"

	// ollamaHistoryTurns is how many past exchanges a session replays.
	ollamaHistoryTurns = 20
)

// OllamaProvider opens chats against a local Ollama server.
type OllamaProvider struct {
	baseURL     string
	model       string
	temperature float64
	client      *http.Client
	// maxHistory caps the replayed messages; always even so exchanges stay paired.
	maxHistory int
}

// NewOllamaProvider creates a provider for opts.BaseURL and opts.Model.
func NewOllamaProvider(opts Options) *OllamaProvider {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	model := opts.Model
	if model == "" {
		model = defaultOllamaModel
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	return &OllamaProvider{
		baseURL:     baseURL,
		model:       model,
		temperature: opts.Temperature,
		client:      &http.Client{Timeout: timeout},
		maxHistory:  2 * ollamaHistoryTurns,
	}
}

func (p *OllamaProvider) Name() string { return ProviderOllama }

func (p *OllamaProvider) NewSession(ctx context.Context) (Session, error) {
	return &ollamaSession{provider: p}, nil
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  map[string]any  `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Message *ollamaMessage `json:"message"`
	Done    bool           `json:"done"`
}

// ollamaSession replays its most recent exchanges on every call; /api/chat is
// stateless.
type ollamaSession struct {
	provider *OllamaProvider

	mu      sync.Mutex
	history []ollamaMessage
}

func (s *ollamaSession) SendMessage(ctx context.Context, prompt string) (*Reply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.provider
	messages := append(append([]ollamaMessage(nil), s.history...), ollamaMessage{Role: "user", Content: prompt})
	reqBody := ollamaChatRequest{Model: p.model, Messages: messages, Stream: false}
	if p.temperature > 0 {
		reqBody.Options = map[string]any{"temperature": p.temperature}
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}

	var chatResp ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if chatResp.Message == nil {
		return nil, nil
	}

	s.history = trimHistory(append(messages, ollamaMessage{Role: "assistant", Content: chatResp.Message.Content}), p.maxHistory)
	return &Reply{Text: chatResp.Message.Content}, nil
}

// trimHistory keeps the last limit messages of history.
func trimHistory(history []ollamaMessage, limit int) []ollamaMessage {
	if limit <= 0 || len(history) <= limit {
		return history
	}
	return append([]ollamaMessage(nil), history[len(history)-limit:]...)
}
