package llm

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-1.5-flash"

// GeminiProvider opens chats against the Gemini API or Vertex AI.
type GeminiProvider struct {
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig
}

// NewGeminiProvider creates a client from opts. Vertex AI is used when
// opts.Vertex is set, otherwise the Gemini API with opts.APIKey.
func NewGeminiProvider(ctx context.Context, opts Options) (*GeminiProvider, error) {
	cc := &genai.ClientConfig{}
	if opts.Vertex {
		if opts.Project == "" {
			return nil, ErrNoCredentials
		}
		cc.Backend = genai.BackendVertexAI
		cc.Project = opts.Project
		cc.Location = opts.Location
	} else {
		if opts.APIKey == "" {
			return nil, ErrNoCredentials
		}
		cc.Backend = genai.BackendGeminiAPI
		cc.APIKey = opts.APIKey
	}
	if opts.Timeout > 0 {
		cc.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := opts.Model
	if model == "" {
		model = defaultGeminiModel
	}
	var gc *genai.GenerateContentConfig
	if opts.Temperature > 0 {
		gc = &genai.GenerateContentConfig{Temperature: genai.Ptr(float32(opts.Temperature))}
	}
	return &GeminiProvider{client: client, model: model, config: gc}, nil
}

func (p *GeminiProvider) Name() string { return ProviderGemini }

// NewSession starts an empty chat. History is kept by the chat handle.
func (p *GeminiProvider) NewSession(ctx context.Context) (Session, error) {
	chat, err := p.client.Chats.Create(ctx, p.model, p.config, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini chat: %w", err)
	}
	return &geminiSession{chat: chat}, nil
}

type geminiSession struct {
	chat *genai.Chat
}

func (s *geminiSession) SendMessage(ctx context.Context, prompt string) (*Reply, error) {
	resp, err := s.chat.SendMessage(ctx, genai.Part{Text: prompt})
	if err != nil {
		return nil, fmt.Errorf("gemini send failed: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, nil
	}
	return &Reply{Text: resp.Text()}, nil
}
