package models

import (
	"fmt"
	"strings"
)

// ConversationTurn is the input to one assistant turn.
type ConversationTurn struct {
	UserPrompt     string
	RunningSummary string
}

// ChatRequest is the inbound request body for a chat turn.
type ChatRequest struct {
	Prompt    string `json:"prompt"`
	Summary   string `json:"summary,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// Validate ensures the request carries a prompt.
// A prompt made only of whitespace counts as missing.
func (r *ChatRequest) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return fmt.Errorf("prompt cannot be empty")
	}
	return nil
}

// Turn returns the conversation turn described by the request.
func (r *ChatRequest) Turn() ConversationTurn {
	return ConversationTurn{UserPrompt: r.Prompt, RunningSummary: r.Summary}
}

// ChatResponse is the final payload of a turn.
type ChatResponse struct {
	Summary      string     `json:"summary"`
	TextResponse string     `json:"text_response"`
	VideoResults []VideoHit `json:"video_results"`
	SessionID    string     `json:"session_id,omitempty"`
}
