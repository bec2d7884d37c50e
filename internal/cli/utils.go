// Package cli provides CLI output helpers for the assistant.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hyperjump/assist/internal/models"
	"github.com/hyperjump/assist/pkg/utils"
)

// OutputFormat is the format for chat output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is the API response body, for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat accepts "text" or "json", case-insensitively.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(s)) {
	case OutputText, "":
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text or json)", s)
	}
}

// WriteChatResponse writes one turn's response to w in the given format.
func WriteChatResponse(w io.Writer, resp *models.ChatResponse, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	writeChatText(w, resp)
	return nil
}

func writeChatText(w io.Writer, resp *models.ChatResponse) {
	fmt.Fprintf(w, "%s\n", resp.TextResponse)
	for i, v := range resp.VideoResults {
		if i == 0 {
			fmt.Fprintln(w)
		}
		writeOneVideo(w, i+1, v)
	}
	if resp.Summary != "" {
		fmt.Fprintf(w, "\nSummary: %s\n", resp.Summary)
	}
}

func writeOneVideo(w io.Writer, rank int, v models.VideoHit) {
	title := "(untitled)"
	if len(v.Titles) > 0 {
		title = utils.Truncate(v.Titles[0], 80)
	}
	fmt.Fprintf(w, "%d. %s\n", rank, title)
	fmt.Fprintf(w, "   ID: %s | Views: %d", v.ID, v.ViewCount)
	if v.ReleasedDate > 0 {
		fmt.Fprintf(w, " | Released: %s", time.Unix(v.ReleasedDate, 0).UTC().Format("2006-01-02"))
	}
	fmt.Fprintln(w)
	if v.ThumbnailURL != "" {
		fmt.Fprintf(w, "   %s\n", v.ThumbnailURL)
	}
}
