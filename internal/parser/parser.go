// Package parser extracts the JSON object a language model embeds in free text.
//
// Model replies are expected to carry exactly one fenced block:
//
//	```json
//	{"intent": "find video", ...}
//	```
//
// The opening marker is "```json" followed by a line break. The block ends at the
// first line that starts with a bare "```". Every outcome is reported through
// Result; nothing here panics or returns a Go error to the caller.
package parser

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// Kind tags the variant held by a Result.
type Kind int

const (
	// Parsed means a fenced block was found and decoded into an object.
	Parsed Kind = iota
	// Malformed means no usable fenced block exists; Raw is the whole reply.
	Malformed
	// DecodeError means a fenced block exists but its content is not a JSON object.
	DecodeError
)

func (k Kind) String() string {
	switch k {
	case Parsed:
		return "parsed"
	case Malformed:
		return "malformed"
	case DecodeError:
		return "decode_error"
	default:
		return "unknown"
	}
}

const fenceOpen = "```json"

var (
	ErrNoFence           = errors.New("no fenced json block")
	ErrUnterminatedFence = errors.New("fenced json block is not closed")
	ErrNestedFence       = errors.New("nested code fence inside json block")
	ErrInvalidJSON       = errors.New("Invalid JSON format")
)

// Result is the outcome of parsing one model reply.
type Result struct {
	Kind   Kind
	Fields map[string]interface{}
	// Raw is the original reply text, kept for every variant.
	Raw string
	// Err explains a Malformed or DecodeError result.
	Err error
}

// Parse extracts and decodes the fenced JSON object in raw.
func Parse(raw string) Result {
	body, err := ExtractFenced(raw)
	if err != nil {
		return Result{Kind: Malformed, Raw: raw, Err: err}
	}
	var fields map[string]interface{}
	if err := json.Unmarshal([]byte(body), &fields); err != nil || fields == nil {
		return Result{Kind: DecodeError, Raw: raw, Err: ErrInvalidJSON}
	}
	return Result{Kind: Parsed, Fields: fields, Raw: raw}
}

// ExtractFenced returns the content between the first "```json" line and the
// closing fence, without the surrounding line breaks.
func ExtractFenced(raw string) (string, error) {
	start := openingFence(raw)
	if start < 0 {
		return "", ErrNoFence
	}
	lines := strings.Split(raw[start:], "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "```") {
			continue
		}
		if trimmed != "```" {
			return "", ErrNestedFence
		}
		return strings.TrimRight(strings.Join(lines[:i], "\n"), "\r"), nil
	}
	return "", ErrUnterminatedFence
}

// openingFence returns the offset just past the line break that ends the first
// "```json" marker, or -1.
func openingFence(raw string) int {
	for i := 0; i+len(fenceOpen) <= len(raw); i++ {
		if raw[i] != '`' || !strings.EqualFold(raw[i:i+len(fenceOpen)], fenceOpen) {
			continue
		}
		pos := i + len(fenceOpen)
		rest := raw[pos:]
		trimmed := strings.TrimLeft(rest, " \t\r")
		if strings.HasPrefix(trimmed, "\n") {
			return pos + (len(rest) - len(trimmed)) + 1
		}
		i = pos - 1
	}
	return -1
}

// String returns the value at key as text. Numbers are rendered without a
// fractional part when they are integral; other types report false.
func (r Result) String(key string) (string, bool) {
	if r.Kind != Parsed {
		return "", false
	}
	v, ok := r.Fields[key]
	if !ok || v == nil {
		return "", false
	}
	switch val := v.(type) {
	case string:
		return val, true
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10), true
		}
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(val), true
	default:
		return "", false
	}
}

// StringOrEmpty is String with missing values collapsed to "".
func (r Result) StringOrEmpty(key string) string {
	s, _ := r.String(key)
	return s
}
