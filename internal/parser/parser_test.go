package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_FencedObject(t *testing.T) {
	raw := "```json\n{\"intent\": \"find video\", \"summary\": \"ted talks\", \"response\": \"Here are some videos I found.\"}\n```"
	r := Parse(raw)
	require.Equal(t, Parsed, r.Kind)
	assert.Equal(t, "find video", r.StringOrEmpty("intent"))
	assert.Equal(t, "ted talks", r.StringOrEmpty("summary"))
	assert.Equal(t, "Here are some videos I found.", r.StringOrEmpty("response"))
	assert.Equal(t, raw, r.Raw)
	assert.NoError(t, r.Err)
}

func TestParse_SurroundingProse(t *testing.T) {
	raw := "Sure! Here is the analysis:\n```json\n{\n  \"topic\": \"cooking\"\n}\n```\nLet me know if you need more."
	r := Parse(raw)
	require.Equal(t, Parsed, r.Kind)
	assert.Equal(t, "cooking", r.StringOrEmpty("topic"))
}

func TestParse_CRLFAndUppercaseTag(t *testing.T) {
	raw := "```JSON\r\n{\"topic\": \"music\"}\r\n```\r\n"
	r := Parse(raw)
	require.Equal(t, Parsed, r.Kind)
	assert.Equal(t, "music", r.StringOrEmpty("topic"))
}

func TestParse_FirstBlockWins(t *testing.T) {
	raw := "```json\n{\"topic\": \"first\"}\n```\n```json\n{\"topic\": \"second\"}\n```"
	r := Parse(raw)
	require.Equal(t, Parsed, r.Kind)
	assert.Equal(t, "first", r.StringOrEmpty("topic"))
}

func TestParse_NonASCIIProseBeforeFence(t *testing.T) {
	body := "\n```json\n{\"intent\": \"find video\", \"summary\": \"travel\"}\n```"
	tests := []struct {
		name  string
		prose string
	}{
		{"dotted capital I", "İstanbul İzmir:"},
		{"kelvin sign", "\u212a\u212a\u212a\u212a note"},
		{"a with stroke", strings.Repeat("Ⱥ", 20)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r Result
			require.NotPanics(t, func() { r = Parse(tt.prose + body) })
			require.Equal(t, Parsed, r.Kind, "err: %v", r.Err)
			assert.Equal(t, "find video", r.StringOrEmpty("intent"))
			assert.Equal(t, "travel", r.StringOrEmpty("summary"))
		})
	}
}

func TestParse_NonASCIIFenceOnly(t *testing.T) {
	var r Result
	require.NotPanics(t, func() { r = Parse(strings.Repeat("Ⱥ", 20) + " ```json") })
	assert.Equal(t, Malformed, r.Kind)
	assert.ErrorIs(t, r.Err, ErrNoFence)
}

func TestParse_NoFence(t *testing.T) {
	raw := "Barack Obama was the president in 2012."
	r := Parse(raw)
	assert.Equal(t, Malformed, r.Kind)
	assert.Equal(t, raw, r.Raw)
	assert.ErrorIs(t, r.Err, ErrNoFence)
	_, ok := r.String("intent")
	assert.False(t, ok)
	assert.Empty(t, r.StringOrEmpty("response"))
}

func TestParse_BareJSONWithoutFence(t *testing.T) {
	r := Parse(`{"intent": "find video"}`)
	assert.Equal(t, Malformed, r.Kind)
	assert.ErrorIs(t, r.Err, ErrNoFence)
}

func TestParse_FenceOnSameLine(t *testing.T) {
	r := Parse("```json {\"intent\": \"find video\"}```")
	assert.Equal(t, Malformed, r.Kind)
	assert.ErrorIs(t, r.Err, ErrNoFence)
}

func TestParse_Unterminated(t *testing.T) {
	r := Parse("```json\n{\"intent\": \"find vid")
	assert.Equal(t, Malformed, r.Kind)
	assert.ErrorIs(t, r.Err, ErrUnterminatedFence)
}

func TestParse_NestedFence(t *testing.T) {
	r := Parse("```json\n{\"code\": \"\n```python\nprint(1)\n```\n\"}\n```")
	assert.Equal(t, Malformed, r.Kind)
	assert.ErrorIs(t, r.Err, ErrNestedFence)
}

func TestParse_InvalidJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"truncated object", "```json\n{\"intent\": \"find video\",\n```"},
		{"empty block", "```json\n```"},
		{"array", "```json\n[1, 2]\n```"},
		{"null", "```json\nnull\n```"},
		{"scalar", "```json\n\"hello\"\n```"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Parse(tt.raw)
			assert.Equal(t, DecodeError, r.Kind)
			assert.ErrorIs(t, r.Err, ErrInvalidJSON)
			assert.Equal(t, "Invalid JSON format", r.Err.Error())
			assert.Nil(t, r.Fields)
		})
	}
}

func TestResult_StringConversions(t *testing.T) {
	r := Parse("```json\n{\"a\": \"x\", \"b\": 1000000, \"c\": 1.5, \"d\": true, \"e\": null, \"f\": [1], \"g\": {}}\n```")
	require.Equal(t, Parsed, r.Kind)

	tests := []struct {
		key    string
		want   string
		wantOK bool
	}{
		{"a", "x", true},
		{"b", "1000000", true},
		{"c", "1.5", true},
		{"d", "true", true},
		{"e", "", false},
		{"f", "", false},
		{"g", "", false},
		{"missing", "", false},
	}
	for _, tt := range tests {
		got, ok := r.String(tt.key)
		assert.Equal(t, tt.wantOK, ok, "key %s", tt.key)
		assert.Equal(t, tt.want, got, "key %s", tt.key)
	}
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "parsed", Parsed.String())
	assert.Equal(t, "malformed", Malformed.String())
	assert.Equal(t, "decode_error", DecodeError.String())
}

func TestSchema_Validate(t *testing.T) {
	ok := Parse("```json\n{\"intent\": \"find video\", \"summary\": \"s\", \"response\": \"r\"}\n```")
	assert.Empty(t, IntentSchema.Validate(ok))

	missing := Parse("```json\n{\"intent\": \"find video\"}\n```")
	assert.NotEmpty(t, IntentSchema.Validate(missing))

	wrongType := Parse("```json\n{\"intent\": 3, \"summary\": \"s\", \"response\": \"r\"}\n```")
	assert.NotEmpty(t, IntentSchema.Validate(wrongType))

	assert.Nil(t, IntentSchema.Validate(Parse("no json here")))
}

func TestVideoQuerySchema_Validate(t *testing.T) {
	good := Parse("```json\n{\"topic\": \"ted talk\", \"view_count\": \">1240\", \"release_date_before\": \"2023-05-12\", \"release_date_after\": \"\"}\n```")
	assert.Empty(t, VideoQuerySchema.Validate(good))

	numeric := Parse("```json\n{\"topic\": \"ted talk\", \"view_count\": 1000}\n```")
	assert.Empty(t, VideoQuerySchema.Validate(numeric))

	badDate := Parse("```json\n{\"topic\": \"ted talk\", \"release_date_before\": \"May 12, 2023\"}\n```")
	assert.NotEmpty(t, VideoQuerySchema.Validate(badDate))
	assert.Equal(t, "video_query", VideoQuerySchema.Name())
}
