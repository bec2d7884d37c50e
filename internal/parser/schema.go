package parser

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// Schema checks decoded model output against a JSON schema. Violations are
// descriptive only: callers report them and keep going with whatever fields decoded.
type Schema struct {
	name   string
	loader gojsonschema.JSONLoader
}

// NewSchema wraps a JSON schema document given as a Go value.
func NewSchema(name string, schema map[string]interface{}) *Schema {
	return &Schema{name: name, loader: gojsonschema.NewGoLoader(schema)}
}

// Name returns the schema name used in logs and metrics.
func (s *Schema) Name() string {
	return s.name
}

// Validate returns one message per violation; nil when r conforms.
// Non-parsed results have nothing to validate and return nil.
func (s *Schema) Validate(r Result) []string {
	if r.Kind != Parsed {
		return nil
	}
	result, err := gojsonschema.Validate(s.loader, gojsonschema.NewGoLoader(r.Fields))
	if err != nil {
		return []string{fmt.Sprintf("schema %s: %v", s.name, err)}
	}
	if result.Valid() {
		return nil
	}
	errs := make([]string, len(result.Errors()))
	for i, desc := range result.Errors() {
		errs[i] = desc.String()
	}
	return errs
}

// IntentSchema describes the reply to the intent prompt.
var IntentSchema = NewSchema("intent", map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"intent", "summary", "response"},
	"properties": map[string]interface{}{
		"intent":   map[string]interface{}{"type": "string"},
		"summary":  map[string]interface{}{"type": "string"},
		"response": map[string]interface{}{"type": "string"},
	},
})

// VideoQuerySchema describes the reply to the video query prompt.
var VideoQuerySchema = NewSchema("video_query", map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"topic"},
	"properties": map[string]interface{}{
		"topic":      map[string]interface{}{"type": "string"},
		"view_count": map[string]interface{}{"type": []interface{}{"string", "number"}},
		"release_date_before": map[string]interface{}{
			"type":    "string",
			"pattern": `^(\d{4}-\d{2}-\d{2})?$`,
		},
		"release_date_after": map[string]interface{}{
			"type":    "string",
			"pattern": `^(\d{4}-\d{2}-\d{2})?$`,
		},
		"release_period": map[string]interface{}{"type": "string"},
	},
})
