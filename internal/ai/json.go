package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoJSON means the model reply contained no {...} object at all
	ErrNoJSON = errors.New("no JSON object found in model response")
	// ErrInvalidJSON means an object was found but did not parse
	ErrInvalidJSON = errors.New("invalid JSON in model response")
)

const jsonInstruction = "\n\nIMPORTANT: Respond ONLY with valid JSON."

// JSONResult is the outcome of a JSON generation. Error is set (and Data nil)
// when the call failed or the reply could not be recovered; Raw keeps the
// model text for diagnostics.
type JSONResult struct {
	Data  map[string]any `json:"data,omitempty"`
	Error string         `json:"error,omitempty"`
	Raw   string         `json:"raw,omitempty"`
}

// OK reports whether Data holds a parsed object
func (r JSONResult) OK() bool {
	return r.Error == "" && r.Data != nil
}

// ExtractJSON recovers a JSON object from a model reply: markdown fences are
// removed, then the whole text is parsed, then the span from the first "{" to
// the last "}".
func ExtractJSON(text string) (map[string]any, error) {
	cleaned := strings.ReplaceAll(text, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err == nil && data != nil {
		return data, nil
	}

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end < start {
		return nil, ErrNoJSON
	}

	data = nil
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return data, nil
}
