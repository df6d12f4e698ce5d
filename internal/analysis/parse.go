package analysis

import (
	"encoding/json"
	"errors"
	"strings"
)

// Result is the outcome of parsing one analysis response. When Parsed is false the
// Value holds the stage default and Raw keeps the text that could not be parsed.
type Result[T any] struct {
	Value  T
	Raw    string
	Parsed bool
	Err    error
}

// Parsed wraps a value decoded from raw.
func Parsed[T any](value T, raw string) Result[T] {
	return Result[T]{Value: value, Raw: raw, Parsed: true}
}

// Fallback wraps the default substituted for raw text that did not decode.
func Fallback[T any](value T, raw string, err error) Result[T] {
	return Result[T]{Value: value, Raw: raw, Err: err}
}

var errEmptyPayload = errors.New("empty payload")

var errNotObject = errors.New("payload is not a JSON object")

// parseModelPayload strictly decodes a model reply as one JSON object. A reply that is
// wrapped as a whole in a markdown code fence is unwrapped first; JSON embedded in
// surrounding prose is rejected.
func parseModelPayload[T any](raw string) (T, error) {
	var zero T
	text := unwrapCodeFence(strings.TrimSpace(raw))
	if text == "" {
		return zero, errEmptyPayload
	}
	if !strings.HasPrefix(text, "{") {
		return zero, errNotObject
	}
	var decoded T
	if err := json.Unmarshal([]byte(text), &decoded); err != nil {
		return zero, err
	}
	return decoded, nil
}

// unwrapCodeFence returns the body of a reply that is exactly one fenced block, such as
// "```json\n{...}\n```". Anything else is returned unchanged.
func unwrapCodeFence(text string) string {
	if !strings.HasPrefix(text, "```") || !strings.HasSuffix(text, "```") || len(text) < 6 {
		return text
	}
	body := text[3 : len(text)-3]
	nl := strings.IndexByte(body, '\n')
	if nl < 0 {
		return text
	}
	// the info string ("json") may only hold a language tag
	if tag := strings.TrimSpace(body[:nl]); tag != "" && !strings.EqualFold(tag, "json") {
		return text
	}
	body = body[nl+1:]
	if strings.Contains(body, "```") {
		return text
	}
	return strings.TrimSpace(body)
}
