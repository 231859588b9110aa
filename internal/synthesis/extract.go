package synthesis

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNoJSONFound is returned when the model response contains no candidate
// JSON payload at all.
var ErrNoJSONFound = errors.New("no JSON payload found in model response")

// MalformedJSONError is returned when a candidate payload was located but
// failed to parse even after the single strict-rescan fallback.
type MalformedJSONError struct {
	Detail string
}

func (e *MalformedJSONError) Error() string {
	return "malformed JSON in model response: " + e.Detail
}

var (
	fencedBlockRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

	// Permissive by policy: first opening brace to last closing brace. This can
	// over- or under-match when string values contain braces; that is an
	// accepted limitation of the extraction contract, not a bug.
	permissiveObjectRe = regexp.MustCompile(`(?s)\{.*\}`)
	permissiveArrayRe  = regexp.MustCompile(`(?s)\[.*\]`)

	// Fallback rescan: minimal span, first opening brace to the nearest
	// closing brace.
	strictObjectRe = regexp.MustCompile(`(?s)\{.*?\}`)
)

// ExtractJSON locates and validates the JSON payload embedded in raw model
// output. Candidates are tried in priority order: the whole trimmed text,
// a fenced code block, then the permissive brace/bracket span. The returned
// string is guaranteed to parse.
func ExtractJSON(raw string) (string, error) {
	candidate := findCandidate(raw)
	if candidate == "" {
		return "", ErrNoJSONFound
	}
	if json.Valid([]byte(candidate)) {
		return candidate, nil
	}

	// One fallback: rescan the already-extracted span with the stricter
	// minimal object regex before giving up.
	if rescanned := strictObjectRe.FindString(candidate); rescanned != "" && json.Valid([]byte(rescanned)) {
		return rescanned, nil
	}

	var probe any
	err := json.Unmarshal([]byte(candidate), &probe)
	detail := "invalid JSON"
	if err != nil {
		detail = err.Error()
	}
	return "", &MalformedJSONError{Detail: detail}
}

func findCandidate(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}") {
		return trimmed
	}
	if m := fencedBlockRe.FindStringSubmatch(trimmed); m != nil {
		if inner := strings.TrimSpace(m[1]); inner != "" {
			return inner
		}
	}
	if span := permissiveObjectRe.FindString(trimmed); span != "" {
		return span
	}
	if span := permissiveArrayRe.FindString(trimmed); span != "" {
		return span
	}
	return ""
}

// ParseObject extracts and unmarshals the payload into a generic object.
func ParseObject(raw string) (map[string]any, error) {
	payload, err := ExtractJSON(raw)
	if err != nil {
		return nil, err
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(payload), &obj); err != nil {
		return nil, &MalformedJSONError{Detail: fmt.Sprintf("payload is not a JSON object: %v", err)}
	}
	return obj, nil
}
