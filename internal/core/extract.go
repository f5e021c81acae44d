package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
)

// ErrNoJSON is returned when no JSON object can be recovered from model output.
var ErrNoJSON = errors.New("no valid JSON object found in response")

// ExtractJSON recovers the first JSON object hidden in free-form model output.
//
// Candidates are tried in order: the trimmed text as-is, the text sliced from
// the first '{' to the last '}', the contents of a ``` fence (same two steps),
// and finally the text with // and # comment lines removed. The returned
// string always decodes to a JSON object.
func ExtractJSON(text string) (string, error) {
	raw, _, err := extract(text)
	return raw, err
}

// ExtractObject recovers a JSON object and decodes it into a generic map.
func ExtractObject(text string) (map[string]any, error) {
	_, obj, err := extract(text)
	return obj, err
}

// DecodeJSON recovers a JSON object and decodes it into v.
func DecodeJSON(text string, v any) error {
	raw, _, err := extract(text)
	if err != nil {
		return err
	}
	if err := sonic.ConfigStd.UnmarshalFromString(raw, v); err != nil {
		return fmt.Errorf("failed to decode JSON: %w", err)
	}
	return nil
}

// extract returns the first candidate that decodes to an object, with its decoded form.
func extract(text string) (string, map[string]any, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", nil, ErrNoJSON
	}
	for _, candidate := range jsonCandidates(text) {
		if obj, ok := decodeObject(candidate); ok {
			return candidate, obj, nil
		}
	}
	return "", nil, ErrNoJSON
}

func jsonCandidates(text string) []string {
	candidates := []string{text, sliceBraces(stripArtifact(text))}

	fenced, hasFence := fencedRegion(text)
	if hasFence {
		fenced = strings.TrimSpace(fenced)
		candidates = append(candidates, fenced, sliceBraces(stripArtifact(fenced)))
	}

	base := text
	if hasFence {
		base = fenced
	}
	candidates = append(candidates, sliceBraces(stripCommentLines(stripArtifact(base))))
	return candidates
}

// stripArtifact drops the stray "n\n" some models emit before the payload.
func stripArtifact(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "n\n")
	return strings.TrimSpace(s)
}

// sliceBraces returns s from the first '{' to the last '}' inclusive.
func sliceBraces(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return s[start : end+1]
}

// fencedRegion returns the body of the first ```json (or bare ```) fence.
func fencedRegion(s string) (string, bool) {
	open := "```json"
	start := strings.Index(s, open)
	if start == -1 {
		open = "```"
		start = strings.Index(s, open)
		if start == -1 {
			return "", false
		}
	}
	body := s[start+len(open):]
	if end := strings.Index(body, "```"); end != -1 {
		body = body[:end]
	}
	return body, true
}

func stripCommentLines(s string) string {
	lines := strings.Split(s, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "#") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, " ")
}

func decodeObject(s string) (map[string]any, bool) {
	if s == "" || s[0] != '{' {
		return nil, false
	}
	var obj map[string]any
	if err := sonic.ConfigStd.UnmarshalFromString(s, &obj); err != nil {
		return nil, false
	}
	return obj, true
}
