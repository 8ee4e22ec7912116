package core

import (
	"encoding/json"
	"fmt"
	"strings"

	"gwi.com/changelog-service/internal/store"
)

// ExtractChangelog pulls a changelog object out of a raw inference reply.
// The model is asked for JSON only, but replies routinely arrive wrapped in
// prose or code fences, so the first balanced brace-delimited span is
// extracted, parsed, and shape-checked. The input is untrusted: nothing from
// it is executed, and the scan is a single bounded pass over the text.
func ExtractChangelog(raw string) (*store.ChangelogContent, error) {
	candidate, ok := extractJSONObject(raw)
	if !ok {
		return nil, fmt.Errorf("%w: no balanced JSON object in response", ErrMalformedResponse)
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(candidate), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	return validateChangelog(payload)
}

// extractJSONObject returns the first substring in which every opening brace
// has a matching close at equal nesting depth. Braces are treated purely
// structurally (no string-escape awareness); depth is tracked with a counter,
// so the scan is bounded by the input length.
func extractJSONObject(raw string) (string, bool) {
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	for i := start; i < len(raw); i++ {
		switch raw[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return raw[start : i+1], true
			}
		}
	}
	return "", false // opened but never balanced
}

func validateChangelog(payload map[string]any) (*store.ChangelogContent, error) {
	content := &store.ChangelogContent{}

	for _, field := range []struct {
		name string
		dst  *string
	}{
		{"title", &content.Title},
		{"version", &content.Version},
		{"date", &content.Date},
	} {
		value, ok := payload[field.name]
		if !ok {
			return nil, fmt.Errorf("%w: missing field %q", ErrSchemaViolation, field.name)
		}
		str, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%w: field %q is not a string", ErrSchemaViolation, field.name)
		}
		*field.dst = str
	}

	rawChanges, ok := payload["changes"]
	if !ok {
		return nil, fmt.Errorf("%w: missing field %q", ErrSchemaViolation, "changes")
	}
	changesMap, ok := rawChanges.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: field %q is not an object", ErrSchemaViolation, "changes")
	}

	content.Changes = make(map[string][]string, len(changesMap))
	for category, rawEntries := range changesMap {
		entries, ok := rawEntries.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: changes[%q] is not an array", ErrSchemaViolation, category)
		}
		descriptions := make([]string, 0, len(entries))
		for i, entry := range entries {
			description, ok := entry.(string)
			if !ok {
				return nil, fmt.Errorf("%w: changes[%q][%d] is not a string", ErrSchemaViolation, category, i)
			}
			descriptions = append(descriptions, description)
		}
		content.Changes[category] = descriptions
	}

	return content, nil
}
