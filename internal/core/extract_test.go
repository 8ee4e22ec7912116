package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cleanChangelogJSON = `{"title":"Spring cleanup","version":"v1.2.0","date":"2024-03-01","changes":{"Features":["Added widget export"],"Bug Fixes":["Fixed widget import crash"]}}`

func TestExtractChangelogCleanJSON(t *testing.T) {
	content, err := ExtractChangelog(cleanChangelogJSON)
	require.NoError(t, err)

	assert.Equal(t, "Spring cleanup", content.Title)
	assert.Equal(t, "v1.2.0", content.Version)
	assert.Equal(t, "2024-03-01", content.Date)
	assert.Equal(t, []string{"Added widget export"}, content.Changes["Features"])
	assert.Equal(t, []string{"Fixed widget import crash"}, content.Changes["Bug Fixes"])
}

func TestExtractChangelogSurroundingProse(t *testing.T) {
	raw := "Sure! Here is the changelog you asked for:\n```json\n" + cleanChangelogJSON + "\n```\nLet me know if you need anything else."

	content, err := ExtractChangelog(raw)
	require.NoError(t, err)
	assert.Equal(t, "Spring cleanup", content.Title)
	assert.Len(t, content.Changes, 2)
}

func TestExtractJSONObjectNestedBalancing(t *testing.T) {
	got, ok := extractJSONObject(`Sure! {"a":{"b":1}} Thanks`)
	require.True(t, ok)
	assert.Equal(t, `{"a":{"b":1}}`, got)
}

func TestExtractJSONObjectFirstSpanWins(t *testing.T) {
	got, ok := extractJSONObject(`{"first":1} trailing {"second":2}`)
	require.True(t, ok)
	assert.Equal(t, `{"first":1}`, got)
}

func TestExtractChangelogNoBraces(t *testing.T) {
	_, err := ExtractChangelog("I could not produce a changelog for this diff.")
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestExtractChangelogUnbalancedBraces(t *testing.T) {
	_, err := ExtractChangelog(`{"title":"oops","changes":{`)
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestExtractChangelogInvalidJSONCandidate(t *testing.T) {
	// Balanced braces, but not parseable JSON.
	_, err := ExtractChangelog(`{this is not json}`)
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestExtractChangelogSchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"missing changes", `{"title":"t","version":"v","date":"d"}`},
		{"missing title", `{"version":"v","date":"d","changes":{}}`},
		{"title not a string", `{"title":42,"version":"v","date":"d","changes":{}}`},
		{"changes not an object", `{"title":"t","version":"v","date":"d","changes":["x"]}`},
		{"category not an array", `{"title":"t","version":"v","date":"d","changes":{"Features":"x"}}`},
		{"entry not a string", `{"title":"t","version":"v","date":"d","changes":{"Features":[1,2]}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractChangelog(tt.raw)
			assert.ErrorIs(t, err, ErrSchemaViolation)
			assert.NotErrorIs(t, err, ErrMalformedResponse)
		})
	}
}

func TestExtractChangelogOpenCategorySet(t *testing.T) {
	raw := `{"title":"t","version":"v","date":"d","changes":{"Breaking Changes":["Dropped v1 API"]}}`

	content, err := ExtractChangelog(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"Dropped v1 API"}, content.Changes["Breaking Changes"])
}

func TestExtractChangelogEmptyChanges(t *testing.T) {
	content, err := ExtractChangelog(`{"title":"t","version":"v","date":"d","changes":{}}`)
	require.NoError(t, err)
	assert.Empty(t, content.Changes)
}
