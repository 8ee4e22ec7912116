package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleContent(version string) ChangelogContent {
	return ChangelogContent{
		Title:   "Release " + version,
		Version: version,
		Date:    "2024-03-01",
		Changes: map[string][]string{"Features": {"Something new"}},
	}
}

func TestInsertChangelogAssignsIdentity(t *testing.T) {
	s := newTestStore(t)

	record, err := s.InsertChangelog("acme/widgets", sampleContent("v1.0.0"))
	require.NoError(t, err)

	assert.NotEmpty(t, record.ID)
	assert.Equal(t, "acme/widgets", record.Repository)
	assert.Equal(t, "v1.0.0", record.Content.Version)
	assert.WithinDuration(t, time.Now(), record.CreatedAt, 5*time.Second)
}

func TestInsertChangelogNoDeduplication(t *testing.T) {
	s := newTestStore(t)

	first, err := s.InsertChangelog("acme/widgets", sampleContent("v1.0.0"))
	require.NoError(t, err)
	second, err := s.InsertChangelog("acme/widgets", sampleContent("v1.0.0"))
	require.NoError(t, err)

	// Identical content inserts twice under distinct IDs.
	assert.NotEqual(t, first.ID, second.ID)

	_, total, err := s.ListChangelogs("acme/widgets", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestListChangelogsFilterAndContentRoundTrip(t *testing.T) {
	s := newTestStore(t)

	_, err := s.InsertChangelog("acme/widgets", sampleContent("v1.0.0"))
	require.NoError(t, err)
	_, err = s.InsertChangelog("acme/gadgets", sampleContent("v9.0.0"))
	require.NoError(t, err)

	records, total, err := s.ListChangelogs("acme/gadgets", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, records, 1)
	assert.Equal(t, "acme/gadgets", records[0].Repository)
	assert.Equal(t, sampleContent("v9.0.0"), records[0].Content)

	all, total, err := s.ListChangelogs("", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, all, 2)
}

func TestListChangelogsPagination(t *testing.T) {
	s := newTestStore(t)

	for i := 0; i < 12; i++ {
		_, err := s.InsertChangelog("acme/widgets", sampleContent("v1.0."+string(rune('0'+i%10))))
		require.NoError(t, err)
	}

	page1, total, err := s.ListChangelogs("acme/widgets", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 12, total)
	assert.Len(t, page1, 10)

	page2, _, err := s.ListChangelogs("acme/widgets", 2, 10)
	require.NoError(t, err)
	assert.Len(t, page2, 2)

	page3, _, err := s.ListChangelogs("acme/widgets", 3, 10)
	require.NoError(t, err)
	assert.Empty(t, page3)
}

func TestListRepositoriesDistinct(t *testing.T) {
	s := newTestStore(t)

	_, err := s.InsertChangelog("acme/widgets", sampleContent("v1.0.0"))
	require.NoError(t, err)
	_, err = s.InsertChangelog("acme/widgets", sampleContent("v2.0.0"))
	require.NoError(t, err)
	_, err = s.InsertChangelog("acme/gadgets", sampleContent("v1.0.0"))
	require.NoError(t, err)

	repos, err := s.ListRepositories()
	require.NoError(t, err)
	assert.Equal(t, []string{"acme/gadgets", "acme/widgets"}, repos)
}
