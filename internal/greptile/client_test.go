package greptile

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	return NewClient(server.URL, "test-api-key", "test-github-token", "main"), server
}

func TestCheckIndexedCompleted(t *testing.T) {
	var gotPath, gotAuth string
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]string{"status": "COMPLETED"})
	}))
	defer server.Close()

	status, err := client.CheckIndexed(context.Background(), "acme/widgets")
	require.NoError(t, err)

	assert.True(t, status.Indexed)
	assert.Equal(t, StatusCompleted, status.Status)
	// Composite repository id, URL-escaped as a single path segment.
	assert.Equal(t, "/repositories/github:main:acme%2Fwidgets", gotPath)
	assert.Equal(t, "Bearer test-api-key", gotAuth)
}

func TestCheckIndexedProcessingIsNotIndexed(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "PROCESSING"})
	}))
	defer server.Close()

	status, err := client.CheckIndexed(context.Background(), "acme/widgets")
	require.NoError(t, err)
	assert.False(t, status.Indexed)
	assert.Equal(t, "PROCESSING", status.Status)
}

func TestCheckIndexedNotFound(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	status, err := client.CheckIndexed(context.Background(), "acme/widgets")
	require.NoError(t, err, "404 means never indexed, not a transport failure")
	assert.False(t, status.Indexed)
	assert.Equal(t, StatusNotFound, status.Status)
}

func TestCheckIndexedServerError(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := client.CheckIndexed(context.Background(), "acme/widgets")
	assert.Error(t, err)
}

func TestIndexSendsForcedReload(t *testing.T) {
	var gotBody map[string]any
	var gotToken string
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		gotToken = r.Header.Get("X-GitHub-Token")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	require.NoError(t, client.Index(context.Background(), "acme/widgets"))

	assert.Equal(t, "acme/widgets", gotBody["repository"])
	assert.Equal(t, true, gotBody["reload"])
	assert.Equal(t, "github", gotBody["remote"])
	assert.Equal(t, "main", gotBody["branch"])
	assert.Equal(t, "test-github-token", gotToken)
}

func TestIndexFailure(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	assert.Error(t, client.Index(context.Background(), "acme/widgets"))
}

func TestQueryChangelogReturnsRawMessage(t *testing.T) {
	var gotBody struct {
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
		Repositories []map[string]string `json:"repositories"`
		Stream       bool                `json:"stream"`
		Genius       bool                `json:"genius"`
	}
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(map[string]string{"message": `Sure: {"title":"t"}`})
	}))
	defer server.Close()

	raw, err := client.QueryChangelog(context.Background(), "acme/widgets", "File: a.go\nStatus: modified")
	require.NoError(t, err)

	// Raw text passes through untouched; extraction happens upstream.
	assert.Equal(t, `Sure: {"title":"t"}`, raw)

	require.Len(t, gotBody.Messages, 1)
	assert.Equal(t, "user", gotBody.Messages[0].Role)
	assert.Contains(t, gotBody.Messages[0].Content, "File: a.go")
	assert.Contains(t, gotBody.Messages[0].Content, "UI/UX")
	assert.Contains(t, gotBody.Messages[0].Content, "valid JSON only")
	require.Len(t, gotBody.Repositories, 1)
	assert.Equal(t, "acme/widgets", gotBody.Repositories[0]["repository"])
	assert.False(t, gotBody.Stream)
	assert.False(t, gotBody.Genius)
}

func TestQueryChangelogFailure(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := client.QueryChangelog(context.Background(), "acme/widgets", "diff")
	assert.Error(t, err)
}
