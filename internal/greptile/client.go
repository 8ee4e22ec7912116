// Package greptile is a thin client for the Greptile code-intelligence API:
// repository index status, index triggering, and natural-language queries
// against an indexed repository. Greptile ships no Go SDK, so this wraps the
// REST endpoints directly.
package greptile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

const (
	StatusCompleted = "COMPLETED"
	StatusNotFound  = "NOT_FOUND"
)

// IndexStatus reports whether a repository is ready to be queried. Indexed is
// true only for backend status COMPLETED; any other backend-reported state
// (SUBMITTED, PROCESSING, ...) passes through in Status.
type IndexStatus struct {
	Indexed bool   `json:"indexed"`
	Status  string `json:"status"`
}

type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	githubToken string
	branch      string
}

// NewClient builds a client for the given API base URL (e.g.
// "https://api.greptile.com/v2"). The GitHub token is forwarded so the
// backend can clone and index private repositories.
func NewClient(baseURL, apiKey, githubToken, branch string) *Client {
	return &Client{
		httpClient:  http.DefaultClient,
		baseURL:     baseURL,
		apiKey:      apiKey,
		githubToken: githubToken,
		branch:      branch,
	}
}

// repositoryID is Greptile's composite identifier: remote:branch:owner/name.
func (c *Client) repositoryID(repository string) string {
	return fmt.Sprintf("github:%s:%s", c.branch, repository)
}

// CheckIndexed queries the index status of a repository. A 404 means the
// backend has never seen the repository and maps to NOT_FOUND rather than an
// error.
func (c *Client) CheckIndexed(ctx context.Context, repository string) (IndexStatus, error) {
	endpoint := fmt.Sprintf("%s/repositories/%s", c.baseURL, url.PathEscape(c.repositoryID(repository)))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return IndexStatus{}, fmt.Errorf("failed to build index status request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return IndexStatus{}, fmt.Errorf("index status request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return IndexStatus{Indexed: false, Status: StatusNotFound}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return IndexStatus{}, fmt.Errorf("failed to check repository index status: %s", resp.Status)
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return IndexStatus{}, fmt.Errorf("failed to decode index status response: %w", err)
	}
	return IndexStatus{Indexed: body.Status == StatusCompleted, Status: body.Status}, nil
}

// Index submits the repository for (re)indexing with a forced reload against
// the configured branch. The backend processes it asynchronously; callers
// poll CheckIndexed.
func (c *Client) Index(ctx context.Context, repository string) error {
	payload := map[string]any{
		"repository": repository,
		"reload":     true,
		"remote":     "github",
		"branch":     c.branch,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal index request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/repositories", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build index request: %w", err)
	}
	c.setWriteHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("index request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("failed to index repository: %s", resp.Status)
	}
	return nil
}

// QueryChangelog asks the backend to summarize a diff into changelog JSON and
// returns the raw message text of its single response. The instruction pins
// the category vocabulary and demands JSON-only output, but the model is free
// to ignore that; extracting a usable object from the reply is the caller's
// problem.
func (c *Client) QueryChangelog(ctx context.Context, repository, diffSummary string) (string, error) {
	payload := map[string]any{
		"messages": []map[string]string{
			{
				"role":    "user",
				"content": changelogInstruction + diffSummary,
			},
		},
		"repositories": []map[string]string{
			{"repository": repository, "branch": c.branch, "remote": "github"},
		},
		"stream": false,
		"genius": false,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal query request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/query", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build query request: %w", err)
	}
	c.setWriteHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("query request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to query greptile: %s", resp.Status)
	}

	var reply struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return "", fmt.Errorf("failed to decode query response: %w", err)
	}
	return reply.Message, nil
}

func (c *Client) setWriteHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("X-GitHub-Token", c.githubToken)
	req.Header.Set("Content-Type", "application/json")
}

const changelogInstruction = `Generate a detailed changelog based on the following diff information. Focus on user-facing changes, new features, bug fixes, and significant internal improvements. Organize the changes into the following categories:

1. UI/UX: Changes related to user interface and user experience
2. Features: New features or significant improvements to existing features
3. Bug Fixes: Corrections to existing functionality
4. Performance: Improvements in speed, efficiency, or resource usage
5. Security: Security-related changes or improvements
6. Documentation: Changes to documentation or comments
7. Internal: Significant internal changes that don't fit into other categories

If a category has no changes, omit it from the response. Return the response as a JSON object with the following structure:
{
    "title": "Brief summary of the overall changes",
    "version": "Custom version or commit range",
    "date": "Current date",
    "changes": {
        "UI/UX": ["Change 1", "Change 2", ...],
        "Features": ["Feature 1", "Feature 2", ...],
        "Bug Fixes": ["Fix 1", "Fix 2", ...],
        "Performance": ["Improvement 1", "Improvement 2", ...],
        "Security": ["Update 1", "Update 2", ...],
        "Documentation": ["Change 1", "Change 2", ...],
        "Internal": ["Change 1", "Change 2", ...]
    }
}

Please return valid JSON only. Skip the preamble.

Here is the diff summary as context:
`
