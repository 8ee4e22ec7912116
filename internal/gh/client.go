package gh

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v68/github"
)

// Release is the slice of a GitHub release the changelog workflow cares
// about: the tag to diff against and the publish date for the entry.
type Release struct {
	TagName     string    `json:"tag_name"`
	Name        string    `json:"name"`
	PublishedAt time.Time `json:"published_at"`
}

type Commit struct {
	SHA     string    `json:"sha"`
	Message string    `json:"message"`
	Author  string    `json:"author"`
	Date    time.Time `json:"date"`
}

// FileDiff is one changed file in a two-ref comparison. Patch is the raw
// unified diff text as returned by GitHub, passed through untouched.
type FileDiff struct {
	Filename  string `json:"filename"`
	Status    string `json:"status"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Patch     string `json:"patch"`
}

// Client wraps the GitHub REST API for the repository history reads the
// service needs: releases, commits and two-ref comparisons.
type Client struct {
	gh *github.Client
}

// NewClient builds an authenticated client. baseURL overrides the API
// endpoint (used by tests); pass "" for api.github.com.
func NewClient(token string, baseURL string) (*Client, error) {
	client := github.NewClient(nil)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	if baseURL != "" {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		parsed, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid github base URL %q: %w", baseURL, err)
		}
		client.BaseURL = parsed
	}
	return &Client{gh: client}, nil
}

// ListReleases returns up to perPage most recent releases, newest first.
func (c *Client) ListReleases(ctx context.Context, owner, repo string, perPage int) ([]Release, error) {
	releases, _, err := c.gh.Repositories.ListReleases(ctx, owner, repo, &github.ListOptions{PerPage: perPage})
	if err != nil {
		return nil, fmt.Errorf("failed to list releases for %s/%s: %w", owner, repo, err)
	}

	out := make([]Release, 0, len(releases))
	for _, r := range releases {
		out = append(out, Release{
			TagName:     r.GetTagName(),
			Name:        r.GetName(),
			PublishedAt: r.GetPublishedAt().Time,
		})
	}
	return out, nil
}

// ListCommits returns one page of commits on the default branch.
func (c *Client) ListCommits(ctx context.Context, owner, repo string, page, perPage int) ([]Commit, error) {
	opts := &github.CommitsListOptions{
		ListOptions: github.ListOptions{Page: page, PerPage: perPage},
	}
	commits, _, err := c.gh.Repositories.ListCommits(ctx, owner, repo, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list commits for %s/%s: %w", owner, repo, err)
	}
	return toCommits(commits), nil
}

// ListCommitsSince returns commits newer than since, newest first (GitHub's
// default ordering), so the oldest commit in the window is the last element.
func (c *Client) ListCommitsSince(ctx context.Context, owner, repo string, since time.Time) ([]Commit, error) {
	opts := &github.CommitsListOptions{Since: since}
	commits, _, err := c.gh.Repositories.ListCommits(ctx, owner, repo, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list commits since %s for %s/%s: %w", since.Format(time.RFC3339), owner, repo, err)
	}
	return toCommits(commits), nil
}

// GetCommitSHA resolves a ref (SHA, tag, branch or "HEAD") to a full SHA.
func (c *Client) GetCommitSHA(ctx context.Context, owner, repo, ref string) (string, error) {
	commit, _, err := c.gh.Repositories.GetCommit(ctx, owner, repo, ref, nil)
	if err != nil {
		return "", fmt.Errorf("failed to get commit %s for %s/%s: %w", ref, owner, repo, err)
	}
	return commit.GetSHA(), nil
}

// CompareCommits diffs base..head and returns the per-file changes in the
// order GitHub reports them.
func (c *Client) CompareCommits(ctx context.Context, owner, repo, base, head string) ([]FileDiff, error) {
	comparison, _, err := c.gh.Repositories.CompareCommits(ctx, owner, repo, base, head, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to compare %s...%s for %s/%s: %w", base, head, owner, repo, err)
	}

	files := make([]FileDiff, 0, len(comparison.Files))
	for _, f := range comparison.Files {
		files = append(files, FileDiff{
			Filename:  f.GetFilename(),
			Status:    f.GetStatus(),
			Additions: f.GetAdditions(),
			Deletions: f.GetDeletions(),
			Patch:     f.GetPatch(),
		})
	}
	return files, nil
}

func toCommits(commits []*github.RepositoryCommit) []Commit {
	out := make([]Commit, 0, len(commits))
	for _, c := range commits {
		commit := Commit{SHA: c.GetSHA()}
		if inner := c.GetCommit(); inner != nil {
			commit.Message = inner.GetMessage()
			if author := inner.GetAuthor(); author != nil {
				commit.Author = author.GetName()
				commit.Date = author.GetDate().Time
			}
		}
		out = append(out, commit)
	}
	return out
}
