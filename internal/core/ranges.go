package core

import (
	"context"
	"fmt"
	"time"
)

// RangeKind records where a range came from, which decides how version and
// date metadata are computed for its changelog entry.
type RangeKind int

const (
	// RangeCommits is an explicit or fallback SHA pair; versioned as
	// "base7...head7" and dated at assembly time.
	RangeCommits RangeKind = iota
	// RangeRelease pairs two adjacent releases; versioned by the head
	// release's tag and dated by its publish date.
	RangeRelease
)

// CommitRange is one base/head comparison window to summarize.
type CommitRange struct {
	Base string
	Head string
	Kind RangeKind

	// Set only for RangeRelease.
	ReleaseTag  string
	PublishedAt time.Time
}

const (
	maxReleases        = 3
	fallbackWindowDays = 30
)

// selectRanges decides which comparisons to run. An explicit pair wins
// as-is (no ordering validation — that is the caller's responsibility).
// Otherwise the last releases are paired newest-first, and a repository with
// fewer than two releases falls back to a single 30-day window anchored at
// HEAD.
func (s *GeneratorService) selectRanges(ctx context.Context, ref RepositoryRef, base, head string) ([]CommitRange, error) {
	if base != "" && head != "" {
		return []CommitRange{{Base: base, Head: head, Kind: RangeCommits}}, nil
	}

	releases, err := s.history.ListReleases(ctx, ref.Owner, ref.Name, maxReleases)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
	}

	if len(releases) >= 2 {
		ranges := make([]CommitRange, 0, len(releases)-1)
		for i := 0; i < min(maxReleases, len(releases)-1); i++ {
			ranges = append(ranges, CommitRange{
				Base:        releases[i+1].TagName,
				Head:        releases[i].TagName,
				Kind:        RangeRelease,
				ReleaseTag:  releases[i].TagName,
				PublishedAt: releases[i].PublishedAt,
			})
		}
		return ranges, nil
	}

	return s.fallbackRange(ctx, ref)
}

// fallbackRange diffs the oldest commit of the last 30 days against HEAD,
// for repositories with no usable release history.
func (s *GeneratorService) fallbackRange(ctx context.Context, ref RepositoryRef) ([]CommitRange, error) {
	headSHA, err := s.history.GetCommitSHA(ctx, ref.Owner, ref.Name, "HEAD")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
	}

	since := time.Now().AddDate(0, 0, -fallbackWindowDays)
	commits, err := s.history.ListCommitsSince(ctx, ref.Owner, ref.Name, since)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
	}
	if len(commits) == 0 {
		return nil, fmt.Errorf("%w: no commits in the last %d days for %s", ErrEmptyDiffWindow, fallbackWindowDays, ref)
	}

	// Commits arrive newest-first, so the window's oldest commit is last.
	oldest := commits[len(commits)-1]
	return []CommitRange{{Base: oldest.SHA, Head: headSHA, Kind: RangeCommits}}, nil
}
