package core

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"gwi.com/changelog-service/internal/gh"
	"gwi.com/changelog-service/internal/greptile"
	"gwi.com/changelog-service/internal/store"
)

// HistoryService is the source-control read surface the workflow needs.
// Implemented by gh.Client.
type HistoryService interface {
	ListReleases(ctx context.Context, owner, repo string, perPage int) ([]gh.Release, error)
	ListCommitsSince(ctx context.Context, owner, repo string, since time.Time) ([]gh.Commit, error)
	GetCommitSHA(ctx context.Context, owner, repo, ref string) (string, error)
	CompareCommits(ctx context.Context, owner, repo, base, head string) ([]gh.FileDiff, error)
}

// Inference is the code-intelligence backend surface. Implemented by
// greptile.Client.
type Inference interface {
	CheckIndexed(ctx context.Context, repository string) (greptile.IndexStatus, error)
	Index(ctx context.Context, repository string) error
	QueryChangelog(ctx context.Context, repository, diffSummary string) (string, error)
}

// RepositoryRef is an owner/name pair parsed from an "owner/name" identifier.
type RepositoryRef struct {
	Owner string
	Name  string
}

func (r RepositoryRef) String() string {
	return r.Owner + "/" + r.Name
}

// ParseRepository splits an "owner/name" identifier. Anything else is
// ErrInvalidInput, surfaced before any external call is made.
func ParseRepository(repository string) (RepositoryRef, error) {
	owner, name, found := strings.Cut(repository, "/")
	if !found || owner == "" || name == "" || strings.Contains(name, "/") {
		return RepositoryRef{}, fmt.Errorf("%w: repository must be \"owner/name\", got %q", ErrInvalidInput, repository)
	}
	return RepositoryRef{Owner: owner, Name: name}, nil
}

// GenerateResult is the outcome of one generation request. Indexing true
// means the repository was not yet indexed: indexing has been triggered and
// the caller should retry later. It is neither a success (no changelogs were
// produced) nor a failure.
type GenerateResult struct {
	Indexing bool
	Changes  []store.ChangelogContent
}

// GeneratorService runs the changelog generation workflow: index gate, range
// selection, diff summarization, inference, extraction, assembly and
// persistence.
type GeneratorService struct {
	history   HistoryService
	inference Inference
	dbStore   *store.SQLiteStore
}

func NewGeneratorService(history HistoryService, inference Inference, dbStore *store.SQLiteStore) *GeneratorService {
	return &GeneratorService{
		history:   history,
		inference: inference,
		dbStore:   dbStore,
	}
}

// Generate produces and persists one changelog per selected range,
// sequentially and in order. Ranges are independently committed: a failure
// aborts the remaining ranges but does not roll back entries already stored.
// base and head are optional; when both are set they name the single range
// to diff.
func (s *GeneratorService) Generate(ctx context.Context, repository, base, head string) (*GenerateResult, error) {
	ref, err := ParseRepository(repository)
	if err != nil {
		return nil, err
	}

	status, err := s.inference.CheckIndexed(ctx, ref.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
	}
	if !status.Indexed {
		log.Printf("Repository %s not indexed (status %s), triggering indexing", ref, status.Status)
		if err := s.inference.Index(ctx, ref.String()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
		}
		return &GenerateResult{Indexing: true}, nil
	}

	ranges, err := s.selectRanges(ctx, ref, base, head)
	if err != nil {
		return nil, err
	}

	result := &GenerateResult{}
	for _, rng := range ranges {
		content, err := s.generateForRange(ctx, ref, rng)
		if err != nil {
			return nil, err
		}
		result.Changes = append(result.Changes, *content)
	}
	return result, nil
}

func (s *GeneratorService) generateForRange(ctx context.Context, ref RepositoryRef, rng CommitRange) (*store.ChangelogContent, error) {
	files, err := s.history.CompareCommits(ctx, ref.Owner, ref.Name, rng.Base, rng.Head)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
	}

	summary := BuildDiffSummary(files)
	log.Printf("Querying inference backend for %s range %s...%s (%d files)", ref, rng.Base, rng.Head, len(files))

	raw, err := s.inference.QueryChangelog(ctx, ref.String(), summary)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
	}

	content, err := ExtractChangelog(raw)
	if err != nil {
		return nil, err
	}

	s.assemble(content, rng)

	if _, err := s.dbStore.InsertChangelog(ref.String(), *content); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistenceFailure, err)
	}
	return content, nil
}

// assemble overwrites version and date with range ground truth. The backend
// has no reliable notion of "today" or exact SHAs, so whatever it guessed
// for those fields is discarded.
func (s *GeneratorService) assemble(content *store.ChangelogContent, rng CommitRange) {
	if rng.Kind == RangeRelease {
		content.Version = rng.ReleaseTag
		content.Date = rng.PublishedAt.Format("2006-01-02")
		return
	}
	content.Version = shortRef(rng.Base) + "..." + shortRef(rng.Head)
	content.Date = time.Now().Format("2006-01-02")
}

func shortRef(ref string) string {
	if len(ref) > 7 {
		return ref[:7]
	}
	return ref
}
