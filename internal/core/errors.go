package core

import "errors"

// Failure taxonomy for the generation workflow. Every component returns one
// of these (wrapped with context) so callers can branch with errors.Is
// instead of matching message strings.
var (
	// ErrInvalidInput covers malformed caller input, e.g. a repository
	// identifier without an owner/name slash.
	ErrInvalidInput = errors.New("invalid input")

	// ErrBackendUnavailable is a non-success or transport failure from the
	// source-control or inference service. The workflow never retries it.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrMalformedResponse means the inference output contained no
	// extractable JSON object.
	ErrMalformedResponse = errors.New("malformed inference response")

	// ErrSchemaViolation means the inference output contained JSON, but not
	// in the changelog shape. Distinct from ErrMalformedResponse so callers
	// can tell "not JSON" from "JSON but wrong".
	ErrSchemaViolation = errors.New("changelog schema violation")

	// ErrEmptyDiffWindow means the 30-day fallback window contained no
	// commits, so no range can be built.
	ErrEmptyDiffWindow = errors.New("no commits in fallback window")

	// ErrPersistenceFailure is a store write failure after successful
	// assembly.
	ErrPersistenceFailure = errors.New("failed to persist changelog")
)
