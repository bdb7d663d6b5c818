package domain

import "errors"

// ============================================================================
// Promotion Errors
// ============================================================================

// Fatal for the whole run.
var (
	ErrAuth = errors.New("authentication failed")
)

// Transient errors, retried with backoff before being surfaced per artifact.
var (
	ErrArtifactNotFound = errors.New("artifact not found")
	ErrRateLimited      = errors.New("rate limited by platform")
)

// Fatal for a single artifact, never for its siblings.
var (
	ErrUnresolvedReference = errors.New("unresolved artifact reference")
)

// Non-fatal: the artifact stays where it is and is reported as unorganized.
var (
	ErrMoveRetryExhausted = errors.New("move retries exhausted")
)

// ============================================================================
// Validation Errors
// ============================================================================

var (
	ErrMissingSourceWorkspace = errors.New("source workspace ID is required")
	ErrMissingTargetWorkspace = errors.New("target workspace ID is required")
	ErrMissingCredentials     = errors.New("either a static token or tenant/client credentials are required")
	ErrInvalidRepoPath        = errors.New("repository path does not exist")
)

// ============================================================================
// Run History Errors
// ============================================================================

var (
	ErrRunNotFound = errors.New("promotion run not found")
)
