package frontier

import (
	"fmt"

	"github.com/forge-run/wharf/internal/metadata"
	"github.com/forge-run/wharf/pkg/failure"
)

type FrontierErrorCause string

const (
	ErrCauseDatabase  FrontierErrorCause = "database error"
	ErrCauseNotFound  FrontierErrorCause = "no matching row"
	ErrCauseEncoding  FrontierErrorCause = "row encoding error"
	ErrCauseNotOpened FrontierErrorCause = "frontier not opened"
)

// FrontierError is the single error shape the frontier raises; every
// storage failure surfaces through it rather than a raw database/sql
// error, matching the control-flow/observability split the rest of the
// tree follows (pkg/failure for decisions, metadata for logging).
type FrontierError struct {
	Message   string
	Retryable bool
	Cause     FrontierErrorCause
	URL       string
}

func (e *FrontierError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("frontier error (%s): %s: %s", e.Cause, e.URL, e.Message)
	}
	return fmt.Sprintf("frontier error (%s): %s", e.Cause, e.Message)
}

func (e *FrontierError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func (e *FrontierError) IsRetryable() bool {
	return e.Retryable
}

// NotFound reports whether err is the "no matching row" outcome
// GetAndUpdate raises when no row satisfies the requested transition.
func NotFound(err error) bool {
	fe, ok := err.(*FrontierError)
	return ok && fe.Cause == ErrCauseNotFound
}

// mapFrontierErrorToMetadataCause maps frontier-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used to derive
// control-flow decisions.
func mapFrontierErrorToMetadataCause(err *FrontierError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseDatabase, ErrCauseNotOpened:
		return metadata.CauseStorageFailure
	case ErrCauseEncoding:
		return metadata.CauseInvariantViolation
	default:
		return metadata.CauseUnknown
	}
}
