package fetcher

import (
	"fmt"

	"github.com/forge-run/wharf/internal/metadata"
	"github.com/forge-run/wharf/pkg/failure"
)

type FetchErrorCause string

const (
	ErrCauseTimeout               FetchErrorCause = "timeout"
	ErrCauseNetworkFailure        FetchErrorCause = "network issues"
	ErrCauseConnectionRefused     FetchErrorCause = "connection refused"
	ErrCauseDNSNotFound           FetchErrorCause = "dns not found"
	ErrCauseTLSVerification       FetchErrorCause = "tls verification failed"
	ErrCauseReadResponseBodyError FetchErrorCause = "failed to read response body"
)

type FetchError struct {
	Message   string
	Retryable bool
	Cause     FetchErrorCause
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetcher error: %s", e.Cause)
}

func (e *FetchError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

// IsRetryable returns whether this error is retryable
func (e *FetchError) IsRetryable() bool {
	return e.Retryable
}

// mapFetchErrorToMetadataCause maps fetcher-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapFetchErrorToMetadataCause(err *FetchError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseTimeout:
		return metadata.CauseNetworkFailure
	case ErrCauseConnectionRefused, ErrCauseDNSNotFound:
		return metadata.CauseNetworkFailure
	case ErrCauseTLSVerification:
		return metadata.CausePolicyDisallow
	default:
		return metadata.CauseUnknown
	}
}
