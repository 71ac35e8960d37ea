package metadata

import (
	"time"
)

type FetchEvent struct {
	fetchUrl    string
	httpStatus  int
	duration    time.Duration
	contentType string
	retryCount  int
	crawlDepth  int
}

func NewFetchEvent(fetchUrl string, httpStatus int, duration time.Duration, contentType string, retryCount, crawlDepth int) FetchEvent {
	return FetchEvent{
		fetchUrl:    fetchUrl,
		httpStatus:  httpStatus,
		duration:    duration,
		contentType: contentType,
		retryCount:  retryCount,
		crawlDepth:  crawlDepth,
	}
}

/*
RunStats
  - Represents a terminal, derived summary of a completed run
  - Contains only aggregate counts and durations
  - Is computed by the application after run termination
  - Is recorded exactly once
  - Must not influence scheduling, retries, or run termination
  - Must be constructed without reading metadata
*/
type RunStats struct {
	URLsFetched  int
	URLsErrored  int
	URLsSkipped  int
	BytesWritten int64
	DurationMs   int64
	ExitCode     int
}

// ArtifactKind distinguishes the output shapes the archive writer produces.
type ArtifactKind int

const (
	ArtifactFile ArtifactKind = iota
	ArtifactWARCRecord
	ArtifactSnapshot
)

func (k ArtifactKind) String() string {
	switch k {
	case ArtifactFile:
		return "file"
	case ArtifactWARCRecord:
		return "warc_record"
	case ArtifactSnapshot:
		return "snapshot"
	default:
		return "unknown"
	}
}

type ArtifactRecord struct {
	Kind       ArtifactKind
	Path       string
	ObservedAt time.Time
	Attrs      []Attribute
}

/*
	ErrorCause is a closed, canonical classification used exclusively for
	observability (logging, metrics, reporting).

	Rules:
	 - ErrorCause is for observability only.
	 - It must never be used to derive retry, continuation, or abort decisions.
	 - Any use of metadata.ErrorCause outside logging, metrics, or reporting is a design violation.
	 - ErrorCause MUST NOT influence control flow.
	 - ErrorCause MUST NOT be used for retry, continuation, or abort decisions.
	 - ErrorCause values MUST have stable, package-agnostic semantics.
	 - Pipeline packages MAY map their local errors to ErrorCause,
	   but MUST NOT invent new meanings.
	Non-goals:
	 - ErrorCause does not encode severity.
	 - ErrorCause does not imply retryability.
	 - ErrorCause does not imply crawl termination.
	 - ErrorCause does not imply correctness of downstream behavior.

If a failure does not clearly match a defined cause, CauseUnknown MUST be used.
*/
type ErrorCause int

/*
Canonical ErrorCause Table

# CauseUnknown

Meaning:
  - The failure does not map cleanly to any known category.
  - Used as a safe fallback.

# CauseNetworkFailure

Meaning:
  - Failure caused by network transport or remote availability.

# CausePolicyDisallow

Meaning:
  - Crawling was disallowed by an explicit policy or rule (robots, scope, scheme).

# CauseContentInvalid

Meaning:
  - Content was fetched but could not be processed meaningfully.

# CauseStorageFailure

Meaning:
  - Failure while persisting crawl artifacts.

# CauseInvariantViolation

Meaning:
  - A system-level invariant was violated.
*/
const (
	CauseUnknown ErrorCause = iota
	CauseNetworkFailure
	CausePolicyDisallow
	CauseContentInvalid
	CauseStorageFailure
	CauseInvariantViolation
)

func (c ErrorCause) String() string {
	switch c {
	case CauseNetworkFailure:
		return "network_failure"
	case CausePolicyDisallow:
		return "policy_disallow"
	case CauseContentInvalid:
		return "content_invalid"
	case CauseStorageFailure:
		return "storage_failure"
	case CauseInvariantViolation:
		return "invariant_violation"
	default:
		return "unknown"
	}
}

type ErrorRecord struct {
	packageName string
	action      string
	cause       ErrorCause
	errorString string
	observedAt  time.Time
	attrs       []Attribute
}

type Attribute struct {
	Key   AttributeKey
	Value string
}

func NewAttr(key AttributeKey, val string) Attribute {
	return Attribute{
		Key:   key,
		Value: val,
	}
}

type AttributeKey string

const (
	AttrTime       AttributeKey = "time"
	AttrURL        AttributeKey = "url"
	AttrHost       AttributeKey = "host"
	AttrPath       AttributeKey = "path"
	AttrDepth      AttributeKey = "depth"
	AttrField      AttributeKey = "field"
	AttrMessage    AttributeKey = "message"
	AttrHTTPStatus AttributeKey = "http_status"
	AttrAssetURL   AttributeKey = "asset_url"
	AttrWritePath  AttributeKey = "write_path"
)
