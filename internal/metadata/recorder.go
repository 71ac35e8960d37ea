package metadata

/*
Metadata Collected
- Fetch timestamps
- HTTP status codes
- Content hashes
- Crawl depth

Logging Goals
- Debuggable crawl behavior
- Post-run auditability
- Failure diagnostics

Structured logging is preferred: every record is emitted as logfmt
key=value pairs, one line per event, safe to grep or pipe into a log
aggregator.

Allowed:
- Primitive values
- Timestamps
- URLs (as values, not objects with behavior)
- Hashes
- Status codes
- Durations
- Identifiers (page ID, crawl ID)
*/

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/go-logfmt/logfmt"
)

// MetadataSink is the observational recording surface every pipeline
// component writes through. It must never be consulted to decide retry,
// skip, or abort behavior — see ErrorCause's doc comment.
type MetadataSink interface {
	RecordFetch(event FetchEvent)
	RecordError(observedAt time.Time, packageName, action string, cause ErrorCause, errString string, attrs []Attribute)
	RecordArtifact(kind ArtifactKind, path string, attrs []Attribute)
}

// CrawlFinalizer is invoked exactly once, after the run terminates, to
// record the terminal summary.
type CrawlFinalizer interface {
	RecordFinalStats(stats RunStats)
}

// Recorder is the default MetadataSink/CrawlFinalizer: a logfmt encoder
// over an io.Writer, labeled with a run identifier so records from
// concurrent runs (or concurrent workers within one run) can be told apart
// in a shared log stream.
type Recorder struct {
	mu    sync.Mutex
	enc   *logfmt.Encoder
	label string
}

// NewRecorder builds a Recorder writing logfmt lines to os.Stderr, labeled
// with runLabel (typically the run's hook-bus/WARC identifier).
func NewRecorder(runLabel string) Recorder {
	return NewRecorderTo(os.Stderr, runLabel)
}

// NewRecorderTo builds a Recorder writing to an arbitrary writer, useful
// for tests and for --log-file.
func NewRecorderTo(w io.Writer, runLabel string) Recorder {
	return Recorder{
		enc:   logfmt.NewEncoder(w),
		label: runLabel,
	}
}

func (r *Recorder) emit(kvs ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_ = r.enc.EncodeKeyvals(kvs...)
	_ = r.enc.EndRecord()
}

func (r *Recorder) RecordFetch(event FetchEvent) {
	r.emit(
		"run", r.label,
		"event", "fetch",
		"url", event.fetchUrl,
		"status", event.httpStatus,
		"duration_ms", event.duration.Milliseconds(),
		"content_type", event.contentType,
		"retries", event.retryCount,
		"depth", event.crawlDepth,
	)
}

func (r *Recorder) RecordError(observedAt time.Time, packageName, action string, cause ErrorCause, errString string, attrs []Attribute) {
	kvs := []interface{}{
		"run", r.label,
		"event", "error",
		"time", observedAt.Format(time.RFC3339),
		"package", packageName,
		"action", action,
		"cause", cause.String(),
		"error", errString,
	}
	for _, a := range attrs {
		kvs = append(kvs, string(a.Key), a.Value)
	}
	r.emit(kvs...)
}

func (r *Recorder) RecordArtifact(kind ArtifactKind, path string, attrs []Attribute) {
	kvs := []interface{}{
		"run", r.label,
		"event", "artifact",
		"kind", kind.String(),
		"path", path,
	}
	for _, a := range attrs {
		kvs = append(kvs, string(a.Key), a.Value)
	}
	r.emit(kvs...)
}

func (r *Recorder) RecordFinalStats(stats RunStats) {
	r.emit(
		"run", r.label,
		"event", "summary",
		"fetched", stats.URLsFetched,
		"errored", stats.URLsErrored,
		"skipped", stats.URLsSkipped,
		"bytes_written", stats.BytesWritten,
		"duration_ms", stats.DurationMs,
		"exit_code", stats.ExitCode,
	)
}
