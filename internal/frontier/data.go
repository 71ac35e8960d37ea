package frontier

import "time"

// URLStatus is the lifecycle state of a frontier row. A row moves
// todo -> in_progress -> {done, error, skipped} and never leaves except
// through an explicit RemoveOne (the hook-driven replace path).
type URLStatus string

const (
	StatusTodo       URLStatus = "todo"
	StatusInProgress URLStatus = "in_progress"
	StatusDone       URLStatus = "done"
	StatusError      URLStatus = "error"
	StatusSkipped    URLStatus = "skipped"
)

// LinkType classifies how a URL was discovered, mirroring the Link
// Extractor's attribute-to-classification table.
type LinkType string

const (
	LinkHTML      LinkType = "html"
	LinkCSS       LinkType = "css"
	LinkJS        LinkType = "javascript"
	LinkMedia     LinkType = "media"
	LinkSitemap   LinkType = "sitemap"
	LinkFile      LinkType = "file"
	LinkDirectory LinkType = "directory"
	LinkNone      LinkType = ""
)

// URLRecord is one frontier row: a durable, serialized snapshot of a
// URL's crawl state. Nullable fields use pointer types so "absent" is
// distinguishable from zero.
type URLRecord struct {
	URL         string
	Status      URLStatus
	TryCount    int
	Level       int
	TopURL      *string
	StatusCode  *int
	Referrer    *string
	Inline      bool
	LinkType    LinkType
	URLEncoding *string
	PostData    []byte
	Filename    *string
	CreatedAt   time.Time
}

// AddDefaults carries the attributes Add applies to every URL in a
// batch, whether the row is freshly inserted or already present. Per
// the frontier's update-but-never-clobber-status contract, these never
// touch Status, TryCount, StatusCode, or Filename.
type AddDefaults struct {
	Level       int
	TopURL      *string
	Referrer    *string
	Inline      bool
	LinkType    LinkType
	URLEncoding *string
	PostData    []byte
}

// UpdateFields carries the attributes Update sets on a single row. A
// nil pointer field is left untouched.
type UpdateFields struct {
	Status            *URLStatus
	StatusCode        *int
	Filename          *string
	IncrementTryCount bool
}

func StrPtr(s string) *string { return &s }

func IntPtr(i int) *int { return &i }
