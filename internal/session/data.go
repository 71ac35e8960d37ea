package session

import "github.com/forge-run/wharf/internal/frontier"

// DefaultRedirectBudget is the number of redirects a single session
// will follow before giving up (§4.5).
const DefaultRedirectBudget = 20

// Result is what ProcessOne reports back to the Pipeline: the frontier
// status the caller should persist, plus any newly discovered links
// ready for Frontier.Add.
type Result struct {
	Status     frontier.URLStatus
	StatusCode *int
	Discovered []DiscoveredLink
	Err        error
}

// DiscoveredLink is a resolved, filtered reference ready to be handed
// to the frontier, decoupled from linkextract.LinkInfo so session does
// not leak that package's types to callers that only want URLs.
type DiscoveredLink struct {
	URL      string
	Inline   bool
	LinkType frontier.LinkType
	Referrer string
}
