package robots

import (
	"net/url"
	"time"
)

// DecisionReason records why Decide reached its verdict, for logging and
// Hook Bus consumption.
type DecisionReason string

const (
	AllowedByRobots    DecisionReason = "allowed_by_robots"
	DisallowedByRobots DecisionReason = "disallowed_by_robots"
	EmptyRuleSet       DecisionReason = "empty_rule_set"
	RobotsFetchFailed  DecisionReason = "robots_fetch_failed"
)

// Decision is the outcome of evaluating one URL against its host's
// cached robots.txt rules.
type Decision struct {
	Url url.URL

	Allowed bool

	Reason DecisionReason

	// CrawlDelay is the host's advertised crawl-delay, if any.
	CrawlDelay *time.Duration
}

// entryState is the per-host robots cache state (§4.5 "Robots cache").
type entryState int

const (
	entryMissing entryState = iota
	entryFetching
	entryPending
	entryReady
)
