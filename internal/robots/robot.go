// Package robots implements the per-host robots.txt policy gate (§4.5
// "Robots cache"): fetch once per host, cache rules for the crawl's
// duration, and make concurrent sessions for the same host await a
// single outstanding fetch instead of racing duplicate requests.
package robots

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/forge-run/wharf/internal/metadata"
	"github.com/forge-run/wharf/internal/robots/cache"
	"github.com/temoto/robotstxt"
)

// Robot is the policy gate a Web Session consults before fetching a URL.
type Robot interface {
	Init(userAgent string)
	Decide(ctx context.Context, u url.URL) (Decision, *RobotsError)
}

type hostEntry struct {
	state entryState
	data  *robotstxt.RobotsData
	err   *RobotsError
	ready chan struct{}
}

// CachedRobot is the default Robot: an in-memory per-host cache in
// front of robotsFetcher.
type CachedRobot struct {
	mu        sync.Mutex
	userAgent string
	fetcher   *robotsFetcher
	hosts     map[string]*hostEntry
	sink      metadata.MetadataSink
}

// NewCachedRobot builds a CachedRobot. sink receives observational
// error records for fetch failures; it never drives retry/skip
// decisions (see metadata.ErrorCause's invariant).
func NewCachedRobot(sink metadata.MetadataSink) CachedRobot {
	return CachedRobot{
		fetcher: newRobotsFetcher("", nil),
		hosts:   make(map[string]*hostEntry),
		sink:    sink,
	}
}

// NewCachedRobotWithCache builds a CachedRobot backed by an explicit
// raw-bytes cache (e.g. shared across hosts within one process run).
func NewCachedRobotWithCache(sink metadata.MetadataSink, c cache.Cache) CachedRobot {
	return CachedRobot{
		fetcher: newRobotsFetcher("", c),
		hosts:   make(map[string]*hostEntry),
		sink:    sink,
	}
}

func (r *CachedRobot) Init(userAgent string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.userAgent = userAgent
	r.fetcher.userAgent = userAgent
}

// Decide fetches (and caches) u.Host's robots.txt, then evaluates u's
// path against the matching user-agent group.
func (r *CachedRobot) Decide(ctx context.Context, u url.URL) (Decision, *RobotsError) {
	entry := r.claim(u.Host)

	if entry.state == entryPending {
		<-entry.ready
	} else if entry.state == entryFetching {
		data, err := r.fetcher.fetch(ctx, u.Scheme, u.Host)
		r.mu.Lock()
		entry.data, entry.err = data, err
		entry.state = entryReady
		close(entry.ready)
		r.mu.Unlock()
	}

	if entry.err != nil {
		return Decision{Url: u, Allowed: true, Reason: RobotsFetchFailed}, entry.err
	}

	if entry.data == nil {
		return Decision{Url: u, Allowed: true, Reason: EmptyRuleSet}, nil
	}

	group := entry.data.FindGroup(r.userAgent)
	allowed := group.Test(u.Path)

	reason := DisallowedByRobots
	if allowed {
		reason = AllowedByRobots
	}

	var delay *time.Duration
	if group.CrawlDelay > 0 {
		d := group.CrawlDelay
		delay = &d
	}

	return Decision{Url: u, Allowed: allowed, Reason: reason, CrawlDelay: delay}, nil
}

// claim returns the cache entry for host, creating one (in the
// "fetching" state, owned by this caller) if absent.
func (r *CachedRobot) claim(host string) *hostEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.hosts[host]; ok {
		if e.state == entryReady {
			return e
		}
		if e.state == entryFetching {
			// Another goroutine already owns the fetch; this caller waits.
			pending := &hostEntry{state: entryPending, ready: e.ready}
			return pending
		}
	}

	e := &hostEntry{state: entryFetching, ready: make(chan struct{})}
	r.hosts[host] = e
	return e
}
