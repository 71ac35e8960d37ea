// Package session implements the Web Session (§4.5): the per-URL state
// machine that takes a frontier row from CHECK_FILTERS through robots
// policy, fetch, redirect-following, response classification, and link
// discovery, reporting back a single terminal Result.
package session

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/forge-run/wharf/internal/fetcher"
	"github.com/forge-run/wharf/internal/fetchrule"
	"github.com/forge-run/wharf/internal/frontier"
	"github.com/forge-run/wharf/internal/hookbus"
	"github.com/forge-run/wharf/internal/linkextract"
	"github.com/forge-run/wharf/internal/metadata"
	"github.com/forge-run/wharf/internal/resultrule"
	"github.com/forge-run/wharf/internal/robots"
	"github.com/forge-run/wharf/pkg/exitcode"
	"github.com/forge-run/wharf/pkg/retry"
)

// Session runs the per-URL state machine. One Session is safe to share
// across goroutines: all per-request state lives on the stack of
// ProcessOne, not on the struct.
type Session struct {
	Robot          robots.Robot
	Fetcher        fetcher.Fetcher
	Waiter         *resultrule.Waiter
	Hooks          *hookbus.Bus
	MetadataSink   metadata.MetadataSink
	Limits         fetchrule.Limits
	ResultPolicy   resultrule.Policy
	UserAgent      string
	RetryParam     retry.RetryParam
	RedirectBudget int

	// ExitCode, if set, receives every terminal failure's exit-status
	// Code so the Application can compute the run's final exit code
	// (§4.8, §7) without every Session needing to return through a
	// single synchronous caller.
	ExitCode *exitcode.Tracker
}

func (s *Session) observeExit(c exitcode.Code) {
	if s.ExitCode != nil {
		s.ExitCode.Observe(c)
	}
}

// ProcessOne runs one URLRecord through the full state machine and
// returns the terminal outcome. seedHost/seedPath ground the Fetch
// Rule's span-hosts and --no-parent checks against the crawl's origin.
func (s *Session) ProcessOne(ctx context.Context, rec frontier.URLRecord, seedHost, seedPath string) Result {
	u, err := url.Parse(rec.URL)
	if err != nil {
		s.observeExit(exitcode.Parser)
		return Result{Status: frontier.StatusError, Err: err}
	}

	referrer := ""
	if rec.Referrer != nil {
		referrer = *rec.Referrer
	}
	parentPath := ""
	if ref, perr := url.Parse(referrer); perr == nil {
		parentPath = ref.Path
	}

	candidate := fetchrule.Candidate{
		URL: rec.URL, Host: u.Host, Path: u.Path, Scheme: u.Scheme,
		Level: rec.Level, Inline: rec.Inline,
		ParentPath: parentPath, SeedHost: seedHost, SeedPath: seedPath,
	}

	verdict := fetchrule.Evaluate(candidate, s.Limits)
	if s.Hooks != nil {
		action, connected, _ := s.Hooks.DispatchAcceptURL(ctx, hookbus.Candidate{URL: rec.URL, Referrer: referrer, Level: rec.Level})
		if connected && action == hookbus.ActionStop {
			verdict.Accepted = false
		}
	}
	if !verdict.Accepted {
		return Result{Status: frontier.StatusSkipped}
	}

	if s.Robot != nil {
		decision, rerr := s.Robot.Decide(ctx, *u)
		if rerr != nil && s.MetadataSink != nil {
			s.MetadataSink.RecordError(
				time.Now(), "session", "Robot.Decide", metadata.CauseNetworkFailure, rerr.Error(),
				[]metadata.Attribute{metadata.NewAttr(metadata.AttrURL, rec.URL)},
			)
		}
		// A fetch failure leaves decision.Allowed=true (fail-open, §4.5
		// ROBOTS_FAILED -> PROCEED); only an explicit disallow skips.
		if !decision.Allowed {
			return Result{Status: frontier.StatusSkipped}
		}
	}

	return s.runFetchLoop(ctx, u, rec)
}

// runFetchLoop performs the REQUEST/HANDLE_RESPONSE/REDIRECT cycle,
// following redirects itself (the fetcher never does) until the budget
// is exhausted, a loop is detected, or a terminal response arrives.
func (s *Session) runFetchLoop(ctx context.Context, u *url.URL, rec frontier.URLRecord) Result {
	budget := s.RedirectBudget
	if budget <= 0 {
		budget = DefaultRedirectBudget
	}
	visited := map[string]bool{u.String(): true}

	current := *u
	for {
		if s.Waiter != nil {
			if _, werr := s.Waiter.Wait(ctx, current.Host); werr != nil {
				s.observeExit(exitcode.Generic)
				return Result{Status: frontier.StatusError, Err: werr}
			}
		}

		fetchResult, ferr := s.Fetcher.Fetch(ctx, rec.Level, fetcher.NewFetchParam(current, s.UserAgent), s.RetryParam)
		if ferr != nil {
			verdict := s.classifyNetworkError(ferr)
			if s.Waiter != nil {
				s.Waiter.OnOutcome(current.Host, verdict)
			}
			if s.Hooks != nil {
				s.Hooks.DispatchHandleError(ctx, hookbus.ErrorInfo{URL: current.String(), Message: ferr.Error()})
			}
			if verdict.Outcome == resultrule.OutcomeError {
				s.observeExit(exitCodeForFetchError(ferr))
			}
			return outcomeToResult(verdict, nil)
		}

		statusCode := fetchResult.Code()

		if statusCode >= 300 && statusCode < 400 {
			loc, ok := fetchResult.Location()
			if !ok || budget <= 0 || visited[loc.String()] {
				s.observeExit(exitcode.Protocol)
				verdict := resultrule.Verdict{Outcome: resultrule.OutcomeError}
				return outcomeToResult(verdict, intPtr(statusCode))
			}
			budget--
			visited[loc.String()] = true
			current = loc
			continue
		}

		if s.Hooks != nil {
			action, connected, _ := s.Hooks.DispatchHandleResponse(ctx, hookbus.ResponseInfo{URL: current.String(), StatusCode: statusCode, Headers: fetchResult.Headers()})
			if connected && action == hookbus.ActionStop {
				return Result{Status: frontier.StatusSkipped, StatusCode: intPtr(statusCode)}
			}
		}

		verdict := resultrule.ClassifyStatus(statusCode)
		if s.Waiter != nil {
			s.Waiter.OnOutcome(current.Host, verdict)
		}
		if verdict.Outcome == resultrule.OutcomeError {
			s.observeExit(exitCodeForStatus(statusCode))
		}

		var discovered []DiscoveredLink
		if verdict.Outcome == resultrule.OutcomeDone {
			discovered = s.scrape(ctx, current.String(), fetchResult)
		}

		res := outcomeToResult(verdict, intPtr(statusCode))
		res.Discovered = discovered
		return res
	}
}

// scrape dispatches the fetched body to the Link Extractor and resolves
// every reference found, firing the scrape_document and get_urls hooks
// around it.
func (s *Session) scrape(ctx context.Context, baseURL string, fetchResult fetcher.FetchResult) []DiscoveredLink {
	if s.Hooks != nil {
		action, connected, _ := s.Hooks.DispatchScrapeDocument(ctx, hookbus.ScrapeInfo{URL: baseURL, Body: fetchResult.Body()})
		if connected && action == hookbus.ActionStop {
			return nil
		}
	}

	contentType := fetchResult.Headers()["Content-Type"]
	family := linkextract.DetectFamily(contentType, baseURL, fetchResult.Body())

	var links []linkextract.LinkInfo
	switch family {
	case linkextract.FamilyHTML:
		if extracted, err := linkextract.ExtractHTML(baseURL, fetchResult.Body()); err == nil {
			links = extracted
		}
	case linkextract.FamilyCSS:
		links = linkextract.ExtractCSS(baseURL, fetchResult.Body())
	case linkextract.FamilySitemap:
		if extracted, err := linkextract.ExtractSitemap(fetchResult.Body(), linkextract.MaxSitemapSizeDirect); err == nil {
			links = extracted
		}
	case linkextract.FamilyJS:
		links = linkextract.ExtractJS(baseURL, fetchResult.Body())
	}

	discovered := make([]DiscoveredLink, 0, len(links))
	rawURLs := make([]string, 0, len(links))
	for _, l := range links {
		if l.BaseURL == "" {
			l.BaseURL = baseURL
		}
		resolved, ok := linkextract.Resolve(l)
		if !ok {
			continue
		}
		rawURLs = append(rawURLs, resolved)
		discovered = append(discovered, DiscoveredLink{
			URL: resolved, Inline: l.Inline, LinkType: l.LinkType, Referrer: baseURL,
		})
	}

	if s.Hooks != nil {
		if filtered, connected, _ := s.Hooks.DispatchGetURLs(ctx, baseURL, rawURLs); connected {
			allowed := make(map[string]bool, len(filtered))
			for _, u := range filtered {
				allowed[u] = true
			}
			kept := discovered[:0]
			for _, d := range discovered {
				if allowed[d.URL] {
					kept = append(kept, d)
				}
			}
			discovered = kept
		}
	}

	return discovered
}

func (s *Session) classifyNetworkError(err error) resultrule.Verdict {
	var fetchErr *fetcher.FetchError
	if errors.As(err, &fetchErr) {
		kind := resultrule.NetworkErrorOther
		switch fetchErr.Cause {
		case fetcher.ErrCauseConnectionRefused:
			kind = resultrule.NetworkErrorConnectionRefused
		case fetcher.ErrCauseDNSNotFound:
			kind = resultrule.NetworkErrorDNSNotFound
		case fetcher.ErrCauseTLSVerification:
			kind = resultrule.NetworkErrorTLSVerification
		case fetcher.ErrCauseTimeout:
			kind = resultrule.NetworkErrorTimeout
		}
		return resultrule.ClassifyNetworkError(kind, s.ResultPolicy)
	}
	// A *retry.RetryError (exhausted attempts) or anything else
	// unclassified falls back to the generic error bucket.
	return resultrule.Verdict{Outcome: resultrule.OutcomeError}
}

// exitCodeForFetchError maps a fetcher-level failure to its
// ERROR_CODE_MAP entry (§7).
func exitCodeForFetchError(err error) exitcode.Code {
	var fetchErr *fetcher.FetchError
	if errors.As(err, &fetchErr) {
		switch fetchErr.Cause {
		case fetcher.ErrCauseTLSVerification:
			return exitcode.SSLVerification
		case fetcher.ErrCauseDNSNotFound, fetcher.ErrCauseConnectionRefused, fetcher.ErrCauseTimeout, fetcher.ErrCauseNetworkFailure:
			return exitcode.NetworkFailure
		case fetcher.ErrCauseReadResponseBodyError:
			return exitcode.Protocol
		}
	}
	return exitcode.Generic
}

// exitCodeForStatus maps a terminal HTTP status to its ERROR_CODE_MAP
// entry: 5xx is a server error, everything else unclassified falls
// back to the generic protocol bucket.
func exitCodeForStatus(statusCode int) exitcode.Code {
	if statusCode >= 500 && statusCode < 600 {
		return exitcode.ServerError
	}
	return exitcode.Protocol
}

func outcomeToResult(v resultrule.Verdict, statusCode *int) Result {
	status := frontier.StatusError
	switch v.Outcome {
	case resultrule.OutcomeDone:
		status = frontier.StatusDone
	case resultrule.OutcomeSkip:
		status = frontier.StatusSkipped
	case resultrule.OutcomeRetry:
		status = frontier.StatusTodo
	case resultrule.OutcomeError:
		status = frontier.StatusError
	}
	return Result{Status: status, StatusCode: statusCode}
}

func intPtr(i int) *int { return &i }
