package robots

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/forge-run/wharf/internal/robots/cache"
	"github.com/temoto/robotstxt"
)

// robotsFetcher fetches robots.txt over HTTP and, when a cache.Cache is
// wired in, stores the raw body (not the HTTP status) under the
// robots.txt URL. Parsing is
// delegated to github.com/temoto/robotstxt rather than a hand-rolled
// line scanner.
type robotsFetcher struct {
	httpClient *http.Client
	userAgent  string
	cache      cache.Cache
}

func newRobotsFetcher(userAgent string, cache cache.Cache) *robotsFetcher {
	return &robotsFetcher{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		userAgent:  userAgent,
		cache:      cache,
	}
}

const maxRobotsBodySize = 500 * 1024

// fetch retrieves and parses robots.txt for scheme://hostname. A 429 or
// 5xx is an error; for any other 4xx robotstxt returns rules that allow
// every path.
func (f *robotsFetcher) fetch(ctx context.Context, scheme, hostname string) (*robotstxt.RobotsData, *RobotsError) {
	robotsURL := fmt.Sprintf("%s://%s/robots.txt", scheme, hostname)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, &RobotsError{Message: err.Error(), Retryable: false, Cause: ErrCausePreFetchFailure}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/plain,text/html,*/*")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, &RobotsError{Message: err.Error(), Retryable: true, Cause: ErrCauseHttpFetchFailure}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == 429:
		return nil, &RobotsError{Message: fmt.Sprintf("rate limited fetching %s", robotsURL), Retryable: true, Cause: ErrCauseHttpTooManyRequests}
	case resp.StatusCode >= 500:
		return nil, &RobotsError{Message: fmt.Sprintf("server error %d fetching %s", resp.StatusCode, robotsURL), Retryable: true, Cause: ErrCauseHttpServerError}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsBodySize+1))
	if err != nil {
		return nil, &RobotsError{Message: err.Error(), Retryable: true, Cause: ErrCauseParseError}
	}
	if len(body) > maxRobotsBodySize {
		body = body[:maxRobotsBodySize]
	}

	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return nil, &RobotsError{Message: err.Error(), Retryable: false, Cause: ErrCauseParseError}
	}

	if f.cache != nil {
		f.cache.Put(cacheKey(scheme, hostname), string(body))
	}

	return data, nil
}

func cacheKey(scheme, hostname string) string {
	return fmt.Sprintf("%s://%s/robots.txt", scheme, hostname)
}
