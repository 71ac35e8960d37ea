package fetcher

import (
	"context"
	"net/http"

	"github.com/forge-run/wharf/pkg/failure"
	"github.com/forge-run/wharf/pkg/retry"
)

// Fetcher performs one request and reports the raw outcome. It never
// interprets status codes or decides whether to retry across a redirect
// chain; that belongs to the Web Session and the Result Rule.
type Fetcher interface {
	Init(httpClient *http.Client)
	Fetch(
		ctx context.Context,
		crawlDepth int,
		fetchParam FetchParam,
		retryParam retry.RetryParam,
	) (FetchResult, failure.ClassifiedError)
}
