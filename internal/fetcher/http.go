package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/rehttp"
	"github.com/forge-run/wharf/internal/metadata"
	"github.com/forge-run/wharf/pkg/failure"
	"github.com/forge-run/wharf/pkg/retry"
)

/*
Responsibilities

- Perform HTTP requests with a bounded, capped-body read
- Apply headers and timeouts
- Never follow redirects itself; the Web Session owns the redirect
  budget and loop detection (§4.5)
- Report network-level failures with enough detail for the Result Rule
  to classify them (§4.3)

The fetcher never parses or gates on content; it only returns bytes,
status, and headers.
*/

// MaxBodySize bounds how much of a response body the fetcher will read
// into memory for a single resource.
const MaxBodySize = 64 * 1024 * 1024

type HttpFetcher struct {
	metadataSink metadata.MetadataSink
	httpClient   *http.Client
}

func NewHtmlFetcher(
	metadataSink metadata.MetadataSink,
) HttpFetcher {
	return HttpFetcher{
		metadataSink: metadataSink,
	}
}

// Init wires the shared *http.Client. Callers construct the client with
// a rehttp-wrapped Transport (see NewRetryingTransport) and a
// CheckRedirect that refuses to follow (http.ErrUseLastResponse),
// matching the Web Session's REDIRECT state owning the budget.
func (h *HttpFetcher) Init(httpClient *http.Client) {
	h.httpClient = httpClient
}

// NewRetryingTransport wraps base with rehttp's retry policy: requests of
// any method are retried on 429, 502, 503 and 504 responses and on
// temporary network errors, with exponential-jitter backoff, up to
// maxRetries retries after the first attempt.
func NewRetryingTransport(base http.RoundTripper, maxRetries int) http.RoundTripper {
	return rehttp.NewTransport(
		base,
		rehttp.RetryAll(
			rehttp.RetryMaxRetries(maxRetries),
			rehttp.RetryAny(
				rehttp.RetryStatuses(http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout),
				rehttp.RetryTemporaryErr(),
			),
		),
		rehttp.ExpJitterDelay(100*time.Millisecond, 5*time.Second),
	)
}

// NoRedirectCheckRedirect stops net/http's client from auto-following
// redirects, returning the 3xx response itself to the caller.
func NoRedirectCheckRedirect(_ *http.Request, _ []*http.Request) error {
	return http.ErrUseLastResponse
}

func (h *HttpFetcher) Fetch(
	ctx context.Context,
	crawlDepth int,
	fetchParam FetchParam,
	retryParam retry.RetryParam,
) (FetchResult, failure.ClassifiedError) {
	callerMethod := "HttpFetcher.Fetch"
	startTime := time.Now()

	fetchTask := func() (FetchResult, failure.ClassifiedError) {
		return h.performFetch(ctx, fetchParam)
	}

	attemptResult := retry.Retry(retryParam, fetchTask)
	duration := time.Since(startTime)

	var statusCode int
	var contentType string
	if attemptResult.IsSuccess() {
		result := attemptResult.Value()
		statusCode = result.Code()
		contentType = result.Headers()["Content-Type"]
	}

	h.metadataSink.RecordFetch(
		fetchParam.fetchUrl.String(),
		statusCode,
		duration,
		contentType,
		attemptResult.Attempts(),
		crawlDepth,
	)

	if attemptResult.IsFailure() {
		err := attemptResult.Err()
		var retryErr *retry.RetryError
		if errors.As(err, &retryErr) {
			h.recordRetryError(callerMethod, fetchParam.fetchUrl.String(), err)
		} else {
			h.recordFetchError(callerMethod, fetchParam.fetchUrl.String(), err)
		}
		return FetchResult{}, err
	}

	return attemptResult.Value(), nil
}

func (h *HttpFetcher) recordFetchError(callerMethod, fetchUrl string, err failure.ClassifiedError) {
	var fetchError *FetchError
	if errors.As(err, &fetchError) {
		h.metadataSink.RecordError(
			time.Now(),
			"fetcher",
			callerMethod,
			mapFetchErrorToMetadataCause(fetchError),
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrURL, fetchUrl),
			},
		)
	}
}

func (h *HttpFetcher) recordRetryError(callerMethod, fetchUrl string, err failure.ClassifiedError) {
	var retryError *retry.RetryError
	if errors.As(err, &retryError) {
		h.metadataSink.RecordError(
			time.Now(),
			"fetcher",
			callerMethod,
			metadata.CauseRetryFailure,
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrMessage, retryError.Error()),
				metadata.NewAttr(metadata.AttrURL, fetchUrl),
			},
		)
	}
}

func (h *HttpFetcher) performFetch(ctx context.Context, fetchParam FetchParam) (FetchResult, failure.ClassifiedError) {
	method := fetchParam.method
	if method == "" {
		method = http.MethodGet
	}

	var bodyReader io.Reader
	if len(fetchParam.body) > 0 {
		bodyReader = strings.NewReader(string(fetchParam.body))
	}

	req, err := http.NewRequestWithContext(ctx, method, fetchParam.fetchUrl.String(), bodyReader)
	if err != nil {
		return FetchResult{}, &FetchError{
			Message:   fmt.Sprintf("failed to create request: %v", err),
			Retryable: false,
			Cause:     ErrCauseNetworkFailure,
		}
	}

	for key, value := range requestHeaders(fetchParam.userAgent) {
		req.Header.Set(key, value)
	}
	for key, value := range fetchParam.headers {
		req.Header.Set(key, value)
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return FetchResult{}, classifyNetworkError(err)
	}
	defer resp.Body.Close()

	limited := io.LimitReader(resp.Body, MaxBodySize+1)
	body, err := io.ReadAll(limited)
	if err != nil {
		return FetchResult{}, &FetchError{
			Message:   fmt.Sprintf("failed to read response body: %v", err),
			Retryable: true,
			Cause:     ErrCauseReadResponseBodyError,
		}
	}
	if len(body) > MaxBodySize {
		body = body[:MaxBodySize]
	}

	responseHeaders := make(map[string]string, len(resp.Header))
	for key, values := range resp.Header {
		if len(values) > 0 {
			responseHeaders[key] = values[0]
		}
	}

	finalURL := fetchParam.fetchUrl
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = *resp.Request.URL
	}

	return FetchResult{
		url:      fetchParam.fetchUrl,
		finalURL: finalURL,
		body:     body,
		fetchedAt: time.Now(),
		meta: ResponseMeta{
			statusCode:      resp.StatusCode,
			responseHeaders: responseHeaders,
		},
	}, nil
}

// classifyNetworkError distinguishes the transport-level failures the
// Result Rule treats specially (§4.3) from the generic bucket.
func classifyNetworkError(err error) *FetchError {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
		return &FetchError{Message: err.Error(), Retryable: false, Cause: ErrCauseDNSNotFound}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if strings.Contains(opErr.Err.Error(), "connection refused") {
			return &FetchError{Message: err.Error(), Retryable: false, Cause: ErrCauseConnectionRefused}
		}
	}

	if isTLSVerificationError(err) {
		return &FetchError{Message: err.Error(), Retryable: false, Cause: ErrCauseTLSVerification}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &FetchError{Message: err.Error(), Retryable: true, Cause: ErrCauseTimeout}
	}

	return &FetchError{Message: err.Error(), Retryable: true, Cause: ErrCauseNetworkFailure}
}

// isTLSVerificationError does a string match rather than errors.As
// against a concrete certificate-verification type, since the exact
// type returned varies across Go versions and platforms.
func isTLSVerificationError(err error) bool {
	return strings.Contains(err.Error(), "x509:") || strings.Contains(err.Error(), "certificate")
}

func requestHeaders(userAgent string) map[string]string {
	return map[string]string{
		"User-Agent":      userAgent,
		"Accept":          "*/*",
		"Accept-Language": "en-US,en;q=0.5",
		"Accept-Encoding": "gzip, deflate, br",
		"Connection":      "keep-alive",
	}
}
