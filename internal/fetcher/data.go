package fetcher

import (
	"net/url"
	"time"
)

// HTTP/FTP boundary. FetchParam and FetchResult are scheme-agnostic; the
// Web Session decides what a status code or network error means, the
// fetcher only performs the request and reports what happened.

type FetchParam struct {
	fetchUrl  url.URL
	userAgent string
	method    string
	body      []byte
	headers   map[string]string
}

func NewFetchParam(fetchUrl url.URL, userAgent string) FetchParam {
	return FetchParam{
		fetchUrl:  fetchUrl,
		userAgent: userAgent,
		method:    "GET",
	}
}

// WithPostData returns a copy of the param configured to POST body with
// the given content type, per the frontier's post_data field (§3).
func (p FetchParam) WithPostData(body []byte, contentType string) FetchParam {
	p.method = "POST"
	p.body = body
	if p.headers == nil {
		p.headers = map[string]string{}
	}
	p.headers["Content-Type"] = contentType
	return p
}

type FetchResult struct {
	url        url.URL
	finalURL   url.URL
	body       []byte
	meta       ResponseMeta
	fetchedAt  time.Time
	redirected bool
}

func (f *FetchResult) URL() url.URL {
	return f.url
}

// FinalURL is the URL the server responded from. It only differs from
// URL() when the fetcher itself followed a same-request redirect (it
// never does by default: the Web Session owns the redirect budget).
func (f *FetchResult) FinalURL() url.URL {
	return f.finalURL
}

func (f *FetchResult) Body() []byte {
	return f.body
}

func (f *FetchResult) Code() int {
	return f.meta.statusCode
}

func (f *FetchResult) SizeByte() uint64 {
	return uint64(len(f.body))
}

func (f *FetchResult) Headers() map[string]string {
	return f.meta.responseHeaders
}

// Location returns the Location header for a 3xx response, resolved
// against the requested URL, so the Web Session can enqueue the redirect
// target without re-parsing headers itself.
func (f *FetchResult) Location() (url.URL, bool) {
	loc, ok := f.meta.responseHeaders["Location"]
	if !ok || loc == "" {
		return url.URL{}, false
	}
	ref, err := url.Parse(loc)
	if err != nil {
		return url.URL{}, false
	}
	return *f.url.ResolveReference(ref), true
}

func (f *FetchResult) FetchedAt() time.Time {
	return f.fetchedAt
}

type ResponseMeta struct {
	statusCode      int
	responseHeaders map[string]string
}

// NewFetchResultForTest creates a FetchResult for testing purposes.
// This allows test packages to construct FetchResult values without
// accessing unexported fields directly.
func NewFetchResultForTest(
	url url.URL,
	body []byte,
	statusCode int,
	contentType string,
	responseHeaders map[string]string,
	fetchedAt time.Time,
) FetchResult {
	if responseHeaders == nil {
		responseHeaders = map[string]string{}
	}
	if contentType != "" {
		responseHeaders["Content-Type"] = contentType
	}
	return FetchResult{
		url:       url,
		finalURL:  url,
		body:      body,
		fetchedAt: fetchedAt,
		meta: ResponseMeta{
			statusCode:      statusCode,
			responseHeaders: responseHeaders,
		},
	}
}
