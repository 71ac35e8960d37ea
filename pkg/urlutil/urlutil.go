package urlutil

import (
	"net/url"
	"path"
	"strings"
)

// Canonicalize applies a deterministic normalization to a URL, producing a canonical form.
// It maps equivalent URL spellings to a single canonical representation.
//
// The normalization follows these rules:
//   - Scheme and host are lowercased
//   - Path is cleaned (trailing slashes removed, except for root "/")
//   - Fragments are removed
//   - Query parameters are removed
//   - Default ports are omitted (e.g., :80 for http, :443 for https)
//
// Properties:
//   - Pure: no state, no memory
//   - Deterministic: same input always produces same output
//   - Idempotent: Canonicalize(Canonicalize(url)) == Canonicalize(url)
//   - Context-free: does not depend on crawl history
func Canonicalize(sourceUrl url.URL) url.URL {
	// Create a copy to avoid mutating the original
	canonical := sourceUrl

	// Lowercase scheme and host
	canonical.Scheme = lowerASCII(canonical.Scheme)
	canonical.Host = lowerASCII(canonical.Host)

	// Remove default port if present
	if host, port := canonical.Hostname(), canonical.Port(); port != "" {
		if (canonical.Scheme == "http" && port == "80") ||
			(canonical.Scheme == "https" && port == "443") {
			canonical.Host = host
		}
	}

	// Clean the path: remove trailing slashes (except root)
	if len(canonical.Path) > 1 {
		canonical.Path = stripTrailingSlash(canonical.Path)
	}

	// Remove fragment (anchor)
	canonical.Fragment = ""
	canonical.RawFragment = ""

	// Remove query parameters
	canonical.RawQuery = ""
	canonical.ForceQuery = false

	return canonical
}

// lowerASCII converts ASCII characters to lowercase without allocating.
// This is faster than strings.ToLower for ASCII-only strings.
func lowerASCII(s string) string {
	var needsLower bool
	for i := 0; i < len(s); i++ {
		if s[i] >= 'A' && s[i] <= 'Z' {
			needsLower = true
			break
		}
	}
	if !needsLower {
		return s
	}
	b := make([]byte, len(s))
	copy(b, s)
	for i := 0; i < len(b); i++ {
		if b[i] >= 'A' && b[i] <= 'Z' {
			b[i] += 'a' - 'A'
		}
	}
	return string(b)
}

// stripTrailingSlash removes trailing slashes from a path.
func stripTrailingSlash(path string) string {
	for len(path) > 1 && path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}
	return path
}

// Info is the normalized identity of a crawled URL: scheme and host are
// case-folded and path dot-segments are resolved, but query and fragment are kept
// as seen, since two URLs that differ only in query string are distinct
// fetch targets for a crawler even though they are the same document for a
// docs-indexing pass.
type Info struct {
	Scheme   string
	Userinfo string
	Host     string
	Port     string
	Path     string
	Query    string
	Fragment string
}

// Normalize produces the Info a frontier uses for URL identity and
// deduplication. Unlike Canonicalize it never discards query or fragment;
// it only folds equivalent spellings of the same resource reference.
func Normalize(u url.URL) Info {
	scheme := lowerASCII(u.Scheme)
	host := lowerASCII(u.Hostname())
	port := u.Port()

	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		port = ""
	}

	cleanPath := u.Path
	if cleanPath == "" {
		cleanPath = "/"
	} else {
		cleanPath = path.Clean(cleanPath)
		if strings.HasSuffix(u.Path, "/") && cleanPath != "/" {
			cleanPath += "/"
		}
	}

	var userinfo string
	if u.User != nil {
		userinfo = u.User.String()
	}

	return Info{
		Scheme:   scheme,
		Userinfo: userinfo,
		Host:     host,
		Port:     port,
		Path:     cleanPath,
		Query:    u.RawQuery,
		Fragment: u.Fragment,
	}
}

// HostPort returns "host" or "host:port" suitable for per-host bookkeeping
// (rate limiting, robots.txt cache keys).
func (i Info) HostPort() string {
	if i.Port == "" {
		return i.Host
	}
	return i.Host + ":" + i.Port
}

// String renders the normalized URL back into its canonical textual form.
func (i Info) String() string {
	u := url.URL{
		Scheme:   i.Scheme,
		Host:     i.HostPort(),
		Path:     i.Path,
		RawQuery: i.Query,
		Fragment: i.Fragment,
	}
	if i.Userinfo != "" {
		if idx := strings.IndexByte(i.Userinfo, ':'); idx >= 0 {
			u.User = url.UserPassword(i.Userinfo[:idx], i.Userinfo[idx+1:])
		} else {
			u.User = url.User(i.Userinfo)
		}
	}
	return u.String()
}
