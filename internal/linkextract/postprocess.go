package linkextract

import (
	"net/url"
	"regexp"
	"strings"
)

// allowedLinkSchemes is the post-processing scheme allowlist: anything
// else (javascript:, data:, tel:, ...) is dropped rather than resolved.
var allowedLinkSchemes = map[string]bool{
	"http":   true,
	"https":  true,
	"ftp":    true,
	"mailto": true,
}

var whitespaceRunRE = regexp.MustCompile(`\s+`)

// Resolve trims, removes internal whitespace, drops the fragment, and
// resolves link.Link against link.BaseURL. It returns ok=false when the
// link is empty, unparseable, or outside the scheme allowlist.
func Resolve(link LinkInfo) (resolved string, ok bool) {
	raw := whitespaceRunRE.ReplaceAllString(strings.TrimSpace(link.Link), "")
	if raw == "" {
		return "", false
	}

	ref, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	ref.Fragment = ""

	base, err := url.Parse(link.BaseURL)
	if err != nil {
		return "", false
	}

	resolvedURL := base.ResolveReference(ref)
	if !allowedLinkSchemes[strings.ToLower(resolvedURL.Scheme)] {
		return "", false
	}
	return resolvedURL.String(), true
}
