// Package linkextract implements the Link Extractor (§4.4): dispatching
// a fetched body to the right content-family scanner and normalizing the
// references it finds into resolved, filtered LinkInfo values ready for
// the frontier.
package linkextract

import (
	"mime"
	"strings"
)

// DetectFamily chooses which scanner should run, in the priority order
// the spec lays out: declared MIME type first, then the URL's path
// suffix, then a sniff of the leading bytes of the body.
func DetectFamily(contentType, urlPath string, sniff []byte) ContentFamily {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		if f, ok := familyFromMIME(mt); ok {
			return f
		}
	}
	if f, ok := familyFromSuffix(urlPath); ok {
		return f
	}
	return familyFromSniff(sniff)
}

func familyFromMIME(mt string) (ContentFamily, bool) {
	switch {
	case mt == "text/html" || mt == "application/xhtml+xml":
		return FamilyHTML, true
	case mt == "text/css":
		return FamilyCSS, true
	case mt == "application/xml" || mt == "text/xml" || mt == "application/rss+xml":
		return FamilySitemap, true
	case mt == "application/javascript" || mt == "text/javascript" || mt == "application/x-javascript":
		return FamilyJS, true
	case strings.HasPrefix(mt, "text/"):
		return FamilyPlainText, true
	default:
		return "", false
	}
}

func familyFromSuffix(urlPath string) (ContentFamily, bool) {
	lower := strings.ToLower(urlPath)
	switch {
	case strings.HasSuffix(lower, ".html") || strings.HasSuffix(lower, ".htm"):
		return FamilyHTML, true
	case strings.HasSuffix(lower, ".css"):
		return FamilyCSS, true
	case strings.HasSuffix(lower, ".xml") || strings.HasSuffix(lower, ".xml.gz"):
		return FamilySitemap, true
	case strings.HasSuffix(lower, ".js"):
		return FamilyJS, true
	default:
		return "", false
	}
}

// sniffWindow is the portion of the body inspected when neither the
// declared type nor the URL suffix settles the question (§4.4: 4KiB
// sniff).
const sniffWindow = 4 * 1024

func familyFromSniff(body []byte) ContentFamily {
	if len(body) > sniffWindow {
		body = body[:sniffWindow]
	}
	trimmed := strings.TrimSpace(strings.ToLower(string(body)))
	switch {
	case strings.HasPrefix(trimmed, "<!doctype html") || strings.HasPrefix(trimmed, "<html") || strings.Contains(trimmed, "<body"):
		return FamilyHTML
	case strings.HasPrefix(trimmed, "<?xml") || strings.HasPrefix(trimmed, "<urlset") || strings.HasPrefix(trimmed, "<sitemapindex"):
		return FamilySitemap
	case strings.Contains(trimmed, "@import") || strings.Contains(trimmed, "{") && strings.Contains(trimmed, "}:"):
		return FamilyCSS
	default:
		return FamilyPlainText
	}
}
