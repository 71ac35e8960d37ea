package linkextract

import (
	"regexp"
	"strings"

	"github.com/forge-run/wharf/internal/frontier"
)

// jsStringLiteralRE matches single- or double-quoted string literals,
// the only thing a non-executing scanner can safely pull URLs from.
var jsStringLiteralRE = regexp.MustCompile(`["']([^"'\s]{2,2048})["']`)

// ExtractJS scans script source for quoted string literals that look
// like absolute or root-relative URLs. It never executes or parses the
// script as a language; this is a best-effort sniff, not a sandboxed
// interpreter.
func ExtractJS(baseURL string, body []byte) []LinkInfo {
	var links []LinkInfo
	for _, m := range jsStringLiteralRE.FindAllStringSubmatch(string(body), -1) {
		candidate := m[1]
		if !looksLikeURL(candidate) {
			continue
		}
		links = append(links, LinkInfo{
			ElementTag: "script", Attribute: "", Link: candidate,
			Inline: false, Linked: true, BaseURL: baseURL,
			ValueType: ValueScript, LinkType: frontier.LinkFile,
		})
	}
	return links
}

func looksLikeURL(s string) bool {
	switch {
	case strings.HasPrefix(s, "http://"), strings.HasPrefix(s, "https://"):
		return true
	case strings.HasPrefix(s, "//") && len(s) > 2:
		return true
	case strings.HasPrefix(s, "/") && len(s) > 1 && !strings.HasPrefix(s, "//"):
		return true
	default:
		return false
	}
}
