package linkextract

import (
	"regexp"
	"strings"

	"github.com/forge-run/wharf/internal/frontier"
)

// cssImportRE matches @import url(...) and @import "...".
var cssImportRE = regexp.MustCompile(`@import\s+(?:url\(\s*['"]?([^'")]+)['"]?\s*\)|['"]([^'"]+)['"])`)

// cssURLRE matches url(...) references (background-image, @font-face src, ...).
var cssURLRE = regexp.MustCompile(`url\(\s*['"]?([^'")]+)['"]?\s*\)`)

// ExtractCSS scans a stylesheet body for @import and url() references.
// Stylesheets are always needed to render their including page, so every
// reference found here is inline.
func ExtractCSS(baseURL string, body []byte) []LinkInfo {
	text := string(body)
	var links []LinkInfo

	for _, m := range cssImportRE.FindAllStringSubmatch(text, -1) {
		target := m[1]
		if target == "" {
			target = m[2]
		}
		target = strings.TrimSpace(target)
		if target == "" {
			continue
		}
		links = append(links, LinkInfo{
			ElementTag: "@import", Attribute: "", Link: target,
			Inline: true, Linked: false, BaseURL: baseURL,
			ValueType: ValueCSS, LinkType: frontier.LinkCSS,
		})
	}

	// url() tokens inside @import rules were taken above; scan the rest.
	rest := cssImportRE.ReplaceAllString(text, "")
	for _, m := range cssURLRE.FindAllStringSubmatch(rest, -1) {
		target := strings.TrimSpace(m[1])
		if target == "" || strings.HasPrefix(target, "data:") {
			continue
		}
		links = append(links, LinkInfo{
			ElementTag: "url()", Attribute: "", Link: target,
			Inline: true, Linked: false, BaseURL: baseURL,
			ValueType: ValueCSS, LinkType: frontier.LinkMedia,
		})
	}

	return links
}
