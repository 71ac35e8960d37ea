package linkextract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/forge-run/wharf/internal/frontier"
)

// htmlRule is one entry of the tag/attribute classification table.
type htmlRule struct {
	tag       string
	attr      string
	inline    bool
	linked    bool
	linkType  frontier.LinkType
	valueType ValueType
}

// htmlRules is the authoritative attribute-to-classification table: which
// tag/attribute pairs carry a reference, and whether that reference is
// inline (needed to render the page), linked (a navigable follow-on), or
// both.
var htmlRules = []htmlRule{
	{"a", "href", false, true, frontier.LinkHTML, ValuePlain},
	{"area", "href", false, true, frontier.LinkHTML, ValuePlain},
	{"link", "href", true, false, frontier.LinkCSS, ValueCSS},
	{"img", "src", true, false, frontier.LinkMedia, ValuePlain},
	{"img", "srcset", true, false, frontier.LinkMedia, ValueSrcset},
	{"audio", "src", true, false, frontier.LinkMedia, ValuePlain},
	{"video", "src", true, false, frontier.LinkMedia, ValuePlain},
	{"source", "src", true, false, frontier.LinkMedia, ValuePlain},
	{"track", "src", true, false, frontier.LinkMedia, ValuePlain},
	{"embed", "src", true, false, frontier.LinkMedia, ValuePlain},
	{"object", "data", true, false, frontier.LinkMedia, ValuePlain},
	{"applet", "code", true, false, frontier.LinkMedia, ValuePlain},
	{"script", "src", true, false, frontier.LinkJS, ValueScript},
	{"iframe", "src", true, true, frontier.LinkHTML, ValuePlain},
	{"frame", "src", true, true, frontier.LinkHTML, ValuePlain},
	{"form", "action", false, true, frontier.LinkHTML, ValuePlain},
}

// linkRelStylesheet restricts the link[href] rule above to stylesheet
// relations; other rel values (icon, preload, canonical, ...) are still
// worth following but are not CSS.
const linkRelStylesheet = "stylesheet"

// ExtractHTML walks a parsed HTML document and returns every discovered
// reference per the tag/attribute table plus <meta http-equiv=refresh>.
// Links are returned unresolved; each carries the base URL in effect
// (baseURL, or the <base href> value once seen) for Resolve to apply.
func ExtractHTML(baseURL string, body []byte) ([]LinkInfo, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, err
	}

	base := baseURL
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok && strings.TrimSpace(href) != "" {
		base = strings.TrimSpace(href)
	}

	var links []LinkInfo
	for _, rule := range htmlRules {
		sel := "[" + rule.attr + "]"
		doc.Find(rule.tag + sel).Each(func(_ int, s *goquery.Selection) {
			raw, ok := s.Attr(rule.attr)
			if !ok {
				return
			}
			if rule.tag == "link" {
				rel, _ := s.Attr("rel")
				if !strings.EqualFold(strings.TrimSpace(rel), linkRelStylesheet) {
					links = append(links, LinkInfo{
						ElementTag: rule.tag, Attribute: rule.attr, Link: raw,
						Inline: false, Linked: true, BaseURL: base,
						ValueType: ValuePlain, LinkType: frontier.LinkHTML,
					})
					return
				}
			}
			if rule.valueType == ValueSrcset {
				for _, candidate := range parseSrcset(raw) {
					links = append(links, LinkInfo{
						ElementTag: rule.tag, Attribute: rule.attr, Link: candidate,
						Inline: rule.inline, Linked: rule.linked, BaseURL: base,
						ValueType: rule.valueType, LinkType: rule.linkType,
					})
				}
				return
			}
			links = append(links, LinkInfo{
				ElementTag: rule.tag, Attribute: rule.attr, Link: raw,
				Inline: rule.inline, Linked: rule.linked, BaseURL: base,
				ValueType: rule.valueType, LinkType: rule.linkType,
			})
		})
	}

	doc.Find("meta[http-equiv]").Each(func(_ int, s *goquery.Selection) {
		equiv, _ := s.Attr("http-equiv")
		if !strings.EqualFold(strings.TrimSpace(equiv), "refresh") {
			return
		}
		content, ok := s.Attr("content")
		if !ok {
			return
		}
		if target := parseMetaRefresh(content); target != "" {
			links = append(links, LinkInfo{
				ElementTag: "meta", Attribute: "content", Link: target,
				Inline: false, Linked: true, BaseURL: base,
				ValueType: ValueRefresh, LinkType: frontier.LinkHTML,
			})
		}
	})

	return links, nil
}

// parseSrcset splits a srcset attribute ("a.jpg 1x, b.jpg 2x") into its
// bare URL candidates, discarding descriptors.
func parseSrcset(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		fields := strings.Fields(strings.TrimSpace(part))
		if len(fields) > 0 {
			out = append(out, fields[0])
		}
	}
	return out
}

// parseMetaRefresh extracts the URL= portion of a refresh directive
// ("5; url=/next").
func parseMetaRefresh(content string) string {
	idx := strings.IndexByte(content, ';')
	if idx < 0 {
		return ""
	}
	rest := content[idx+1:]
	eq := strings.IndexByte(rest, '=')
	if eq < 0 {
		return ""
	}
	key := strings.ToLower(strings.TrimSpace(rest[:eq]))
	if key != "url" {
		return ""
	}
	return strings.Trim(strings.TrimSpace(rest[eq+1:]), `'"`)
}
