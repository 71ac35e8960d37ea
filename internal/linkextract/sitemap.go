package linkextract

import (
	"bytes"
	"compress/gzip"
	"errors"
	"io"

	"github.com/beevik/etree"
	"github.com/forge-run/wharf/internal/frontier"
)

// Sitemap size ceilings (§4.4): a sitemap discovered via robots.txt is
// capped tighter than one fetched directly, since robots.txt parsing
// budget is shared with the rule file itself.
const (
	MaxSitemapSizeFromRobots = 4 * 1024
	MaxSitemapSizeDirect     = 2 * 1024 * 1024
)

var errSitemapTooLarge = errors.New("linkextract: sitemap exceeds size ceiling")

// ExtractSitemap parses a sitemap or sitemap-index document, transparently
// gunzipping when the body is gzip-compressed (sitemaps are commonly
// served as .xml.gz regardless of declared content-type). maxSize bounds
// the decompressed size read.
func ExtractSitemap(body []byte, maxSize int) ([]LinkInfo, error) {
	reader, err := maybeGunzip(body)
	if err != nil {
		return nil, err
	}
	limited := io.LimitReader(reader, int64(maxSize)+1)
	decoded, err := io.ReadAll(limited)
	if err != nil {
		return nil, err
	}
	if len(decoded) > maxSize {
		return nil, errSitemapTooLarge
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(decoded); err != nil {
		return nil, err
	}

	root := doc.Root()
	if root == nil {
		return nil, nil
	}

	var links []LinkInfo
	switch root.Tag {
	case "sitemapindex":
		for _, sm := range root.SelectElements("sitemap") {
			if loc := sm.SelectElement("loc"); loc != nil {
				links = append(links, sitemapLinkInfo(loc.Text(), frontier.LinkSitemap))
			}
		}
	case "urlset":
		for _, u := range root.SelectElements("url") {
			if loc := u.SelectElement("loc"); loc != nil {
				links = append(links, sitemapLinkInfo(loc.Text(), frontier.LinkHTML))
			}
		}
	}
	return links, nil
}

func sitemapLinkInfo(loc string, lt frontier.LinkType) LinkInfo {
	return LinkInfo{
		ElementTag: "loc", Attribute: "", Link: loc,
		Inline: false, Linked: true, ValueType: ValuePlain, LinkType: lt,
	}
}

func maybeGunzip(body []byte) (io.Reader, error) {
	if len(body) >= 2 && body[0] == 0x1f && body[1] == 0x8b {
		gr, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		return gr, nil
	}
	return bytes.NewReader(body), nil
}
