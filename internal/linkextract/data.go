package linkextract

import "github.com/forge-run/wharf/internal/frontier"

// ValueType records how a link was found inside its attribute/text,
// carried for diagnostic/hook consumption even though the tag/attribute
// table is the authoritative inline/linked/link_type source.
type ValueType string

const (
	ValuePlain   ValueType = "plain"
	ValueList    ValueType = "list"
	ValueCSS     ValueType = "css"
	ValueRefresh ValueType = "refresh"
	ValueScript  ValueType = "script"
	ValueSrcset  ValueType = "srcset"
)

// ContentFamily is the dispatch target selected by MIME type, URL
// suffix, or body sniff.
type ContentFamily string

const (
	FamilyHTML      ContentFamily = "html"
	FamilyCSS       ContentFamily = "css"
	FamilySitemap   ContentFamily = "sitemap"
	FamilyJS        ContentFamily = "javascript"
	FamilyPlainText ContentFamily = "plaintext"
)

// LinkInfo is one discovered reference, ready to hand to the frontier
// via Add once resolved and filtered.
type LinkInfo struct {
	ElementTag string
	Attribute  string
	Link       string
	Inline     bool
	Linked     bool
	BaseURL    string
	ValueType  ValueType
	LinkType   frontier.LinkType
}
