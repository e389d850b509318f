package manifest

import (
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/wwt-image-collection/hashgen/internal/converter"
	"github.com/wwt-image-collection/hashgen/internal/domain"
)

const (
	folderElement = "Folder"
	urlAttribute  = "Url"
	nameAttribute = "Name"
)

// Document is a parsed manifest
type Document struct {
	Locator domain.Locator
	// Text is the document as read, decoded as UTF-8, the unit of aggregation
	Text string

	root *xmlquery.Node
}

// Reference is a direct child Folder of a document's root Folder
type Reference struct {
	Name string
	// URL is the raw Url attribute; empty for leaves
	URL string
}

// IsLeaf reports whether the reference contributes no content of its own.
// An empty or whitespace-only Url counts as absent.
func (r Reference) IsLeaf() bool {
	return r.URL == ""
}

// ParseDocument parses raw manifest bytes. contentType is the response
// Content-Type for fetched documents and empty for files. The bytes must be
// well-formed XML whose first element is a Folder.
func ParseDocument(loc domain.Locator, raw []byte, contentType string) (*Document, error) {
	view, err := converter.ParseView(raw, contentType)
	if err != nil {
		return nil, domain.NewStructuralError(loc.String(), fmt.Errorf("%w: %v", domain.ErrMalformedDocument, err))
	}
	if strings.TrimSpace(view) == "" {
		return nil, domain.NewStructuralError(loc.String(), fmt.Errorf("%w: empty document", domain.ErrMalformedDocument))
	}

	doc, err := xmlquery.Parse(strings.NewReader(view))
	if err != nil {
		return nil, domain.NewStructuralError(loc.String(), fmt.Errorf("%w: %v", domain.ErrMalformedDocument, err))
	}

	root := firstElement(doc)
	if root == nil || root.Data != folderElement {
		return nil, domain.NewStructuralError(loc.String(), domain.ErrNoRootFolder)
	}

	return &Document{Locator: loc, Text: converter.ToText(raw), root: root}, nil
}

// Name returns the Name attribute of the root Folder
func (d *Document) Name() string {
	return d.root.SelectAttr(nameAttribute)
}

// References returns the direct child Folder elements of the root, in
// document order. Deeper Folder elements are not references.
func (d *Document) References() []Reference {
	var refs []Reference
	for n := d.root.FirstChild; n != nil; n = n.NextSibling {
		if n.Type != xmlquery.ElementNode || n.Data != folderElement {
			continue
		}
		refs = append(refs, Reference{
			Name: n.SelectAttr(nameAttribute),
			URL:  strings.TrimSpace(n.SelectAttr(urlAttribute)),
		})
	}
	return refs
}

func firstElement(doc *xmlquery.Node) *xmlquery.Node {
	for n := doc.FirstChild; n != nil; n = n.NextSibling {
		if n.Type == xmlquery.ElementNode {
			return n
		}
	}
	return nil
}
