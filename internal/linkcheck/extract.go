package linkcheck

import (
	"io"
	"strings"

	"golang.org/x/net/html"

	ferrors "git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
)

// Link is a reference found in a rendered page.
type Link struct {
	URL       string
	Tag       string
	Attribute string
}

// Document is what a page contributes to link checking: the references it
// makes and the fragment ids it defines.
type Document struct {
	Links []Link
	IDs   map[string]bool
}

var linkAttrs = map[string]string{
	"a":      "href",
	"area":   "href",
	"link":   "href",
	"img":    "src",
	"script": "src",
	"audio":  "src",
	"video":  "src",
	"source": "src",
	"iframe": "src",
}

// Extract parses an HTML page and collects its links and element ids.
func Extract(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryValidation, "failed to parse HTML").Build()
	}

	doc := &Document{IDs: make(map[string]bool)}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if id := attr(n, "id"); id != "" {
				doc.IDs[id] = true
			}
			// Legacy named anchors still resolve fragments in browsers.
			if n.Data == "a" {
				if name := attr(n, "name"); name != "" {
					doc.IDs[name] = true
				}
			}
			if key, ok := linkAttrs[n.Data]; ok {
				if v := strings.TrimSpace(attr(n, key)); v != "" {
					doc.Links = append(doc.Links, Link{URL: v, Tag: n.Data, Attribute: key})
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return doc, nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
