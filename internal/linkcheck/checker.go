// Package linkcheck verifies that links between rendered pages resolve
// inside one output tree.
package linkcheck

import (
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	ferrors "git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
)

// Broken describes a link whose target is not part of the output.
type Broken struct {
	Page   string
	URL    string
	Reason string
}

// Err converts b into a classified warning.
func (b Broken) Err() error {
	return ferrors.ValidationError("broken link: "+b.Reason).
		Warning().
		WithPage(b.Page).
		WithContext("url", b.URL).
		Build()
}

const (
	reasonMissingTarget = "target not found"
	reasonMissingAnchor = "anchor not found"
	reasonOutsideRoot   = "target outside the book"
	reasonMalformed     = "malformed URL"
)

// Checker resolves links relative to an output root. Parsed pages are cached
// so each target is read once per checker.
type Checker struct {
	root string

	mu   sync.Mutex
	docs map[string]*Document
}

// NewChecker creates a checker for the tree under root.
func NewChecker(root string) *Checker {
	return &Checker{root: root, docs: make(map[string]*Document)}
}

// CheckPages checks every page and returns broken links ordered by page and
// URL. pages are slash-separated paths relative to the root.
func (c *Checker) CheckPages(pages []string) ([]Broken, error) {
	var broken []Broken
	for _, p := range pages {
		b, err := c.CheckPage(p)
		if err != nil {
			return nil, err
		}
		broken = append(broken, b...)
	}
	sort.SliceStable(broken, func(i, j int) bool {
		if broken[i].Page != broken[j].Page {
			return broken[i].Page < broken[j].Page
		}
		return broken[i].URL < broken[j].URL
	})
	return broken, nil
}

// CheckPage checks the links of one page.
func (c *Checker) CheckPage(page string) ([]Broken, error) {
	doc, err := c.document(page)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ferrors.NewError(ferrors.CategoryNotFound, "page not found in output").
			WithPage(page).
			Build()
	}

	var broken []Broken
	seen := make(map[string]bool)
	for _, l := range doc.Links {
		if seen[l.URL] || !shouldVerify(l.URL) {
			continue
		}
		seen[l.URL] = true
		if reason := c.resolve(page, doc, l.URL); reason != "" {
			broken = append(broken, Broken{Page: page, URL: l.URL, Reason: reason})
		}
	}
	return broken, nil
}

func (c *Checker) resolve(page string, self *Document, raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return reasonMalformed
	}
	if u.Scheme != "" || u.Host != "" {
		return ""
	}

	if u.Path == "" {
		if u.Fragment != "" && !self.IDs[u.Fragment] {
			return reasonMissingAnchor
		}
		return ""
	}

	target := u.Path
	if strings.HasPrefix(target, "/") {
		target = path.Clean(strings.TrimPrefix(target, "/"))
	} else {
		target = path.Join(path.Dir(page), target)
	}
	if target == ".." || strings.HasPrefix(target, "../") {
		return reasonOutsideRoot
	}
	if strings.HasSuffix(u.Path, "/") || target == "." {
		target = path.Join(target, "index.html")
	}

	info, err := os.Stat(filepath.Join(c.root, filepath.FromSlash(target)))
	if err != nil {
		return reasonMissingTarget
	}
	if info.IsDir() {
		target = path.Join(target, "index.html")
		if _, err := os.Stat(filepath.Join(c.root, filepath.FromSlash(target))); err != nil {
			return reasonMissingTarget
		}
	}

	if u.Fragment == "" || !isHTML(target) {
		return ""
	}
	doc, err := c.document(target)
	if err != nil || doc == nil || !doc.IDs[u.Fragment] {
		return reasonMissingAnchor
	}
	return ""
}

// document returns the parsed page, or nil when it does not exist.
func (c *Checker) document(page string) (*Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if doc, ok := c.docs[page]; ok {
		return doc, nil
	}
	f, err := os.Open(filepath.Join(c.root, filepath.FromSlash(page)))
	if err != nil {
		if os.IsNotExist(err) {
			c.docs[page] = nil
			return nil, nil
		}
		return nil, ferrors.FileSystemError("failed to open page").
			WithPage(page).
			WithCause(err).
			Build()
	}
	defer func() { _ = f.Close() }()

	doc, err := Extract(f)
	if err != nil {
		return nil, err
	}
	c.docs[page] = doc
	return doc, nil
}

// shouldVerify skips links that cannot be resolved against the tree.
func shouldVerify(link string) bool {
	if link == "" || link == "#" {
		return false
	}
	lower := strings.ToLower(link)
	for _, prefix := range []string{"mailto:", "tel:", "javascript:", "data:"} {
		if strings.HasPrefix(lower, prefix) {
			return false
		}
	}
	return true
}

func isHTML(p string) bool {
	ext := strings.ToLower(path.Ext(p))
	return ext == ".html" || ext == ".htm"
}
