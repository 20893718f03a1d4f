// Package markdown renders page bodies written in Markdown to HTML fragments.
package markdown

import (
	"bytes"
	"path"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"git.home.luguber.info/inful/bookbuilder/internal/chapters"
)

// Options control how a body is converted.
type Options struct {
	// RewriteLinks turns relative links to other source pages (foo.md) into
	// links to their rendered output (foo.html).
	RewriteLinks bool
	// Pages resolves link targets to rendered pages. Targets it does not
	// know keep the default naming rule of RewriteDestination.
	Pages PageResolver
}

// PageResolver maps a manuscript source path to the href of its rendered
// page, relative to the page rendered from source from. Paths are slash
// separated and relative to the manuscript directory.
type PageResolver interface {
	Resolve(from, target string) (string, bool)
}

// Renderer converts Markdown to HTML. It is safe for concurrent use.
type Renderer struct {
	md goldmark.Markdown
}

var sourceKey = parser.NewContextKey()

// New returns a Renderer configured for manuscript pages: GitHub flavored
// Markdown, raw HTML passthrough (authors write <fn> footnote markers inline)
// and generated heading ids.
func New(opts Options) *Renderer {
	parserOpts := []parser.Option{parser.WithAutoHeadingID()}
	if opts.RewriteLinks {
		parserOpts = append(parserOpts, parser.WithASTTransformers(
			util.Prioritized(linkRewriter{pages: opts.Pages}, 100),
		))
	}
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parserOpts...),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
	return &Renderer{md: md}
}

// Render converts the body of the source at rel to an HTML fragment.
func (r *Renderer) Render(rel string, body []byte) (string, error) {
	pc := parser.NewContext()
	pc.Set(sourceKey, rel)
	var buf bytes.Buffer
	if err := r.md.Convert(body, &buf, parser.WithContext(pc)); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Links returns the link and image destinations in body, in document order.
func Links(body []byte) []string {
	root := goldmark.New(goldmark.WithExtensions(extension.GFM)).Parser().Parse(text.NewReader(body))
	out := make([]string, 0)
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gmast.Link:
			out = append(out, string(node.Destination))
		case *gmast.Image:
			out = append(out, string(node.Destination))
		case *gmast.AutoLink:
			out = append(out, string(node.URL(body)))
		}
		return gmast.WalkContinue, nil
	})
	return out
}

type linkRewriter struct {
	pages PageResolver
}

func (lr linkRewriter) Transform(doc *gmast.Document, _ text.Reader, pc parser.Context) {
	from, _ := pc.Get(sourceKey).(string)
	_ = gmast.Walk(doc, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		if link, ok := n.(*gmast.Link); ok {
			link.Destination = []byte(lr.rewrite(from, string(link.Destination)))
		}
		return gmast.WalkContinue, nil
	})
}

func (lr linkRewriter) rewrite(from, dest string) string {
	if lr.pages == nil || !isSourceLink(dest) {
		return RewriteDestination(dest)
	}
	target, frag, _ := strings.Cut(dest, "#")
	href, ok := lr.pages.Resolve(from, path.Join(path.Dir(from), target))
	if !ok {
		return RewriteDestination(dest)
	}
	if frag != "" {
		return href + "#" + frag
	}
	return href
}

func isSourceLink(dest string) bool {
	if dest == "" || strings.Contains(dest, "://") || strings.HasPrefix(dest, "/") ||
		strings.HasPrefix(dest, "#") || strings.HasPrefix(dest, "mailto:") {
		return false
	}
	target, _, _ := strings.Cut(dest, "#")
	return strings.EqualFold(path.Ext(target), ".md")
}

// RewriteDestination maps a relative .md destination to the output page it
// becomes (ordering prefix stripped, .html), keeping any fragment. Absolute
// URLs and other extensions are returned unchanged.
func RewriteDestination(dest string) string {
	if !isSourceLink(dest) {
		return dest
	}
	target, frag, _ := strings.Cut(dest, "#")
	dir, _ := path.Split(target)
	target = dir + chapters.NormalizeID(target) + ".html"
	if frag != "" {
		return target + "#" + frag
	}
	return target
}
