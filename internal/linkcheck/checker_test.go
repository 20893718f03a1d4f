package linkcheck

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	ferrors "git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
)

func writeSite(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return root
}

func TestExtract_LinksAndIDs(t *testing.T) {
	doc, err := Extract(strings.NewReader(`<html><head><link rel="stylesheet" href="style.css"></head>
<body><h2 id="intro">Intro</h2><a name="legacy"></a>
<a href="next.html#top">Next</a><img src="images/fig.svg"><a href="">empty</a></body></html>`))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(doc.Links) != 3 {
		t.Fatalf("links=%d, want 3: %+v", len(doc.Links), doc.Links)
	}
	if doc.Links[0].URL != "style.css" || doc.Links[0].Tag != "link" {
		t.Fatalf("first link=%+v", doc.Links[0])
	}
	if doc.Links[2].Attribute != "src" {
		t.Fatalf("img link attribute=%q, want src", doc.Links[2].Attribute)
	}
	for _, id := range []string{"intro", "legacy"} {
		if !doc.IDs[id] {
			t.Fatalf("missing id %q", id)
		}
	}
}

func TestCheckPages(t *testing.T) {
	root := writeSite(t, map[string]string{
		"index.html": `<a href="preface.html">Preface</a><a href="part/one.html#s1">One</a>` +
			`<a href="https://example.com/x">ext</a><a href="mailto:a@b.c">mail</a><a href="#">none</a>`,
		"preface.html": `<p id="top">Hi</p><a href="#top">up</a><a href="#nowhere">bad</a>` +
			`<img src="images/missing.png">`,
		"part/one.html": `<h2 id="s1">S1</h2><a href="../index.html">home</a><a href="../../etc/passwd">out</a>` +
			`<a href="/preface.html#gone">abs</a><a href="./">dir</a>`,
		"part/index.html": `ok`,
	})

	broken, err := NewChecker(root).CheckPages([]string{"index.html", "preface.html", "part/one.html"})
	if err != nil {
		t.Fatalf("CheckPages: %v", err)
	}

	want := []Broken{
		{Page: "part/one.html", URL: "../../etc/passwd", Reason: reasonOutsideRoot},
		{Page: "part/one.html", URL: "/preface.html#gone", Reason: reasonMissingAnchor},
		{Page: "preface.html", URL: "#nowhere", Reason: reasonMissingAnchor},
		{Page: "preface.html", URL: "images/missing.png", Reason: reasonMissingTarget},
	}
	if len(broken) != len(want) {
		t.Fatalf("broken=%+v, want %+v", broken, want)
	}
	for i := range want {
		if broken[i] != want[i] {
			t.Fatalf("broken[%d]=%+v, want %+v", i, broken[i], want[i])
		}
	}
}

func TestCheckPage_Missing(t *testing.T) {
	_, err := NewChecker(t.TempDir()).CheckPage("absent.html")
	if !ferrors.HasCategory(err, ferrors.CategoryNotFound) {
		t.Fatalf("err=%v, want not_found", err)
	}
}

func TestBrokenErr(t *testing.T) {
	err := Broken{Page: "a.html", URL: "b.html", Reason: reasonMissingTarget}.Err()
	ce, ok := ferrors.AsClassified(err)
	if !ok {
		t.Fatalf("expected classified error, got %T", err)
	}
	if ce.Category() != ferrors.CategoryValidation || ce.Severity() != ferrors.SeverityWarning {
		t.Fatalf("category=%s severity=%v", ce.Category(), ce.Severity())
	}
	if page, _ := ce.Context().GetString("page"); page != "a.html" {
		t.Fatalf("page context=%q", page)
	}
}
