package manifest

import (
	"bytes"
	"testing"
)

func sampleManifest() *Manifest {
	m := New("Real World OCaml", []string{"footnotes", "navigation"})
	m.Pages = []Page{
		{Output: "index.html", Source: "index.md", ID: "index", Fingerprint: "c"},
		{Output: "arithmetic.html", Source: "01_arithmetic.md", ID: "arithmetic", Ordinal: 2, Fingerprint: "a"},
		{Output: "functions.html", Source: "02-functions.md", ID: "functions", Ordinal: 3, Fingerprint: "b"},
	}
	m.Assets = []string{"style.css", "images/fig.svg"}
	return m
}

func TestManifestSerialization(t *testing.T) {
	m := sampleManifest()

	jsonData, err := m.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON failed: %v", err)
	}

	restored, err := FromJSON(jsonData)
	if err != nil {
		t.Fatalf("FromJSON failed: %v", err)
	}
	if restored.SchemaVersion != SchemaVersion {
		t.Errorf("expected schema version %d, got %d", SchemaVersion, restored.SchemaVersion)
	}
	if len(restored.Pages) != 3 {
		t.Fatalf("expected 3 pages, got %d", len(restored.Pages))
	}
	want := []string{"arithmetic.html", "functions.html", "index.html"}
	for i, p := range restored.Pages {
		if p.Output != want[i] {
			t.Errorf("page %d: expected %s, got %s", i, want[i], p.Output)
		}
	}
	if restored.Assets[0] != "images/fig.svg" {
		t.Errorf("assets not sorted: %v", restored.Assets)
	}

	p, ok := restored.Lookup("functions")
	if !ok || p.Ordinal != 3 {
		t.Errorf("Lookup(functions) = %+v, %v", p, ok)
	}
	if _, ok := restored.Lookup("missing"); ok {
		t.Error("Lookup(missing) should fail")
	}
}

func TestManifestJSONIsOrderIndependent(t *testing.T) {
	a := sampleManifest()
	b := sampleManifest()
	b.Pages[0], b.Pages[2] = b.Pages[2], b.Pages[0]

	ja, err := a.ToJSON()
	if err != nil {
		t.Fatal(err)
	}
	jb, err := b.ToJSON()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(ja, jb) {
		t.Error("manifest JSON depends on page insertion order")
	}
}

func TestManifestHash(t *testing.T) {
	m1 := sampleManifest()
	m2 := sampleManifest()

	h1, err := m1.Hash()
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	h2, err := m2.Hash()
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if h1 != h2 {
		t.Errorf("expected identical hashes, got %s and %s", h1, h2)
	}

	m2.Pages[1].Fingerprint = "changed"
	h3, err := m2.Hash()
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if h1 == h3 {
		t.Error("expected different hash after a fingerprint change")
	}
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint([]byte("title: A"), []byte("# A\n"))
	b := Fingerprint([]byte("title: A"), []byte("# A\n"))
	c := Fingerprint([]byte("title: A"), []byte("# B\n"))
	if a == "" {
		t.Fatal("empty fingerprint")
	}
	if a != b {
		t.Error("fingerprint is not deterministic")
	}
	if a == c {
		t.Error("fingerprint ignores the body")
	}
}

func TestFromJSON_Invalid(t *testing.T) {
	if _, err := FromJSON([]byte("{")); err == nil {
		t.Error("expected error for truncated JSON")
	}
}
