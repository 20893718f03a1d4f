// Package manifest describes the pages of a finished build in manifest.json.
package manifest

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/inful/mdfp"
)

// FileName is written at the root of the output directory.
const FileName = "manifest.json"

// SchemaVersion is bumped when the JSON shape changes.
const SchemaVersion = 1

// Manifest is a deterministic record of a build's outputs. It carries no
// timestamps so unchanged inputs produce an identical file.
type Manifest struct {
	SchemaVersion int      `json:"schema_version"`
	Title         string   `json:"title"`
	Steps         []string `json:"steps"`
	Pages         []Page   `json:"pages"`
	Assets        []string `json:"assets,omitempty"`
}

// Page is one rendered output page.
type Page struct {
	Output      string `json:"output"`
	Source      string `json:"source"`
	ID          string `json:"id"`
	Ordinal     int    `json:"ordinal,omitempty"`
	Fingerprint string `json:"fingerprint"`
}

// New creates an empty manifest for the given title and step order.
func New(title string, steps []string) *Manifest {
	return &Manifest{
		SchemaVersion: SchemaVersion,
		Title:         title,
		Steps:         append([]string(nil), steps...),
	}
}

// Fingerprint returns the content fingerprint of a source split into front
// matter and body.
func Fingerprint(frontmatter, body []byte) string {
	return mdfp.CalculateFingerprintFromParts(string(frontmatter), string(body))
}

// Sort orders pages by output path and assets lexically.
func (m *Manifest) Sort() {
	sort.Slice(m.Pages, func(i, j int) bool { return m.Pages[i].Output < m.Pages[j].Output })
	sort.Strings(m.Assets)
}

// ToJSON serializes the manifest to JSON, sorted.
func (m *Manifest) ToJSON() ([]byte, error) {
	m.Sort()
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	return append(data, '\n'), nil
}

// FromJSON deserializes a manifest from JSON.
func FromJSON(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}
	return &m, nil
}

// Lookup returns the entry for a page id.
func (m *Manifest) Lookup(id string) (Page, bool) {
	for _, p := range m.Pages {
		if p.ID == id {
			return p, true
		}
	}
	return Page{}, false
}

// Hash computes a deterministic hash over steps and page fingerprints.
// Two builds with equal hashes rendered the same sources through the same
// pipeline.
func (m *Manifest) Hash() (string, error) {
	m.Sort()
	hashInput := struct {
		Title string   `json:"title"`
		Steps []string `json:"steps"`
		Pages []Page   `json:"pages"`
	}{
		Title: m.Title,
		Steps: m.Steps,
		Pages: m.Pages,
	}

	data, err := json.Marshal(hashInput)
	if err != nil {
		return "", fmt.Errorf("marshal for hash: %w", err)
	}

	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash), nil
}
