package chapters

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
)

type rawRecord struct {
	ID      string `yaml:"id"`
	Title   string `yaml:"title"`
	Ordinal *int   `yaml:"ordinal"`
}

type rawFile struct {
	Chapters yaml.Node `yaml:"chapters"`
}

// Load reads a YAML or JSON chapter file.
func Load(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryMetadata, "failed to read chapter metadata").
			Fatal().
			WithContext("path", path).
			Build()
	}
	return Parse(data, path)
}

// Parse builds an Index from the contents of a chapter file. The document is
// either a sequence of records or a mapping with a "chapters" sequence.
// Ordinals are either omitted everywhere (declaration order) or given for
// every record.
func Parse(data []byte, source string) (*Index, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, parseError(source, 0, "chapter metadata is empty", nil)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, parseError(source, 0, "chapter metadata is not valid YAML or JSON", err)
	}
	seq, err := recordSequence(&doc, source)
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(seq.Content))
	seen := make(map[string]int, len(seq.Content))
	explicit := 0
	for i, item := range seq.Content {
		var raw rawRecord
		if err := item.Decode(&raw); err != nil {
			return nil, parseError(source, item.Line, fmt.Sprintf("record %d is not a mapping", i+1), err)
		}
		id := CanonicalID(raw.ID)
		title := strings.TrimSpace(raw.Title)
		switch {
		case id == "":
			return nil, parseError(source, item.Line, fmt.Sprintf("record %d is missing required field id", i+1), nil)
		case title == "":
			return nil, parseError(source, item.Line, fmt.Sprintf("record %d (%s) is missing required field title", i+1, id), nil)
		}
		if first, dup := seen[id]; dup {
			return nil, parseError(source, item.Line, fmt.Sprintf("duplicate chapter id %q (first declared in record %d)", id, first), nil)
		}
		seen[id] = i + 1

		ordinal := i + 1
		if raw.Ordinal != nil {
			explicit++
			ordinal = *raw.Ordinal
			if ordinal <= 0 {
				return nil, parseError(source, item.Line, fmt.Sprintf("chapter %q has non-positive ordinal %d", id, ordinal), nil)
			}
		}
		records = append(records, Record{ID: id, Title: title, Ordinal: ordinal})
	}

	if explicit != 0 && explicit != len(records) {
		return nil, parseError(source, 0, "ordinal must be declared on every record or on none", nil)
	}
	if explicit > 0 {
		sort.SliceStable(records, func(i, j int) bool { return records[i].Ordinal < records[j].Ordinal })
		for i := 1; i < len(records); i++ {
			if records[i].Ordinal == records[i-1].Ordinal {
				return nil, parseError(source, 0, fmt.Sprintf("chapters %q and %q share ordinal %d", records[i-1].ID, records[i].ID, records[i].Ordinal), nil)
			}
		}
	}

	return newIndex(source, records), nil
}

func recordSequence(doc *yaml.Node, source string) (*yaml.Node, error) {
	root := doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	switch root.Kind {
	case yaml.SequenceNode:
		return root, nil
	case yaml.MappingNode:
		var f rawFile
		if err := root.Decode(&f); err != nil {
			return nil, parseError(source, root.Line, "chapter metadata mapping could not be decoded", err)
		}
		if f.Chapters.Kind == yaml.SequenceNode {
			return &f.Chapters, nil
		}
		return nil, parseError(source, root.Line, "chapter metadata mapping has no chapters sequence", nil)
	default:
		return nil, parseError(source, root.Line, "chapter metadata must be a sequence of records", nil)
	}
}

func parseError(source string, line int, msg string, cause error) error {
	if cause != nil {
		cause = fmt.Errorf("%w: %w", ErrParse, cause)
	} else {
		cause = ErrParse
	}
	b := ferrors.WrapError(cause, ferrors.CategoryMetadata, msg).
		Fatal().
		WithContext("path", source)
	if line > 0 {
		b = b.WithContext("line", line)
	}
	return b.Build()
}
