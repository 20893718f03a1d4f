package site

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/bookbuilder/internal/chapters"
	"git.home.luguber.info/inful/bookbuilder/internal/config"
	ferrors "git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/bookbuilder/internal/frontmatter"
	"git.home.luguber.info/inful/bookbuilder/internal/steps"
)

// source is one page source read from the manuscript directory.
type source struct {
	// Rel is slash separated and relative to the manuscript directory.
	Rel    string
	ID     string
	Output string
	Ext    string

	Fields      frontmatter.Fields
	Frontmatter []byte
	Body        []byte
}

// discover walks the manuscript directory and returns page sources sorted
// by relative path. Sources with unreadable front matter are returned as
// per-page metadata errors and left out. Drafts are skipped, as are hidden
// and underscore directories, asset directories, the chapter file, the
// layout and the output directory.
func discover(cfg *config.Config, outputDir string) ([]source, []error, error) {
	root := cfg.SourceDir()
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, nil, ferrors.ConfigError("source directory not found").
			WithContext("path", root).
			WithCause(err).
			Fatal().
			Build()
	}

	extensions := make(map[string]bool, len(cfg.Source.Extensions))
	for _, ext := range cfg.Source.Extensions {
		extensions[strings.ToLower(ext)] = true
	}
	skipDirs := map[string]bool{filepath.Clean(outputDir): true}
	for _, a := range cfg.Source.Assets {
		skipDirs[filepath.Join(root, filepath.FromSlash(a))] = true
	}
	skipFiles := map[string]bool{filepath.Clean(cfg.ChaptersPath()): true}
	if layout := cfg.LayoutPath(); layout != "" {
		skipFiles[filepath.Clean(layout)] = true
	}

	var found []source
	var pageErrs []error
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if p == root {
				return nil
			}
			name := d.Name()
			if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || skipDirs[p] {
				return filepath.SkipDir
			}
			return nil
		}
		if skipFiles[p] || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(p))
		if !extensions[ext] {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		src, err := readSource(p, filepath.ToSlash(rel), ext)
		if ferrors.HasCategory(err, ferrors.CategoryMetadata) {
			pageErrs = append(pageErrs, err)
			return nil
		}
		if err != nil {
			return err
		}
		if src.Fields.Draft {
			return nil
		}
		found = append(found, src)
		return nil
	})
	if err != nil {
		if ferrors.IsClassified(err) {
			return nil, nil, err
		}
		return nil, nil, ferrors.FileSystemError("failed to read manuscript").
			WithContext("path", root).
			WithCause(err).
			Build()
	}

	sort.Slice(found, func(i, j int) bool { return found[i].Rel < found[j].Rel })
	return found, pageErrs, nil
}

func readSource(absPath, rel, ext string) (source, error) {
	data, err := os.ReadFile(absPath)
	if err != nil {
		return source{}, ferrors.FileSystemError("failed to read page source").
			WithPage(rel).
			WithCause(err).
			Build()
	}
	fields, body, err := frontmatter.Parse(data)
	if err != nil {
		return source{}, ferrors.MetadataError("invalid front matter").
			WithPage(rel).
			WithCause(err).
			Build()
	}
	// Parse succeeded, so Split cannot fail.
	fm, _, _, _ := frontmatter.Split(data)

	id := chapters.NormalizeID(rel)
	if override := strings.TrimSpace(fields.ID); override != "" {
		id = chapters.CanonicalID(override)
		if !chapters.ValidPageID(id) {
			return source{}, ferrors.MetadataError("front matter id must be a plain file name").
				WithPage(rel).
				WithContext("id", override).
				Build()
		}
	}
	return source{
		Rel:         rel,
		ID:          id,
		Output:      outputPath(rel, id),
		Ext:         ext,
		Fields:      fields,
		Frontmatter: fm,
		Body:        body,
	}, nil
}

// outputPath mirrors the source directory and names the file after the id.
func outputPath(rel, id string) string {
	return path.Join(path.Dir(rel), id+".html")
}

// catalog maps every page id to its output path. Two sources with the same
// id make chapter lookup ambiguous and abort the build.
func catalog(sources []source) (steps.Catalog, error) {
	cat := make(steps.Catalog, len(sources))
	owner := make(map[string]string, len(sources))
	for _, s := range sources {
		if prev, ok := owner[s.ID]; ok {
			return nil, ferrors.ConfigError("ambiguous page id").
				WithContext("id", s.ID).
				WithContext("sources", []string{prev, s.Rel}).
				Fatal().
				Build()
		}
		owner[s.ID] = s.Rel
		cat[s.ID] = s.Output
	}
	return cat, nil
}

// pageLinks resolves links between manuscript sources to the pages they
// render to, honoring front matter id overrides.
type pageLinks struct {
	ids     map[string]string
	outputs map[string]string
	cat     steps.Catalog
}

func newPageLinks(sources []source, cat steps.Catalog) pageLinks {
	pl := pageLinks{
		ids:     make(map[string]string, len(sources)),
		outputs: make(map[string]string, len(sources)),
		cat:     cat,
	}
	for _, s := range sources {
		pl.ids[s.Rel] = s.ID
		pl.outputs[s.Rel] = s.Output
	}
	return pl
}

func (pl pageLinks) Resolve(from, target string) (string, bool) {
	id, ok := pl.ids[target]
	if !ok {
		return "", false
	}
	return pl.cat.Href(pl.outputs[from], id)
}

// missingChapters reports chapter records without a page, in index order.
func missingChapters(index *chapters.Index, cat steps.Catalog) ([]string, []error) {
	var ids []string
	var errs []error
	for _, r := range index.Records() {
		if _, ok := cat[r.ID]; ok {
			continue
		}
		ids = append(ids, r.ID)
		errs = append(errs, ferrors.MetadataError("chapter has no matching page").
			WithChapter(r.ID).
			WithContext("path", index.Source()).
			Build())
	}
	return ids, errs
}
