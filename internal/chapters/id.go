package chapters

import (
	"path"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var numericPrefix = regexp.MustCompile(`^[0-9]+[_-]`)

// NormalizeID derives a page id from a source path: the basename without
// extension, minus a leading numeric ordering prefix, lower-cased.
//
//	chapters/00_preface.md -> preface
//	03-functions.md        -> functions
func NormalizeID(sourcePath string) string {
	base := path.Base(strings.ReplaceAll(sourcePath, "\\", "/"))
	base = strings.TrimSuffix(base, path.Ext(base))
	if stripped := numericPrefix.ReplaceAllString(base, ""); stripped != "" {
		base = stripped
	}
	return CanonicalID(base)
}

// CanonicalID is the form ids are compared in. Chapter records, file names
// and front matter overrides all pass through it.
func CanonicalID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// ValidPageID reports whether id can name an output file next to its
// source. Ids naming a directory or leaving it are rejected.
func ValidPageID(id string) bool {
	if id == "" || id == "." || strings.Contains(id, "..") {
		return false
	}
	return !strings.ContainsAny(id, `/\`)
}

// TitleFromID turns an id such as "getting_started" into "Getting Started".
func TitleFromID(id string) string {
	words := strings.FieldsFunc(id, func(r rune) bool { return r == '_' || r == '-' || r == ' ' })
	return cases.Title(language.English).String(strings.Join(words, " "))
}
