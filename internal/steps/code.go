package steps

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const languageClassPrefix = "language-"

// codeLanguage returns the language named by a "language-x" class on the
// code element or its enclosing pre.
func codeLanguage(code *goquery.Selection) string {
	for _, s := range []*goquery.Selection{code, code.Parent()} {
		class, _ := s.Attr("class")
		for _, c := range strings.Fields(class) {
			if strings.HasPrefix(c, languageClassPrefix) {
				return strings.TrimPrefix(c, languageClassPrefix)
			}
		}
	}
	return ""
}

func hasClass(code *goquery.Selection, class string) bool {
	if class == "" {
		return false
	}
	return code.HasClass(class) || code.Parent().HasClass(class)
}

func languageSet(langs []string) map[string]bool {
	set := make(map[string]bool, len(langs))
	for _, l := range langs {
		set[strings.ToLower(strings.TrimPrefix(l, languageClassPrefix))] = true
	}
	return set
}

// firstLine is used in error context to identify a sample.
func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if r := []rune(s); len(r) > 80 {
		s = string(r[:80])
	}
	return s
}

// enclosingPre returns the pre element wrapping code, or code itself.
func enclosingPre(code *goquery.Selection) *goquery.Selection {
	if parent := code.Parent(); goquery.NodeName(parent) == "pre" {
		return parent
	}
	return code
}
