package page

import (
	"bytes"
	"fmt"
	"html/template"
)

// Template is a compiled HTML fragment template used by the build steps.
type Template struct {
	name string
	tpl  *template.Template
}

// CompileTemplate parses an html/template fragment. Unknown fields are errors.
func CompileTemplate(name, text string) (*Template, error) {
	tpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", name, err)
	}
	return &Template{name: name, tpl: tpl}, nil
}

// MustCompileTemplate is CompileTemplate for built-in templates.
func MustCompileTemplate(name, text string) *Template {
	t, err := CompileTemplate(name, text)
	if err != nil {
		panic(err)
	}
	return t
}

// Name returns the template name.
func (t *Template) Name() string { return t.name }

// Execute renders the fragment to a string ready for insertion.
func (t *Template) Execute(data any) (string, error) {
	var buf bytes.Buffer
	if err := t.tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render template %s: %w", t.name, err)
	}
	return buf.String(), nil
}
