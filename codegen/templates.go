package codegen

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"text/template"
)

const (
	contractTemplate = "contract.move.tmpl"
	bindingTemplate  = "binding.go.tmpl"
	registryTemplate = "registry.go.tmpl"
)

//go:embed templates/*.tmpl
var defaultTemplates embed.FS

var funcs = template.FuncMap{
	"quote": func(s string) string { return fmt.Sprintf("%q", s) },
}

// Templates is the named template set the generator renders from.
type Templates struct {
	fsys fs.FS
}

// DefaultTemplates returns the embedded template set.
func DefaultTemplates() *Templates {
	sub, err := fs.Sub(defaultTemplates, "templates")
	if err != nil {
		panic(err)
	}
	return &Templates{fsys: sub}
}

// LoadTemplates reads templates from dir. Nothing falls back to the embedded
// set, so a missing file fails at render time.
func LoadTemplates(dir string) *Templates {
	return &Templates{fsys: os.DirFS(dir)}
}

// Render executes the template called name with data.
func (t *Templates) Render(name string, data any) (string, error) {
	raw, err := fs.ReadFile(t.fsys, name)
	if err != nil {
		return "", generationErrorf(name, "template not found: %w", err)
	}
	tmpl, err := template.New(name).Funcs(funcs).Option("missingkey=error").Parse(string(raw))
	if err != nil {
		return "", generationErrorf(name, "parsing template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", generationErrorf(name, "executing template: %w", err)
	}
	return buf.String(), nil
}
