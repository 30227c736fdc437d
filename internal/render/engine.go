package render

import (
	"strings"
	"text/template"
)

// Renderer turns a template identifier and a context into text. The
// scaffolding core treats rendering as a black box behind this interface.
type Renderer interface {
	Render(templateID string, ctx map[string]any) (string, error)
}

// Funcs are the transforms available inside templates. The introspector
// shares this map so parsing agrees between rendering and schema analysis.
var Funcs = template.FuncMap{
	"default": defaultValue,
	"upper":   strings.ToUpper,
	"lower":   strings.ToLower,
}

// Engine renders templates from a Store, parsing the full ancestor chain so
// blocks defined by ancestors are available to the concrete template.
type Engine struct {
	store *Store
}

// NewEngine creates a renderer over the given template store.
func NewEngine(store *Store) *Engine {
	return &Engine{store: store}
}

// Render loads the template and its ancestors, parses them most-generic
// first, and executes the concrete template against ctx. Missing context
// values render as zero values; required-field enforcement happens before
// rendering, not here.
func (e *Engine) Render(templateID string, ctx map[string]any) (string, error) {
	body, err := e.store.Body(templateID)
	if err != nil {
		return "", err
	}
	chain, err := e.store.Chain(templateID)
	if err != nil {
		return "", err
	}

	tmpl := template.New(templateID).Funcs(Funcs).Option("missingkey=zero")
	for _, tier := range chain {
		ancestor, err := e.store.Body(tier.TemplateID)
		if err != nil {
			return "", err
		}
		if _, err := tmpl.Parse(ancestor); err != nil {
			return "", &ExecError{
				Kind:       KindSyntax,
				TemplateID: tier.TemplateID,
				Hint:       "fix the ancestor template before rendering descendants",
				Err:        err,
			}
		}
	}
	if _, err := tmpl.Parse(body); err != nil {
		return "", &ExecError{
			Kind:       KindSyntax,
			TemplateID: templateID,
			Hint:       "check delimiters and action syntax",
			Err:        err,
		}
	}

	var out strings.Builder
	if err := tmpl.Execute(&out, ctx); err != nil {
		return "", &ExecError{
			Kind:       KindSyntax,
			TemplateID: templateID,
			Hint:       "template executed against an incompatible context",
			Err:        err,
		}
	}
	return out.String(), nil
}

// defaultValue substitutes def when the piped value is absent or empty.
func defaultValue(def, val any) any {
	switch v := val.(type) {
	case nil:
		return def
	case string:
		if v == "" {
			return def
		}
	}
	return val
}

var _ Renderer = (*Engine)(nil)
