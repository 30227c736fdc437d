// Package scaffold validates a scaffolding request against an artifact type
// definition, resolves which template to render, and produces the rendered
// content plus a suggested file name.
package scaffold

import (
	"regexp"
	"strings"

	"github.com/MikeyVK/stencil/internal/artifact"
	"github.com/MikeyVK/stencil/internal/introspect"
	"github.com/MikeyVK/stencil/internal/render"
)

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// Result is the outcome of a scaffold: non-empty rendered content and the
// file name derived from name + suffix + extension.
type Result struct {
	Content  string `json:"content"`
	FileName string `json:"file_name"`
}

// Scaffolder renders artifact content through a Renderer.
type Scaffolder struct {
	renderer render.Renderer
	store    *render.Store
}

// New creates a scaffolder. The store is used only for strict validation,
// which asks the introspector for ground truth instead of the declared field
// lists.
func New(renderer render.Renderer, store *render.Store) *Scaffolder {
	return &Scaffolder{renderer: renderer, store: store}
}

// Validate checks the declared required fields of the definition against the
// context. Fails with a ValidationError naming every missing field. The
// generic catch-all additionally requires a template override in context.
func (s *Scaffolder) Validate(def artifact.Definition, ctx map[string]any) error {
	var missing []string
	if def.TypeID == artifact.GenericTypeID && stringField(ctx, "template") == "" {
		missing = append(missing, "template")
	}
	for _, field := range def.RequiredFields {
		if _, ok := ctx[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return &ValidationError{TypeID: def.TypeID, Missing: missing}
	}
	return nil
}

// ValidateStrict validates against the introspected schema of the resolved
// template chain rather than the declared field lists.
func (s *Scaffolder) ValidateStrict(def artifact.Definition, ctx map[string]any) error {
	id, err := ResolveTemplate(def, ctx)
	if err != nil {
		return err
	}
	schema, err := introspect.IntrospectChain(s.store, id)
	if err != nil {
		return err
	}
	var missing []string
	for _, field := range schema.Required {
		if _, ok := ctx[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return &ValidationError{TypeID: def.TypeID, Missing: missing}
	}
	return nil
}

// Scaffold validates, resolves the template, renders it, and derives the file
// name. Rendering failures propagate as execution errors, deliberately
// distinct from validation errors.
func (s *Scaffolder) Scaffold(def artifact.Definition, ctx map[string]any) (Result, error) {
	if err := s.Validate(def, ctx); err != nil {
		return Result{}, err
	}
	name, err := BaseName(def, ctx)
	if err != nil {
		return Result{}, err
	}
	templateID, err := ResolveTemplate(def, ctx)
	if err != nil {
		return Result{}, err
	}

	content, err := s.renderer.Render(templateID, ctx)
	if err != nil {
		return Result{}, err
	}
	if strings.TrimSpace(content) == "" {
		return Result{}, &render.ExecError{
			Kind:       render.KindSyntax,
			TemplateID: templateID,
			Hint:       "template rendered no content",
		}
	}

	return Result{Content: content, FileName: FileName(def, name)}, nil
}

// FileName combines a base name with the definition's suffix and extension.
func FileName(def artifact.Definition, name string) string {
	ext := strings.TrimPrefix(def.FileExtension, ".")
	return name + def.NameSuffix + "." + ext
}

// BaseName prefers an explicit name field, falling back to a slug of the
// title. One of the two must be present.
func BaseName(def artifact.Definition, ctx map[string]any) (string, error) {
	if name := stringField(ctx, "name"); name != "" {
		return slug(name), nil
	}
	if title := stringField(ctx, "title"); title != "" {
		return slug(title), nil
	}
	return "", &ValidationError{TypeID: def.TypeID, Missing: []string{"name"}}
}

func slug(s string) string {
	s = slugRe.ReplaceAllString(strings.ToLower(s), "_")
	return strings.Trim(s, "_")
}
