// Package introspect derives the externally-supplied variable schema of a
// template by walking its parse tree: which fields a caller must provide, and
// which are optional because the template guards or defaults them.
package introspect

import (
	"sort"
	"text/template/parse"

	"github.com/MikeyVK/stencil/internal/render"
)

// systemFields are stamped onto every context by the artifact manager and are
// therefore never part of a template's caller-facing schema.
var systemFields = map[string]bool{
	"artifact_type": true,
	"created_at":    true,
	"file_name":     true,
	"output_path":   true,
	"provenance":    true,
	"template_id":   true,
	"version":       true,
}

// SystemFields returns the fixed field set excluded from every schema, sorted.
func SystemFields() []string {
	out := make([]string, 0, len(systemFields))
	for f := range systemFields {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Schema partitions a template's free variables. Required and Optional are
// disjoint and sorted alphabetically.
type Schema struct {
	Required []string `json:"required"`
	Optional []string `json:"optional"`
}

// usage accumulates how each free variable is referenced in one template.
type usage struct {
	free     map[string]bool // every free variable
	softened map[string]bool // used as an if guard or through default
	hardened map[string]bool // plain unguarded use, forces required
}

func newUsage() *usage {
	return &usage{
		free:     map[string]bool{},
		softened: map[string]bool{},
		hardened: map[string]bool{},
	}
}

// Introspect parses a single template body and classifies its free variables.
// A variable is optional only when every use is guarded: an if condition, a
// pipe through the default transform, or a reference inside a conditional
// body. Anything ambiguous stays required.
func Introspect(body string) (Schema, error) {
	u, err := collect(body)
	if err != nil {
		return Schema{}, err
	}
	return u.schema(), nil
}

// IntrospectChain unions free variables across the full inheritance chain of
// a template, then classifies every name using the concrete template's own
// usage patterns. Names contributed only by ancestors default to required.
func IntrospectChain(store *render.Store, id string) (Schema, error) {
	body, err := store.Body(id)
	if err != nil {
		return Schema{}, err
	}
	concrete, err := collect(body)
	if err != nil {
		return Schema{}, err
	}

	chain, err := store.Chain(id)
	if err != nil {
		return Schema{}, err
	}
	for _, tier := range chain {
		ancestorBody, err := store.Body(tier.TemplateID)
		if err != nil {
			return Schema{}, err
		}
		au, err := collect(ancestorBody)
		if err != nil {
			return Schema{}, err
		}
		for name := range au.free {
			concrete.free[name] = true
		}
	}
	return concrete.schema(), nil
}

func collect(body string) (*usage, error) {
	trees, err := parse.Parse("template", body, "{{", "}}", render.Funcs)
	if err != nil {
		return nil, &render.ExecError{
			Kind:       render.KindSyntax,
			TemplateID: "template",
			Hint:       "check {{...}} action syntax and matching end blocks",
			Err:        err,
		}
	}

	u := newUsage()
	for _, tree := range trees {
		if tree.Root != nil {
			u.walkList(tree.Root, false)
		}
	}
	return u, nil
}

func (u *usage) walkList(list *parse.ListNode, guarded bool) {
	for _, node := range list.Nodes {
		u.walkNode(node, guarded)
	}
}

func (u *usage) walkNode(node parse.Node, guarded bool) {
	switch n := node.(type) {
	case *parse.ActionNode:
		u.walkPipe(n.Pipe, guarded, false)
	case *parse.IfNode:
		u.walkPipe(n.Pipe, guarded, true)
		if n.List != nil {
			u.walkList(n.List, true)
		}
		if n.ElseList != nil {
			u.walkList(n.ElseList, true)
		}
	case *parse.RangeNode:
		u.walkPipe(n.Pipe, guarded, false)
		// Inside the body the dot is rebound to the element; field
		// references there are locally bound, not free.
	case *parse.WithNode:
		u.walkPipe(n.Pipe, guarded, false)
	case *parse.TemplateNode:
		if n.Pipe != nil {
			u.walkPipe(n.Pipe, guarded, false)
		}
	case *parse.ListNode:
		u.walkList(n, guarded)
	}
}

// walkPipe records field references in a pipeline. asGuard marks the pipe as
// an if condition; a pipeline that runs through the default transform softens
// every field it references, covering both {{default "x" .f}} and
// {{.f | default "x"}}.
func (u *usage) walkPipe(pipe *parse.PipeNode, guarded, asGuard bool) {
	if pipe == nil {
		return
	}
	defaulted := false
	for _, cmd := range pipe.Cmds {
		if len(cmd.Args) > 0 {
			if ident, ok := cmd.Args[0].(*parse.IdentifierNode); ok && ident.Ident == "default" {
				defaulted = true
			}
		}
	}
	for _, cmd := range pipe.Cmds {
		for _, arg := range cmd.Args {
			field, ok := arg.(*parse.FieldNode)
			if !ok || len(field.Ident) == 0 {
				continue
			}
			name := field.Ident[0]
			u.free[name] = true
			switch {
			case asGuard, defaulted:
				u.softened[name] = true
			case guarded:
				// Guarded plain use: neither softens nor hardens.
			default:
				u.hardened[name] = true
			}
		}
	}
}

func (u *usage) schema() Schema {
	s := Schema{Required: []string{}, Optional: []string{}}
	for name := range u.free {
		if systemFields[name] {
			continue
		}
		if u.softened[name] && !u.hardened[name] {
			s.Optional = append(s.Optional, name)
		} else {
			s.Required = append(s.Required, name)
		}
	}
	sort.Strings(s.Required)
	sort.Strings(s.Optional)
	return s
}
