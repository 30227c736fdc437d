// Package render resolves versioned template files and renders them. Template
// identifiers are root-relative paths without extension ("docs/design");
// each file may open with metadata comments declaring its version and the
// ancestor it extends:
//
//	{{/* stencil:version 1.2.0 */}}
//	{{/* stencil:extends docs/_base_document */}}
package render

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/MikeyVK/stencil/internal/version"
)

// TemplateExt is the on-disk extension for template files.
const TemplateExt = ".tmpl"

// DefaultVersion is assumed for templates that carry no version metadata.
const DefaultVersion = "0.0.0"

var (
	versionRe = regexp.MustCompile(`\{\{/\*\s*stencil:version\s+(\S+)\s*\*/\}\}`)
	extendsRe = regexp.MustCompile(`\{\{/\*\s*stencil:extends\s+(\S+)\s*\*/\}\}`)
)

// Meta is the metadata embedded in a template file.
type Meta struct {
	Version string
	Extends string // ancestor template id, "" for root templates
}

// Store reads template files from a single root directory.
type Store struct {
	root string
}

// NewStore creates a template store over root. The root must exist; a missing
// template directory is a configuration problem surfaced immediately rather
// than on first render.
func NewStore(root string) (*Store, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("template root %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("template root %s is not a directory", root)
	}
	return &Store{root: root}, nil
}

// Root returns the template root directory.
func (s *Store) Root() string { return s.root }

// Body returns the raw text of a template.
func (s *Store) Body(id string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.root, filepath.FromSlash(id)+TemplateExt))
	if err != nil {
		if os.IsNotExist(err) {
			return "", &ExecError{
				Kind:       KindNotFound,
				TemplateID: id,
				Hint:       fmt.Sprintf("expected %s%s under %s", id, TemplateExt, s.root),
			}
		}
		return "", fmt.Errorf("read template %s: %w", id, err)
	}
	return string(data), nil
}

// Exists reports whether a template file is present for the identifier.
func (s *Store) Exists(id string) bool {
	_, err := os.Stat(filepath.Join(s.root, filepath.FromSlash(id)+TemplateExt))
	return err == nil
}

// Meta parses the embedded metadata of a template.
func (s *Store) Meta(id string) (Meta, error) {
	body, err := s.Body(id)
	if err != nil {
		return Meta{}, err
	}
	return parseMeta(body), nil
}

// Chain resolves the ancestor chain of a template, least- to most-specific,
// excluding the concrete template itself. An empty chain is valid.
func (s *Store) Chain(id string) ([]version.TierEntry, error) {
	var chain []version.TierEntry
	seen := map[string]bool{id: true}

	current := id
	for {
		meta, err := s.Meta(current)
		if err != nil {
			return nil, err
		}
		if meta.Extends == "" {
			break
		}
		if seen[meta.Extends] {
			return nil, &ExecError{
				Kind:       KindSyntax,
				TemplateID: id,
				Hint:       fmt.Sprintf("inheritance cycle through %q", meta.Extends),
			}
		}
		seen[meta.Extends] = true

		parentMeta, err := s.Meta(meta.Extends)
		if err != nil {
			return nil, err
		}
		// Prepend: ancestors accumulate most-specific first while walking up.
		chain = append([]version.TierEntry{{TemplateID: meta.Extends, Version: parentMeta.Version}}, chain...)
		current = meta.Extends
	}
	return chain, nil
}

func parseMeta(body string) Meta {
	m := Meta{Version: DefaultVersion}
	if match := versionRe.FindStringSubmatch(body); match != nil {
		m.Version = match[1]
	}
	if match := extendsRe.FindStringSubmatch(body); match != nil {
		m.Extends = match[1]
	}
	return m
}
