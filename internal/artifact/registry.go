package artifact

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

var typeIDRe = regexp.MustCompile(`^[a-z0-9_]+$`)

// Registry is the loaded, validated artifact type registry for one source
// path. Safe for concurrent reads once constructed.
type Registry struct {
	source string
	types  map[string]Definition
	order  []string
}

var (
	cacheMu sync.Mutex
	cache   = map[string]*Registry{}
)

// FromSource loads the registry document at path, caching one registry per
// source path. Subsequent calls with the same path return the cached
// instance; call Reset to drop the cache (test isolation).
func FromSource(path string) (*Registry, error) {
	cacheMu.Lock()
	defer cacheMu.Unlock()

	if r, ok := cache[path]; ok {
		return r, nil
	}
	r, err := load(path)
	if err != nil {
		return nil, err
	}
	cache[path] = r
	return r, nil
}

// Reset drops every cached registry. The next FromSource call re-reads from
// disk. Must not be called while scaffold calls are in flight.
func Reset() {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	cache = map[string]*Registry{}
}

func load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{
			Path: path,
			Hint: "set the artifact type registry path in stencil.yaml or STENCIL_CONFIG",
			Err:  err,
		}
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ConfigError{Path: path, Hint: "document must be valid YAML", Err: err}
	}
	if len(doc.ArtifactTypes) == 0 {
		return nil, &ConfigError{Path: path, Hint: "declare at least one entry under artifact_types"}
	}

	r := &Registry{source: path, types: make(map[string]Definition, len(doc.ArtifactTypes))}
	for _, def := range doc.ArtifactTypes {
		if err := validateDefinition(path, def); err != nil {
			return nil, err
		}
		if _, dup := r.types[def.TypeID]; dup {
			return nil, &ConfigError{
				Path: path,
				Hint: fmt.Sprintf("duplicate type_id %q; type ids must be unique", def.TypeID),
			}
		}
		r.types[def.TypeID] = def
		r.order = append(r.order, def.TypeID)
	}
	sort.Strings(r.order)
	return r, nil
}

func validateDefinition(path string, def Definition) error {
	if !typeIDRe.MatchString(def.TypeID) {
		return &ConfigError{
			Path: path,
			Hint: fmt.Sprintf("type_id %q must be lowercase alphanumeric plus underscore", def.TypeID),
		}
	}
	switch def.Category {
	case CategoryCode, CategoryDoc, CategoryTransient:
	default:
		return &ConfigError{
			Path: path,
			Hint: fmt.Sprintf("type_id %q: type must be one of code, doc, transient (got %q)", def.TypeID, def.Category),
		}
	}

	sm := def.StateMachine
	if len(sm.States) > 0 {
		found := false
		for _, s := range sm.States {
			if s == sm.InitialState {
				found = true
				break
			}
		}
		if !found {
			return &ConfigError{
				Path: path,
				Hint: fmt.Sprintf("type_id %q: initial_state %q is not in states [%s]",
					def.TypeID, sm.InitialState, strings.Join(sm.States, ", ")),
			}
		}
	}
	return nil
}

// Source returns the path the registry was loaded from.
func (r *Registry) Source() string { return r.source }

// GetArtifact returns the definition for a type id. Unknown ids fail with the
// full list of known ids so the caller can see what is available.
func (r *Registry) GetArtifact(typeID string) (Definition, error) {
	def, ok := r.types[typeID]
	if !ok {
		return Definition{}, &ConfigError{
			Path: r.source,
			Hint: fmt.Sprintf("unknown artifact type %q; known types: %s", typeID, strings.Join(r.order, ", ")),
		}
	}
	return def, nil
}

// ListTypeIDs returns all type ids, optionally filtered by category, sorted.
func (r *Registry) ListTypeIDs(category Category) []string {
	if category == "" {
		out := make([]string, len(r.order))
		copy(out, r.order)
		return out
	}
	var out []string
	for _, id := range r.order {
		if r.types[id].Category == category {
			out = append(out, id)
		}
	}
	return out
}
