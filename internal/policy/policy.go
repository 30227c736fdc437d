// Package policy maps artifact types to the ordered list of directories
// their output may be placed in.
package policy

// Resolver returns the candidate output directories for an artifact type,
// most preferred first, relative to the workspace root.
type Resolver interface {
	CandidateDirectories(typeID string) []string
}

// ConfigResolver serves candidates straight from configuration.
type ConfigResolver struct {
	dirs map[string][]string
}

// NewConfigResolver creates a resolver over a type-id to directory-list map.
func NewConfigResolver(dirs map[string][]string) *ConfigResolver {
	return &ConfigResolver{dirs: dirs}
}

// CandidateDirectories implements Resolver.
func (r *ConfigResolver) CandidateDirectories(typeID string) []string {
	return r.dirs[typeID]
}
