// Package validate defines the content-validation collaborator contract and a
// basic default implementation.
package validate

import "strings"

// Validator checks rendered artifact content before it is committed. The
// path hint carries the intended file name so validators can key off the
// extension.
type Validator interface {
	Validate(pathHint, text string) (passed bool, issues []string)
}

// Basic performs cheap structural checks: content must be non-empty and must
// not contain unresolved template placeholders.
type Basic struct{}

// Validate implements Validator.
func (Basic) Validate(pathHint, text string) (bool, []string) {
	var issues []string
	if strings.TrimSpace(text) == "" {
		issues = append(issues, "content is empty")
	}
	if strings.Contains(text, "<no value>") {
		issues = append(issues, "content contains unresolved template values")
	}
	return len(issues) == 0, issues
}
