package scaffold

import (
	"fmt"
	"strings"
)

// ValidationError means the caller's input was at fault: required context
// fields are missing, or rendered content failed validation for a blocking
// artifact category. Carries the specific field or issue names.
type ValidationError struct {
	TypeID  string
	Missing []string
	Issues  []string
}

func (e *ValidationError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("artifact type %q: missing required fields: %s",
			e.TypeID, strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("artifact type %q: content validation failed: %s",
		e.TypeID, strings.Join(e.Issues, "; "))
}
