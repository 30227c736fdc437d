package render

import "fmt"

// ExecErrorKind classifies rendering-engine failures.
type ExecErrorKind string

const (
	// KindNotFound means the template identifier resolved to no file.
	KindNotFound ExecErrorKind = "not_found"
	// KindSyntax means the template exists but could not be parsed.
	KindSyntax ExecErrorKind = "syntax"
)

// ExecError is a rendering-engine failure: the caller's input was fine, the
// template was not. Kept distinct from validation errors so callers can tell
// "bad input" apart from "broken template".
type ExecError struct {
	Kind       ExecErrorKind
	TemplateID string
	Hint       string
	Err        error
}

func (e *ExecError) Error() string {
	msg := fmt.Sprintf("template %q: %s", e.TemplateID, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return msg
}

func (e *ExecError) Unwrap() error { return e.Err }
