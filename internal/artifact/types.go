// Package artifact loads and validates the artifact type registry: the
// configuration document declaring every artifact type the scaffolding engine
// can produce, with its template binding, metadata fields, naming rules, and
// lifecycle state machine.
package artifact

import "fmt"

// Category groups artifact types by commit policy: code blocks on failed
// content validation, doc warns and writes anyway, transient goes to a
// temporary location instead of the workspace.
type Category string

const (
	CategoryCode      Category = "code"
	CategoryDoc       Category = "doc"
	CategoryTransient Category = "transient"
)

// GenericTypeID is the reserved catch-all type: the caller must supply both a
// template override and an explicit output path.
const GenericTypeID = "generic"

// Transition is one row of a lifecycle state machine.
type Transition struct {
	From string   `yaml:"from" json:"from"`
	To   []string `yaml:"to" json:"to"`
}

// StateMachine is the lifecycle state machine of an artifact type.
type StateMachine struct {
	States       []string     `yaml:"states" json:"states"`
	InitialState string       `yaml:"initial_state" json:"initial_state"`
	Transitions  []Transition `yaml:"valid_transitions" json:"valid_transitions"`
}

// CanTransition reports whether the machine allows moving from one state to
// another.
func (m StateMachine) CanTransition(from, to string) bool {
	for _, t := range m.Transitions {
		if t.From != from {
			continue
		}
		for _, next := range t.To {
			if next == to {
				return true
			}
		}
	}
	return false
}

// Definition declares a single artifact type.
type Definition struct {
	Category         Category     `yaml:"type" json:"type"`
	TypeID           string       `yaml:"type_id" json:"type_id"`
	Name             string       `yaml:"name" json:"name"`
	Description      string       `yaml:"description" json:"description"`
	TemplatePath     string       `yaml:"template_path" json:"template_path"`
	FallbackTemplate string       `yaml:"fallback_template" json:"fallback_template,omitempty"`
	NameSuffix       string       `yaml:"name_suffix" json:"name_suffix"`
	FileExtension    string       `yaml:"file_extension" json:"file_extension"`
	RequiredFields   []string     `yaml:"required_fields" json:"required_fields"`
	OptionalFields   []string     `yaml:"optional_fields" json:"optional_fields"`
	StateMachine     StateMachine `yaml:"state_machine" json:"state_machine"`
}

// Durable reports whether the artifact is committed into the workspace rather
// than a temporary location.
func (d Definition) Durable() bool { return d.Category != CategoryTransient }

// document is the on-disk registry file.
type document struct {
	Version       int          `yaml:"version"`
	ArtifactTypes []Definition `yaml:"artifact_types"`
}

// ConfigError is a bad or missing registry document. It always carries the
// offending source path and an actionable hint.
type ConfigError struct {
	Path string
	Hint string
	Err  error
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("artifact type config %s", e.Path)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return msg
}

func (e *ConfigError) Unwrap() error { return e.Err }
