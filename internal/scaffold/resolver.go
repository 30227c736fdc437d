package scaffold

import (
	"fmt"
	"strings"

	"github.com/MikeyVK/stencil/internal/artifact"
)

// templateRule is one named template-resolution rule: a pure function of
// (definition, context) to a template identifier. Rules are tried in order;
// the first one that applies decides.
type templateRule struct {
	name    string
	applies func(def artifact.Definition) bool
	resolve func(def artifact.Definition, ctx map[string]any) (string, error)
}

// resolutionRules: two named overrides, then the declared default.
var resolutionRules = []templateRule{
	{
		name:    "generic_override",
		applies: func(def artifact.Definition) bool { return def.TypeID == artifact.GenericTypeID },
		resolve: func(def artifact.Definition, ctx map[string]any) (string, error) {
			id := stringField(ctx, "template")
			if id == "" {
				return "", &ValidationError{TypeID: def.TypeID, Missing: []string{"template"}}
			}
			return id, nil
		},
	},
	{
		name: "service_subtype",
		applies: func(def artifact.Definition) bool {
			return def.TemplatePath == "" && strings.HasPrefix(def.TypeID, "service")
		},
		resolve: func(def artifact.Definition, ctx map[string]any) (string, error) {
			sub := stringField(ctx, "service_type")
			if sub == "" {
				return "", &ValidationError{TypeID: def.TypeID, Missing: []string{"service_type"}}
			}
			return "service/" + sub, nil
		},
	},
	{
		name:    "declared_default",
		applies: func(artifact.Definition) bool { return true },
		resolve: func(def artifact.Definition, ctx map[string]any) (string, error) {
			if def.TemplatePath == "" {
				return "", fmt.Errorf("artifact type %q declares no template_path and no override rule matched", def.TypeID)
			}
			return def.TemplatePath, nil
		},
	},
}

// ResolveTemplate picks the template identifier for a definition and context.
func ResolveTemplate(def artifact.Definition, ctx map[string]any) (string, error) {
	for _, rule := range resolutionRules {
		if rule.applies(def) {
			return rule.resolve(def, ctx)
		}
	}
	return "", fmt.Errorf("no resolution rule for artifact type %q", def.TypeID)
}

func stringField(ctx map[string]any, key string) string {
	if v, ok := ctx[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}
