package introspect

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeyVK/stencil/internal/render"
)

func TestPlainUseIsRequired(t *testing.T) {
	schema, err := Introspect("Hello {{.name}}, by {{.author}}")
	require.NoError(t, err)
	assert.Equal(t, []string{"author", "name"}, schema.Required)
	assert.Empty(t, schema.Optional)
}

func TestIfGuardedOnlyUseIsOptional(t *testing.T) {
	schema, err := Introspect("{{if .summary}}{{.summary}}{{end}}")
	require.NoError(t, err)
	assert.Empty(t, schema.Required)
	assert.Equal(t, []string{"summary"}, schema.Optional)
}

func TestDefaultPipedUseIsOptional(t *testing.T) {
	for name, body := range map[string]string{
		"pipe_form": `{{.status | default "draft"}}`,
		"call_form": `{{default "draft" .status}}`,
	} {
		t.Run(name, func(t *testing.T) {
			schema, err := Introspect(body)
			require.NoError(t, err)
			assert.Empty(t, schema.Required)
			assert.Equal(t, []string{"status"}, schema.Optional)
		})
	}
}

func TestPlainUseElsewhereForcesRequired(t *testing.T) {
	// Guarded in one place, used bare in another: the bare use wins.
	schema, err := Introspect("{{if .summary}}x{{end}} {{.summary}}")
	require.NoError(t, err)
	assert.Equal(t, []string{"summary"}, schema.Required)
	assert.Empty(t, schema.Optional)
}

func TestGuardedPlainUseStaysAmbiguous(t *testing.T) {
	// Used only inside a conditional body guarded by another field: neither
	// softened nor hardened, so it stays required.
	schema, err := Introspect("{{if .flag}}{{.detail}}{{end}}")
	require.NoError(t, err)
	assert.Equal(t, []string{"detail"}, schema.Required)
	assert.Equal(t, []string{"flag"}, schema.Optional)
}

func TestRangeBodyFieldsAreBound(t *testing.T) {
	schema, err := Introspect("{{range .items}}{{.label}}{{end}}")
	require.NoError(t, err)
	assert.Equal(t, []string{"items"}, schema.Required)
	assert.Empty(t, schema.Optional)
}

func TestSystemFieldsExcluded(t *testing.T) {
	schema, err := Introspect("{{.provenance}}\n{{.created_at}} {{.version}} {{.title}}")
	require.NoError(t, err)
	assert.Equal(t, []string{"title"}, schema.Required)
	assert.Empty(t, schema.Optional)
}

func TestSyntaxErrorSurfacesAsExecError(t *testing.T) {
	_, err := Introspect("{{if .x}}unclosed")
	var xerr *render.ExecError
	require.ErrorAs(t, err, &xerr)
	assert.Equal(t, render.KindSyntax, xerr.Kind)
}

func TestIntrospectChainUnionsAncestorFields(t *testing.T) {
	root := t.TempDir()
	write := func(id, body string) {
		path := filepath.Join(root, filepath.FromSlash(id)+render.TemplateExt)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	}
	write("docs/_base_document",
		`{{/* stencil:version 1.0.0 */}}{{define "header"}}{{.author}}{{end}}`)
	write("docs/design",
		"{{/* stencil:version 1.2.0 */}}{{/* stencil:extends docs/_base_document */}}"+
			`{{template "header" .}}{{.title}}{{if .summary}}{{.summary}}{{end}}`)

	store, err := render.NewStore(root)
	require.NoError(t, err)

	schema, err := IntrospectChain(store, "docs/design")
	require.NoError(t, err)
	// author comes only from the ancestor, so it defaults to required.
	assert.Equal(t, []string{"author", "title"}, schema.Required)
	assert.Equal(t, []string{"summary"}, schema.Optional)
}

func TestSystemFieldsSorted(t *testing.T) {
	fields := SystemFields()
	assert.Contains(t, fields, "provenance")
	assert.Contains(t, fields, "artifact_type")
	assert.IsType(t, []string{}, fields)
}
