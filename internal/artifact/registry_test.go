package artifact

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validDoc = `
version: 1
artifact_types:
  - type_id: design
    type: doc
    name: Design Document
    template_path: docs/design
    name_suffix: _design
    file_extension: md
    required_fields: [title, author]
    state_machine:
      states: [draft, approved]
      initial_state: draft
      valid_transitions:
        - from: draft
          to: [approved]
  - type_id: dto
    type: code
    name: DTO
    template_path: dto
    name_suffix: _dto
    file_extension: go
    required_fields: [name, package]
`

func writeDoc(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "artifact_types.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestFromSourceLoadsTypes(t *testing.T) {
	t.Cleanup(Reset)
	r, err := FromSource(writeDoc(t, validDoc))
	require.NoError(t, err)

	def, err := r.GetArtifact("design")
	require.NoError(t, err)
	assert.Equal(t, CategoryDoc, def.Category)
	assert.Equal(t, "docs/design", def.TemplatePath)
	assert.Equal(t, []string{"title", "author"}, def.RequiredFields)
	assert.True(t, def.Durable())
}

func TestGetArtifactUnknownListsKnownTypes(t *testing.T) {
	t.Cleanup(Reset)
	r, err := FromSource(writeDoc(t, validDoc))
	require.NoError(t, err)

	_, err = r.GetArtifact("nope")
	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Contains(t, err.Error(), `unknown artifact type "nope"`)
	assert.Contains(t, err.Error(), "design, dto")
}

func TestFromSourceCachesPerPath(t *testing.T) {
	t.Cleanup(Reset)
	path := writeDoc(t, validDoc)

	first, err := FromSource(path)
	require.NoError(t, err)
	second, err := FromSource(path)
	require.NoError(t, err)
	assert.Same(t, first, second)

	Reset()
	third, err := FromSource(path)
	require.NoError(t, err)
	assert.NotSame(t, first, third)
}

func TestFromSourceMissingFile(t *testing.T) {
	t.Cleanup(Reset)
	_, err := FromSource(filepath.Join(t.TempDir(), "absent.yaml"))
	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Contains(t, cerr.Hint, "STENCIL_CONFIG")
}

func TestFromSourceRejectsBadCategory(t *testing.T) {
	t.Cleanup(Reset)
	doc := `
artifact_types:
  - type_id: oops
    type: binary
    template_path: x
`
	_, err := FromSource(writeDoc(t, doc))
	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Contains(t, err.Error(), "must be one of code, doc, transient")
}

func TestFromSourceRejectsBadTypeID(t *testing.T) {
	t.Cleanup(Reset)
	doc := `
artifact_types:
  - type_id: "Bad-ID"
    type: code
    template_path: x
`
	_, err := FromSource(writeDoc(t, doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lowercase alphanumeric")
}

func TestFromSourceRejectsDuplicateTypeID(t *testing.T) {
	t.Cleanup(Reset)
	doc := `
artifact_types:
  - type_id: design
    type: doc
    template_path: a
  - type_id: design
    type: doc
    template_path: b
`
	_, err := FromSource(writeDoc(t, doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate type_id")
}

func TestFromSourceRejectsBadInitialState(t *testing.T) {
	t.Cleanup(Reset)
	doc := `
artifact_types:
  - type_id: design
    type: doc
    template_path: docs/design
    state_machine:
      states: [draft, approved]
      initial_state: missing
`
	_, err := FromSource(writeDoc(t, doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `initial_state "missing"`)
}

func TestFromSourceRejectsEmptyDocument(t *testing.T) {
	t.Cleanup(Reset)
	_, err := FromSource(writeDoc(t, "version: 1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one entry")
}

func TestListTypeIDs(t *testing.T) {
	t.Cleanup(Reset)
	r, err := FromSource(writeDoc(t, validDoc))
	require.NoError(t, err)

	assert.Equal(t, []string{"design", "dto"}, r.ListTypeIDs(""))
	assert.Equal(t, []string{"dto"}, r.ListTypeIDs(CategoryCode))
	assert.Empty(t, r.ListTypeIDs(CategoryTransient))
}

func TestStateMachineCanTransition(t *testing.T) {
	sm := StateMachine{
		States:       []string{"draft", "in_review", "approved"},
		InitialState: "draft",
		Transitions: []Transition{
			{From: "draft", To: []string{"in_review"}},
			{From: "in_review", To: []string{"approved", "draft"}},
		},
	}

	assert.True(t, sm.CanTransition("draft", "in_review"))
	assert.True(t, sm.CanTransition("in_review", "draft"))
	assert.False(t, sm.CanTransition("draft", "approved"))
	assert.False(t, sm.CanTransition("approved", "draft"))
}
