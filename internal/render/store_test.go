package render

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeyVK/stencil/internal/version"
)

func writeTemplate(t *testing.T, root, id, body string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(id)+TemplateExt)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
}

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	root := t.TempDir()
	s, err := NewStore(root)
	require.NoError(t, err)
	return s, root
}

func TestNewStoreMissingRoot(t *testing.T) {
	_, err := NewStore(filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "template root")
}

func TestBodyNotFound(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.Body("docs/missing")
	var xerr *ExecError
	require.ErrorAs(t, err, &xerr)
	assert.Equal(t, KindNotFound, xerr.Kind)
	assert.Equal(t, "docs/missing", xerr.TemplateID)
}

func TestMetaParsing(t *testing.T) {
	s, root := newTestStore(t)
	writeTemplate(t, root, "docs/design",
		"{{/* stencil:version 1.2.0 */}}\n{{/* stencil:extends docs/_base_document */}}\nbody")

	meta, err := s.Meta("docs/design")
	require.NoError(t, err)
	assert.Equal(t, "1.2.0", meta.Version)
	assert.Equal(t, "docs/_base_document", meta.Extends)
}

func TestMetaDefaults(t *testing.T) {
	s, root := newTestStore(t)
	writeTemplate(t, root, "plain", "no metadata here")

	meta, err := s.Meta("plain")
	require.NoError(t, err)
	assert.Equal(t, DefaultVersion, meta.Version)
	assert.Empty(t, meta.Extends)
}

func TestChainResolvesAncestorsInOrder(t *testing.T) {
	s, root := newTestStore(t)
	writeTemplate(t, root, "docs/_base_document", "{{/* stencil:version 1.0.0 */}}")
	writeTemplate(t, root, "docs/_base_report",
		"{{/* stencil:version 2.0.0 */}}\n{{/* stencil:extends docs/_base_document */}}")
	writeTemplate(t, root, "docs/design",
		"{{/* stencil:version 1.2.0 */}}\n{{/* stencil:extends docs/_base_report */}}")

	chain, err := s.Chain("docs/design")
	require.NoError(t, err)
	assert.Equal(t, []version.TierEntry{
		{TemplateID: "docs/_base_document", Version: "1.0.0"},
		{TemplateID: "docs/_base_report", Version: "2.0.0"},
	}, chain)
}

func TestChainEmptyForRootTemplate(t *testing.T) {
	s, root := newTestStore(t)
	writeTemplate(t, root, "dto", "{{/* stencil:version 1.0.0 */}}")

	chain, err := s.Chain("dto")
	require.NoError(t, err)
	assert.Empty(t, chain)
}

func TestChainDetectsCycle(t *testing.T) {
	s, root := newTestStore(t)
	writeTemplate(t, root, "a", "{{/* stencil:extends b */}}")
	writeTemplate(t, root, "b", "{{/* stencil:extends a */}}")

	_, err := s.Chain("a")
	var xerr *ExecError
	require.ErrorAs(t, err, &xerr)
	assert.Equal(t, KindSyntax, xerr.Kind)
	assert.Contains(t, xerr.Hint, "cycle")
}
