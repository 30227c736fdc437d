package fsio

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadRoundtrip(t *testing.T) {
	a, err := NewAdapter(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, a.Write("docs/design/cache.md", "# Cache"))

	got, err := a.Read("docs/design/cache.md")
	require.NoError(t, err)
	assert.Equal(t, "# Cache", got)
}

func TestAbsRejectsEscape(t *testing.T) {
	a, err := NewAdapter(t.TempDir())
	require.NoError(t, err)

	_, err = a.Abs("../outside.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "escapes workspace root")

	err = a.Write(filepath.Join("..", "evil.txt"), "nope")
	assert.Error(t, err)
}

func TestAbsAcceptsRootItself(t *testing.T) {
	root := t.TempDir()
	a, err := NewAdapter(root)
	require.NoError(t, err)

	abs, err := a.Abs(".")
	require.NoError(t, err)
	assert.Equal(t, a.Root(), abs)
}

func TestReadMissingFile(t *testing.T) {
	a, err := NewAdapter(t.TempDir())
	require.NoError(t, err)

	_, err = a.Read("absent.txt")
	assert.Error(t, err)
}
