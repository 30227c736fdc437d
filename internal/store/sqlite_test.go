package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "data", "stencil.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateAndListScaffolds(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.CreateScaffold(ScaffoldRecord{
		ID:           "call-1",
		ArtifactType: "design",
		Category:     "doc",
		Step:         "START",
		Status:       StatusRunning,
	}))

	records, err := s.ListScaffolds(10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "call-1", records[0].ID)
	assert.Equal(t, "design", records[0].ArtifactType)
	assert.Equal(t, StatusRunning, records[0].Status)
}

func TestUpdateScaffoldStep(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.CreateScaffold(ScaffoldRecord{ID: "call-1", ArtifactType: "design", Step: "START", Status: StatusRunning}))

	require.NoError(t, s.UpdateScaffoldStep("call-1", "RENDERED"))

	rec, err := s.LatestForType("design")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "RENDERED", rec.Step)
	assert.Equal(t, StatusRunning, rec.Status)
}

func TestCompleteScaffold(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.CreateScaffold(ScaffoldRecord{ID: "call-1", ArtifactType: "design", Step: "START", Status: StatusRunning}))

	require.NoError(t, s.CompleteScaffold("call-1", "abcd1234", "docs/cache_design.md"))

	rec, err := s.LatestForType("design")
	require.NoError(t, err)
	assert.Equal(t, "COMMITTED", rec.Step)
	assert.Equal(t, StatusCompleted, rec.Status)
	assert.Equal(t, "abcd1234", rec.Fingerprint)
	assert.Equal(t, "docs/cache_design.md", rec.OutputPath)
}

func TestFailScaffold(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.CreateScaffold(ScaffoldRecord{ID: "call-1", ArtifactType: "design", Step: "START", Status: StatusRunning}))

	require.NoError(t, s.FailScaffold("call-1", "VALIDATED", "content validation failed"))

	rec, err := s.LatestForType("design")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, rec.Status)
	assert.Equal(t, "VALIDATED", rec.Step)
	assert.Equal(t, "content validation failed", rec.ErrorMessage)
}

func TestLatestForTypeNoRows(t *testing.T) {
	s := newTestStore(t)

	rec, err := s.LatestForType("never_scaffolded")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestListScaffoldsLimit(t *testing.T) {
	s := newTestStore(t)
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.CreateScaffold(ScaffoldRecord{ID: id, ArtifactType: "design", Step: "START", Status: StatusRunning}))
	}

	records, err := s.ListScaffolds(2)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}
