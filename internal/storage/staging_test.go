package storage

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestStage(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	s, err := NewStager(dir, "pdf", nil)
	require.NoError(t, err)
	assert.Equal(t, dir, s.Dir())

	a, err := s.Stage(strings.NewReader("%PDF-1.4 a"))
	require.NoError(t, err)
	b, err := s.Stage(strings.NewReader("%PDF-1.4 b"))
	require.NoError(t, err)

	assert.NotEqual(t, a.Path, b.Path)
	assert.Equal(t, dir, filepath.Dir(a.Path))
	assert.True(t, strings.HasSuffix(a.Path, ".pdf"))
	_, err = uuid.Parse(strings.TrimSuffix(filepath.Base(a.Path), ".pdf"))
	assert.NoError(t, err)
	assert.Equal(t, int64(10), a.Size)

	got, err := os.ReadFile(a.Path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 a", string(got))

	s.Remove(a.Path)
	_, err = os.Stat(a.Path)
	assert.True(t, os.IsNotExist(err))

	// removing twice is harmless
	s.Remove(a.Path)
}

func TestStage_ReadFailureLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStager(dir, ".pdf", nil)
	require.NoError(t, err)

	_, err = s.Stage(io.MultiReader(strings.NewReader("partial"), failingReader{}))
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSweep(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStager(dir, ".pdf", nil)
	require.NoError(t, err)

	old, err := s.Stage(strings.NewReader("old"))
	require.NoError(t, err)
	fresh, err := s.Stage(strings.NewReader("fresh"))
	require.NoError(t, err)

	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(old.Path, past, past))

	foreign := filepath.Join(dir, "relatorio.pdf")
	require.NoError(t, os.WriteFile(foreign, []byte("x"), 0o600))
	require.NoError(t, os.Chtimes(foreign, past, past))

	assert.Equal(t, 1, s.Sweep(time.Hour))
	_, err = os.Stat(old.Path)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(fresh.Path)
	assert.NoError(t, err)
	_, err = os.Stat(foreign)
	assert.NoError(t, err, "files not created by the stager are left alone")
}
