package llm

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTemplate(t *testing.T) {
	tmpl := DefaultTemplate()
	out := tmpl.Render("EDITAL 1/2024")
	assert.Contains(t, out, "EDITAL 1/2024")
	assert.NotContains(t, out, Placeholder)
	assert.Contains(t, out, "numero_edital")
}

func TestNewTemplate_RequiresPlaceholder(t *testing.T) {
	_, err := NewTemplate("sem marcador")
	assert.ErrorIs(t, err, ErrTemplateMissingPlaceholder)

	tmpl, err := NewTemplate("A:" + Placeholder + ":B")
	require.NoError(t, err)
	assert.Equal(t, "A:x:B", tmpl.Render("x"))
}

func TestLoadTemplate(t *testing.T) {
	t.Run("empty path uses default", func(t *testing.T) {
		tmpl, err := LoadTemplate("  ")
		require.NoError(t, err)
		assert.Equal(t, DefaultTemplate().Render("x"), tmpl.Render("x"))
	})

	t.Run("from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "prompt.txt")
		require.NoError(t, os.WriteFile(path, []byte("Extraia:\n"+Placeholder), 0o600))
		tmpl, err := LoadTemplate(path)
		require.NoError(t, err)
		assert.Equal(t, "Extraia:\nabc", tmpl.Render("abc"))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadTemplate(filepath.Join(t.TempDir(), "nope.txt"))
		assert.Error(t, err)
	})
}

func TestRender_TruncatesInput(t *testing.T) {
	tmpl, err := NewTemplate(Placeholder)
	require.NoError(t, err)

	long := strings.Repeat("a", MaxInputChars+500)
	assert.Len(t, tmpl.Render(long), MaxInputChars)

	short := "curto"
	assert.Equal(t, short, tmpl.Render(short))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "licit", Truncate("licitação", 5))
	assert.Equal(t, "licitaçã", Truncate("licitação", 8))
	assert.Equal(t, "licitação", Truncate("licitação", 9))
	assert.Equal(t, "", Truncate("abc", 0))
}
