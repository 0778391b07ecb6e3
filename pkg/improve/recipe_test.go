package improve

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRecipe(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "recipe.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadRecipe(t *testing.T) {
	r, err := LoadRecipe(writeRecipe(t, `
name: full-loop
steps: [eval, analyze, research, improve, re-eval, decide]
iterations: 3
levels: [L1-recall, L3-update]
`))
	require.NoError(t, err)

	assert.Equal(t, "full-loop", r.Name)
	assert.Equal(t, 3, r.Iterations)
	assert.Equal(t, []string{"L1-recall", "L3-update"}, r.Levels)
	assert.False(t, r.DryRun())
}

func TestLoadRecipeDryRunPrefix(t *testing.T) {
	r, err := LoadRecipe(writeRecipe(t, `
name: diagnose-only
steps: [eval, analyze, research]
`))
	require.NoError(t, err)

	assert.True(t, r.DryRun())
	assert.Equal(t, 1, r.Iterations, "iterations default to 1")
}

func TestLoadRecipeRejectsReordering(t *testing.T) {
	cases := []struct {
		name  string
		steps string
	}{
		{"skips eval", "steps: [analyze, research]"},
		{"decide before re-eval", "steps: [eval, analyze, research, improve, decide]"},
		{"unknown step", "steps: [eval, analyze, speculate]"},
		{"no steps", "steps: []"},
		{"too many steps", "steps: [eval, analyze, research, improve, re-eval, decide, eval]"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadRecipe(writeRecipe(t, "name: bad\n"+tc.steps+"\n"))
			require.Error(t, err)
		})
	}
}

func TestLoadRecipeMissingFile(t *testing.T) {
	_, err := LoadRecipe(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
