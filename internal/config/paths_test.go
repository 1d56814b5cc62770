package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchPathsOrdering(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := t.TempDir()
	restore := chdir(t, dir)
	defer restore()

	explicitDir := t.TempDir()
	explicitPath := filepath.Join(explicitDir, "config.yaml")
	require.NoError(t, os.WriteFile(explicitPath, []byte("listener:\n  transport: http\n"), 0o644))

	candidates := SearchPaths(explicitDir)
	require.Len(t, candidates, 3)
	assert.Equal(t, explicitPath, candidates[0].Path)
	assert.True(t, candidates[0].Exists)
	assert.Equal(t, filepath.Join(home, userConfigDir, configFileName), candidates[1].Path)
	assert.False(t, candidates[1].Exists)
	assert.Equal(t, filepath.Join(".", configFileName), candidates[2].Path)
	assert.False(t, candidates[2].Exists)
}

func TestSearchPathsEnvTakesPrecedence(t *testing.T) {
	envPath := filepath.Join(t.TempDir(), "env-config.yaml")
	t.Setenv("CONFIG_PATH", envPath)
	t.Setenv("HOME", t.TempDir())

	candidates := SearchPaths("")
	require.NotEmpty(t, candidates)
	assert.Equal(t, envPath, candidates[0].Path)
}

func TestResolveExplicitPathJoinsDirectory(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, filepath.Join(dir, configFileName), resolveExplicitPath(dir))
}

func TestResolveExplicitPathLeavesFileAlone(t *testing.T) {
	file := filepath.Join(t.TempDir(), "custom.yaml")
	assert.Equal(t, file, resolveExplicitPath(file))
}

func TestFirstExistingPrefersExistingCandidate(t *testing.T) {
	path, found := FirstExisting([]CandidatePath{
		{Path: "/does/not/exist", Exists: false},
		{Path: "/also/missing", Exists: true},
	})
	assert.True(t, found)
	assert.Equal(t, "/also/missing", path)
}

func TestFirstExistingFallsBackToFirstCandidate(t *testing.T) {
	path, found := FirstExisting([]CandidatePath{
		{Path: "/first", Exists: false},
		{Path: "/second", Exists: false},
	})
	assert.False(t, found)
	assert.Equal(t, "/first", path)
}

func TestFirstExistingEmptyCandidates(t *testing.T) {
	path, found := FirstExisting(nil)
	assert.False(t, found)
	assert.Equal(t, "", path)
}

func TestFormatSearchPaths(t *testing.T) {
	out := FormatSearchPaths([]CandidatePath{
		{Path: "/a/config.yaml", Exists: true},
		{Path: "/b/config.yaml", Exists: false},
	})
	assert.Contains(t, out, "/a/config.yaml (exists)")
	assert.Contains(t, out, "/b/config.yaml (not found)")
}
