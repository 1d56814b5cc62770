package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNamespacedToolName(t *testing.T) {
	assert.Equal(t, "docs_search", namespacedToolName("docs", "search"))
	assert.Equal(t, "my_server_my_tool", namespacedToolName("my-server", "my-tool"))
}

func TestResolveToolName(t *testing.T) {
	candidates := map[string][]string{
		"my-server": {"my-tool", "other-tool"},
		"docs":      {"search"},
	}

	server, tool, err := resolveToolName("my_server_my_tool", candidates)
	require.NoError(t, err)
	assert.Equal(t, "my-server", server)
	assert.Equal(t, "my-tool", tool)

	server, tool, err = resolveToolName("docs_search", candidates)
	require.NoError(t, err)
	assert.Equal(t, "docs", server)
	assert.Equal(t, "search", tool)
}

func TestResolveToolNameNotFound(t *testing.T) {
	candidates := map[string][]string{"docs": {"search"}}

	_, _, err := resolveToolName("ghost_tool", candidates)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestNamespacedPromptNameRoundTrip(t *testing.T) {
	name := namespacedPromptName("docs", "summarize")
	assert.Equal(t, "docs/summarize", name)

	server, original, err := resolvePromptName(name)
	require.NoError(t, err)
	assert.Equal(t, "docs", server)
	assert.Equal(t, "summarize", original)
}

func TestResolvePromptNamePreservesNestedSlashes(t *testing.T) {
	server, original, err := resolvePromptName("docs/team/weekly-summary")
	require.NoError(t, err)
	assert.Equal(t, "docs", server)
	assert.Equal(t, "team/weekly-summary", original)
}

func TestResolvePromptNameInvalid(t *testing.T) {
	for _, bad := range []string{"no-slash", "/leading-slash", "trailing-slash/"} {
		_, _, err := resolvePromptName(bad)
		assert.Error(t, err, "expected error for %q", bad)
	}
}

func TestNamespacedResourceURIRoundTrip(t *testing.T) {
	uri := namespacedResourceURI("docs", "file:///tmp/a.txt")
	assert.Equal(t, "mcp://docs/file:///tmp/a.txt", uri)

	server, original, err := resolveResourceURI(uri)
	require.NoError(t, err)
	assert.Equal(t, "docs", server)
	assert.Equal(t, "file:///tmp/a.txt", original)
}

func TestResolveResourceURIInvalid(t *testing.T) {
	for _, bad := range []string{"file:///tmp/a.txt", "mcp://", "mcp://docs"} {
		_, _, err := resolveResourceURI(bad)
		assert.Error(t, err, "expected error for %q", bad)
	}
}
