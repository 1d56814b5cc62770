package gateway

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientSessionListToolsCachesResult(t *testing.T) {
	client := newFakeClient("docs")
	client.tools = []mcp.Tool{{Name: "search"}}
	cs := NewClientSession("docs", "session-a", client, nil)

	tools, err := cs.ListTools(context.Background())
	require.NoError(t, err)
	require.Len(t, tools, 1)

	client.tools = append(client.tools, mcp.Tool{Name: "fetch"})
	tools, err = cs.ListTools(context.Background())
	require.NoError(t, err)
	assert.Len(t, tools, 1, "second call should be served from cache")
	assert.Equal(t, 1, client.toolsCallCount)
}

func TestClientSessionListToolsAppliesAllowList(t *testing.T) {
	client := newFakeClient("docs")
	client.tools = []mcp.Tool{{Name: "search"}, {Name: "delete"}}
	allowed := []string{"search"}
	cs := NewClientSession("docs", "session-a", client, &allowed)

	tools, err := cs.ListTools(context.Background())
	require.NoError(t, err)
	require.Len(t, tools, 1)
	assert.Equal(t, "search", tools[0].Name)
}

func TestClientSessionListToolsEmptyAllowListBlocksEverything(t *testing.T) {
	client := newFakeClient("docs")
	client.tools = []mcp.Tool{{Name: "search"}}
	allowed := []string{}
	cs := NewClientSession("docs", "session-a", client, &allowed)

	tools, err := cs.ListTools(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tools)
}

func TestClientSessionListResourcesUnsupportedIsSilentEmpty(t *testing.T) {
	client := newFakeClient("docs")
	client.resourcesErr = unsupportedErr("resources")
	cs := NewClientSession("docs", "session-a", client, nil)

	resources, err := cs.ListResources(context.Background())
	require.NoError(t, err)
	assert.Empty(t, resources)
}

func TestClientSessionListResourcesGenuineErrorPropagates(t *testing.T) {
	client := newFakeClient("docs")
	client.resourcesErr = assertErr("connection reset")
	cs := NewClientSession("docs", "session-a", client, nil)

	_, err := cs.ListResources(context.Background())
	require.Error(t, err)
}

func TestClientSessionListPromptsUnsupportedIsSilentEmpty(t *testing.T) {
	client := newFakeClient("docs")
	client.promptsErr = unsupportedErr("prompts")
	cs := NewClientSession("docs", "session-a", client, nil)

	prompts, err := cs.ListPrompts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, prompts)
}

func TestClientSessionToolsListChangedInvalidatesCache(t *testing.T) {
	client := newFakeClient("docs")
	client.tools = []mcp.Tool{{Name: "search"}}
	cs := NewClientSession("docs", "session-a", client, nil)

	_, err := cs.ListTools(context.Background())
	require.NoError(t, err)

	client.fireListChanged("notifications/tools/list_changed")

	client.tools = append(client.tools, mcp.Tool{Name: "fetch"})
	tools, err := cs.ListTools(context.Background())
	require.NoError(t, err)
	assert.Len(t, tools, 2)
}

func TestClientSessionResourcesListChangedNotifiesAggregator(t *testing.T) {
	client := newFakeClient("docs")
	cs := NewClientSession("docs", "session-a", client, nil)

	var notified bool
	cs.SetOnResourceListChanged(func(serverName string, sessionID SessionID) {
		notified = true
		assert.Equal(t, "docs", serverName)
		assert.Equal(t, SessionID("session-a"), sessionID)
	})

	client.fireListChanged("notifications/resources/list_changed")
	assert.True(t, notified)
}

func TestClientSessionPromptsListChangedNotifiesAggregator(t *testing.T) {
	client := newFakeClient("docs")
	cs := NewClientSession("docs", "session-a", client, nil)

	var notified bool
	cs.SetOnPromptListChanged(func(serverName string, sessionID SessionID) {
		notified = true
	})

	client.fireListChanged("notifications/prompts/list_changed")
	assert.True(t, notified)
}

func TestClientSessionToolNamesReturnsFilteredNames(t *testing.T) {
	client := newFakeClient("docs")
	client.tools = []mcp.Tool{{Name: "search"}, {Name: "fetch"}}
	cs := NewClientSession("docs", "session-a", client, nil)

	names, err := cs.ToolNames(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"search", "fetch"}, names)
}

func TestClientSessionCloseDelegatesToClient(t *testing.T) {
	client := newFakeClient("docs")
	cs := NewClientSession("docs", "session-a", client, nil)

	require.NoError(t, cs.Close())
	assert.True(t, client.closed)
}

func TestIsUnsupportedError(t *testing.T) {
	assert.False(t, isUnsupportedError(nil))
	assert.True(t, isUnsupportedError(unsupportedErr("resources")))
	assert.True(t, isUnsupportedError(assertErr("Method Not Found")))
	assert.False(t, isUnsupportedError(assertErr("connection refused")))
}
