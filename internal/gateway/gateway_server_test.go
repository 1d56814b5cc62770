package gateway

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGateway(manager *ClientManager) *GatewayServer {
	resources := NewResourceAggregator(manager)
	prompts := NewPromptAggregator(manager)
	formatter := NewFormatter()
	discovery := NewToolDiscovery(manager, formatter)
	return NewGatewayServer(manager, resources, prompts, discovery, formatter, nil, "", nil)
}

func TestSessionToolFilterKeepsMetaToolsAndOwnUpstreamTools(t *testing.T) {
	manager := NewClientManager()
	gw := newTestGateway(manager)

	docs := newFakeClient("docs")
	newWiredClientSession(manager, "docs", DefaultSessionID, docs, nil)

	all := []mcp.Tool{
		{Name: toolListServers},
		{Name: "docs_search"},
		{Name: "other_search"},
	}

	// No mcp-go ClientSession in context, so sessionIDFromContext falls back
	// to DefaultSessionID, matching the stdio-transport path this filter
	// also has to serve.
	filtered := gw.sessionToolFilter(context.Background(), all)
	names := toolNames(filtered)
	assert.Contains(t, names, toolListServers)
	assert.Contains(t, names, "docs_search")
	assert.NotContains(t, names, "other_search")
}

func TestSessionToolFilterNoUpstreamsKeepsOnlyMetaTools(t *testing.T) {
	manager := NewClientManager()
	gw := newTestGateway(manager)

	all := []mcp.Tool{{Name: toolListServers}, {Name: "docs_search"}}
	filtered := gw.sessionToolFilter(context.Background(), all)
	assert.Equal(t, []string{toolListServers}, toolNames(filtered))
}

func TestForwardToolCallRewritesResultURIs(t *testing.T) {
	manager := NewClientManager()
	gw := newTestGateway(manager)

	docs := newFakeClient("docs")
	docs.callToolResult = &mcp.CallToolResult{
		Content: []mcp.Content{mcp.ResourceLink{URI: "report.pdf"}},
	}
	newWiredClientSession(manager, "docs", DefaultSessionID, docs, nil)

	handler := gw.forwardToolCall("docs", "search")
	result, err := handler(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	require.Len(t, result.Content, 1)

	link, ok := result.Content[0].(mcp.ResourceLink)
	require.True(t, ok)
	assert.Equal(t, "mcp://docs/report.pdf", link.URI)
}

func TestForwardToolCallUnknownServerReturnsErrorResult(t *testing.T) {
	manager := NewClientManager()
	gw := newTestGateway(manager)

	handler := gw.forwardToolCall("missing", "search")
	result, err := handler(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestForwardToolCallUpstreamErrorReturnsErrorResult(t *testing.T) {
	manager := NewClientManager()
	gw := newTestGateway(manager)

	docs := newFakeClient("docs")
	docs.callToolErr = assertErr("upstream exploded")
	newWiredClientSession(manager, "docs", DefaultSessionID, docs, nil)

	handler := gw.forwardToolCall("docs", "search")
	result, err := handler(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestRegisterUpstreamToolsSucceedsForWiredUpstream(t *testing.T) {
	manager := NewClientManager()
	gw := newTestGateway(manager)

	docs := newFakeClient("docs")
	docs.tools = []mcp.Tool{{Name: "search"}, {Name: "fetch"}}
	newWiredClientSession(manager, "docs", DefaultSessionID, docs, nil)

	err := gw.RegisterUpstreamTools(context.Background(), "docs", DefaultSessionID)
	require.NoError(t, err)
}

func TestCaptureAndForgetDownstreamSessionIsNoopWithoutMCPSession(t *testing.T) {
	manager := NewClientManager()
	gw := newTestGateway(manager)

	assert.NotPanics(t, func() { gw.CaptureDownstreamSession(context.Background()) })
	assert.NotPanics(t, func() { gw.ForgetDownstreamSession("session-a") })
}

func TestForwardSamplingUnknownSessionErrors(t *testing.T) {
	manager := NewClientManager()
	gw := newTestGateway(manager)

	_, err := gw.ForwardSampling(context.Background(), "session-a", mcp.CreateMessageRequest{})
	require.Error(t, err)
}

func toolNames(tools []mcp.Tool) []string {
	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = t.Name
	}
	return names
}
