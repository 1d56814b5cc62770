package gateway

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func argsRequest(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func TestIsMetaToolName(t *testing.T) {
	assert.True(t, isMetaToolName(toolListServers))
	assert.True(t, isMetaToolName(toolExecute))
	assert.False(t, isMetaToolName("docs_search"))
}

func TestHandleListServersReportsConnectedServer(t *testing.T) {
	manager := NewClientManager()
	gw := newTestGateway(manager)

	docs := newFakeClient("docs")
	newWiredClientSession(manager, "docs", DefaultSessionID, docs, nil)

	result, err := gw.handleListServers(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	require.Len(t, result.Content, 1)
	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)
	assert.Contains(t, text.Text, "docs")
}

func TestHandleListServerToolsUnknownServerReturnsErrorResult(t *testing.T) {
	manager := NewClientManager()
	gw := newTestGateway(manager)

	result, err := gw.handleListServerTools(context.Background(), argsRequest(map[string]interface{}{"server": "missing"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleToolDetailsReturnsSchemaAndExample(t *testing.T) {
	manager := NewClientManager()
	gw := newTestGateway(manager)

	docs := newFakeClient("docs")
	docs.tools = []mcp.Tool{{Name: "search", Description: "search the docs"}}
	newWiredClientSession(manager, "docs", DefaultSessionID, docs, nil)

	result, err := gw.handleToolDetails(context.Background(), argsRequest(map[string]interface{}{
		"server": "docs", "tool": "search",
	}))
	require.NoError(t, err)
	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)
	assert.Contains(t, text.Text, "search")
}

func TestHandleInspectToolResponseDescribesShape(t *testing.T) {
	manager := NewClientManager()
	gw := newTestGateway(manager)

	docs := newFakeClient("docs")
	docs.tools = []mcp.Tool{{Name: "search"}}
	docs.callToolResult = &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: "hello world"}},
	}
	newWiredClientSession(manager, "docs", DefaultSessionID, docs, nil)

	result, err := gw.handleInspectToolResponse(context.Background(), argsRequest(map[string]interface{}{
		"server": "docs", "tool": "search",
	}))
	require.NoError(t, err)
	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)
	assert.Contains(t, text.Text, "text (11 chars)")
}

func TestHandleExecuteWithoutScriptRunnerReturnsError(t *testing.T) {
	manager := NewClientManager()
	gw := newTestGateway(manager)

	result, err := gw.handleExecute(context.Background(), argsRequest(map[string]interface{}{"script": "return 1"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

type fakeScriptRunner struct {
	result ScriptResult
	err    error
}

func (r *fakeScriptRunner) Run(ctx context.Context, script string, upstreams ScriptUpstreams) (ScriptResult, error) {
	return r.result, r.err
}

func TestHandleExecuteReturnsScriptOutput(t *testing.T) {
	manager := NewClientManager()
	resources := NewResourceAggregator(manager)
	prompts := NewPromptAggregator(manager)
	formatter := NewFormatter()
	discovery := NewToolDiscovery(manager, formatter)
	gw := NewGatewayServer(manager, resources, prompts, discovery, formatter,
		&fakeScriptRunner{result: ScriptResult{Output: "42"}}, "", nil)

	result, err := gw.handleExecute(context.Background(), argsRequest(map[string]interface{}{"script": "return 42"}))
	require.NoError(t, err)
	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)
	assert.Equal(t, "42", text.Text)
}

func TestHandleExecuteScriptFailureReturnsErrorResult(t *testing.T) {
	manager := NewClientManager()
	resources := NewResourceAggregator(manager)
	prompts := NewPromptAggregator(manager)
	formatter := NewFormatter()
	discovery := NewToolDiscovery(manager, formatter)
	gw := NewGatewayServer(manager, resources, prompts, discovery, formatter,
		&fakeScriptRunner{err: assertErr("syntax error")}, "", nil)

	result, err := gw.handleExecute(context.Background(), argsRequest(map[string]interface{}{"script": "bad("}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestScriptUpstreamsForSessionCallToolResolvesBySanitizedNames(t *testing.T) {
	manager := NewClientManager()

	docs := newFakeClient("my-docs")
	docs.tools = []mcp.Tool{{Name: "full-text-search"}}
	docs.callToolResult = &mcp.CallToolResult{Content: []mcp.Content{mcp.TextContent{Type: "text", Text: "ok"}}}
	newWiredClientSession(manager, "my-docs", DefaultSessionID, docs, nil)

	upstreams := &scriptUpstreamsForSession{manager: manager, sessionID: DefaultSessionID}
	result, err := upstreams.CallTool(context.Background(), "my_docs", "full_text_search", nil)
	require.NoError(t, err)
	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)
	assert.Equal(t, "ok", text.Text)
}

func TestScriptUpstreamsForSessionCallToolUnknownServer(t *testing.T) {
	manager := NewClientManager()
	upstreams := &scriptUpstreamsForSession{manager: manager, sessionID: DefaultSessionID}

	_, err := upstreams.CallTool(context.Background(), "missing", "tool", nil)
	require.Error(t, err)
}
