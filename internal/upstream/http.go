package upstream

import (
	"context"
	"fmt"

	"mcp-gateway/pkg/logging"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
)

// HTTPClient connects to an upstream MCP server over the streamable-HTTP
// transport, with optional static request headers.
type HTTPClient struct {
	baseClient
	url     string
	headers map[string]string
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient constructs an HTTP-transport upstream client. No request is
// made until Initialize is called.
func NewHTTPClient(url string, headers map[string]string) *HTTPClient {
	return &HTTPClient{url: url, headers: headers}
}

func (c *HTTPClient) Initialize(ctx context.Context, caps mcp.ClientCapabilities) (*mcp.InitializeResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		return nil, nil
	}

	var opts []transport.StreamableHTTPCOption
	if len(c.headers) > 0 {
		opts = append(opts, transport.WithHTTPHeaders(c.headers))
	}

	logging.Debug("HTTPClient", "connecting to %s", c.url)

	mcpClient, err := client.NewStreamableHttpClient(c.url, opts...)
	if err != nil {
		return nil, fmt.Errorf("create streamable-http client for %s: %w", c.url, err)
	}
	mcpClient.SetSamplingHandler(&samplingAdapter{owner: &c.baseClient})

	result, err := mcpClient.Initialize(ctx, mcp.InitializeRequest{
		Params: struct {
			ProtocolVersion string                 `json:"protocolVersion"`
			Capabilities    mcp.ClientCapabilities `json:"capabilities"`
			ClientInfo      mcp.Implementation     `json:"clientInfo"`
		}{
			ProtocolVersion: ProtocolVersion,
			ClientInfo:      mcp.Implementation{Name: ImplementationName, Version: ImplementationVersion},
			Capabilities:    caps,
		},
	})
	if err != nil {
		_ = mcpClient.Close()
		return nil, fmt.Errorf("initialize http upstream %s: %w", c.url, err)
	}

	c.inner = mcpClient
	c.connected = true
	c.initResult = result
	c.registerCallbacks()

	logging.Debug("HTTPClient", "initialized %s (server %s %s)", c.url, result.ServerInfo.Name, result.ServerInfo.Version)
	return result, nil
}

func (c *HTTPClient) ServerInfo() *mcp.InitializeResult { return c.serverInfo() }

func (c *HTTPClient) Close() error { return c.closeLocked() }

func (c *HTTPClient) ListTools(ctx context.Context) ([]mcp.Tool, error) { return c.listTools(ctx) }

func (c *HTTPClient) CallTool(ctx context.Context, name string, args map[string]interface{}) (*mcp.CallToolResult, error) {
	return c.callTool(ctx, name, args)
}

func (c *HTTPClient) ListResources(ctx context.Context, cursor string) ([]mcp.Resource, string, error) {
	return c.listResources(ctx, cursor)
}

func (c *HTTPClient) ReadResource(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	return c.readResource(ctx, uri)
}

func (c *HTTPClient) ListPrompts(ctx context.Context, cursor string) ([]mcp.Prompt, string, error) {
	return c.listPrompts(ctx, cursor)
}

func (c *HTTPClient) GetPrompt(ctx context.Context, name string, args map[string]interface{}) (*mcp.GetPromptResult, error) {
	return c.getPrompt(ctx, name, args)
}

func (c *HTTPClient) Ping(ctx context.Context) error { return c.ping(ctx) }
