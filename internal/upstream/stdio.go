package upstream

import (
	"context"
	"fmt"

	"mcp-gateway/pkg/logging"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
)

// StdioClient connects to an upstream MCP server by spawning a child
// process and framing JSON-RPC over its stdin/stdout.
type StdioClient struct {
	baseClient
	command string
	args    []string
	env     map[string]string

	// spawnID correlates every log line this one spawned process produces.
	// HTTP-transport sessions already have a transport-issued session id to
	// log against; stdio never does (there is exactly one implicit
	// "default" session per spec.md §3), so this client mints its own.
	spawnID string
}

var _ Client = (*StdioClient)(nil)

// NewStdioClient constructs a stdio-transport upstream client. No process is
// spawned and no I/O happens until Initialize is called.
func NewStdioClient(command string, args []string, env map[string]string) *StdioClient {
	return &StdioClient{command: command, args: args, env: env}
}

func (c *StdioClient) Initialize(ctx context.Context, caps mcp.ClientCapabilities) (*mcp.InitializeResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		return nil, nil
	}

	envStrings := make([]string, 0, len(c.env))
	for k, v := range c.env {
		envStrings = append(envStrings, fmt.Sprintf("%s=%s", k, v))
	}

	c.spawnID = uuid.NewString()
	logging.Debug("StdioClient", "spawning %s %v [spawn %s]", c.command, c.args, c.spawnID)

	stdioTransport := transport.NewStdio(c.command, envStrings, c.args...)
	if err := stdioTransport.Start(ctx); err != nil {
		return nil, fmt.Errorf("start stdio transport for %s: %w", c.command, err)
	}

	mcpClient := client.NewClient(stdioTransport, client.WithSamplingHandler(&samplingAdapter{owner: &c.baseClient}))

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
		return nil, fmt.Errorf("initialize stdio upstream %s: %w", c.command, err)
	}

	c.inner = mcpClient
	c.connected = true
	c.initResult = result
	c.registerCallbacks()

	logging.Debug("StdioClient", "initialized %s (server %s %s) [spawn %s]", c.command, result.ServerInfo.Name, result.ServerInfo.Version, c.spawnID)
	return result, nil
}

func (c *StdioClient) ServerInfo() *mcp.InitializeResult { return c.serverInfo() }

func (c *StdioClient) Close() error { return c.closeLocked() }

func (c *StdioClient) ListTools(ctx context.Context) ([]mcp.Tool, error) { return c.listTools(ctx) }

func (c *StdioClient) CallTool(ctx context.Context, name string, args map[string]interface{}) (*mcp.CallToolResult, error) {
	return c.callTool(ctx, name, args)
}

func (c *StdioClient) ListResources(ctx context.Context, cursor string) ([]mcp.Resource, string, error) {
	return c.listResources(ctx, cursor)
}

func (c *StdioClient) ReadResource(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	return c.readResource(ctx, uri)
}

func (c *StdioClient) ListPrompts(ctx context.Context, cursor string) ([]mcp.Prompt, string, error) {
	return c.listPrompts(ctx, cursor)
}

func (c *StdioClient) GetPrompt(ctx context.Context, name string, args map[string]interface{}) (*mcp.GetPromptResult, error) {
	return c.getPrompt(ctx, name, args)
}

func (c *StdioClient) Ping(ctx context.Context) error { return c.ping(ctx) }
