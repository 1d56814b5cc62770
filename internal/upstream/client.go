// Package upstream implements the gateway's client role toward one upstream
// MCP server, over either the HTTP-streamable or stdio-framed transport.
package upstream

import (
	"context"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
)

// ProtocolVersion is advertised on every upstream initialize handshake.
const ProtocolVersion = "2024-11-05"

// ImplementationName/Version identify this gateway to upstream servers.
const (
	ImplementationName    = "mcp-gateway"
	ImplementationVersion = "1.0.0"
)

// SamplingHandler forwards an upstream sampling/createMessage request to the
// downstream and returns its response. Registered per upstream connection,
// gated by the downstream's advertised capabilities.
type SamplingHandler func(ctx context.Context, req mcp.CreateMessageRequest) (*mcp.CreateMessageResult, error)

// NotificationHandler receives a raw list-changed (or other) notification
// from the upstream, as delivered by the underlying mcp-go client.
type NotificationHandler func(notification mcp.JSONRPCNotification)

// Client is the gateway's view of one connected upstream. All transport
// kinds (HTTP-streamable, stdio) implement this interface identically from
// the caller's perspective.
type Client interface {
	Initialize(ctx context.Context, caps mcp.ClientCapabilities) (*mcp.InitializeResult, error)
	// ServerInfo returns the result of the last successful Initialize call,
	// or nil if the client has never connected.
	ServerInfo() *mcp.InitializeResult
	Close() error
	ListTools(ctx context.Context) ([]mcp.Tool, error)
	CallTool(ctx context.Context, name string, args map[string]interface{}) (*mcp.CallToolResult, error)
	ListResources(ctx context.Context, cursor string) ([]mcp.Resource, string, error)
	ReadResource(ctx context.Context, uri string) (*mcp.ReadResourceResult, error)
	ListPrompts(ctx context.Context, cursor string) ([]mcp.Prompt, string, error)
	GetPrompt(ctx context.Context, name string, args map[string]interface{}) (*mcp.GetPromptResult, error)
	Ping(ctx context.Context) error

	// OnNotification registers the handler invoked for every notification
	// the upstream sends (tools/resources/prompts list_changed).
	OnNotification(handler NotificationHandler)
	// OnSamplingRequest registers the handler invoked when the upstream
	// issues a sampling/createMessage request toward this gateway.
	OnSamplingRequest(handler SamplingHandler)
}

// baseClient implements the protocol operations shared across transports.
type baseClient struct {
	mu         sync.RWMutex
	inner      client.MCPClient
	connected  bool
	initResult *mcp.InitializeResult

	notificationHandler NotificationHandler
	samplingHandler     SamplingHandler
}

func (b *baseClient) serverInfo() *mcp.InitializeResult {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.initResult
}

func (b *baseClient) checkConnected() error {
	if !b.connected || b.inner == nil {
		return fmt.Errorf("upstream client not connected")
	}
	return nil
}

func (b *baseClient) closeLocked() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.connected || b.inner == nil {
		return nil
	}
	err := b.inner.Close()
	b.connected = false
	b.inner = nil
	return err
}

func (b *baseClient) listTools(ctx context.Context) ([]mcp.Tool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if err := b.checkConnected(); err != nil {
		return nil, err
	}
	result, err := b.inner.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("list tools: %w", err)
	}
	return result.Tools, nil
}

func (b *baseClient) callTool(ctx context.Context, name string, args map[string]interface{}) (*mcp.CallToolResult, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if err := b.checkConnected(); err != nil {
		return nil, err
	}
	result, err := b.inner.CallTool(ctx, mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	})
	if err != nil {
		return nil, fmt.Errorf("call tool %s: %w", name, err)
	}
	return result, nil
}

func (b *baseClient) listResources(ctx context.Context, cursor string) ([]mcp.Resource, string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if err := b.checkConnected(); err != nil {
		return nil, "", err
	}
	req := mcp.ListResourcesRequest{}
	if cursor != "" {
		req.Params.Cursor = mcp.Cursor(cursor)
	}
	result, err := b.inner.ListResources(ctx, req)
	if err != nil {
		return nil, "", fmt.Errorf("list resources: %w", err)
	}
	return result.Resources, string(result.NextCursor), nil
}

func (b *baseClient) readResource(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if err := b.checkConnected(); err != nil {
		return nil, err
	}
	result, err := b.inner.ReadResource(ctx, mcp.ReadResourceRequest{
		Params: struct {
			URI       string         `json:"uri"`
			Arguments map[string]any `json:"arguments,omitempty"`
		}{URI: uri},
	})
	if err != nil {
		return nil, fmt.Errorf("read resource %s: %w", uri, err)
	}
	return result, nil
}

func (b *baseClient) listPrompts(ctx context.Context, cursor string) ([]mcp.Prompt, string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if err := b.checkConnected(); err != nil {
		return nil, "", err
	}
	req := mcp.ListPromptsRequest{}
	if cursor != "" {
		req.Params.Cursor = mcp.Cursor(cursor)
	}
	result, err := b.inner.ListPrompts(ctx, req)
	if err != nil {
		return nil, "", fmt.Errorf("list prompts: %w", err)
	}
	return result.Prompts, string(result.NextCursor), nil
}

func (b *baseClient) getPrompt(ctx context.Context, name string, args map[string]interface{}) (*mcp.GetPromptResult, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if err := b.checkConnected(); err != nil {
		return nil, err
	}
	stringArgs := make(map[string]string, len(args))
	for k, v := range args {
		if s, ok := v.(string); ok {
			stringArgs[k] = s
		} else {
			stringArgs[k] = fmt.Sprintf("%v", v)
		}
	}
	result, err := b.inner.GetPrompt(ctx, mcp.GetPromptRequest{
		Params: struct {
			Name      string            `json:"name"`
			Arguments map[string]string `json:"arguments,omitempty"`
		}{Name: name, Arguments: stringArgs},
	})
	if err != nil {
		return nil, fmt.Errorf("get prompt %s: %w", name, err)
	}
	return result, nil
}

func (b *baseClient) ping(ctx context.Context) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if err := b.checkConnected(); err != nil {
		return err
	}
	return b.inner.Ping(ctx)
}

// registerCallbacks wires the mcp-go client's notification hook to the
// handler registered via OnNotification. Must be called after inner is set,
// before the caller starts issuing requests, so no notification is missed.
func (b *baseClient) registerCallbacks() {
	b.inner.OnNotification(func(n mcp.JSONRPCNotification) {
		b.mu.RLock()
		h := b.notificationHandler
		b.mu.RUnlock()
		if h != nil {
			h(n)
		}
	})
}

// samplingAdapter satisfies mcp-go's client-side sampling handler interface
// (CreateMessage) by forwarding to whatever SamplingHandler is currently
// registered on the owning baseClient. Indirecting through the baseClient
// lets OnSamplingRequest be called any time after construction, even though
// the adapter itself must be handed to the mcp-go client constructor before
// Initialize returns.
type samplingAdapter struct {
	owner *baseClient
}

func (a *samplingAdapter) CreateMessage(ctx context.Context, request mcp.CreateMessageRequest) (*mcp.CreateMessageResult, error) {
	a.owner.mu.RLock()
	h := a.owner.samplingHandler
	a.owner.mu.RUnlock()
	if h == nil {
		return nil, fmt.Errorf("no sampling handler registered for this upstream")
	}
	return h(ctx, request)
}

func (b *baseClient) OnNotification(handler NotificationHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notificationHandler = handler
}

func (b *baseClient) OnSamplingRequest(handler SamplingHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.samplingHandler = handler
}
