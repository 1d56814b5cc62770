package gateway

import (
	"context"
	"fmt"

	"mcp-gateway/internal/upstream"

	"github.com/mark3labs/mcp-go/mcp"
)

// fakeClient is a hand-written upstream.Client test double, in the style of
// the teacher's internal/testing/mock package: no network I/O, behavior
// driven entirely by the fields set before it is wired into a ClientSession.
type fakeClient struct {
	initResult *mcp.InitializeResult

	tools          []mcp.Tool
	toolsErr       error
	toolsCallCount int

	resources    []mcp.Resource
	resourcesErr error

	prompts    []mcp.Prompt
	promptsErr error

	callToolResult *mcp.CallToolResult
	callToolErr    error

	readResourceResult *mcp.ReadResourceResult
	readResourceErr    error

	getPromptResult *mcp.GetPromptResult
	getPromptErr    error

	pingErr error
	closed  bool

	notificationHandler upstream.NotificationHandler
	samplingHandler     upstream.SamplingHandler
}

func newFakeClient(serverName string) *fakeClient {
	return &fakeClient{
		initResult: &mcp.InitializeResult{
			ServerInfo: mcp.Implementation{Name: serverName, Version: "1.0.0"},
		},
	}
}

func (f *fakeClient) Initialize(ctx context.Context, caps mcp.ClientCapabilities) (*mcp.InitializeResult, error) {
	return f.initResult, nil
}

func (f *fakeClient) ServerInfo() *mcp.InitializeResult { return f.initResult }

func (f *fakeClient) Close() error {
	f.closed = true
	return nil
}

func (f *fakeClient) ListTools(ctx context.Context) ([]mcp.Tool, error) {
	f.toolsCallCount++
	if f.toolsErr != nil {
		return nil, f.toolsErr
	}
	return f.tools, nil
}

func (f *fakeClient) CallTool(ctx context.Context, name string, args map[string]interface{}) (*mcp.CallToolResult, error) {
	if f.callToolErr != nil {
		return nil, f.callToolErr
	}
	if f.callToolResult != nil {
		return f.callToolResult, nil
	}
	return &mcp.CallToolResult{}, nil
}

func (f *fakeClient) ListResources(ctx context.Context, cursor string) ([]mcp.Resource, string, error) {
	if f.resourcesErr != nil {
		return nil, "", f.resourcesErr
	}
	return f.resources, "", nil
}

func (f *fakeClient) ReadResource(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	if f.readResourceErr != nil {
		return nil, f.readResourceErr
	}
	if f.readResourceResult != nil {
		return f.readResourceResult, nil
	}
	return &mcp.ReadResourceResult{}, nil
}

func (f *fakeClient) ListPrompts(ctx context.Context, cursor string) ([]mcp.Prompt, string, error) {
	if f.promptsErr != nil {
		return nil, "", f.promptsErr
	}
	return f.prompts, "", nil
}

func (f *fakeClient) GetPrompt(ctx context.Context, name string, args map[string]interface{}) (*mcp.GetPromptResult, error) {
	if f.getPromptErr != nil {
		return nil, f.getPromptErr
	}
	if f.getPromptResult != nil {
		return f.getPromptResult, nil
	}
	return &mcp.GetPromptResult{}, nil
}

func (f *fakeClient) Ping(ctx context.Context) error { return f.pingErr }

func (f *fakeClient) OnNotification(handler upstream.NotificationHandler) {
	f.notificationHandler = handler
}

func (f *fakeClient) OnSamplingRequest(handler upstream.SamplingHandler) {
	f.samplingHandler = handler
}

// fireListChanged simulates the upstream pushing a list_changed notification,
// exercising the same registerNotificationHandlers path a real transport
// would drive.
func (f *fakeClient) fireListChanged(method string) {
	if f.notificationHandler != nil {
		f.notificationHandler(mcp.JSONRPCNotification{
			Notification: mcp.Notification{Method: method},
		})
	}
}

// unsupportedErr builds an error matching one of client_session.go's
// unsupportedMarkers, so tests can drive the silent-unsupported-capability
// path the same way a real upstream's JSON-RPC error would.
func unsupportedErr(capability string) error {
	return fmt.Errorf("%s: method not found", capability)
}

// newWiredClientSession constructs a ClientSession over client and registers
// it directly into manager's pool, bypassing the real-transport Initialize
// path that ClientManager.addClient normally drives.
func newWiredClientSession(manager *ClientManager, serverName string, sessionID SessionID, client upstream.Client, allowedTools *[]string) *ClientSession {
	session := NewClientSession(serverName, sessionID, client, allowedTools)
	manager.mu.Lock()
	manager.clients[clientKey{name: serverName, sessionID: sessionID}] = session
	if manager.onResourceListChanged != nil {
		session.SetOnResourceListChanged(manager.onResourceListChanged)
	}
	if manager.onPromptListChanged != nil {
		session.SetOnPromptListChanged(manager.onPromptListChanged)
	}
	manager.mu.Unlock()
	return session
}
