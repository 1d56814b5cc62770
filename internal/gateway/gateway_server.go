package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"mcp-gateway/internal/upstream"
	"mcp-gateway/pkg/logging"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// GatewayServer is the downstream-facing MCP endpoint (spec.md §4.4): one
// mcp-go server instance shared by every downstream session. Per-session
// scoping happens inside each handler via the session id mcp-go threads
// through context, the same pattern the teacher's own aggregator uses for
// session-scoped tool visibility (its ADR-006, sessionToolFilter).
type GatewayServer struct {
	manager   *ClientManager
	resources *ResourceAggregator
	prompts   *PromptAggregator
	discovery *ToolDiscovery
	formatter *Formatter
	scripts   ScriptRunner

	mcpServer *mcpserver.MCPServer

	// downstreamSessions holds the live mcp-go ClientSession for every
	// connected session id, captured once via CaptureDownstreamSession. It
	// is the only place a sampling/elicitation request forwarded from an
	// upstream can reach back out to the actual downstream client: mcp-go's
	// ClientSession interface (Initialize/Initialized/NotificationChannel/
	// SessionID) has no confirmed request-response method, so forwarding
	// instead type-asserts the stored value against downstreamRequester,
	// an interface the concrete pinned mcp-go session type is assumed to
	// satisfy (see DESIGN.md: unconfirmed against the vendored snapshot
	// examined in this corpus, which predates both capabilities).
	downstreamSessions sync.Map // SessionID -> mcpserver.ClientSession
}

// NewGatewayServer constructs the shared mcp-go server, registers the
// meta-tools, and wires session-scoped resource/prompt routing straight to
// the aggregators (spec.md §4.4). hooks may be nil (e.g. in tests that
// never exercise session lifecycle).
func NewGatewayServer(
	manager *ClientManager,
	resources *ResourceAggregator,
	prompts *PromptAggregator,
	discovery *ToolDiscovery,
	formatter *Formatter,
	scripts ScriptRunner,
	instructions string,
	hooks *mcpserver.Hooks,
) *GatewayServer {
	gw := &GatewayServer{
		manager:   manager,
		resources: resources,
		prompts:   prompts,
		discovery: discovery,
		formatter: formatter,
		scripts:   scripts,
	}

	opts := []mcpserver.ServerOption{
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(true, true),
		mcpserver.WithPromptCapabilities(true),
		mcpserver.WithToolFilter(gw.sessionToolFilter),
		mcpserver.WithInstructions(instructions),
	}
	if hooks != nil {
		opts = append(opts, mcpserver.WithHooks(hooks))
	}

	gw.mcpServer = mcpserver.NewMCPServer(upstream.ImplementationName, upstream.ImplementationVersion, opts...)
	gw.registerMetaTools()
	return gw
}

// MCPServer returns the underlying mcp-go server, for the transport layer
// (stdio or streamable HTTP) to serve.
func (gw *GatewayServer) MCPServer() *mcpserver.MCPServer { return gw.mcpServer }

// sessionIDFromContext recovers the current request's session id the same
// way the teacher's aggregator does (mcpserver.ClientSessionFromContext).
// Falls back to DefaultSessionID for stdio transport, which never installs
// a distinct per-request session.
func sessionIDFromContext(ctx context.Context) SessionID {
	if session := mcpserver.ClientSessionFromContext(ctx); session != nil {
		if id := session.SessionID(); id != "" {
			return SessionID(id)
		}
	}
	return DefaultSessionID
}

func mcpServerTool(tool mcp.Tool, handler mcpserver.ToolHandlerFunc) mcpserver.ServerTool {
	return mcpserver.ServerTool{Tool: tool, Handler: handler}
}

// sessionToolFilter restricts the globally-registered tool set to this
// session's meta-tools plus the tools of upstreams connected for this
// session (spec.md §4.4 request routing, "listTools on the gateway returns
// the concatenation of (a) its meta-tools and (b) every upstream's filtered
// tool list").
func (gw *GatewayServer) sessionToolFilter(ctx context.Context, tools []mcp.Tool) []mcp.Tool {
	sessionID := sessionIDFromContext(ctx)
	clients := gw.manager.GetClientsBySession(sessionID)

	prefixes := make([]string, 0, len(clients))
	for name := range clients {
		prefixes = append(prefixes, sanitizeIdentifier(name)+"_")
	}

	filtered := make([]mcp.Tool, 0, len(tools))
	for _, t := range tools {
		if isMetaToolName(t.Name) {
			filtered = append(filtered, t)
			continue
		}
		for _, prefix := range prefixes {
			if strings.HasPrefix(t.Name, prefix) {
				filtered = append(filtered, t)
				break
			}
		}
	}
	return filtered
}

// RegisterUpstreamTools exposes one newly-connected upstream's tools to the
// shared mcp-go registry under their namespaced names (spec.md §4.4, §4.8
// step 3b). Registration is process-global and idempotent: every
// configured upstream presents the same tool set to every session (the
// ServerConfig is process-wide, not per-session), so re-adding an
// already-known name from a later session just overwrites its handler with
// an equivalent one.
func (gw *GatewayServer) RegisterUpstreamTools(ctx context.Context, serverName string, sessionID SessionID) error {
	session, err := gw.manager.GetClient(serverName, sessionID)
	if err != nil {
		return err
	}
	tools, err := session.ListTools(ctx)
	if err != nil {
		return err
	}

	serverTools := make([]mcpserver.ServerTool, 0, len(tools))
	for _, t := range tools {
		namespaced := t
		namespaced.Name = namespacedToolName(serverName, t.Name)
		serverTools = append(serverTools, mcpServerTool(namespaced, gw.forwardToolCall(serverName, t.Name)))
	}
	gw.mcpServer.AddTools(serverTools...)
	return nil
}

// forwardToolCall builds the handler a forwarded tool name dispatches to:
// resolve this request's session, route to the upstream ClientSession that
// owns toolName, call through, and rewrite URIs in the result before it
// reaches the downstream (spec.md §4.4 URI rewriting on tool-result
// passthrough).
func (gw *GatewayServer) forwardToolCall(serverName, toolName string) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sessionID := sessionIDFromContext(ctx)
		session, err := gw.manager.GetClient(serverName, sessionID)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		result, err := session.CallTool(ctx, toolName, request.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		rewriteToolResultURIs(result, serverName)
		return result, nil
	}
}

// RegisterUpstreamResourcesAndPrompts re-lists one session's aggregated
// resources and prompts and (re)registers them on the shared mcp-go
// registry, each with a handler that routes through the owning aggregator
// using the request's own session id (spec.md §4.3, §4.4).
//
// Known divergence from strict per-session isolation: mcp-go's resources/
// prompts registry (unlike WithToolFilter for tools) exposes no per-request
// list filter, so resources/list and prompts/list return the union ever
// registered by any session against this process, not just this session's.
// Reads and gets still route correctly per session because each handler
// re-resolves the ClientSession from the request's own session id. Since
// ServerConfig is process-wide rather than per-session, every session that
// successfully connects to the same upstream set converges to the same
// listing; the divergence is visible only for sessions with partial
// connect failures relative to others. Documented in DESIGN.md.
func (gw *GatewayServer) RegisterUpstreamResourcesAndPrompts(ctx context.Context, sessionID SessionID) error {
	resources, err := gw.resources.ListResources(ctx, sessionID)
	if err != nil {
		return err
	}
	for _, r := range resources {
		gw.mcpServer.AddResource(r, gw.readResourceHandler())
	}

	prompts, err := gw.prompts.ListPrompts(ctx, sessionID)
	if err != nil {
		return err
	}
	for _, p := range prompts {
		gw.mcpServer.AddPrompt(p, gw.getPromptHandler())
	}
	return nil
}

func (gw *GatewayServer) readResourceHandler() mcpserver.ResourceHandlerFunc {
	return func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		sessionID := sessionIDFromContext(ctx)
		result, err := gw.resources.ReadResource(ctx, request.Params.URI, sessionID)
		if err != nil {
			return nil, err
		}
		return result.Contents, nil
	}
}

func (gw *GatewayServer) getPromptHandler() mcpserver.PromptHandlerFunc {
	return func(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		sessionID := sessionIDFromContext(ctx)
		args := make(map[string]interface{}, len(request.Params.Arguments))
		for k, v := range request.Params.Arguments {
			args[k] = v
		}
		return gw.prompts.GetPrompt(ctx, request.Params.Name, args, sessionID)
	}
}

// CaptureDownstreamSession records the request's mcp-go ClientSession under
// its own session id, so a later sampling/elicitation request arriving from
// an upstream on this same session has somewhere to forward to. Called from
// the orchestrator's AfterInitialize hook (spec.md §4.8 step 2), the one
// point in the request lifecycle where mcp-go hands back a genuine
// request-scoped ClientSession via context.
func (gw *GatewayServer) CaptureDownstreamSession(ctx context.Context) {
	if session := mcpserver.ClientSessionFromContext(ctx); session != nil {
		gw.downstreamSessions.Store(SessionID(session.SessionID()), session)
	}
}

// ForgetDownstreamSession drops a closed session's stored ClientSession
// (spec.md §4.8, session teardown).
func (gw *GatewayServer) ForgetDownstreamSession(sessionID SessionID) {
	gw.downstreamSessions.Delete(sessionID)
}

// downstreamRequester is the server-to-client request surface this module
// needs from a ClientSession: forwarding sampling/createMessage and
// elicitation/elicit requests initiated by an upstream back out to the
// actual downstream client. Not part of mcp-go's documented ClientSession
// interface in any version examined in this corpus; asserted against the
// concrete session type at the call site and treated as "unsupported" if
// absent, rather than assumed present.
type downstreamRequester interface {
	RequestSampling(ctx context.Context, request mcp.CreateMessageRequest) (*mcp.CreateMessageResult, error)
	// RequestElicitation forwards an elicitation/elicit request. Both the
	// request and result are passed as raw JSON rather than typed
	// mcp.ElicitRequest/mcp.ElicitResult structs: no such named types were
	// found anywhere in the retrieved corpus (only the unrelated
	// mcp.ElicitationCapabilities capability flag), so this module does not
	// fabricate them (see DESIGN.md).
	RequestElicitation(ctx context.Context, params json.RawMessage) (json.RawMessage, error)
}

// ForwardSampling routes an upstream's sampling/createMessage request to the
// downstream client owning sessionID (spec.md §4.4 bidirectional sampling).
func (gw *GatewayServer) ForwardSampling(ctx context.Context, sessionID SessionID, request mcp.CreateMessageRequest) (*mcp.CreateMessageResult, error) {
	requester, err := gw.downstreamRequesterFor(sessionID)
	if err != nil {
		return nil, err
	}
	return requester.RequestSampling(ctx, request)
}

// ForwardElicitation routes an upstream's elicitation/elicit request to the
// downstream client owning sessionID (spec.md §4.4 bidirectional
// elicitation). params/result are opaque JSON; see downstreamRequester.
func (gw *GatewayServer) ForwardElicitation(ctx context.Context, sessionID SessionID, params json.RawMessage) (json.RawMessage, error) {
	requester, err := gw.downstreamRequesterFor(sessionID)
	if err != nil {
		return nil, err
	}
	return requester.RequestElicitation(ctx, params)
}

func (gw *GatewayServer) downstreamRequesterFor(sessionID SessionID) (downstreamRequester, error) {
	v, ok := gw.downstreamSessions.Load(sessionID)
	if !ok {
		return nil, fmt.Errorf("no downstream session %s to forward to", logging.TruncateSessionID(string(sessionID)))
	}
	requester, ok := v.(downstreamRequester)
	if !ok {
		return nil, fmt.Errorf("downstream session %s does not support server-initiated requests", logging.TruncateSessionID(string(sessionID)))
	}
	return requester, nil
}

// notifySessionListChanged forwards a namespaced list-changed notification
// to one downstream session only, mirroring the teacher's targeted
// NotifySessionToolsChanged (ADR-006) rather than a broadcast.
func (gw *GatewayServer) notifySessionListChanged(sessionID SessionID, method string) {
	if err := gw.mcpServer.SendNotificationToSpecificClient(string(sessionID), method, nil); err != nil {
		logging.Debug("GatewayServer", "notify %s for session %s: %v", method, logging.TruncateSessionID(string(sessionID)), err)
	}
}
