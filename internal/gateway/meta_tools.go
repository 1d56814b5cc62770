package gateway

import (
	"context"
	"fmt"

	"mcp-gateway/internal/gwerrors"

	"github.com/mark3labs/mcp-go/mcp"
)

// Meta-tool names (spec.md §4.4). Never forwarded to an upstream; routed by
// the gateway's own registry.
const (
	toolListServers         = "list-servers"
	toolListServerTools     = "list-server-tools"
	toolToolDetails         = "tool-details"
	toolInspectToolResponse = "inspect-tool-response"
	toolExecute             = "execute"
)

var metaToolNames = map[string]bool{
	toolListServers:         true,
	toolListServerTools:     true,
	toolToolDetails:         true,
	toolInspectToolResponse: true,
	toolExecute:             true,
}

func isMetaToolName(name string) bool {
	return metaToolNames[name]
}

// ScriptUpstreams is the view of connected upstreams handed to a
// ScriptRunner: each upstream exposed as a namespace of callable tools
// (spec.md §4.4 "execute").
type ScriptUpstreams interface {
	// CallTool invokes luaServerName's tool luaToolName with args and
	// returns its decoded result, or an error if the server/tool cannot be
	// resolved or the call fails.
	CallTool(ctx context.Context, luaServerName, luaToolName string, args map[string]interface{}) (*mcp.CallToolResult, error)
}

// ScriptResult is the outcome of a successful script execution: text output
// plus whatever structured value the script produced.
type ScriptResult struct {
	Output string
	Value  interface{}
}

// ScriptRunner executes an embedded script against a session's connected
// upstreams (spec.md §1 "DELIBERATELY OUT OF SCOPE": the scripting runtime
// itself is an external collaborator; this is the seam it plugs into).
type ScriptRunner interface {
	Run(ctx context.Context, script string, upstreams ScriptUpstreams) (ScriptResult, error)
}

// SkillLister is the seam the filesystem-backed skill store plugs into
// (spec.md §1 "DELIBERATELY OUT OF SCOPE"); it yields the Skill entries
// declared in preloader.go.
type SkillLister interface {
	ListSkills(ctx context.Context) ([]Skill, error)
}

// scriptUpstreamsForSession adapts a ClientManager+sessionID pair into the
// narrow ScriptUpstreams view an embedded script sees.
type scriptUpstreamsForSession struct {
	manager   *ClientManager
	sessionID SessionID
}

func (s *scriptUpstreamsForSession) CallTool(ctx context.Context, luaServerName, luaToolName string, args map[string]interface{}) (*mcp.CallToolResult, error) {
	clients := s.manager.GetClientsBySession(s.sessionID)
	names := make([]string, 0, len(clients))
	for name := range clients {
		names = append(names, name)
	}
	for name, session := range clients {
		if sanitizeIdentifier(name) != luaServerName {
			continue
		}
		tools, err := session.ListTools(ctx)
		if err != nil {
			return nil, &gwerrors.UpstreamError{Server: name, Op: "listTools", Err: err}
		}
		for _, t := range tools {
			if sanitizeIdentifier(t.Name) == luaToolName {
				result, err := session.CallTool(ctx, t.Name, args)
				if err != nil {
					return nil, &gwerrors.UpstreamError{Server: name, Op: "callTool", Err: err}
				}
				rewriteToolResultURIs(result, name)
				return result, nil
			}
		}
		return nil, &gwerrors.NotFound{What: "tool", Name: luaToolName}
	}
	return nil, &gwerrors.NotFound{What: "server", Name: luaServerName, Available: names}
}

// registerMetaTools adds the five downstream-visible meta-tools to the
// shared mcp-go registry (spec.md §4.4). Called once at construction; these
// entries never change for the lifetime of the process.
func (gw *GatewayServer) registerMetaTools() {
	listServersTool := mcp.NewTool(toolListServers,
		mcp.WithDescription("List every configured upstream MCP server and its connection status"),
	)

	listServerToolsTool := mcp.NewTool(toolListServerTools,
		mcp.WithDescription("List the tools exposed by one upstream server"),
		mcp.WithString("server", mcp.Required(), mcp.Description("Sanitized upstream server identifier, as shown by list-servers")),
	)

	toolDetailsTool := mcp.NewTool(toolToolDetails,
		mcp.WithDescription("Show one upstream tool's description, input schema, and a generated usage example"),
		mcp.WithString("server", mcp.Required(), mcp.Description("Sanitized upstream server identifier")),
		mcp.WithString("tool", mcp.Required(), mcp.Description("Sanitized tool name, as shown by list-server-tools")),
	)

	inspectTool := mcp.NewTool(toolInspectToolResponse,
		mcp.WithDescription("Call one upstream tool with sample arguments and describe the shape of its response, without returning the full payload"),
		mcp.WithString("server", mcp.Required(), mcp.Description("Sanitized upstream server identifier")),
		mcp.WithString("tool", mcp.Required(), mcp.Description("Sanitized tool name")),
		mcp.WithObject("arguments", mcp.Description("Sample arguments to call the tool with")),
	)

	executeTool := mcp.NewTool(toolExecute,
		mcp.WithDescription("Execute an embedded script whose standard library exposes each upstream as a namespace of callable tools"),
		mcp.WithString("script", mcp.Required(), mcp.Description("Script source")),
	)

	gw.mcpServer.AddTools(
		mcpServerTool(listServersTool, gw.handleListServers),
		mcpServerTool(listServerToolsTool, gw.handleListServerTools),
		mcpServerTool(toolDetailsTool, gw.handleToolDetails),
		mcpServerTool(inspectTool, gw.handleInspectToolResponse),
		mcpServerTool(executeTool, gw.handleExecute),
	)
}

func (gw *GatewayServer) handleListServers(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := sessionIDFromContext(ctx)
	return mcp.NewToolResultText(gw.discovery.ListServers(sessionID)), nil
}

func (gw *GatewayServer) handleListServerTools(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := sessionIDFromContext(ctx)
	args := request.GetArguments()
	server, _ := args["server"].(string)

	text, err := gw.discovery.ListServerTools(ctx, server, sessionID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (gw *GatewayServer) handleToolDetails(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := sessionIDFromContext(ctx)
	args := request.GetArguments()
	server, _ := args["server"].(string)
	tool, _ := args["tool"].(string)

	text, err := gw.discovery.GetToolDetails(ctx, server, tool, sessionID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (gw *GatewayServer) handleInspectToolResponse(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := sessionIDFromContext(ctx)
	args := request.GetArguments()
	luaServerName, _ := args["server"].(string)
	luaToolName, _ := args["tool"].(string)
	sampleArgs, _ := args["arguments"].(map[string]interface{})

	upstreams := &scriptUpstreamsForSession{manager: gw.manager, sessionID: sessionID}
	result, err := upstreams.CallTool(ctx, luaServerName, luaToolName, sampleArgs)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(gw.formatter.FormatInspectResult(luaServerName, luaToolName, result)), nil
}

func (gw *GatewayServer) handleExecute(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := sessionIDFromContext(ctx)
	args := request.GetArguments()
	script, _ := args["script"].(string)

	if gw.scripts == nil {
		return mcp.NewToolResultError("no script runtime configured"), nil
	}

	upstreams := &scriptUpstreamsForSession{manager: gw.manager, sessionID: sessionID}
	result, err := gw.scripts.Run(ctx, script, upstreams)
	if err != nil {
		failure := &gwerrors.ScriptFailure{Err: err}
		return mcp.NewToolResultError(failure.Error()), nil
	}
	if result.Output == "" {
		return mcp.NewToolResultText(fmt.Sprintf("%v", result.Value)), nil
	}
	return mcp.NewToolResultText(result.Output), nil
}
