package gateway

import (
	"context"
	"fmt"
	"strings"

	"mcp-gateway/internal/upstream"
	"mcp-gateway/pkg/logging"

	"github.com/mark3labs/mcp-go/mcp"
)

// unsupportedMarkers are substrings that, when present in an upstream's
// error response to a list call, mean "this server does not implement this
// capability" rather than a genuine failure (spec.md §4.1, §7).
var unsupportedMarkers = []string{
	"does not support",
	"not supported",
	"method not found",
}

func isUnsupportedError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range unsupportedMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// ClientSession is a cached, filtered, paginated-to-completion,
// change-notified view of exactly one upstream for exactly one downstream
// session (spec.md §4.1). Constructing one does no I/O; every method call
// is a suspension point.
type ClientSession struct {
	ServerName string
	SessionID  SessionID

	client       upstream.Client
	allowedTools *[]string // nil = all, empty = none

	tools     toolCache
	resources resourceCache
	prompts   promptCache

	// onResourceListChanged and onPromptListChanged notify the owning
	// aggregators that this session's aggregated cache should be dropped
	// too. Installed through the setters right after construction (by
	// ClientManager); Close does not clear them (spec.md §9).
	onResourceListChanged func(serverName string, sessionID SessionID)
	onPromptListChanged   func(serverName string, sessionID SessionID)
}

// NewClientSession constructs a session view over an already-connected
// upstream client. No I/O happens here; callers must call client.Initialize
// separately (typically from ClientManager).
func NewClientSession(serverName string, sessionID SessionID, client upstream.Client, allowedTools *[]string) *ClientSession {
	cs := &ClientSession{
		ServerName:   serverName,
		SessionID:    sessionID,
		client:       client,
		allowedTools: allowedTools,
	}
	cs.registerNotificationHandlers()
	return cs
}

// SetOnResourceListChanged installs the resource aggregator's invalidation
// callback.
func (cs *ClientSession) SetOnResourceListChanged(cb func(serverName string, sessionID SessionID)) {
	cs.onResourceListChanged = cb
}

// SetOnPromptListChanged installs the prompt aggregator's invalidation
// callback.
func (cs *ClientSession) SetOnPromptListChanged(cb func(serverName string, sessionID SessionID)) {
	cs.onPromptListChanged = cb
}

func (cs *ClientSession) registerNotificationHandlers() {
	cs.client.OnNotification(func(n mcp.JSONRPCNotification) {
		switch n.Method {
		case "notifications/tools/list_changed":
			cs.tools.invalidate()
			logging.Debug("ClientSession", "tools list_changed for %s, cache invalidated", cs.ServerName)
		case "notifications/resources/list_changed":
			cs.resources.invalidate()
			logging.Debug("ClientSession", "resources list_changed for %s, cache invalidated", cs.ServerName)
			if cs.onResourceListChanged != nil {
				cs.onResourceListChanged(cs.ServerName, cs.SessionID)
			}
		case "notifications/prompts/list_changed":
			cs.prompts.invalidate()
			logging.Debug("ClientSession", "prompts list_changed for %s, cache invalidated", cs.ServerName)
			if cs.onPromptListChanged != nil {
				cs.onPromptListChanged(cs.ServerName, cs.SessionID)
			}
		}
	})
}

// ListTools returns the cached, filtered tool list, fetching from the
// upstream on a cache miss. No pagination: a single ListTools call.
func (cs *ClientSession) ListTools(ctx context.Context) ([]mcp.Tool, error) {
	if tools, ok := cs.tools.get(); ok {
		return tools, nil
	}

	fetched, err := cs.client.ListTools(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tools from %s: %w", cs.ServerName, err)
	}

	filtered := cs.applyToolFilter(fetched)
	cs.tools.set(filtered)
	return filtered, nil
}

func (cs *ClientSession) applyToolFilter(tools []mcp.Tool) []mcp.Tool {
	if cs.allowedTools == nil {
		return tools
	}

	allowed := *cs.allowedTools
	if len(allowed) == 0 {
		logging.Info("ClientSession", "all tools blocked for %s (empty allowedTools)", cs.ServerName)
		return []mcp.Tool{}
	}

	available := make(map[string]mcp.Tool, len(tools))
	names := make([]string, 0, len(tools))
	for _, t := range tools {
		available[t.Name] = t
		names = append(names, t.Name)
	}

	result := make([]mcp.Tool, 0, len(allowed))
	for _, name := range allowed {
		if t, ok := available[name]; ok {
			result = append(result, t)
		} else {
			logging.Error("ClientSession", fmt.Errorf("tool %q not found", name),
				"allowedTools entry %q for %s not present; available: %v", name, cs.ServerName, names)
		}
	}
	return result
}

// ListResources fetches and concatenates every page until the upstream
// stops returning a nextCursor, caches the concatenation, and returns it.
// An upstream that says it doesn't support resources contributes an empty,
// cached list without an error log.
func (cs *ClientSession) ListResources(ctx context.Context) ([]mcp.Resource, error) {
	if resources, ok := cs.resources.get(); ok {
		return resources, nil
	}

	var all []mcp.Resource
	cursor := ""
	for {
		page, nextCursor, err := cs.client.ListResources(ctx, cursor)
		if err != nil {
			if isUnsupportedError(err) {
				cs.resources.set([]mcp.Resource{}, nil)
				return []mcp.Resource{}, nil
			}
			return nil, fmt.Errorf("list resources from %s: %w", cs.ServerName, err)
		}
		all = append(all, page...)
		if nextCursor == "" {
			break
		}
		cursor = nextCursor
	}

	cs.resources.set(all, nil)
	return all, nil
}

// ListPrompts has the same page-to-exhaustion contract as ListResources.
func (cs *ClientSession) ListPrompts(ctx context.Context) ([]mcp.Prompt, error) {
	if prompts, ok := cs.prompts.get(); ok {
		return prompts, nil
	}

	var all []mcp.Prompt
	cursor := ""
	for {
		page, nextCursor, err := cs.client.ListPrompts(ctx, cursor)
		if err != nil {
			if isUnsupportedError(err) {
				cs.prompts.set([]mcp.Prompt{})
				return []mcp.Prompt{}, nil
			}
			return nil, fmt.Errorf("list prompts from %s: %w", cs.ServerName, err)
		}
		all = append(all, page...)
		if nextCursor == "" {
			break
		}
		cursor = nextCursor
	}

	cs.prompts.set(all)
	return all, nil
}

// ReadResource is a pass-through; errors propagate to the caller verbatim.
func (cs *ClientSession) ReadResource(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	result, err := cs.client.ReadResource(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("read resource %s from %s: %w", uri, cs.ServerName, err)
	}
	return result, nil
}

// GetPrompt is a pass-through; errors propagate to the caller verbatim.
func (cs *ClientSession) GetPrompt(ctx context.Context, name string, args map[string]interface{}) (*mcp.GetPromptResult, error) {
	result, err := cs.client.GetPrompt(ctx, name, args)
	if err != nil {
		return nil, fmt.Errorf("get prompt %s from %s: %w", name, cs.ServerName, err)
	}
	return result, nil
}

// CallTool is a pass-through; errors propagate to the caller verbatim.
func (cs *ClientSession) CallTool(ctx context.Context, name string, args map[string]interface{}) (*mcp.CallToolResult, error) {
	result, err := cs.client.CallTool(ctx, name, args)
	if err != nil {
		return nil, fmt.Errorf("call tool %s on %s: %w", name, cs.ServerName, err)
	}
	return result, nil
}

// OnSamplingRequest registers a handler that forwards this upstream's
// sampling/createMessage requests to the downstream (spec.md §4.4, §4.8).
func (cs *ClientSession) OnSamplingRequest(handler upstream.SamplingHandler) {
	cs.client.OnSamplingRequest(handler)
}

// Close tears down the underlying upstream connection.
func (cs *ClientSession) Close() error {
	return cs.client.Close()
}

// ServerInfo returns the upstream's advertised implementation record from
// its initialize response (spec.md §4.5, §4.7).
func (cs *ClientSession) ServerInfo() *mcp.InitializeResult {
	return cs.client.ServerInfo()
}

// ToolNames returns the names of the cached (filtered) tool list if
// present, or fetches it. Used by namespace resolution, which must match
// against the live upstream list rather than a stored mapping table.
func (cs *ClientSession) ToolNames(ctx context.Context) ([]string, error) {
	tools, err := cs.ListTools(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = t.Name
	}
	return names, nil
}
