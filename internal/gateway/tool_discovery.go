package gateway

import (
	"context"

	"mcp-gateway/internal/gwerrors"

	"github.com/mark3labs/mcp-go/mcp"
)

// ServerEntry is one row of the list-servers meta-tool output (spec.md
// §4.5): either a connected server's info, or an error string for a
// failed-to-resolve or failed-to-connect one.
type ServerEntry struct {
	LuaIdentifier string
	Name          string
	Version       string
	Description   string
	Instructions  string
	Error         string
}

// ToolEntry is one row of the list-server-tools meta-tool output.
type ToolEntry struct {
	LuaName     string
	Description string
}

// ToolDiscovery answers the read-only introspection questions the
// meta-tools need, formatted as text via a Formatter (spec.md §4.5).
type ToolDiscovery struct {
	manager   *ClientManager
	formatter *Formatter
}

// NewToolDiscovery constructs a discovery backend over manager.
func NewToolDiscovery(manager *ClientManager, formatter *Formatter) *ToolDiscovery {
	return &ToolDiscovery{manager: manager, formatter: formatter}
}

// ListServers formats an entry per connected upstream plus one per failed
// upstream (spec.md §4.5).
func (d *ToolDiscovery) ListServers(sessionID SessionID) string {
	clients := d.manager.GetClientsBySession(sessionID)
	failed := d.manager.GetFailedServers(sessionID)

	entries := make([]ServerEntry, 0, len(clients)+len(failed))
	for name, session := range clients {
		entry := ServerEntry{LuaIdentifier: sanitizeIdentifier(name)}
		info := session.ServerInfo()
		if info == nil {
			entry.Error = "server info unavailable"
		} else {
			entry.Name = info.ServerInfo.Name
			entry.Version = info.ServerInfo.Version
			entry.Instructions = info.Instructions
		}
		entries = append(entries, entry)
	}
	for name, errMsg := range failed {
		entries = append(entries, ServerEntry{LuaIdentifier: sanitizeIdentifier(name), Error: errMsg})
	}

	return d.formatter.FormatServerList(entries)
}

// ListServerTools finds the upstream whose sanitized name matches
// luaServerName and formats its filtered tool list (spec.md §4.5).
func (d *ToolDiscovery) ListServerTools(ctx context.Context, luaServerName string, sessionID SessionID) (string, error) {
	session, _, err := d.findBySanitizedName(luaServerName, sessionID)
	if err != nil {
		return "", err
	}

	tools, err := session.ListTools(ctx)
	if err != nil {
		return "", &gwerrors.UpstreamError{Server: session.ServerName, Op: "listTools", Err: err}
	}

	entries := make([]ToolEntry, 0, len(tools))
	for _, t := range tools {
		entries = append(entries, ToolEntry{LuaName: sanitizeIdentifier(t.Name), Description: t.Description})
	}
	return d.formatter.FormatToolList(session.ServerName, entries), nil
}

// GetToolDetails finds the tool by sanitized server/tool name and formats
// its description, schema, and a generated usage example (spec.md §4.5).
func (d *ToolDiscovery) GetToolDetails(ctx context.Context, luaServerName, luaToolName string, sessionID SessionID) (string, error) {
	session, _, err := d.findBySanitizedName(luaServerName, sessionID)
	if err != nil {
		return "", err
	}

	tools, err := session.ListTools(ctx)
	if err != nil {
		return "", &gwerrors.UpstreamError{Server: session.ServerName, Op: "listTools", Err: err}
	}

	var found *mcp.Tool
	names := make([]string, 0, len(tools))
	for i := range tools {
		names = append(names, sanitizeIdentifier(tools[i].Name))
		if sanitizeIdentifier(tools[i].Name) == luaToolName {
			found = &tools[i]
		}
	}
	if found == nil {
		return "", &gwerrors.NotFound{What: "tool", Name: luaToolName, Available: names}
	}

	return d.formatter.FormatToolDetails(session.ServerName, *found), nil
}

// findBySanitizedName locates the ClientSession whose server name
// sanitizes to luaServerName.
func (d *ToolDiscovery) findBySanitizedName(luaServerName string, sessionID SessionID) (*ClientSession, []string, error) {
	clients := d.manager.GetClientsBySession(sessionID)
	names := make([]string, 0, len(clients))
	for name := range clients {
		names = append(names, name)
	}
	for name, session := range clients {
		if sanitizeIdentifier(name) == luaServerName {
			return session, names, nil
		}
	}
	return nil, names, &gwerrors.NotFound{What: "server", Name: luaServerName, Available: names}
}
