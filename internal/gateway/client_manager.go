package gateway

import (
	"context"
	"sync"

	"mcp-gateway/internal/gwerrors"
	"mcp-gateway/internal/upstream"
	"mcp-gateway/pkg/logging"

	"github.com/mark3labs/mcp-go/mcp"
)

type clientKey struct {
	name      string
	sessionID SessionID
}

// AddClientResult is returned by AddHTTPClient/AddStdioClient (spec.md §4.2).
type AddClientResult struct {
	Name    string
	Success bool
	Error   string
}

// ClientManager holds the per-session pool of ClientSessions, keyed by
// (serverName, sessionId), plus failure bookkeeping for connects that
// didn't succeed (spec.md §4.2).
type ClientManager struct {
	mu      sync.Mutex // single-writer discipline over both maps
	clients map[clientKey]*ClientSession
	failed  map[clientKey]string

	onResourceListChanged func(serverName string, sessionID SessionID)
	onPromptListChanged   func(serverName string, sessionID SessionID)
}

// NewClientManager constructs an empty manager.
func NewClientManager() *ClientManager {
	return &ClientManager{
		clients: make(map[clientKey]*ClientSession),
		failed:  make(map[clientKey]string),
	}
}

// SetOnResourceListChanged installs the callback propagated to every
// ClientSession this manager creates, so the resource aggregator can be
// notified of invalidations (spec.md §4.2, §9).
func (m *ClientManager) SetOnResourceListChanged(cb func(serverName string, sessionID SessionID)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onResourceListChanged = cb
}

// SetOnPromptListChanged installs the callback propagated to every
// ClientSession this manager creates, so the prompt aggregator can be
// notified of invalidations (spec.md §4.2, §9).
func (m *ClientManager) SetOnPromptListChanged(cb func(serverName string, sessionID SessionID)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onPromptListChanged = cb
}

// AddHTTPClient connects (or idempotently no-ops) an HTTP-transport upstream
// for this session.
func (m *ClientManager) AddHTTPClient(ctx context.Context, name, url string, sessionID SessionID, headers map[string]string, allowedTools *[]string, caps DownstreamCapabilities) AddClientResult {
	return m.addClient(ctx, name, sessionID, allowedTools, caps, func() upstream.Client {
		return upstream.NewHTTPClient(url, headers)
	})
}

// AddStdioClient connects (or idempotently no-ops) a stdio-transport
// upstream for this session.
func (m *ClientManager) AddStdioClient(ctx context.Context, name, command string, sessionID SessionID, args []string, env map[string]string, allowedTools *[]string, caps DownstreamCapabilities) AddClientResult {
	return m.addClient(ctx, name, sessionID, allowedTools, caps, func() upstream.Client {
		return upstream.NewStdioClient(command, args, env)
	})
}

func (m *ClientManager) addClient(ctx context.Context, name string, sessionID SessionID, allowedTools *[]string, caps DownstreamCapabilities, construct func() upstream.Client) AddClientResult {
	key := clientKey{name: name, sessionID: sessionID}

	m.mu.Lock()
	if _, exists := m.clients[key]; exists {
		m.mu.Unlock()
		return AddClientResult{Name: name, Success: true}
	}
	m.mu.Unlock()

	client := construct()
	mcpCaps := toMCPClientCapabilities(caps)

	if _, err := client.Initialize(ctx, mcpCaps); err != nil {
		wrapped := &gwerrors.TransportUnavailable{Server: name, Err: err}
		m.mu.Lock()
		m.failed[key] = wrapped.Error()
		m.mu.Unlock()
		logging.Warn("ClientManager", "connect to %s for session %s failed: %v", name, logging.TruncateSessionID(string(sessionID)), wrapped)
		return AddClientResult{Name: name, Success: false, Error: wrapped.Error()}
	}

	session := NewClientSession(name, sessionID, client, allowedTools)
	m.mu.Lock()
	if m.onResourceListChanged != nil {
		session.SetOnResourceListChanged(m.onResourceListChanged)
	}
	if m.onPromptListChanged != nil {
		session.SetOnPromptListChanged(m.onPromptListChanged)
	}
	if _, exists := m.clients[key]; exists {
		// Lost a race against a concurrent identical add; close the
		// redundant connection and keep the winner.
		m.mu.Unlock()
		_ = client.Close()
		return AddClientResult{Name: name, Success: true}
	}
	m.clients[key] = session
	delete(m.failed, key)
	m.mu.Unlock()

	return AddClientResult{Name: name, Success: true}
}

func toMCPClientCapabilities(caps DownstreamCapabilities) mcp.ClientCapabilities {
	mcpCaps := mcp.ClientCapabilities{}
	if caps.Sampling {
		mcpCaps.Sampling = &struct{}{}
	}
	if caps.Elicitation.Form || caps.Elicitation.URL {
		mcpCaps.Elicitation = &struct{}{}
	}
	return mcpCaps
}

// GetClient is an exact-name lookup within a session.
func (m *ClientManager) GetClient(name string, sessionID SessionID) (*ClientSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.clients[clientKey{name: name, sessionID: sessionID}]
	if !ok {
		return nil, &gwerrors.NotFound{What: "server", Name: name, Available: m.serverNamesLocked(sessionID)}
	}
	return session, nil
}

func (m *ClientManager) serverNamesLocked(sessionID SessionID) []string {
	var names []string
	for k := range m.clients {
		if k.sessionID == sessionID {
			names = append(names, k.name)
		}
	}
	return names
}

// GetClientsBySession returns every ClientSession belonging to sessionID.
func (m *ClientManager) GetClientsBySession(sessionID SessionID) map[string]*ClientSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make(map[string]*ClientSession)
	for k, v := range m.clients {
		if k.sessionID == sessionID {
			result[k.name] = v
		}
	}
	return result
}

// GetFailedServers returns the failure messages recorded for sessionID.
func (m *ClientManager) GetFailedServers(sessionID SessionID) map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make(map[string]string)
	for k, v := range m.failed {
		if k.sessionID == sessionID {
			result[k.name] = v
		}
	}
	return result
}

// CloseSession closes every ClientSession belonging to sessionID and purges
// both maps for it. Individual close errors are logged, never abort the
// purge (spec.md §4.2, §7).
func (m *ClientManager) CloseSession(sessionID SessionID) {
	m.mu.Lock()
	var toClose []*ClientSession
	for k, v := range m.clients {
		if k.sessionID == sessionID {
			toClose = append(toClose, v)
			delete(m.clients, k)
		}
	}
	for k := range m.failed {
		if k.sessionID == sessionID {
			delete(m.failed, k)
		}
	}
	m.mu.Unlock()

	for _, session := range toClose {
		if err := session.Close(); err != nil {
			logging.Warn("ClientManager", "error closing %s for session %s: %v", session.ServerName, logging.TruncateSessionID(string(sessionID)), err)
		}
	}
}

// Close closes every session known to the manager. Best-effort across all:
// unlike the teacher's analogous source, which may short-circuit on the
// first close failure, every session is closed regardless of earlier
// errors (spec.md §9 documents this as the required, not the observed,
// behavior).
func (m *ClientManager) Close() {
	m.mu.Lock()
	sessions := make(map[SessionID]struct{})
	for k := range m.clients {
		sessions[k.sessionID] = struct{}{}
	}
	m.mu.Unlock()

	for sessionID := range sessions {
		m.CloseSession(sessionID)
	}
}
