// Package gateway implements the aggregating MCP gateway: per-session
// upstream client pooling, tool/resource/prompt aggregation with
// namespacing, the downstream-facing meta-tool server, and the per-session
// initialization sequence that wires them together.
package gateway

import (
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
)

// SessionID is the opaque session identifier (spec.md §3): transport-issued
// in HTTP mode, the fixed literal "default" in stdio mode.
type SessionID string

// DefaultSessionID is used for the single implicit session in stdio mode.
const DefaultSessionID SessionID = "default"

// ElicitationModes are the two elicitation sub-capabilities a downstream
// client can advertise independently.
type ElicitationModes struct {
	Form bool
	URL  bool
}

// DownstreamCapabilities records what the downstream MCP client advertised
// at initialize (spec.md §3). Observed exactly once per session.
type DownstreamCapabilities struct {
	Sampling    bool
	Elicitation ElicitationModes
}

// NamespacedResource is a Resource whose URI has been rewritten with its
// owning server's namespace prefix (spec.md §3, §4.3).
type NamespacedResource struct {
	mcp.Resource
}

// NamespacedPrompt is a Prompt whose Name has been rewritten with its
// owning server's namespace prefix.
type NamespacedPrompt struct {
	mcp.Prompt
}

// toolCache holds the fetch-and-filter result for one ClientSession's tool
// list. cached == false means "not yet fetched"; fetched-but-empty is a
// valid, distinct, cached state.
type toolCache struct {
	mu     sync.RWMutex
	tools  []mcp.Tool
	cached bool
}

func (c *toolCache) get() ([]mcp.Tool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tools, c.cached
}

func (c *toolCache) set(tools []mcp.Tool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tools = tools
	c.cached = true
}

func (c *toolCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tools = nil
	c.cached = false
}

type resourceCache struct {
	mu        sync.RWMutex
	resources []mcp.Resource
	meta      *mcp.Meta
	cached    bool
}

func (c *resourceCache) get() ([]mcp.Resource, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resources, c.cached
}

func (c *resourceCache) set(resources []mcp.Resource, meta *mcp.Meta) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resources = resources
	c.meta = meta
	c.cached = true
}

func (c *resourceCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resources = nil
	c.meta = nil
	c.cached = false
}

type promptCache struct {
	mu      sync.RWMutex
	prompts []mcp.Prompt
	cached  bool
}

func (c *promptCache) get() ([]mcp.Prompt, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.prompts, c.cached
}

func (c *promptCache) set(prompts []mcp.Prompt) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompts = prompts
	c.cached = true
}

func (c *promptCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompts = nil
	c.cached = false
}
