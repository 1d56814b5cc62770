package gateway

import (
	"context"

	"mcp-gateway/internal/gwerrors"
	"mcp-gateway/pkg/logging"

	"github.com/mark3labs/mcp-go/mcp"
	"golang.org/x/sync/errgroup"
)

// PromptAggregator mirrors ResourceAggregator for prompts: cached,
// namespaced, settle-all fan-out list plus namespace-routed get
// (spec.md §4.3).
type PromptAggregator struct {
	manager *ClientManager
	cache   *sessionCache[mcp.Prompt]
}

// NewPromptAggregator constructs an aggregator over manager.
func NewPromptAggregator(manager *ClientManager) *PromptAggregator {
	return &PromptAggregator{manager: manager, cache: newSessionCache[mcp.Prompt]()}
}

// ListPrompts returns the aggregated, namespaced prompt list for sessionID.
func (a *PromptAggregator) ListPrompts(ctx context.Context, sessionID SessionID) ([]mcp.Prompt, error) {
	key := defaultSessionKey(sessionID)

	if cached, ok := a.cache.get(key); ok {
		logging.Debug("PromptAggregator", "cache hit for session %s", logging.TruncateSessionID(string(key)))
		return cached, nil
	}

	clients := a.manager.GetClientsBySession(key)

	type contribution struct {
		serverName string
		prompts    []mcp.Prompt
	}
	contributions := make([]contribution, len(clients))

	names := make([]string, 0, len(clients))
	for name := range clients {
		names = append(names, name)
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		i, name, session := i, name, clients[name]
		g.Go(func() error {
			prompts, err := session.ListPrompts(gctx)
			if err != nil {
				logging.Error("PromptAggregator", err, "listPrompts failed for %s", name)
				prompts = nil
			}
			contributions[i] = contribution{serverName: name, prompts: prompts}
			return nil
		})
	}
	_ = g.Wait()

	var aggregated []mcp.Prompt
	for _, c := range contributions {
		for _, p := range c.prompts {
			namespaced := p
			namespaced.Name = namespacedPromptName(c.serverName, p.Name)
			aggregated = append(aggregated, namespaced)
		}
	}
	if aggregated == nil {
		aggregated = []mcp.Prompt{}
	}

	a.cache.set(key, aggregated)
	return aggregated, nil
}

// GetPrompt parses the namespace prefix, routes to the named upstream, and
// rewrites any embedded resource reference in the returned messages the same
// way ReadResource rewrites resource content (spec.md §4.4).
func (a *PromptAggregator) GetPrompt(ctx context.Context, namespacedName string, args map[string]interface{}, sessionID SessionID) (*mcp.GetPromptResult, error) {
	key := defaultSessionKey(sessionID)

	serverName, originalName, err := resolvePromptName(namespacedName)
	if err != nil {
		return nil, err
	}

	session, err := a.manager.GetClient(serverName, key)
	if err != nil {
		return nil, err
	}

	result, err := session.GetPrompt(ctx, originalName, args)
	if err != nil {
		return nil, &gwerrors.UpstreamError{Server: serverName, Op: "getPrompt", Err: err}
	}

	for i, message := range result.Messages {
		result.Messages[i].Content = rewriteContentBlockURI(message.Content, serverName)
	}
	return result, nil
}

// HandleListChanged drops the entire cached prompt list for sessionID.
func (a *PromptAggregator) HandleListChanged(serverName string, sessionID SessionID) {
	a.cache.invalidate(defaultSessionKey(sessionID))
}
