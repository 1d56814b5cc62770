package gateway

import (
	"context"

	"mcp-gateway/internal/gwerrors"
	"mcp-gateway/pkg/logging"

	"github.com/mark3labs/mcp-go/mcp"
	"golang.org/x/sync/errgroup"
)

// ResourceAggregator provides aggregated, namespaced resource listing and
// namespace-routed reads, per session, with whole-cache invalidation on any
// upstream resource_list_changed notification (spec.md §4.3).
type ResourceAggregator struct {
	manager *ClientManager
	cache   *sessionCache[mcp.Resource]
}

// NewResourceAggregator constructs an aggregator over manager. Callers
// should wire manager.SetOnResourceListChanged to this aggregator's
// HandleListChanged.
func NewResourceAggregator(manager *ClientManager) *ResourceAggregator {
	return &ResourceAggregator{manager: manager, cache: newSessionCache[mcp.Resource]()}
}

// ListResources returns the aggregated, namespaced resource list for
// sessionID (spec.md §4.3).
func (a *ResourceAggregator) ListResources(ctx context.Context, sessionID SessionID) ([]mcp.Resource, error) {
	key := defaultSessionKey(sessionID)

	if cached, ok := a.cache.get(key); ok {
		logging.Debug("ResourceAggregator", "cache hit for session %s", logging.TruncateSessionID(string(key)))
		return cached, nil
	}

	clients := a.manager.GetClientsBySession(key)

	type contribution struct {
		serverName string
		resources  []mcp.Resource
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
			resources, err := session.ListResources(gctx)
			if err != nil {
				logging.Error("ResourceAggregator", err, "listResources failed for %s", name)
				resources = nil
			}
			contributions[i] = contribution{serverName: name, resources: resources}
			return nil // settle-all: never fail the group on one upstream's error
		})
	}
	_ = g.Wait()

	var aggregated []mcp.Resource
	for _, c := range contributions {
		for _, r := range c.resources {
			namespaced := r
			namespaced.URI = namespacedResourceURI(c.serverName, r.URI)
			aggregated = append(aggregated, namespaced)
		}
	}
	if aggregated == nil {
		aggregated = []mcp.Resource{}
	}

	a.cache.set(key, aggregated)
	return aggregated, nil
}

// ReadResource parses the namespace prefix, routes to the named upstream,
// and rewrites every content entry's uri back to the namespaced form
// (spec.md §4.3, scenario 2/3).
func (a *ResourceAggregator) ReadResource(ctx context.Context, namespacedURI string, sessionID SessionID) (*mcp.ReadResourceResult, error) {
	key := defaultSessionKey(sessionID)

	serverName, originalURI, err := resolveResourceURI(namespacedURI)
	if err != nil {
		return nil, err
	}

	session, err := a.manager.GetClient(serverName, key)
	if err != nil {
		return nil, err
	}

	result, err := session.ReadResource(ctx, originalURI)
	if err != nil {
		return nil, &gwerrors.UpstreamError{Server: serverName, Op: "readResource", Err: err}
	}

	for i, content := range result.Contents {
		result.Contents[i] = rewriteResourceContentURI(content, serverName)
	}
	return result, nil
}

// HandleListChanged drops the entire cached resource list for sessionID
// (spec.md §4.3: coarser than strictly necessary but cheap and correct).
func (a *ResourceAggregator) HandleListChanged(serverName string, sessionID SessionID) {
	a.cache.invalidate(defaultSessionKey(sessionID))
}

// rewriteResourceContentURI rewrites a resource content entry's URI field
// to begin with mcp://{serverName}/, regardless of its concrete type.
func rewriteResourceContentURI(content mcp.ResourceContents, serverName string) mcp.ResourceContents {
	switch c := content.(type) {
	case mcp.TextResourceContents:
		c.URI = namespacedResourceURI(serverName, c.URI)
		return c
	case mcp.BlobResourceContents:
		c.URI = namespacedResourceURI(serverName, c.URI)
		return c
	default:
		return content
	}
}
