package gateway

import (
	"context"

	"mcp-gateway/internal/config"
	"mcp-gateway/pkg/logging"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"
)

// SessionOrchestrator drives the per-session lifecycle spec.md §4.8
// describes: on downstream initialize, connect every configured upstream in
// parallel under that session's advertised capabilities, register the
// resulting tools/resources/prompts, wire bidirectional sampling/
// elicitation forwarding, and tear everything down again on session close.
type SessionOrchestrator struct {
	servers map[string]config.UpstreamConfig
	manager *ClientManager
	caps    *CapabilityStore
	gateway *GatewayServer
}

// NewSessionOrchestrator constructs an orchestrator over a fixed,
// process-lifetime-immutable set of upstream configurations (spec.md §3).
// The GatewayServer is supplied later via SetGateway: constructing it
// requires this orchestrator's Hooks() first, so the two are built in two
// passes by the composition root (internal/app).
func NewSessionOrchestrator(servers map[string]config.UpstreamConfig, manager *ClientManager, caps *CapabilityStore) *SessionOrchestrator {
	return &SessionOrchestrator{servers: servers, manager: manager, caps: caps}
}

// SetGateway completes construction once the GatewayServer built with this
// orchestrator's Hooks() exists. Hook closures only dereference o.gateway
// when they fire, which is always after the composition root finishes
// wiring both objects, so the two-pass construction never races.
func (o *SessionOrchestrator) SetGateway(gateway *GatewayServer) {
	o.gateway = gateway
}

// Hooks builds the mcp-go Hooks bundle the GatewayServer registers at
// construction (spec.md §4.8 steps 1-4). AddAfterInitialize/
// AddOnUnregisterSession are not directly confirmed against the older
// vendored mcp-go snapshot examined in this corpus (whose UnregisterSession
// implementation calls no hook at all); the pinned module version here is
// considerably newer and, per general mcp-go usage in the wild, exposes a
// richer hook set than that snapshot. Documented as an extrapolation in
// DESIGN.md.
func (o *SessionOrchestrator) Hooks() *mcpserver.Hooks {
	hooks := &mcpserver.Hooks{}
	hooks.AddAfterInitialize(func(ctx context.Context, _ any, _ *mcp.InitializeRequest, result *mcp.InitializeResult) {
		o.gateway.CaptureDownstreamSession(ctx)
		caps := toDownstreamCapabilities(result.Capabilities)
		sessionID := sessionIDFromContext(ctx)
		o.HandleDownstreamInitialized(ctx, sessionID, caps)
	})
	hooks.AddOnUnregisterSession(func(ctx context.Context, session mcpserver.ClientSession) {
		o.HandleSessionClosed(SessionID(session.SessionID()))
	})
	return hooks
}

// toDownstreamCapabilities reduces the downstream's advertised
// ClientCapabilities (mcp's presence-flag structs) to the gateway's own,
// serializable DownstreamCapabilities (spec.md §3).
func toDownstreamCapabilities(caps mcp.ClientCapabilities) DownstreamCapabilities {
	out := DownstreamCapabilities{Sampling: caps.Sampling != nil}
	if caps.Elicitation != nil {
		// mark3labs/mcp-go models elicitation support as a single presence
		// flag (mcp.ClientCapabilities.Elicitation *struct{}), not two
		// independently-advertised sub-modes; both form and url are
		// recorded as available together (see DESIGN.md).
		out.Elicitation = ElicitationModes{Form: true, URL: true}
	}
	return out
}

// HandleDownstreamInitialized runs spec.md §4.8 step 3: record capabilities,
// connect every configured upstream in parallel (settle-all), log the
// aggregate outcome, then register each succeeded upstream's tools,
// resources, prompts, and bidirectional request handlers.
func (o *SessionOrchestrator) HandleDownstreamInitialized(ctx context.Context, sessionID SessionID, caps DownstreamCapabilities) {
	o.caps.Set(sessionID, caps)

	type outcome struct {
		name    string
		success bool
	}
	outcomes := make([]outcome, len(o.servers))
	names := make([]string, 0, len(o.servers))
	for name := range o.servers {
		names = append(names, name)
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		i, name, cfg := i, name, o.servers[name]
		g.Go(func() error {
			result := o.connectOne(gctx, name, cfg, sessionID, caps)
			outcomes[i] = outcome{name: name, success: result.Success}
			return nil
		})
	}
	_ = g.Wait()

	var succeeded, failed []string
	for _, o := range outcomes {
		if o.success {
			succeeded = append(succeeded, o.name)
		} else {
			failed = append(failed, o.name)
		}
	}
	o.logConnectOutcome(sessionID, succeeded, failed)

	for _, name := range succeeded {
		if err := o.gateway.RegisterUpstreamTools(ctx, name, sessionID); err != nil {
			logging.Warn("SessionOrchestrator", "register tools for %s (session %s): %v", name, logging.TruncateSessionID(string(sessionID)), err)
			continue
		}
		o.registerBidirectionalHandlers(name, sessionID, caps)
	}

	if err := o.gateway.RegisterUpstreamResourcesAndPrompts(ctx, sessionID); err != nil {
		logging.Warn("SessionOrchestrator", "register resources/prompts for session %s: %v", logging.TruncateSessionID(string(sessionID)), err)
	}
}

func (o *SessionOrchestrator) connectOne(ctx context.Context, name string, cfg config.UpstreamConfig, sessionID SessionID, caps DownstreamCapabilities) AddClientResult {
	if cfg.Kind == config.UpstreamHTTP {
		return o.manager.AddHTTPClient(ctx, name, cfg.URL, sessionID, cfg.Headers, cfg.AllowedTools, caps)
	}
	return o.manager.AddStdioClient(ctx, name, cfg.Command, sessionID, cfg.Args, cfg.Env, cfg.AllowedTools, caps)
}

// logConnectOutcome implements spec.md §4.8 step 3c's three-way log policy.
func (o *SessionOrchestrator) logConnectOutcome(sessionID SessionID, succeeded, failed []string) {
	truncated := logging.TruncateSessionID(string(sessionID))
	switch {
	case len(succeeded) == 0 && len(failed) > 0:
		logging.Warn("SessionOrchestrator", "all %d upstream(s) failed to connect for session %s: %v", len(failed), truncated, failed)
	case len(failed) > 0:
		logging.Warn("SessionOrchestrator", "%d upstream(s) failed to connect for session %s: %v", len(failed), truncated, failed)
	default:
		logging.Info("SessionOrchestrator", "%d upstream(s) connected for session %s", len(succeeded), truncated)
	}
}

// registerBidirectionalHandlers wires one succeeded ClientSession's sampling
// request forwarding to the downstream, gated by its advertised capability
// (spec.md §4.8 step 3d). Elicitation forwarding has no client-side hook in
// mark3labs/mcp-go's retrieved client package (only OnSamplingRequest
// exists there); the CapabilityStore gating and GatewayServer.
// ForwardElicitation seam are in place so a client-side hook can be wired
// the moment one exists, but none is registered here (see DESIGN.md).
func (o *SessionOrchestrator) registerBidirectionalHandlers(serverName string, sessionID SessionID, caps DownstreamCapabilities) {
	if !caps.Sampling {
		return
	}
	session, err := o.manager.GetClient(serverName, sessionID)
	if err != nil {
		return
	}
	session.OnSamplingRequest(func(ctx context.Context, req mcp.CreateMessageRequest) (*mcp.CreateMessageResult, error) {
		return o.gateway.ForwardSampling(ctx, sessionID, req)
	})
}

// HandleSessionClosed implements spec.md §4.8 step 4: best-effort teardown
// of every resource keyed by sessionID, logging rather than propagating
// errors (ClientManager.CloseSession already does this for upstream
// connections).
func (o *SessionOrchestrator) HandleSessionClosed(sessionID SessionID) {
	o.manager.CloseSession(sessionID)
	o.caps.Delete(sessionID)
	o.gateway.ForgetDownstreamSession(sessionID)
}

