// Package app wires every gateway collaborator together once per process:
// load configuration, probe upstreams, build the aggregation core, and
// serve the downstream-facing transport (spec.md §4.8, §6; SPEC_FULL.md
// Module Map "Composition root").
package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"mcp-gateway/internal/config"
	"mcp-gateway/internal/gateway"
	"mcp-gateway/pkg/logging"

	mcpserver "github.com/mark3labs/mcp-go/server"
)

// shutdownTimeout bounds graceful HTTP shutdown, the same budget the
// teacher's aggregator shutdown path uses.
const shutdownTimeout = 5 * time.Second

// Config is the subset of CLI-provided options the composition root needs.
type Config struct {
	ConfigPath string
}

// Application owns every long-lived collaborator built at startup and the
// config-file watcher's lifetime.
type Application struct {
	cfg          config.ServerConfig
	orchestrator *gateway.SessionOrchestrator
	gatewayImpl  *gateway.GatewayServer
	stopWatcher  func()
}

// New initializes logging to stderr, loads configuration, validates it,
// probes every configured upstream once to build the static instruction
// text, and assembles the gateway core. No downstream transport is started
// yet; call Run for that.
func New(appCfg Config) (*Application, error) {
	logging.InitForCLI(logging.LevelInfo, os.Stderr)

	cfg, path, err := config.Load(appCfg.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if errs := config.Validate(cfg); errs.HasErrors() {
		return nil, fmt.Errorf("invalid configuration: %w", errs)
	}

	stopWatcher := func() {}
	if path != "" {
		stopWatcher = config.WatchForChanges(path)
	}

	preloader := gateway.NewServerInfoPreloader()
	probes := preloader.Probe(context.Background(), cfg.Servers)
	instructions := preloader.BuildInstructions(probes, nil)

	manager := gateway.NewClientManager()
	resources := gateway.NewResourceAggregator(manager)
	prompts := gateway.NewPromptAggregator(manager)
	manager.SetOnResourceListChanged(resources.HandleListChanged)
	manager.SetOnPromptListChanged(prompts.HandleListChanged)

	formatter := gateway.NewFormatter()
	discovery := gateway.NewToolDiscovery(manager, formatter)
	caps := gateway.NewCapabilityStore()

	var scripts gateway.ScriptRunner // no embedded script runtime in this core; see DESIGN.md

	orchestrator := gateway.NewSessionOrchestrator(cfg.Servers, manager, caps)
	gw := gateway.NewGatewayServer(manager, resources, prompts, discovery, formatter, scripts, instructions, orchestrator.Hooks())
	orchestrator.SetGateway(gw)

	return &Application{
		cfg:          cfg,
		orchestrator: orchestrator,
		gatewayImpl:  gw,
		stopWatcher:  stopWatcher,
	}, nil
}

// Run serves the downstream transport configured in cfg.Listener until ctx
// is cancelled (spec.md §6). Stdio mode blocks on the process's stdin/
// stdout; HTTP mode listens on the configured host/port.
func (a *Application) Run(ctx context.Context) error {
	defer a.stopWatcher()

	switch a.cfg.Listener.Transport {
	case config.TransportStdio:
		logging.Info("Application", "serving downstream over stdio")
		stdioServer := mcpserver.NewStdioServer(a.gatewayImpl.MCPServer())
		return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
	default:
		mcpHandler := mcpserver.NewStreamableHTTPServer(a.gatewayImpl.MCPServer())
		addr := fmt.Sprintf("%s:%d", a.cfg.Listener.Host, a.cfg.Listener.Port)
		httpServer := &http.Server{Addr: addr, Handler: mcpHandler}

		errCh := make(chan error, 1)
		go func() {
			logging.Info("Application", "serving downstream over streamable-http on %s", addr)
			errCh <- httpServer.ListenAndServe()
		}()

		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		case err := <-errCh:
			if err != nil && err != http.ErrServerClosed {
				return fmt.Errorf("serve http: %w", err)
			}
			return nil
		}
	}
}
