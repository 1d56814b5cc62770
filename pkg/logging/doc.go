// Package logging provides the gateway's structured logging: subsystem-tagged
// Debug/Info/Warn/Error calls over log/slog, plus TruncateSessionID for
// log-safe session ids.
//
// # Usage
//
//	logging.InitForCLI(logging.LevelInfo, os.Stdout)
//	logging.Info("Gateway", "listening on %s", addr)
//	logging.Error("ClientManager", err, "connect to upstream %s failed", name)
//
// # Subsystems
//
// Log lines are tagged by subsystem for filtering: Application,
// ConfigLoader, ConfigWatcher, ClientManager, ClientSession, Aggregator,
// ResourceAggregator, PromptAggregator, GatewayServer, SessionOrchestrator,
// ServerInfoPreloader, HTTPClient, StdioClient.
package logging
