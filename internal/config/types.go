// Package config defines the gateway's static configuration shape and loads
// it once at process startup.
package config

// TransportMode selects how the gateway listens for the downstream client.
type TransportMode string

const (
	// TransportStdio serves the downstream over a stdio JSON-RPC stream.
	// Exactly one implicit session exists, with id "default".
	TransportStdio TransportMode = "stdio"
	// TransportHTTP serves the downstream over a streamable HTTP endpoint.
	TransportHTTP TransportMode = "http"
)

// UpstreamKind selects how the gateway reaches one upstream MCP server.
type UpstreamKind string

const (
	UpstreamHTTP  UpstreamKind = "http"
	UpstreamStdio UpstreamKind = "stdio"
)

// UpstreamConfig describes one upstream MCP server the gateway connects to
// as a client. Exactly one of the kind-specific field groups applies.
type UpstreamConfig struct {
	Kind UpstreamKind `yaml:"kind"`

	// HTTP transport fields.
	URL     string            `yaml:"url,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`

	// Stdio transport fields.
	Command string            `yaml:"command,omitempty"`
	Args    []string          `yaml:"args,omitempty"`
	Env     map[string]string `yaml:"env,omitempty"`

	// AllowedTools is an optional set of upstream tool names. Absence (nil)
	// means "all tools"; an explicitly empty list means "no tools".
	AllowedTools *[]string `yaml:"allowedTools,omitempty"`
}

// HasAllowList reports whether AllowedTools was specified at all (nil vs.
// present-but-empty carry different meaning per spec).
func (u UpstreamConfig) HasAllowList() bool {
	return u.AllowedTools != nil
}

// ServerConfig is the top-level, process-lifetime-immutable configuration.
type ServerConfig struct {
	Listener ListenerConfig            `yaml:"listener"`
	Servers  map[string]UpstreamConfig `yaml:"servers"`
}

// ListenerConfig is the downstream-facing transport configuration.
type ListenerConfig struct {
	Transport TransportMode `yaml:"transport"`
	Host      string        `yaml:"host,omitempty"`
	Port      int           `yaml:"port,omitempty"`
}

// Default returns the built-in configuration used when no config.yaml is
// found at any search path.
func Default() ServerConfig {
	return ServerConfig{
		Listener: ListenerConfig{
			Transport: TransportHTTP,
			Host:      "localhost",
			Port:      8080,
		},
		Servers: map[string]UpstreamConfig{},
	}
}
