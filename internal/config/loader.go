package config

import (
	"errors"
	"fmt"
	"os"

	"mcp-gateway/pkg/logging"

	"gopkg.in/yaml.v3"
)

// Load reads config.yaml from the highest-precedence existing search path
// (see SearchPaths), falling back to Default() if none exists. PORT/HOST
// environment variables, if set, override the listener endpoint after the
// file is loaded.
func Load(explicitPath string) (ServerConfig, string, error) {
	candidates := SearchPaths(explicitPath)
	path, found := FirstExisting(candidates)

	cfg := Default()
	if found {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				logging.Info("ConfigLoader", "No config file found at %s, using defaults", path)
				return applyEnvOverrides(cfg), path, nil
			}
			return ServerConfig{}, path, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return ServerConfig{}, path, fmt.Errorf("parsing config file %s: %w", path, err)
		}
		logging.Info("ConfigLoader", "Loaded configuration from %s", path)
	} else {
		logging.Info("ConfigLoader", "No config file found, using built-in defaults")
	}

	return applyEnvOverrides(cfg), path, nil
}

func applyEnvOverrides(cfg ServerConfig) ServerConfig {
	if host := os.Getenv("HOST"); host != "" {
		cfg.Listener.Host = host
	}
	if port := os.Getenv("PORT"); port != "" {
		var p int
		if _, err := fmt.Sscanf(port, "%d", &p); err == nil {
			cfg.Listener.Port = p
		} else {
			logging.Warn("ConfigLoader", "Ignoring invalid PORT environment value %q", port)
		}
	}
	return cfg
}
