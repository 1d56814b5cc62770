package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	userConfigDir  = ".config/mcp-gateway"
	configFileName = "config.yaml"
)

// CandidatePath is one entry in the ordered config-file search list.
type CandidatePath struct {
	Path   string
	Exists bool
}

// SearchPaths returns the ordered list of candidate config file locations,
// highest precedence first:
//  1. CONFIG_PATH environment variable, if set.
//  2. explicitPath (app.Config.ConfigPath), if non-empty. An existing
//     directory is joined with config.yaml; any other path is used as-is.
//     The --config-path/-c flag is a boolean and supplies no path here.
//  3. $HOME/.config/mcp-gateway/config.yaml
//  4. ./config.yaml
func SearchPaths(explicitPath string) []CandidatePath {
	var paths []string

	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		paths = append(paths, envPath)
	}

	if explicitPath != "" {
		paths = append(paths, resolveExplicitPath(explicitPath))
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(homeDir, userConfigDir, configFileName))
	}

	paths = append(paths, filepath.Join(".", configFileName))

	candidates := make([]CandidatePath, 0, len(paths))
	for _, p := range paths {
		_, err := os.Stat(p)
		candidates = append(candidates, CandidatePath{Path: p, Exists: err == nil})
	}
	return candidates
}

// resolveExplicitPath joins an existing directory with the config file
// name; any other path (a file, or one that does not exist) is used verbatim.
func resolveExplicitPath(p string) string {
	info, err := os.Stat(p)
	if err == nil && info.IsDir() {
		return filepath.Join(p, configFileName)
	}
	return p
}

// FirstExisting returns the highest-precedence candidate that exists, or
// the highest-precedence candidate (to use as a "load defaults" location)
// if none exist.
func FirstExisting(candidates []CandidatePath) (string, bool) {
	for _, c := range candidates {
		if c.Exists {
			return c.Path, true
		}
	}
	if len(candidates) == 0 {
		return "", false
	}
	return candidates[0].Path, false
}

// FormatSearchPaths renders the candidates the way --config-path prints
// them: one annotated line per candidate.
func FormatSearchPaths(candidates []CandidatePath) string {
	out := ""
	for _, c := range candidates {
		status := "not found"
		if c.Exists {
			status = "exists"
		}
		out += fmt.Sprintf("%s (%s)\n", c.Path, status)
	}
	return out
}
