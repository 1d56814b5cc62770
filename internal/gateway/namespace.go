package gateway

import (
	"strings"

	"mcp-gateway/internal/gwerrors"
)

// sanitizeIdentifier makes a name Lua-identifier-safe the way spec.md §3
// requires for tool namespacing: hyphens become underscores. No other
// character class is touched; the upstream tool/server name is expected to
// already be wire-safe otherwise.
func sanitizeIdentifier(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}

// namespacedToolName builds the downstream-visible tool identifier for one
// upstream tool: "{serverName}_{toolName}" with hyphens in both halves
// replaced by underscores (spec.md §3, §6).
func namespacedToolName(serverName, toolName string) string {
	return sanitizeIdentifier(serverName) + "_" + sanitizeIdentifier(toolName)
}

// resolveToolName recovers (serverName, originalToolName) from a namespaced
// tool name by matching its sanitized prefix against the sanitized names of
// the servers present in candidateServers, then matching the remaining
// suffix against that server's live tool list under the same sanitization.
// No mapping table is stored; recovery is always against current state.
//
// candidateServers maps each live server name to its current (unsanitized)
// tool names.
func resolveToolName(namespacedName string, candidateServers map[string][]string) (serverName, originalToolName string, err error) {
	for server, tools := range candidateServers {
		prefix := sanitizeIdentifier(server) + "_"
		if !strings.HasPrefix(namespacedName, prefix) {
			continue
		}
		sanitizedRemainder := strings.TrimPrefix(namespacedName, prefix)
		for _, tool := range tools {
			if sanitizeIdentifier(tool) == sanitizedRemainder {
				return server, tool, nil
			}
		}
	}

	available := make([]string, 0, len(candidateServers))
	for server := range candidateServers {
		available = append(available, server)
	}
	return "", "", &gwerrors.NotFound{What: "tool", Name: namespacedName, Available: available}
}

// namespacedPromptName builds "{serverName}/{originalPromptName}".
func namespacedPromptName(serverName, promptName string) string {
	return serverName + "/" + promptName
}

// resolvePromptName splits a namespaced prompt name on the first "/"; the
// remainder (which may itself contain "/") is the original name.
func resolvePromptName(namespacedName string) (serverName, originalName string, err error) {
	idx := strings.Index(namespacedName, "/")
	if idx <= 0 || idx == len(namespacedName)-1 {
		return "", "", &gwerrors.InvalidFormat{Expected: "{serverName}/{promptName}", Got: namespacedName}
	}
	return namespacedName[:idx], namespacedName[idx+1:], nil
}

const resourceScheme = "mcp://"

// namespacedResourceURI builds "mcp://{serverName}/{originalUri}".
func namespacedResourceURI(serverName, originalURI string) string {
	return resourceScheme + serverName + "/" + originalURI
}

// resolveResourceURI splits a namespaced resource URI after the mcp://
// scheme on the first "/"; the remainder (which may contain ":", "/",
// query components) is the original URI.
func resolveResourceURI(namespacedURI string) (serverName, originalURI string, err error) {
	if !strings.HasPrefix(namespacedURI, resourceScheme) {
		return "", "", &gwerrors.InvalidFormat{Expected: "mcp://{serverName}/{originalUri}", Got: namespacedURI}
	}
	rest := strings.TrimPrefix(namespacedURI, resourceScheme)
	idx := strings.Index(rest, "/")
	if idx <= 0 || idx == len(rest)-1 {
		return "", "", &gwerrors.InvalidFormat{Expected: "mcp://{serverName}/{originalUri}", Got: namespacedURI}
	}
	return rest[:idx], rest[idx+1:], nil
}
