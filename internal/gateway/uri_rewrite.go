package gateway

import "github.com/mark3labs/mcp-go/mcp"

// rewriteToolResultURIs rewrites the uri field of every resource_link or
// embedded-resource content block in result, in place, from X to
// mcp://{serverName}/X (spec.md §4.4, §9). Every other content kind is left
// untouched; the gateway never validates upstream schemas, only rewrites
// URIs inside these known content-block kinds.
func rewriteToolResultURIs(result *mcp.CallToolResult, serverName string) {
	if result == nil {
		return
	}
	for i, c := range result.Content {
		result.Content[i] = rewriteContentBlockURI(c, serverName)
	}
}

func rewriteContentBlockURI(c mcp.Content, serverName string) mcp.Content {
	if resource, ok := mcp.AsEmbeddedResource(c); ok {
		resource.Resource = rewriteResourceContentURI(resource.Resource, serverName)
		return resource
	}
	switch v := c.(type) {
	case mcp.ResourceLink:
		v.URI = namespacedResourceURI(serverName, v.URI)
		return v
	default:
		return c
	}
}
