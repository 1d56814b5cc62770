package gateway

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mark3labs/mcp-go/mcp"
)

// exampleStringTemplate turns a schema property's name into a placeholder
// string value, the same sprig-backed text/template approach the teacher's
// template engine uses for its own string rendering.
var exampleStringTemplate = template.Must(
	template.New("example-arg").Funcs(sprig.TxtFuncMap()).Parse(`example-{{ . | kebabcase }}`),
)

// Formatter renders the text listings consumed by the meta-tools
// (spec.md §4.9). Stateless, safe for concurrent use.
type Formatter struct{}

// NewFormatter constructs a Formatter.
func NewFormatter() *Formatter { return &Formatter{} }

// FormatServerList renders the list-servers meta-tool output.
func (f *Formatter) FormatServerList(entries []ServerEntry) string {
	if len(entries) == 0 {
		return "No upstream servers configured.\n"
	}

	t := f.newTable()
	t.AppendHeader(table.Row{
		text.FgHiCyan.Sprint("SERVER"),
		text.FgHiCyan.Sprint("VERSION"),
		text.FgHiCyan.Sprint("STATUS"),
	})

	for _, e := range entries {
		if e.Error != "" {
			t.AppendRow(table.Row{
				text.FgHiCyan.Sprint(e.LuaIdentifier),
				"-",
				text.FgRed.Sprint("failed: " + e.Error),
			})
			continue
		}
		t.AppendRow(table.Row{
			text.FgHiCyan.Sprint(e.LuaIdentifier),
			e.Version,
			text.FgGreen.Sprint("connected"),
		})
	}

	var out strings.Builder
	t.SetOutputMirror(&out)
	t.Render()

	for _, e := range entries {
		if e.Error == "" && e.Instructions != "" {
			out.WriteString(fmt.Sprintf("\n%s: %s\n", e.LuaIdentifier, truncateExcerpt(e.Instructions, defaultExcerptLen)))
		}
	}

	return out.String()
}

// FormatToolList renders the list-server-tools meta-tool output for one
// upstream.
func (f *Formatter) FormatToolList(serverName string, entries []ToolEntry) string {
	if len(entries) == 0 {
		return fmt.Sprintf("%s exposes no tools.\n", serverName)
	}

	t := f.newTable()
	t.AppendHeader(table.Row{
		text.FgHiCyan.Sprint("TOOL"),
		text.FgHiCyan.Sprint("DESCRIPTION"),
	})
	for _, e := range entries {
		t.AppendRow(table.Row{
			text.FgHiCyan.Sprint(e.LuaName),
			truncateExcerpt(e.Description, defaultExcerptLen),
		})
	}

	var out strings.Builder
	t.SetOutputMirror(&out)
	t.Render()
	out.WriteString(fmt.Sprintf("\n%d tools from %s\n", len(entries), serverName))
	return out.String()
}

// FormatToolDetails renders the tool-details meta-tool output: description,
// schema, and a generated example-arguments block (spec.md §4.5).
func (f *Formatter) FormatToolDetails(serverName string, tool mcp.Tool) string {
	var out strings.Builder

	t := f.newTable()
	t.AppendHeader(table.Row{text.FgHiCyan.Sprint("FIELD"), text.FgHiCyan.Sprint("VALUE")})
	t.AppendRow(table.Row{"Server", serverName})
	t.AppendRow(table.Row{"Tool", text.FgHiCyan.Sprint(tool.Name)})
	t.AppendRow(table.Row{"Description", tool.Description})

	schemaBytes, _ := json.MarshalIndent(tool.InputSchema, "", "  ")
	t.AppendRow(table.Row{"Input Schema", string(schemaBytes)})

	t.SetOutputMirror(&out)
	t.Render()

	out.WriteString("\nExample arguments:\n")
	out.WriteString(generateExampleArgs(tool.InputSchema))

	return out.String()
}

// FormatInspectResult renders the inspect-tool-response meta-tool output: a
// shape-only view of a sample tool call result so callers can write
// extraction scripts without dumping the full payload.
func (f *Formatter) FormatInspectResult(serverName, toolName string, result *mcp.CallToolResult) string {
	var out strings.Builder
	out.WriteString(fmt.Sprintf("Response shape for %s on %s:\n", toolName, serverName))
	out.WriteString(fmt.Sprintf("  isError: %v\n", result.IsError))
	out.WriteString(fmt.Sprintf("  content blocks: %d\n", len(result.Content)))
	for i, c := range result.Content {
		out.WriteString(fmt.Sprintf("    [%d] %s\n", i, describeContentShape(c)))
	}
	return out.String()
}

func describeContentShape(c mcp.Content) string {
	if text, ok := mcp.AsTextContent(c); ok {
		return fmt.Sprintf("text (%d chars)", len(text.Text))
	}
	if img, ok := mcp.AsImageContent(c); ok {
		return fmt.Sprintf("image (%s, %d bytes)", img.MIMEType, len(img.Data))
	}
	if audio, ok := mcp.AsAudioContent(c); ok {
		return fmt.Sprintf("audio (%s, %d bytes)", audio.MIMEType, len(audio.Data))
	}
	if resource, ok := mcp.AsEmbeddedResource(c); ok {
		return fmt.Sprintf("resource (%T)", resource.Resource)
	}
	switch v := c.(type) {
	case mcp.ResourceLink:
		return fmt.Sprintf("resource_link (%s)", v.URI)
	default:
		return "unknown"
	}
}

// generateExampleArgs builds a JSON example with a placeholder value for
// every declared property of an input schema, chosen by its declared type.
func generateExampleArgs(schema mcp.ToolInputSchema) string {
	if len(schema.Properties) == 0 {
		return "{}\n"
	}

	example := make(map[string]interface{}, len(schema.Properties))
	for name, raw := range schema.Properties {
		propMap, ok := raw.(map[string]interface{})
		if !ok {
			example[name] = exampleValueForProperty(name, "string")
			continue
		}
		typeName, _ := propMap["type"].(string)
		example[name] = exampleValueForProperty(name, typeName)
	}

	jsonBytes, err := json.MarshalIndent(example, "", "  ")
	if err != nil {
		return "{}\n"
	}
	return string(jsonBytes) + "\n"
}

func exampleValueForProperty(name, typeName string) interface{} {
	switch typeName {
	case "number", "integer":
		return 0
	case "boolean":
		return false
	case "array":
		return []interface{}{}
	case "object":
		return map[string]interface{}{}
	default:
		return renderExampleString(name)
	}
}

// renderExampleString runs exampleStringTemplate, falling back to a static
// placeholder if the property name somehow isn't valid template input.
func renderExampleString(propertyName string) string {
	var out strings.Builder
	if err := exampleStringTemplate.Execute(&out, propertyName); err != nil {
		return "example"
	}
	return out.String()
}

func (f *Formatter) newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	return t
}
