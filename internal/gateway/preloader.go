package gateway

import (
	"context"
	"strings"

	"mcp-gateway/internal/config"
	"mcp-gateway/internal/upstream"
	"mcp-gateway/pkg/logging"

	"github.com/mark3labs/mcp-go/mcp"
	"golang.org/x/sync/errgroup"
)

// instructionsTruncateLen is the length, in runes, past which each
// upstream's instructions excerpt in the aggregated instructions document
// is cut back to the last word boundary and given a trailing "..."
// (spec.md §4.7).
const instructionsTruncateLen = 200

// ProbeResult is one upstream's static startup probe outcome.
type ProbeResult struct {
	Name         string
	Version      string
	Description  string
	Instructions string
	Failed       bool
}

// Skill is one entry from the external skill store, rendered into the
// aggregated instructions document (spec.md §4.7, §4.4).
type Skill struct {
	Name        string
	Description string
}

// ServerInfoPreloader probes every configured upstream once at process
// startup to build the gateway's static instruction text.
type ServerInfoPreloader struct{}

// NewServerInfoPreloader constructs a preloader.
func NewServerInfoPreloader() *ServerInfoPreloader { return &ServerInfoPreloader{} }

// Probe opens a minimal client to every configured upstream in parallel,
// reads its advertised implementation record, and closes it. Best-effort:
// a failed probe yields an entry with just the configured name.
func (p *ServerInfoPreloader) Probe(ctx context.Context, servers map[string]config.UpstreamConfig) []ProbeResult {
	names := make([]string, 0, len(servers))
	for name := range servers {
		names = append(names, name)
	}

	results := make([]ProbeResult, len(names))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		i, name, cfg := i, name, servers[name]
		g.Go(func() error {
			results[i] = p.probeOne(gctx, name, cfg)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (p *ServerInfoPreloader) probeOne(ctx context.Context, name string, cfg config.UpstreamConfig) ProbeResult {
	var client upstream.Client
	if cfg.Kind == config.UpstreamHTTP {
		client = upstream.NewHTTPClient(cfg.URL, cfg.Headers)
	} else {
		client = upstream.NewStdioClient(cfg.Command, cfg.Args, cfg.Env)
	}

	result, err := client.Initialize(ctx, mcp.ClientCapabilities{})
	if err != nil {
		logging.Warn("ServerInfoPreloader", "probe of %s failed: %v", name, err)
		return ProbeResult{Name: name, Failed: true}
	}
	defer func() { _ = client.Close() }()

	return ProbeResult{
		Name:         name,
		Version:      result.ServerInfo.Version,
		Instructions: result.Instructions,
	}
}

// BuildAggregatedInstructions renders the Markdown-style upstream summary
// document (spec.md §4.7).
func (p *ServerInfoPreloader) BuildAggregatedInstructions(entries []ProbeResult) string {
	if len(entries) == 0 {
		return "No upstream servers are configured for this gateway.\n"
	}

	var b strings.Builder
	b.WriteString("# Connected MCP Servers\n\n")
	for _, e := range entries {
		if e.Failed {
			b.WriteString("- **" + e.Name + "**: unavailable during startup probe\n")
			continue
		}
		excerpt := strings.Join(strings.Fields(e.Instructions), " ")
		if runes := []rune(excerpt); len(runes) > instructionsTruncateLen {
			cut := string(runes[:instructionsTruncateLen])
			if i := strings.LastIndex(cut, " "); i > 0 {
				cut = cut[:i]
			}
			excerpt = cut + "..."
		}
		if excerpt == "" {
			b.WriteString("- **" + e.Name + "** (" + e.Version + ")\n")
		} else {
			b.WriteString("- **" + e.Name + "** (" + e.Version + "): " + excerpt + "\n")
		}
	}
	return b.String()
}

// BuildSkillInstructions renders the XML-escaped <available_skills> block
// (spec.md §4.7). Empty input yields empty output.
func (p *ServerInfoPreloader) BuildSkillInstructions(skills []Skill) string {
	if len(skills) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("<available_skills>\n")
	for _, s := range skills {
		b.WriteString("  <skill>\n")
		b.WriteString("    <name>" + xmlEscape(s.Name) + "</name>\n")
		b.WriteString("    <description>" + xmlEscape(s.Description) + "</description>\n")
		b.WriteString("  </skill>\n")
	}
	b.WriteString("</available_skills>\n")
	return b.String()
}

// BuildInstructions combines the aggregated upstream summary and skill
// block into the gateway's single static instruction string.
func (p *ServerInfoPreloader) BuildInstructions(entries []ProbeResult, skills []Skill) string {
	instructions := p.BuildAggregatedInstructions(entries)
	if skillBlock := p.BuildSkillInstructions(skills); skillBlock != "" {
		instructions += "\n" + skillBlock
	}
	return instructions
}

var xmlEscapeReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

func xmlEscape(s string) string {
	return xmlEscapeReplacer.Replace(s)
}
