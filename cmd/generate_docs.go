package cmd

import (
	"context"
	"fmt"
	"maps"
	"net/http"
	"os"
	"slices"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/teemow/didagoals/internal/dida"
	"github.com/teemow/didagoals/internal/logging"
	"github.com/teemow/didagoals/internal/server"
	"github.com/teemow/didagoals/internal/tools/analytics_tools"
	"github.com/teemow/didagoals/internal/tools/goal_tools"
)

func newGenerateDocsCmd() *cobra.Command {
	var outputFile string

	cmd := &cobra.Command{
		Use:   "generate-docs",
		Short: "Generate MCP tool documentation",
		Long: `Write a markdown reference of every goal and analytics tool, including
the write tools hidden by --read-only. The reference is built from the
registered tool definitions.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerateDocs(outputFile)
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

// toolCategory is a group of tools documented under one heading.
type toolCategory struct {
	Name  string
	Tools []mcp.Tool
}

// collectToolCategories registers every tool group on its own server and
// returns the tools per group. Write tools are included.
func collectToolCategories(sc *server.ServerContext) ([]toolCategory, error) {
	groups := []struct {
		name     string
		register func(*mcpserver.MCPServer) error
	}{
		{
			name: "Goal Tools",
			register: func(s *mcpserver.MCPServer) error {
				return goal_tools.RegisterGoalTools(s, sc, false)
			},
		},
		{
			name: "Analytics Tools",
			register: func(s *mcpserver.MCPServer) error {
				return analytics_tools.RegisterAnalyticsTools(s, sc)
			},
		},
	}

	categories := make([]toolCategory, 0, len(groups))
	for _, g := range groups {
		s := mcpserver.NewMCPServer("didagoals", version, mcpserver.WithToolCapabilities(true))
		if err := g.register(s); err != nil {
			return nil, fmt.Errorf("failed to register %s: %w", g.name, err)
		}
		serverTools := s.ListTools()
		tools := make([]mcp.Tool, 0, len(serverTools))
		for _, st := range serverTools {
			tools = append(tools, st.Tool)
		}
		slices.SortFunc(tools, func(a, b mcp.Tool) int { return strings.Compare(a.Name, b.Name) })
		categories = append(categories, toolCategory{Name: g.name, Tools: tools})
	}
	return categories, nil
}

func runGenerateDocs(outputFile string) error {
	// The source is never called while registering tools, so no credentials
	// are needed.
	serverContext, err := server.NewServerContext(context.Background(), server.Dependencies{
		Source: dida.NewClient(http.DefaultClient),
		Logger: logging.DiscardLogger(),
	})
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		_ = serverContext.Shutdown()
	}()

	categories, err := collectToolCategories(serverContext)
	if err != nil {
		return err
	}
	markdown := generateToolsMarkdown(categories)

	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(markdown), 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Documentation written to: %s\n", outputFile)
	} else {
		fmt.Print(markdown)
	}

	return nil
}

func generateToolsMarkdown(categories []toolCategory) string {
	var sb strings.Builder

	sb.WriteString("# MCP Tools Reference\n\n")
	sb.WriteString("Tools exposed by `didagoals serve`. Generated from the tool definitions by `didagoals generate-docs`.\n\n")

	for _, c := range categories {
		fmt.Fprintf(&sb, "- [%s](#%s)\n", c.Name, strings.ToLower(strings.ReplaceAll(c.Name, " ", "-")))
	}

	sb.WriteString("\n## Read-Only Mode\n\n")
	sb.WriteString("With `--read-only`, `create_goal`, `update_goal`, `delete_goal` and `record_goal_progress` ")
	sb.WriteString("are not registered. All analytics tools stay available.\n\n")

	for _, c := range categories {
		fmt.Fprintf(&sb, "## %s\n\n", c.Name)
		for _, tool := range c.Tools {
			writeToolMarkdown(&sb, tool)
		}
	}
	return sb.String()
}

// writeToolMarkdown writes one tool section with its arguments in name
// order.
func writeToolMarkdown(sb *strings.Builder, tool mcp.Tool) {
	fmt.Fprintf(sb, "### %s\n\n", tool.Name)
	if tool.Description != "" {
		fmt.Fprintf(sb, "%s\n\n", tool.Description)
	}

	props := tool.InputSchema.Properties
	if len(props) > 0 {
		sb.WriteString("**Arguments:**\n")
		for _, name := range slices.Sorted(maps.Keys(props)) {
			prop, ok := props[name].(map[string]any)
			if !ok {
				continue
			}
			typ, _ := prop["type"].(string)
			if typ == "" {
				typ = "any"
			}
			presence := "optional"
			if slices.Contains(tool.InputSchema.Required, name) {
				presence = "required"
			}
			desc, _ := prop["description"].(string)
			fmt.Fprintf(sb, "- `%s` (%s, %s): %s\n", name, typ, presence, desc)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
}
