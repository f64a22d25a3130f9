package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the didagoals application
var rootCmd = &cobra.Command{
	Use:   "didagoals",
	Short: "Goal tracking and task analytics on top of Dida365 or Google Tasks",
	Long: `didagoals is an MCP (Model Context Protocol) server that layers goals,
task matching, progress prediction and analytics on top of a hosted task
service. Goals are stored as tasks in a dedicated project, so they stay
visible in the task app itself.

Supported task services:
  - Dida365 / TickTick OpenAPI (default)
  - Google Tasks`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "didagoals version %s\n" .Version}}`)

	// If no subcommand is provided, run the MCP server over stdio
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
}
