package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// set with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &serveOptions{}

	root := &cobra.Command{
		Use:   "filesystem-mcp",
		Short: "Filesystem tools over MCP, HTTP and gRPC",
		Long: `filesystem-mcp exposes file and directory operations on the host as tools.

Without a subcommand it serves MCP over stdio, which is how MCP clients
launch it. Use "serve --transport http" for the HTTP and WebSocket API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}
	opts.bind(root)

	root.AddCommand(
		newServeCmd(opts),
		newToolsCmd(),
		newCallCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "filesystem-mcp %s\n", version)
		},
	}
}
