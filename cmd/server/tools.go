package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/FileSystemMCP/internal/infrastructure/config"
	"github.com/GriffinCanCode/FileSystemMCP/internal/infrastructure/logging"
	"github.com/GriffinCanCode/FileSystemMCP/internal/infrastructure/server"
	"github.com/GriffinCanCode/FileSystemMCP/internal/shared/types"
)

func newToolsCmd() *cobra.Command {
	var asJSON, noColor bool

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the available tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			cfg.Transport = config.TransportHTTP
			srv, err := server.New(cfg, version, server.WithLogger(logging.NewNop()))
			if err != nil {
				return err
			}
			services := srv.Registry().List(nil)

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(services)
			}
			if noColor {
				color.NoColor = true
			}
			printCatalogue(out, services)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print service definitions as JSON")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colour output")
	return cmd
}

func printCatalogue(w io.Writer, services []types.Service) {
	heading := color.New(color.FgCyan, color.Bold)
	name := color.New(color.FgGreen)
	muted := color.New(color.FgHiBlack)
	readOnly := color.New(color.FgYellow)
	destructive := color.New(color.FgRed)

	for i, svc := range services {
		if i > 0 {
			fmt.Fprintln(w)
		}
		heading.Fprintf(w, "%s", svc.ID)
		muted.Fprintf(w, "  %s (%d tools)\n", svc.Name, len(svc.Tools))

		for _, tool := range svc.Tools {
			fmt.Fprint(w, "  ")
			name.Fprint(w, tool.ID)
			switch {
			case tool.Destructive:
				destructive.Fprint(w, " [destructive]")
			case tool.ReadOnly:
				readOnly.Fprint(w, " [read-only]")
			}
			fmt.Fprintln(w)
			fmt.Fprintf(w, "      %s\n", tool.Description)
			if len(tool.Parameters) > 0 {
				muted.Fprintf(w, "      params: %s\n", formatParams(tool.Parameters))
			}
		}
	}
}

// formatParams renders "path*: string, overwrite: boolean"; * marks required
func formatParams(params []types.Parameter) string {
	parts := make([]string, 0, len(params))
	for _, p := range params {
		label := p.Name
		if p.Required {
			label += "*"
		}
		parts = append(parts, label+": "+p.Type)
	}
	return strings.Join(parts, ", ")
}
