package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	apigrpc "github.com/GriffinCanCode/FileSystemMCP/internal/api/grpc"
)

func newCallCmd() *cobra.Command {
	var (
		addr    string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "call <tool_id> [params-json]",
		Short: "Call a tool on a running server over gRPC",
		Example: `  filesystem-mcp call filesystem.get_current_directory
  filesystem-mcp call filesystem.read_file_contents '{"path":"/etc/hostname"}'`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var params map[string]any
			if len(args) == 2 {
				if err := json.Unmarshal([]byte(args[1]), &params); err != nil {
					return fmt.Errorf("params must be a JSON object: %w", err)
				}
			}

			client, err := apigrpc.NewClient(addr)
			if err != nil {
				return err
			}
			defer client.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			result, err := client.CallTool(ctx, args[0], params, "")
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "localhost:50061", "gRPC address of the server")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "call timeout")
	return cmd
}
