package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/FileSystemMCP/internal/infrastructure/config"
	"github.com/GriffinCanCode/FileSystemMCP/internal/infrastructure/server"
)

// serveOptions are flags shared by the root command and serve. Flags
// override the config file and environment.
type serveOptions struct {
	configPath string
	transport  string
	port       string
	grpcAddr   string
	dev        bool
}

func (o *serveOptions) bind(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVarP(&o.configPath, "config", "c", "", "config file (.yaml, .yml or .toml)")
	flags.StringVarP(&o.transport, "transport", "t", config.TransportStdio, "transport: stdio or http")
	flags.StringVarP(&o.port, "port", "p", "", "HTTP port (default from config)")
	flags.StringVar(&o.grpcAddr, "grpc-addr", "", "also serve gRPC on this address")
	flags.BoolVar(&o.dev, "dev", false, "development logging (console, debug level)")
}

func newServeCmd(opts *serveOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the filesystem tools",
		Example: `  filesystem-mcp serve
  filesystem-mcp serve --transport http --port 8000
  filesystem-mcp serve -t http --grpc-addr :50061 --config fsmcp.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}
}

func runServe(cmd *cobra.Command, opts *serveOptions) error {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("transport") {
		cfg.Transport = opts.transport
	}
	if flags.Changed("port") {
		cfg.Server.Port = opts.port
	}
	if flags.Changed("grpc-addr") {
		cfg.GRPC.Enabled = true
		cfg.GRPC.Address = opts.grpcAddr
	}
	if flags.Changed("dev") {
		cfg.Logging.Development = opts.dev
		if opts.dev {
			cfg.Logging.Level = "debug"
		}
	}

	srv, err := server.New(cfg, version)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx, os.Stdin, os.Stdout); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFile(path)
}
