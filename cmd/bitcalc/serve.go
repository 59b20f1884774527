package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lemonberrylabs/bitcalc/pkg/api"
	grpcapi "github.com/lemonberrylabs/bitcalc/pkg/api/grpc"
	"github.com/lemonberrylabs/bitcalc/web"
)

type serveOptions struct {
	*rootOptions
	Port      int
	GRPCPort  int
	Host      string
	Database  string
	AccessLog bool
}

func newServeCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &serveOptions{rootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the REST API, gRPC service and web UI",
		Long: `Start the calculator servers:

  HTTP  REST API under /v1 and the web UI under /ui
  gRPC  bitcalc.v1.Calculator and grpc.health.v1.Health

Without --db the calculation history is kept in memory.

Example:
  bitcalc serve --port 8080 --db ./history.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Port, "port", 0, "HTTP server port (default 8787, env PORT)")
	cmd.Flags().IntVar(&opts.GRPCPort, "grpc-port", 0, "gRPC server port (default 8788, env GRPC_PORT)")
	cmd.Flags().StringVar(&opts.Host, "host", "", "Bind address (default 0.0.0.0, env HOST)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite history database (env BITCALC_DB)")
	cmd.Flags().BoolVar(&opts.AccessLog, "access-log", false, "log every HTTP request")

	return cmd
}

func runServe(cmd *cobra.Command, opts *serveOptions) error {
	port := envOrDefault("PORT", "8787")
	if opts.Port != 0 {
		port = fmt.Sprintf("%d", opts.Port)
	}

	grpcPort := envOrDefault("GRPC_PORT", "8788")
	if opts.GRPCPort != 0 {
		grpcPort = fmt.Sprintf("%d", opts.GRPCPort)
	}

	host := envOrDefault("HOST", "0.0.0.0")
	if opts.Host != "" {
		host = opts.Host
	}

	dbPath := os.Getenv("BITCALC_DB")
	if opts.Database != "" {
		dbPath = opts.Database
	}

	addr := fmt.Sprintf("%s:%s", host, port)
	grpcAddr := fmt.Sprintf("%s:%s", host, grpcPort)

	h, err := openHistory(dbPath)
	if err != nil {
		return err
	}
	defer closeHistory(h)

	calc := opts.newCalculator(h)
	server := api.New(calc, opts.AccessLog)
	web.New(calc).Register(server.App())

	grpcServer := grpcapi.New(calc)
	errCh := make(chan error, 2)
	go func() {
		slog.Info("gRPC server listening", "addr", grpcAddr)
		if err := grpcServer.Serve(grpcAddr); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("bitcalc listening", "addr", addr, "db", dbPath)
		if err := server.Listen(addr); err != nil {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case err = <-errCh:
		slog.Error("server failed", "error", err)
	}

	grpcServer.GracefulStop()
	if shutdownErr := server.Shutdown(); shutdownErr != nil {
		slog.Error("error during shutdown", "error", shutdownErr)
	}
	if err != nil {
		return wrapExitError(exitCommandError, "server error", err)
	}
	return nil
}
