package main

import (
	"log/slog"

	"github.com/Veraticus/finassist/internal/api"
	"github.com/Veraticus/finassist/internal/cli"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Serve the classification, validation, query and expense endpoints over
HTTP, with Prometheus metrics on /metrics.`,
		RunE: runServe,
	}

	cmd.Flags().String("addr", "", "Listen address (default: server.addr setting)")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	interruptHandler := cli.NewInterruptHandler(cmd.ErrOrStderr(), "Shutting down the server...")
	ctx := interruptHandler.HandleInterrupts(cmd.Context())

	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.close()

	logger := slog.Default()
	server := api.New(a.assistant, api.WithGatherer(a.registry), api.WithLogger(logger))
	return api.Run(ctx, a.cfg.ServerAddr, server.Router(), logger)
}
