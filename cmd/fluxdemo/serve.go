package main

import (
	"github.com/spf13/cobra"

	"github.com/kbukum/fluxkit/bootstrap"
	"github.com/kbukum/fluxkit/observability"
	"github.com/kbukum/fluxkit/server"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the demo streams as Server-Sent Events",
		Long: "Serve the demo streams over HTTP. Each client gets its own subscription\n" +
			"and pulls ?batch items at a time:\n\n" +
			"  curl -N 'http://localhost:8080/streams/range?count=20&batch=5'",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}

			app, err := bootstrap.NewApp(cfg, bootstrap.WithSummaryOutput(cmd.OutOrStdout()))
			if err != nil {
				return err
			}
			srv, err := newServer(app)
			if err != nil {
				return err
			}
			if err := app.RegisterComponent(srv); err != nil {
				return err
			}
			return app.Run(cmd.Context())
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "override server.port")
	return cmd
}

// newServer registers telemetry with app and returns the stream server
// wired to it.
func newServer(app *bootstrap.App[*AppConfig]) (*server.Server, error) {
	cfg := app.Cfg
	tel, err := observability.NewTelemetry(cfg.Observability, cfg.Name, cfg.Version, cfg.Environment)
	if err != nil {
		return nil, err
	}
	if err := app.RegisterComponent(tel); err != nil {
		return nil, err
	}

	srv := server.New(cfg.Server, app.Logger,
		server.WithServiceName(cfg.Name),
		server.WithMetrics(tel.Metrics()),
		server.WithHealthChecker(app.Components.HealthAll),
	)
	if err := registerStreams(srv, cfg.Stream); err != nil {
		return nil, err
	}
	return srv, nil
}
