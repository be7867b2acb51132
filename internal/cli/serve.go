package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ayusman/twingest/internal/app"
	"github.com/ayusman/twingest/pkg/logger"
	"github.com/ayusman/twingest/pkg/metrics"
)

func newServeCommand(flags *globalFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and websocket server",
		Long: `Run the gesture engine. Browsers connect to /ws/input and stream input
events; detections are written back on the same socket.

Examples:
  twingest serve
  twingest serve --addr :9000 --config twingest.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}

			log := logger.Get()
			a, err := app.New(cfg,
				app.WithLogger(log),
				app.WithMetrics(metrics.NewManager(metrics.WithMetricsEnabled(cfg.MetricsEnabled))),
			)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := a.Run(ctx); err != nil {
				log.Error(ctx, "server stopped with error", logger.Error(err))
				return err
			}
			log.Info(context.Background(), "server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides addr)")
	return cmd
}
