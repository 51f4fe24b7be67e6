package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iwvelando/forecast-dashboard/internal/metrics"
	"github.com/iwvelando/forecast-dashboard/internal/server"
	"github.com/iwvelando/forecast-dashboard/internal/session"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const minPruneInterval = time.Minute

func newServeCommand(opts *rootOptions) *cobra.Command {
	var address string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web dashboard",
		Long: `Start the web dashboard.

The dashboard serves four tabs (Grid Search, Perbandingan Model, Forecast 2025
and Visualisasi Data) backed by spreadsheets uploaded per browser session.
Uploads are held in memory and expire after the configured session TTL.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, logger, err := opts.load()
			if err != nil {
				return err
			}
			defer func() {
				_ = logger.Sync()
			}()

			if address != "" {
				conf.Server.Address = address
			}

			collector, err := metrics.NewCollector()
			if err != nil {
				return err
			}
			store := session.NewStore(logger, conf.Server.SessionTTL)
			handler := server.NewHandler(logger, conf, store, collector, version)
			srv := server.New(conf.Server, logger, handler)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return srv.Start()
			})
			g.Go(func() error {
				pruneSessions(gctx, store, collector, pruneInterval(conf.Server.SessionTTL))
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				logger.Info("stopping dashboard",
					zap.String("op", "main.serve"),
					zap.NamedError("cause", context.Cause(gctx)),
				)
				return srv.Shutdown(context.Background())
			})
			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&address, "address", "", "listen address override, e.g. :8080")

	return cmd
}

// pruneInterval checks for expired sessions four times per TTL.
func pruneInterval(ttl time.Duration) time.Duration {
	interval := ttl / 4
	if interval < minPruneInterval {
		return minPruneInterval
	}
	return interval
}

func pruneSessions(ctx context.Context, store *session.Store, collector *metrics.Collector, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			store.Prune()
			collector.Sessions(store.Len())
		}
	}
}
