package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/orgraph/dispatch/internal/feed"
	"github.com/orgraph/dispatch/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dispatcher: HTTP surface, startup scan, optional Kafka feed",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	rt, err := buildRuntime(cfg)
	if err != nil {
		return err
	}
	defer rt.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Startup scan after the stabilization delay; it queues on the same
	// gate as inbound deltas.
	go rt.pipeline.StartupScan(ctx, cfg.Dispatch.StartupDelay())

	if cfg.Feed.Enabled {
		consumer := feed.NewConsumer(cfg.Feed.Brokers, cfg.Feed.GroupID, cfg.Feed.InsertsTopic, cfg.Feed.DeletesTopic)
		consumer.Start(ctx)
		defer consumer.Close()
		go func() {
			if err := consumer.Run(ctx, rt.pipeline); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("feed stopped", "error", err)
			}
		}()
		slog.Info("Kafka feed started",
			"brokers", cfg.Feed.Brokers,
			"inserts_topic", cfg.Feed.InsertsTopic,
			"deletes_topic", cfg.Feed.DeletesTopic)
	}

	srv := server.New(rt.pipeline, rt.store)
	httpSrv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: srv.Handler(),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpSrv.Shutdown(shutdownCtx)
	}()

	slog.Info("dispatchd listening", "addr", httpSrv.Addr, "store", cfg.Store.QueryURL)
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
