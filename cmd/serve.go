package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/giygas/govdata-api/data"
	"github.com/giygas/govdata-api/handlers"
	"github.com/giygas/govdata-api/health"
	"github.com/giygas/govdata-api/logging"
	"github.com/giygas/govdata-api/scheduler"
	"github.com/giygas/govdata-api/server"
	"github.com/giygas/govdata-api/validation"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the scheduled cache warm-ups",
	RunE: func(cmd *cobra.Command, args []string) error {
		cl, err := buildClients(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer cl.Close()

		state := data.NewRefreshState()
		state.SetServerStartTime(time.Now())

		sched := scheduler.NewScheduler(state, cfg.RefreshAt, cl.metastore, cl.mortality, cl.orangebook)
		checker := health.NewHealthChecker(state, cl.cache, cfg.RefreshAt)
		handler := handlers.NewHTTPHandler(cl.metastore, cl.mortality, cl.orangebook, checker, state, validation.NewValidator())
		srv := server.NewServer(cfg, handler)

		go func() {
			if err := sched.Start(); err != nil {
				logging.Error("Scheduler failed to start", "error", err)
			}
		}()
		defer sched.Stop()

		// Channel to listen for interrupt signals
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		errCh := make(chan error, 1)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()

		select {
		case <-quit:
		case err := <-errCh:
			logging.Error("Server failed to start", "error", err)
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		return srv.Shutdown(ctx)
	},
}
