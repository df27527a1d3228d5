package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"transfer-ledger/api"
)

// retryInterval is how often queued notifications are retried while serving.
const retryInterval = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := getContainer(cmd.Context())
		if err != nil {
			return err
		}
		if c.cfg.Env == "production" {
			gin.SetMode(gin.ReleaseMode)
		}

		handler := api.NewHandler(c.commands, c.queries, api.NewTranslator())
		srv := &http.Server{
			Addr:              c.cfg.Server.Addr,
			Handler:           api.NewRouter(handler, c.metrics, c.logger),
			ReadHeaderTimeout: 5 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go drainNotifications(ctx, c)

		errCh := make(chan error, 1)
		go func() {
			c.logger.Info("server starting", "env", c.cfg.Env, "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("server failed: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		c.logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), c.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		// One last pass so re-queued notifications get a final attempt.
		if c.notifier.Pending() > 0 {
			if err := c.notifier.ProcessQueue(shutdownCtx); err != nil {
				c.logger.Warn("notifications still failing at shutdown", "pending", c.notifier.Pending(), "error", err)
			}
		}
		c.logger.Info("server exited")
		return nil
	},
}

func drainNotifications(ctx context.Context, c *container) {
	ticker := time.NewTicker(retryInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if c.notifier.Pending() == 0 {
				continue
			}
			if err := c.notifier.ProcessQueue(ctx); err != nil {
				c.logger.Debug("notification retry pass failed", "pending", c.notifier.Pending(), "error", err)
			}
		}
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
