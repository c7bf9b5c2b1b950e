package cli

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"incentive-engine/internal/handler"
)

const (
	shutdownTimeout  = 10 * time.Second
	limiterSweep     = time.Minute
	limiterIdleAfter = 10 * time.Minute
)

func newServeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve dashboard view-models over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ln, err := net.Listen("tcp4", ":"+app.Config.Port)
			if err != nil {
				return fmt.Errorf("listen on port %s: %w", app.Config.Port, err)
			}
			return serve(ctx, ln, app)
		},
	}
}

// serve runs the HTTP server on ln until ctx is done, then shuts it down.
func serve(ctx context.Context, ln net.Listener, app *App) error {
	log := app.Logger
	if log == nil {
		log = zap.NewNop()
	}

	h := handler.New(handler.Options{
		Service:        app.Views,
		Metrics:        app.Metrics,
		Logger:         log,
		RateLimit:      app.Config.RateLimit,
		RequestTimeout: 3 * app.Config.Upstream.Timeout,
	})
	srv := &fasthttp.Server{
		Handler:      h.Handle,
		Name:         "incentive-engine",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  time.Minute,
	}

	go func() {
		t := time.NewTicker(limiterSweep)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if n := h.Limiter().Cleanup(limiterIdleAfter); n > 0 {
					log.Debug("Dropped idle rate limiters", zap.Int("count", n))
				}
			}
		}
	}()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	log.Info("Incentive engine listening", zap.String("addr", ln.Addr().String()))

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.ShutdownWithContext(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
