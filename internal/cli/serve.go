package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/eshaffer321/statement-reconciler/internal/api"
)

const shutdownGrace = 30 * time.Second

// RunServe serves the API until SIGINT or SIGTERM, then drains in-flight requests.
func RunServe(rt *Runtime, flags ServeFlags) error {
	apiCfg := api.Config{
		Port:           rt.Config.Server.Port,
		AllowedOrigins: rt.Config.Server.AllowedOrigins,
	}
	if flags.Port > 0 {
		apiCfg.Port = flags.Port
	}

	var opts []api.Option
	if rt.Registry != nil {
		opts = append(opts, api.WithMetrics(rt.Metrics, rt.Registry))
	}
	server := api.NewServer(apiCfg, rt.Service, rt.Logger, opts...)

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(sigCtx)
	g.Go(server.Start)
	g.Go(func() error {
		<-ctx.Done()
		if sigCtx.Err() != nil {
			rt.Logger.Info("received shutdown signal")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	rt.Logger.Info("server stopped")
	return nil
}
