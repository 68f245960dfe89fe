package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/statement-reconciler/internal/cli"
	"github.com/eshaffer321/statement-reconciler/internal/infrastructure/config"
	"github.com/eshaffer321/statement-reconciler/internal/infrastructure/logging"
)

func main() {
	configFile := flag.String("config", "config.yaml", "Configuration file path")
	port := flag.Int("port", 0, "Port to listen on (0 = config default)")
	flag.Parse()

	cfg := config.LoadOrEnv_WithPath(*configFile)
	logger := logging.NewLoggerWithSystem(cfg.Observability.Logging, "api")

	gin.SetMode(gin.ReleaseMode)

	rt, err := cli.NewRuntime(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize", slog.Any("error", err))
		os.Exit(1)
	}
	defer rt.Close()

	if err := cli.RunServe(rt, cli.ServeFlags{Port: *port}); err != nil {
		logger.Error("Failed to start server", slog.Any("error", err))
		os.Exit(1)
	}
}
