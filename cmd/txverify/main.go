package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gabapcia/txverify/internal/config"
	"github.com/gabapcia/txverify/internal/handlers/cli"
	"github.com/gabapcia/txverify/internal/pkg/logger"
	"github.com/gabapcia/txverify/internal/pkg/telemetry"
	"github.com/gabapcia/txverify/internal/pkg/validator"
)

const serviceName = "txverify"

func main() {
	ctx := context.Background()

	cfg, err := config.Load(os.Getenv("TXVERIFY_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(logger.WithLevel(cfg.LogLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	validator.Init()

	if cfg.TelemetryEnabled {
		shutdown, err := telemetry.Init(ctx, serviceName)
		if err != nil {
			logger.Fatal(ctx, "initializing telemetry", "error", err)
		}
		defer shutdown(ctx)
	}

	if err := cli.Run(ctx, cfg); err != nil {
		logger.Error(ctx, "verification aborted", "error", err)
		os.Exit(1)
	}
}
