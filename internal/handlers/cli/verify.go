package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/gabapcia/txverify/internal/artifact"
	"github.com/gabapcia/txverify/internal/config"
	"github.com/gabapcia/txverify/internal/infra/blockchain/bitcoin"
	"github.com/gabapcia/txverify/internal/infra/storage/redis"
	"github.com/gabapcia/txverify/internal/pkg/logger"
	"github.com/gabapcia/txverify/internal/pkg/resilience/retry"
	"github.com/gabapcia/txverify/internal/pkg/transport/jsonrpc"
	"github.com/gabapcia/txverify/internal/reconcile"

	"github.com/urfave/cli/v3"
)

// verifyCommand returns the CLI command that runs one full verification:
// artifact load, transaction fetch, reconciliation, and report rendering.
//
// Usage example:
//
//	txverify verify --artifact out.txt --endpoint http://127.0.0.1:18443/wallet/Miner
//
// The process exits non-zero when any reconciliation check fails, or when the
// artifact is malformed or the transaction cannot be fetched.
func verifyCommand(baseCfg config.Config) *cli.Command {
	return &cli.Command{
		Name:        "verify",
		Description: "Verify that a confirmed transaction matches the economic parameters recorded by its builder.",
		Usage:       "Reconciles the expectation artifact against the node's view of the transaction.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "artifact",
				Usage:    "Path to the expectation artifact written by the transaction builder",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "endpoint",
				Usage: "Node wallet RPC endpoint (e.g. http://127.0.0.1:18443/wallet/Miner)",
			},
			&cli.StringFlag{
				Name:  "username",
				Usage: "RPC Basic-auth username",
			},
			&cli.StringFlag{
				Name:  "password",
				Usage: "RPC Basic-auth password",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Timeout for a single RPC request",
			},
			&cli.BoolFlag{
				Name:  "wait",
				Usage: "Retry the fetch while the node does not know the transaction yet",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "Report output format: text or json",
				Value: formatText,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg := overrideConfig(baseCfg, c)
			if err := cfg.Validate(); err != nil {
				return err
			}

			record, err := artifact.Load(c.String("artifact"))
			if err != nil {
				return err
			}

			svc, cleanup, err := buildService(ctx, cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, cancel := timeoutContext(ctx, cfg)
			defer cancel()

			report, err := svc.Verify(ctx, record)
			if err != nil {
				return err
			}

			if err := renderReport(os.Stdout, report, c.String("format")); err != nil {
				return err
			}

			if !report.Passed() {
				return cli.Exit(fmt.Sprintf("%d reconciliation checks failed", len(report.Failures())), 1)
			}

			return nil
		},
	}
}

// overrideConfig applies the command's flags on top of the base configuration.
// Flags take precedence over both file and environment values.
func overrideConfig(cfg config.Config, c *cli.Command) config.Config {
	if endpoint := c.String("endpoint"); endpoint != "" {
		cfg.RPC.Endpoint = endpoint
	}
	if username := c.String("username"); username != "" {
		cfg.RPC.Username = username
	}
	if password := c.String("password"); password != "" {
		cfg.RPC.Password = password
	}
	if timeout := c.Duration("timeout"); timeout > 0 {
		cfg.RPC.Timeout = timeout
	}
	if c.Bool("wait") {
		cfg.Wait.Enabled = true
	}

	return cfg
}

// buildService wires the reconciliation service from the effective
// configuration: JSON-RPC transport, node adapter, optional wait-retry, and
// the optional Redis report store. The returned cleanup function closes any
// opened connections.
func buildService(ctx context.Context, cfg config.Config) (reconcile.Service, func(), error) {
	conn := jsonrpc.NewClient(cfg.RPC.Endpoint,
		jsonrpc.WithVersion("1.0"),
		jsonrpc.WithBasicAuth(cfg.RPC.Username, cfg.RPC.Password),
		jsonrpc.WithTimeout(cfg.RPC.Timeout),
	)
	node := bitcoin.NewClient(conn)

	var opts []reconcile.Option
	if cfg.Wait.Enabled {
		waitRetry := retry.New(
			retry.WithAttempts(cfg.Wait.Attempts),
			retry.WithDelay(cfg.Wait.Delay),
			retry.WithMaxDelay(cfg.Wait.Delay*4),
			retry.WithRetryIf(func(err error) bool {
				return errors.Is(err, reconcile.ErrTransactionNotFound)
			}),
		)
		opts = append(opts, reconcile.WithWaitRetry(waitRetry))
	}

	cleanup := func() {}
	if cfg.Redis.Addr != "" {
		store, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Username, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to report store: %w", err)
		}

		opts = append(opts, reconcile.WithReportNotifiers(store))
		cleanup = func() {
			if err := store.Close(); err != nil {
				logger.Error(ctx, "closing report store", "error", err)
			}
		}
	}

	return reconcile.New(node, opts...), cleanup, nil
}

// timeoutContext bounds ctx by the configured RPC timeout plus the worst-case
// wait budget, so a hung node cannot stall the run indefinitely.
func timeoutContext(ctx context.Context, cfg config.Config) (context.Context, context.CancelFunc) {
	budget := cfg.RPC.Timeout
	if cfg.Wait.Enabled {
		budget += time.Duration(cfg.Wait.Attempts) * (cfg.RPC.Timeout + cfg.Wait.Delay*4)
	}

	return context.WithTimeout(ctx, budget)
}
