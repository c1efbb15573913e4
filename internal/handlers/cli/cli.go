package cli

import (
	"context"
	"os"

	"github.com/gabapcia/txverify/internal/config"

	"github.com/urfave/cli/v3"
)

// Run initializes and executes the txverify CLI application.
//
// It registers all available commands, including:
//
//   - `verify`: Loads an expectation artifact, fetches the confirmed
//     transaction from the node, and reconciles the two.
//
// Parameters:
//   - ctx: Context used to control the lifecycle of the CLI application.
//   - cfg: The base configuration loaded from environment and file; command
//     flags may override individual values.
//
// This function sets up shell completion and invokes the CLI framework to parse and run commands.
func Run(ctx context.Context, cfg config.Config) error {
	app := &cli.Command{
		EnableShellCompletion: true,
		Name:                  "txverify",
		Description:           "Command-line interface for verifying a broadcast transaction against its recorded expectations.",
		Usage:                 "txverify [command] [flags]",
		Commands: []*cli.Command{
			verifyCommand(cfg),
		},
	}

	return app.Run(ctx, os.Args)
}
