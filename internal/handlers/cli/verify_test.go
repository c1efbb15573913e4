package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gabapcia/txverify/internal/config"
	"github.com/gabapcia/txverify/internal/pkg/logger"
	"github.com/gabapcia/txverify/internal/pkg/validator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func init() {
	_ = logger.Init(logger.WithLevel("error")) // reduce test output
	validator.Init()
}

var (
	testTxID      = strings.Repeat("a1", 32)
	testBlockHash = strings.Repeat("b1", 32)
)

func artifactLines() []string {
	return []string{
		testTxID,
		"bcrt1qminerminerminerminerminerminer0000",
		"50.0",
		"bcrt1qtradertradertradertradertrader0000",
		"10.0",
		"bcrt1qchangechangechangechangechange0000",
		"39.9999",
		"-0.0001",
		"120",
		testBlockHash,
	}
}

func writeArtifact(t *testing.T, lines []string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "artifact.txt")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600))

	return path
}

// confirmedTransactionJSON is the node's verbose gettransaction view of the
// transaction described by artifactLines.
func confirmedTransactionJSON() string {
	return fmt.Sprintf(`{
		"txid": %[1]q,
		"fee": -0.0001,
		"blockhash": %[2]q,
		"blockheight": 120,
		"decoded": {
			"txid": %[1]q,
			"vin": [{"txid": %[3]q, "vout": 0}],
			"vout": [
				{"value": 39.9999, "n": 0, "scriptPubKey": {"address": "bcrt1qchangechangechangechangechange0000"}},
				{"value": 10.0, "n": 1, "scriptPubKey": {"address": "bcrt1qtradertradertradertradertrader0000"}}
			]
		}
	}`, testTxID, testBlockHash, strings.Repeat("c1", 32))
}

// startNode serves a minimal JSON-RPC wallet endpoint answering gettransaction
// with the given result payload.
func startNode(t *testing.T, result string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     string `json:"id"`
			Method string `json:"method"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "gettransaction", req.Method)

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"jsonrpc": "1.0", "id": %q, "error": null, "result": %s}`, req.ID, result)
	}))
	t.Cleanup(srv.Close)

	return srv
}

func runVerify(t *testing.T, cfg config.Config, args ...string) error {
	t.Helper()

	root := &cli.Command{
		Name:     "txverify",
		Commands: []*cli.Command{verifyCommand(cfg)},
		// keep ExitCoder errors from terminating the test binary
		ExitErrHandler: func(ctx context.Context, c *cli.Command, err error) {},
	}

	return root.Run(context.Background(), append([]string{"txverify", "verify"}, args...))
}

func baseConfig(endpoint string) config.Config {
	return config.Config{
		LogLevel: "info",
		RPC: config.RPC{
			Endpoint: endpoint,
			Username: "rpcuser",
			Password: "rpcpass",
			Timeout:  5 * time.Second,
		},
		Wait: config.Wait{
			Attempts: 3,
			Delay:    10 * time.Millisecond,
		},
	}
}

func TestVerifyCommand(t *testing.T) {
	t.Run("passes when the node view matches the artifact", func(t *testing.T) {
		srv := startNode(t, confirmedTransactionJSON())
		path := writeArtifact(t, artifactLines())

		err := runVerify(t, baseConfig(srv.URL), "--artifact", path)
		assert.NoError(t, err)
	})

	t.Run("exits non-zero when a check fails", func(t *testing.T) {
		tampered := strings.ReplaceAll(confirmedTransactionJSON(), `"value": 10.0`, `"value": 9.5`)
		srv := startNode(t, tampered)
		path := writeArtifact(t, artifactLines())

		err := runVerify(t, baseConfig(srv.URL), "--artifact", path)
		require.Error(t, err)

		var coder cli.ExitCoder
		require.ErrorAs(t, err, &coder)
		assert.Equal(t, 1, coder.ExitCode())
		assert.Contains(t, coder.Error(), "1 reconciliation checks failed")
	})

	t.Run("fails fast on a malformed artifact", func(t *testing.T) {
		srv := startNode(t, confirmedTransactionJSON())
		path := writeArtifact(t, artifactLines()[:9])

		err := runVerify(t, baseConfig(srv.URL), "--artifact", path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "expected 10 lines")
	})

	t.Run("rejects an invalid configuration before any RPC", func(t *testing.T) {
		path := writeArtifact(t, artifactLines())

		cfg := baseConfig("")
		err := runVerify(t, cfg, "--artifact", path)
		require.Error(t, err)
	})

	t.Run("flag overrides take precedence over the base configuration", func(t *testing.T) {
		srv := startNode(t, confirmedTransactionJSON())
		path := writeArtifact(t, artifactLines())

		cfg := baseConfig("http://127.0.0.1:1") // unreachable unless overridden
		cfg.RPC.Timeout = 100 * time.Millisecond

		err := runVerify(t, cfg, "--artifact", path, "--endpoint", srv.URL, "--timeout", "5s")
		assert.NoError(t, err)
	})
}
