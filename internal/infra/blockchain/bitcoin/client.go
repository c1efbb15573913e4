// Package bitcoin provides an implementation of the reconcile.TransactionFetcher
// interface for Bitcoin Core compatible node wallets using a JSON-RPC client.
package bitcoin

import (
	"github.com/gabapcia/txverify/internal/pkg/transport/jsonrpc"
	"github.com/gabapcia/txverify/internal/reconcile"
)

// client implements the reconcile.TransactionFetcher interface for Bitcoin
// Core style nodes. It communicates with a node wallet via a JSON-RPC client.
type client struct {
	conn jsonrpc.Client // Underlying JSON-RPC client used to interact with the node wallet
}

// Ensure client implements the reconcile.TransactionFetcher interface at compile time.
var _ reconcile.TransactionFetcher = (*client)(nil)

// NewClient creates a new Bitcoin node client using the provided JSON-RPC
// connection. The connection must point at a wallet endpoint and carry the
// node's Basic-auth credentials.
func NewClient(conn jsonrpc.Client) *client {
	return &client{
		conn: conn,
	}
}
