package bitcoin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gabapcia/txverify/internal/pkg/transport/jsonrpc"
	"github.com/gabapcia/txverify/internal/reconcile"

	"github.com/shopspring/decimal"
)

// walletTransactionNotFoundCode is the JSON-RPC error code Bitcoin Core
// returns for an invalid or non-wallet transaction id.
const walletTransactionNotFoundCode = -5

type (
	// ScriptPubKeyResponse carries the destination script of a decoded output.
	// Only the address is relevant here; script validation is out of scope.
	ScriptPubKeyResponse struct {
		Address string `json:"address"`
	}

	// VinResponse represents a decoded transaction input.
	VinResponse struct {
		TxID string `json:"txid"`
		Vout uint32 `json:"vout"`
	}

	// VoutResponse represents a decoded transaction output.
	VoutResponse struct {
		Value        decimal.Decimal      `json:"value"`
		N            uint32               `json:"n"`
		ScriptPubKey ScriptPubKeyResponse `json:"scriptPubKey"`
	}

	// DecodedResponse is the decoded transaction body included when
	// gettransaction is called with verbose=true.
	DecodedResponse struct {
		TxID string         `json:"txid"`
		Vin  []VinResponse  `json:"vin"`
		Vout []VoutResponse `json:"vout"`
	}

	// TransactionResponse represents the result object of a verbose
	// gettransaction call against a node wallet.
	TransactionResponse struct {
		TxID        string           `json:"txid"`
		Fee         decimal.Decimal  `json:"fee"` // wallet perspective, negative for sends; zero when absent
		BlockHash   string           `json:"blockhash"`
		BlockHeight int64            `json:"blockheight"`
		Decoded     *DecodedResponse `json:"decoded"`
	}
)

// toReconcileTransaction converts a TransactionResponse into the engine's
// transaction model. It fails with reconcile.ErrMalformedTransaction when the
// decoded body or its output list is absent, so reconciliation never operates
// on a partially decoded transaction.
func (t TransactionResponse) toReconcileTransaction() (reconcile.Transaction, error) {
	if t.Decoded == nil {
		return reconcile.Transaction{}, fmt.Errorf("%w: missing decoded body", reconcile.ErrMalformedTransaction)
	}

	if t.Decoded.Vout == nil {
		return reconcile.Transaction{}, fmt.Errorf("%w: missing decoded outputs", reconcile.ErrMalformedTransaction)
	}

	inputs := make([]reconcile.TxInput, len(t.Decoded.Vin))
	for i, vin := range t.Decoded.Vin {
		inputs[i] = reconcile.TxInput{
			TxID: vin.TxID,
			Vout: vin.Vout,
		}
	}

	outputs := make([]reconcile.TxOutput, len(t.Decoded.Vout))
	for i, vout := range t.Decoded.Vout {
		outputs[i] = reconcile.TxOutput{
			Address: vout.ScriptPubKey.Address,
			Value:   vout.Value,
		}
	}

	return reconcile.Transaction{
		TxID:        t.TxID,
		BlockHeight: t.BlockHeight,
		BlockHash:   t.BlockHash,
		Fee:         t.Fee,
		Inputs:      inputs,
		Outputs:     outputs,
	}, nil
}

// FetchTransaction implements the reconcile.TransactionFetcher interface.
//
// It issues a verbose gettransaction call so the node includes the decoded
// input and output lists, and defensively verifies that the node answered for
// the requested transaction id.
func (c *client) FetchTransaction(ctx context.Context, txID string) (reconcile.Transaction, error) {
	data, err := c.conn.Fetch(ctx, "gettransaction", txID, nil, true)
	if err != nil {
		if isNotFound(err) {
			return reconcile.Transaction{}, fmt.Errorf("%w: %s", reconcile.ErrTransactionNotFound, txID)
		}

		return reconcile.Transaction{}, err
	}

	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return reconcile.Transaction{}, fmt.Errorf("%w: %s", reconcile.ErrTransactionNotFound, txID)
	}

	var txResponse TransactionResponse
	if err := json.Unmarshal(data, &txResponse); err != nil {
		return reconcile.Transaction{}, fmt.Errorf("%w: %w", reconcile.ErrMalformedTransaction, err)
	}

	if txResponse.TxID != txID {
		return reconcile.Transaction{}, fmt.Errorf("%w: requested %s, node answered %s",
			reconcile.ErrTransactionMismatch, txID, txResponse.TxID)
	}

	return txResponse.toReconcileTransaction()
}

// isNotFound reports whether a provider error is Bitcoin Core's
// invalid-or-non-wallet-transaction error. The transport formats provider
// errors as "[code] - message", which is the only place the code survives.
func isNotFound(err error) bool {
	return errors.Is(err, jsonrpc.ErrProviderReturnedError) &&
		strings.Contains(err.Error(), fmt.Sprintf("[%d]", walletTransactionNotFoundCode))
}
