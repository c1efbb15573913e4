// Package reconcile implements the reconciliation engine: it compares the
// economic parameters a transaction builder recorded against the transaction
// a node actually confirmed, and reports one verdict per check.
package reconcile

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrTransactionNotFound indicates the node has no transaction for the
// requested id. This can be transient right after broadcast, before the
// wallet has seen the transaction.
var ErrTransactionNotFound = errors.New("transaction not found")

// ErrTransactionMismatch indicates the node answered with a transaction whose
// id differs from the requested one. This is a defensive signal against a
// misconfigured endpoint or wallet context.
var ErrTransactionMismatch = errors.New("transaction id mismatch")

// ErrMalformedTransaction indicates the node response is missing required
// decoded fields (e.g. no decoded output list) and cannot be reconciled.
var ErrMalformedTransaction = errors.New("malformed transaction response")

// TxInput is a single decoded transaction input. Input selection is
// non-deterministic upstream, so the engine only cares about cardinality.
type TxInput struct {
	TxID string // id of the transaction that created the spent output
	Vout uint32 // index of the spent output within that transaction
}

// TxOutput is a single decoded transaction output.
type TxOutput struct {
	Address string          // destination address from scriptPubKey
	Value   decimal.Decimal // BTC-denominated output value
}

// Transaction is the observed transaction as confirmed by the node.
// It is fetched once per run and immutable thereafter.
type Transaction struct {
	TxID        string
	BlockHeight int64
	BlockHash   string
	Fee         decimal.Decimal // signed as reported; sign is not significant
	Inputs      []TxInput
	Outputs     []TxOutput
}

// OutputByAddress returns the first output paying the given address, scanning
// the output list in order. Duplicate addresses are not deduplicated; the
// first match wins, which is the documented contract for ambiguous lookups.
func (t Transaction) OutputByAddress(address string) (TxOutput, bool) {
	for _, out := range t.Outputs {
		if out.Address == address {
			return out, true
		}
	}

	return TxOutput{}, false
}

// TransactionFetcher defines the node-side collaborator: it retrieves one
// confirmed transaction, decoded, by id.
type TransactionFetcher interface {
	// FetchTransaction retrieves the transaction with the given id from the
	// node, with inputs and outputs decoded.
	//
	// Implementations must return ErrTransactionNotFound when the node has no
	// such transaction, ErrTransactionMismatch when the node answers for a
	// different id, and ErrMalformedTransaction when required decoded fields
	// are absent.
	FetchTransaction(ctx context.Context, txID string) (Transaction, error)
}
