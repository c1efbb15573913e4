// Package artifact loads the expected-transaction record produced by the
// transaction builder. The record is a fixed-schema flat-text file describing
// the economic parameters the builder intended: participant addresses,
// amounts, fee, and the confirming block identifiers.
package artifact

import (
	"errors"
	"fmt"

	"github.com/gabapcia/txverify/internal/pkg/validator"

	"github.com/shopspring/decimal"
)

// ErrBadFormat indicates that the artifact text is malformed or violates one
// of the record's field constraints. It is always detected at load time,
// before any node interaction is attempted.
var ErrBadFormat = errors.New("malformed expectation artifact")

// Record is the expected-transaction record parsed from the artifact.
// It is built once per run and immutable thereafter.
type Record struct {
	TxID                string          `validate:"required,len=64,hexadecimal"` // id of the transaction under verification
	MinerInputAddress   string          `validate:"required"`                    // address that funded the first input
	MinerInputAmount    decimal.Decimal // total input amount, must be positive
	TraderOutputAddress string          `validate:"required"` // address paid by the transfer
	TraderOutputAmount  decimal.Decimal // amount paid to the trader, must be positive
	MinerChangeAddress  string          // change address; may be empty or "None" when no change exists
	MinerChangeAmount   decimal.Decimal // change amount, zero when no change output exists
	Fee                 decimal.Decimal // absolute fee, normalized positive at load time
	BlockHeight         int64           `validate:"required,gt=0"`               // height of the confirming block
	BlockHash           string          `validate:"required,len=64,hexadecimal"` // hash of the confirming block
}

// HasChange reports whether the builder expected a change output back to the
// miner. The change check and the expected output count both hinge on this.
func (r Record) HasChange() bool {
	return r.MinerChangeAmount.IsPositive()
}

// validate enforces the constraints the struct tags cannot express: amount
// positivity and the conditional requirement on the change address.
func (r Record) validate() error {
	if err := validator.Validate(r); err != nil {
		return fmt.Errorf("%w: %w", ErrBadFormat, err)
	}

	if !r.MinerInputAmount.IsPositive() {
		return fmt.Errorf("%w: miner input amount must be positive, got %s", ErrBadFormat, r.MinerInputAmount)
	}

	if !r.TraderOutputAmount.IsPositive() {
		return fmt.Errorf("%w: trader output amount must be positive, got %s", ErrBadFormat, r.TraderOutputAmount)
	}

	if r.MinerChangeAmount.IsNegative() {
		return fmt.Errorf("%w: miner change amount must not be negative, got %s", ErrBadFormat, r.MinerChangeAmount)
	}

	if r.HasChange() && (r.MinerChangeAddress == "" || r.MinerChangeAddress == noChangeAddress) {
		return fmt.Errorf("%w: change amount is %s but no change address was recorded", ErrBadFormat, r.MinerChangeAmount)
	}

	if r.Fee.IsZero() {
		return fmt.Errorf("%w: fee must be non-zero", ErrBadFormat)
	}

	return nil
}
