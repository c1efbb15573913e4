package artifact

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// recordLineCount is the exact number of lines a well-formed artifact carries.
const recordLineCount = 10

// noChangeAddress is the placeholder the builder writes on the change-address
// line when the transaction has no change output.
const noChangeAddress = "None"

// Fixed line positions within the artifact.
const (
	lineTxID = iota
	lineMinerInputAddress
	lineMinerInputAmount
	lineTraderOutputAddress
	lineTraderOutputAmount
	lineMinerChangeAddress
	lineMinerChangeAmount
	lineFee
	lineBlockHeight
	lineBlockHash
)

// Parse converts raw artifact text into a validated Record.
//
// The artifact must contain exactly ten newline-separated lines in the fixed
// order documented by the builder. Leading and trailing whitespace on each
// line is ignored. Any structural or numeric violation is reported as an
// error wrapping ErrBadFormat; Parse has no side effects.
func Parse(raw string) (Record, error) {
	lines := strings.Split(strings.TrimRight(raw, "\r\n"), "\n")
	if len(lines) != recordLineCount {
		return Record{}, fmt.Errorf("%w: expected %d lines, got %d", ErrBadFormat, recordLineCount, len(lines))
	}

	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}

	minerInputAmount, err := parseAmount("miner input amount", lines[lineMinerInputAmount])
	if err != nil {
		return Record{}, err
	}

	traderOutputAmount, err := parseAmount("trader output amount", lines[lineTraderOutputAmount])
	if err != nil {
		return Record{}, err
	}

	minerChangeAmount, err := parseAmount("miner change amount", lines[lineMinerChangeAmount])
	if err != nil {
		return Record{}, err
	}

	fee, err := parseAmount("fee", lines[lineFee])
	if err != nil {
		return Record{}, err
	}

	blockHeight, err := strconv.ParseInt(lines[lineBlockHeight], 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("%w: invalid block height %q", ErrBadFormat, lines[lineBlockHeight])
	}

	record := Record{
		// Hex identifiers are case-insensitive; the node reports them
		// lowercase, so they are normalized here for exact comparison later.
		TxID:                strings.ToLower(lines[lineTxID]),
		MinerInputAddress:   lines[lineMinerInputAddress],
		MinerInputAmount:    minerInputAmount,
		TraderOutputAddress: lines[lineTraderOutputAddress],
		TraderOutputAmount:  traderOutputAmount,
		MinerChangeAddress:  lines[lineMinerChangeAddress],
		MinerChangeAmount:   minerChangeAmount,
		// The fee sign is an accounting convention of the node wallet, not a
		// semantic fact. It is normalized away here, once.
		Fee:         fee.Abs(),
		BlockHeight: blockHeight,
		BlockHash:   strings.ToLower(lines[lineBlockHash]),
	}

	return record, record.validate()
}

// Load reads the artifact file at path and parses it into a Record.
func Load(path string) (Record, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Record{}, fmt.Errorf("reading expectation artifact: %w", err)
	}

	return Parse(string(raw))
}

// parseAmount parses a decimal amount line, labeling failures with the field name.
func parseAmount(field, value string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: invalid %s %q", ErrBadFormat, field, value)
	}

	return amount, nil
}
