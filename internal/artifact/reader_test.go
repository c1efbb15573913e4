package artifact

import (
	"os"
	"strings"
	"testing"

	"github.com/gabapcia/txverify/internal/pkg/validator"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testTxID      = strings.Repeat("a1", 32)
	testBlockHash = strings.Repeat("b1", 32)
)

// validLines returns a well-formed artifact as its ten lines, one per field.
func validLines() []string {
	return []string{
		testTxID,
		"bcrt1qminer000000000000000000000000000000001",
		"50.0",
		"bcrt1qtrader00000000000000000000000000000002",
		"10.0",
		"bcrt1qchange00000000000000000000000000000003",
		"39.9999",
		"0.0001",
		"120",
		testBlockHash,
	}
}

func artifactText(lines []string) string {
	return strings.Join(lines, "\n") + "\n"
}

func TestParse(t *testing.T) {
	validator.Init()

	t.Run("round-trips every field of a well-formed artifact", func(t *testing.T) {
		record, err := Parse(artifactText(validLines()))
		require.NoError(t, err)

		assert.Equal(t, testTxID, record.TxID)
		assert.Equal(t, "bcrt1qminer000000000000000000000000000000001", record.MinerInputAddress)
		assert.True(t, record.MinerInputAmount.Equal(decimal.RequireFromString("50.0")))
		assert.Equal(t, "bcrt1qtrader00000000000000000000000000000002", record.TraderOutputAddress)
		assert.True(t, record.TraderOutputAmount.Equal(decimal.RequireFromString("10.0")))
		assert.Equal(t, "bcrt1qchange00000000000000000000000000000003", record.MinerChangeAddress)
		assert.True(t, record.MinerChangeAmount.Equal(decimal.RequireFromString("39.9999")))
		assert.True(t, record.Fee.Equal(decimal.RequireFromString("0.0001")))
		assert.Equal(t, int64(120), record.BlockHeight)
		assert.Equal(t, testBlockHash, record.BlockHash)
		assert.True(t, record.HasChange())
	})

	t.Run("accepts surrounding whitespace on each line", func(t *testing.T) {
		lines := validLines()
		for i, line := range lines {
			lines[i] = "  " + line + "\t"
		}

		record, err := Parse(artifactText(lines))
		require.NoError(t, err)
		assert.Equal(t, testTxID, record.TxID)
	})

	t.Run("lowercases uppercase hex identifiers", func(t *testing.T) {
		lines := validLines()
		lines[0] = strings.ToUpper(testTxID)
		lines[9] = strings.ToUpper(testBlockHash)

		record, err := Parse(artifactText(lines))
		require.NoError(t, err)
		assert.Equal(t, testTxID, record.TxID)
		assert.Equal(t, testBlockHash, record.BlockHash)
	})

	t.Run("accepts a record without change", func(t *testing.T) {
		lines := validLines()
		lines[5] = ""
		lines[6] = "0"

		record, err := Parse(artifactText(lines))
		require.NoError(t, err)
		assert.False(t, record.HasChange())
	})

	t.Run("accepts the None change-address placeholder", func(t *testing.T) {
		lines := validLines()
		lines[5] = "None"
		lines[6] = "0"

		record, err := Parse(artifactText(lines))
		require.NoError(t, err)
		assert.False(t, record.HasChange())
	})

	t.Run("normalizes a negative fee to its absolute value", func(t *testing.T) {
		lines := validLines()
		lines[7] = "-0.0001"

		record, err := Parse(artifactText(lines))
		require.NoError(t, err)
		assert.True(t, record.Fee.Equal(decimal.RequireFromString("0.0001")))
		assert.True(t, record.Fee.IsPositive())
	})

	t.Run("rejects a wrong line count", func(t *testing.T) {
		lines := validLines()[:9]

		_, err := Parse(artifactText(lines))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrBadFormat)
	})

	t.Run("rejects a short transaction id", func(t *testing.T) {
		lines := validLines()
		lines[0] = "abc123"

		_, err := Parse(artifactText(lines))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrBadFormat)
	})

	t.Run("rejects a non-hex block hash", func(t *testing.T) {
		lines := validLines()
		lines[9] = strings.Repeat("zz", 32)

		_, err := Parse(artifactText(lines))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrBadFormat)
	})

	t.Run("rejects an unparseable amount", func(t *testing.T) {
		lines := validLines()
		lines[2] = "fifty"

		_, err := Parse(artifactText(lines))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrBadFormat)
	})

	t.Run("rejects a non-positive miner input amount", func(t *testing.T) {
		for _, amount := range []string{"0", "-1"} {
			lines := validLines()
			lines[2] = amount

			_, err := Parse(artifactText(lines))
			require.Error(t, err, "amount %q should be rejected", amount)
			assert.ErrorIs(t, err, ErrBadFormat)
		}
	})

	t.Run("rejects a non-positive trader output amount", func(t *testing.T) {
		lines := validLines()
		lines[4] = "0"

		_, err := Parse(artifactText(lines))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrBadFormat)
	})

	t.Run("rejects a negative change amount", func(t *testing.T) {
		lines := validLines()
		lines[6] = "-1"

		_, err := Parse(artifactText(lines))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrBadFormat)
	})

	t.Run("rejects a positive change amount without a change address", func(t *testing.T) {
		lines := validLines()
		lines[5] = "None"

		_, err := Parse(artifactText(lines))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrBadFormat)
	})

	t.Run("rejects a zero fee regardless of sign", func(t *testing.T) {
		for _, fee := range []string{"0", "-0", "0.0"} {
			lines := validLines()
			lines[7] = fee

			_, err := Parse(artifactText(lines))
			require.Error(t, err, "fee %q should be rejected", fee)
			assert.ErrorIs(t, err, ErrBadFormat)
		}
	})

	t.Run("rejects a non-positive block height", func(t *testing.T) {
		for _, height := range []string{"0", "-5", "twelve"} {
			lines := validLines()
			lines[8] = height

			_, err := Parse(artifactText(lines))
			require.Error(t, err, "height %q should be rejected", height)
			assert.ErrorIs(t, err, ErrBadFormat)
		}
	})
}

func TestLoad(t *testing.T) {
	validator.Init()

	t.Run("loads a record from a file", func(t *testing.T) {
		path := t.TempDir() + "/out.txt"
		require.NoError(t, os.WriteFile(path, []byte(artifactText(validLines())), 0o600))

		record, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, testTxID, record.TxID)
	})

	t.Run("fails when the file does not exist", func(t *testing.T) {
		_, err := Load(t.TempDir() + "/missing.txt")
		assert.Error(t, err)
	})
}
