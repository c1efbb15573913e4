package reconcile

import (
	"errors"
	"fmt"
	"strings"
)

// ErrChecksFailed is returned by Report.Err when one or more checks did not
// pass. It is non-fatal to the run: every check is still evaluated and
// reported individually.
var ErrChecksFailed = errors.New("reconciliation checks failed")

// Check identifies one reconciliation check.
type Check string

// The checks, in evaluation order. Each is independent: a failure in one
// never blocks evaluation of the rest.
const (
	CheckBlockConfinement  Check = "block_confinement"
	CheckInputCardinality  Check = "input_cardinality"
	CheckOutputCardinality Check = "output_cardinality"
	CheckChangeOutput      Check = "change_output"
	CheckTraderOutput      Check = "trader_output"
	CheckFee               Check = "fee"
)

// Verdict is the outcome of a single check.
type Verdict struct {
	Check  Check  `json:"check"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"` // diagnostic for failures, empty on pass
}

// pass builds a passing verdict.
func pass(check Check) Verdict {
	return Verdict{Check: check, Passed: true}
}

// fail builds a failing verdict with a formatted diagnostic.
func fail(check Check, format string, args ...any) Verdict {
	return Verdict{Check: check, Passed: false, Detail: fmt.Sprintf(format, args...)}
}

// Report collects the verdicts of one reconciliation run.
type Report struct {
	TxID     string    `json:"txid"`
	Verdicts []Verdict `json:"verdicts"`
}

// Passed reports whether every evaluated check passed.
func (r Report) Passed() bool {
	for _, v := range r.Verdicts {
		if !v.Passed {
			return false
		}
	}

	return true
}

// Failures returns the failing verdicts, in evaluation order.
func (r Report) Failures() []Verdict {
	var failures []Verdict
	for _, v := range r.Verdicts {
		if !v.Passed {
			failures = append(failures, v)
		}
	}

	return failures
}

// Err aggregates the failing verdicts into a single error wrapping
// ErrChecksFailed, or returns nil when everything passed. It exists for
// callers that want one error value instead of walking the verdict list.
func (r Report) Err() error {
	failures := r.Failures()
	if len(failures) == 0 {
		return nil
	}

	details := make([]string, len(failures))
	for i, v := range failures {
		details[i] = fmt.Sprintf("%s: %s", v.Check, v.Detail)
	}

	return fmt.Errorf("%w: %s", ErrChecksFailed, strings.Join(details, "; "))
}
