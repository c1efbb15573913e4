package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/gabapcia/txverify/internal/reconcile"
)

// Supported report output formats.
const (
	formatText = "text"
	formatJSON = "json"
)

// renderReport writes the report to w in the requested format.
func renderReport(w io.Writer, report reconcile.Report, format string) error {
	switch format {
	case formatText:
		return renderText(w, report)
	case formatJSON:
		return renderJSON(w, report)
	default:
		return fmt.Errorf("unsupported report format: %s", format)
	}
}

// renderText writes a human-readable summary, one line per verdict.
func renderText(w io.Writer, report reconcile.Report) error {
	if _, err := fmt.Fprintf(w, "transaction %s\n", report.TxID); err != nil {
		return err
	}

	for _, v := range report.Verdicts {
		var err error
		if v.Passed {
			_, err = fmt.Fprintf(w, "  [PASS] %s\n", v.Check)
		} else {
			_, err = fmt.Fprintf(w, "  [FAIL] %s: %s\n", v.Check, v.Detail)
		}
		if err != nil {
			return err
		}
	}

	if report.Passed() {
		_, err := fmt.Fprintf(w, "result: PASS (%d checks)\n", len(report.Verdicts))
		return err
	}

	_, err := fmt.Fprintf(w, "result: FAIL (%d of %d checks failed)\n", len(report.Failures()), len(report.Verdicts))
	return err
}

// renderJSON writes the report as indented JSON, suitable for machine consumption.
func renderJSON(w io.Writer, report reconcile.Report) error {
	payload, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "%s\n", payload)
	return err
}
