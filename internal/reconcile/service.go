package reconcile

import (
	"context"

	"github.com/gabapcia/txverify/internal/artifact"
	"github.com/gabapcia/txverify/internal/pkg/logger"
	"github.com/gabapcia/txverify/internal/pkg/resilience/retry"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// amountTolerance is the maximum absolute difference under which two amounts
// are considered equal: half of the smallest increment visible at two decimal
// places, consistent with standard currency-display rounding.
var amountTolerance = decimal.New(5, -3) // 0.005

// tracerName identifies this package's spans in the telemetry backend.
const tracerName = "github.com/gabapcia/txverify/internal/reconcile"

// Service runs one reconciliation: fetch the observed transaction for the
// expected record and evaluate every check against it.
type Service interface {
	// Verify fetches the transaction named by the record and reconciles it.
	//
	// It returns a fatal error when the artifact's transaction cannot be
	// retrieved (transport failure, unknown id, id mismatch, undecodable
	// response). Check failures are never fatal: they are collected in the
	// returned Report so the caller sees exactly which economic property
	// diverged.
	Verify(ctx context.Context, expected artifact.Record) (Report, error)
}

// service is the concrete implementation of the Service interface.
type service struct {
	fetcher   TransactionFetcher
	waitRetry retry.Retry // optional; retries fetches while the tx is not yet visible
	notifiers []ReportNotifier
	tracer    trace.Tracer
}

// Ensure compile-time compliance with the Service interface.
var _ Service = (*service)(nil)

// config holds the optional collaborators of the service.
type config struct {
	waitRetry retry.Retry
	notifiers []ReportNotifier
}

// Option configures the service during construction.
type Option func(*config)

// WithWaitRetry makes Verify retry the transaction fetch while the node
// reports the transaction as unknown. Useful when verification starts before
// the confirming block has been fully processed by the wallet.
func WithWaitRetry(r retry.Retry) Option {
	return func(c *config) {
		c.waitRetry = r
	}
}

// WithReportNotifiers registers sinks that receive the final report.
// Notification failures are logged and do not affect the run outcome.
func WithReportNotifiers(notifiers ...ReportNotifier) Option {
	return func(c *config) {
		c.notifiers = append(c.notifiers, notifiers...)
	}
}

// New creates a reconciliation service around the given transaction fetcher.
func New(fetcher TransactionFetcher, opts ...Option) *service {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	return &service{
		fetcher:   fetcher,
		waitRetry: cfg.waitRetry,
		notifiers: cfg.notifiers,
		tracer:    otel.Tracer(tracerName),
	}
}

// fetchTransaction retrieves the observed transaction, optionally retrying
// while the node does not know the id yet. All other errors fail immediately.
func (s *service) fetchTransaction(ctx context.Context, txID string) (Transaction, error) {
	if s.waitRetry == nil {
		return s.fetcher.FetchTransaction(ctx, txID)
	}

	var tx Transaction
	err := s.waitRetry.Execute(ctx, func() error {
		var fetchErr error
		tx, fetchErr = s.fetcher.FetchTransaction(ctx, txID)
		return fetchErr
	})

	return tx, err
}

// Verify implements the Service interface.
func (s *service) Verify(ctx context.Context, expected artifact.Record) (Report, error) {
	ctx, span := s.tracer.Start(ctx, "reconcile.Verify",
		trace.WithAttributes(attribute.String("tx.id", expected.TxID)),
	)
	defer span.End()

	observed, err := s.fetchTransaction(ctx, expected.TxID)
	if err != nil {
		span.RecordError(err)
		return Report{}, err
	}

	report := reconcile(expected, observed)
	span.SetAttributes(attribute.Bool("reconcile.passed", report.Passed()))

	for _, v := range report.Verdicts {
		if v.Passed {
			logger.Info(ctx, "check passed", "tx.id", report.TxID, "check", v.Check)
		} else {
			logger.Warn(ctx, "check failed", "tx.id", report.TxID, "check", v.Check, "detail", v.Detail)
		}
	}

	for _, notifier := range s.notifiers {
		if err := notifier.NotifyReport(ctx, report); err != nil {
			logger.Error(ctx, "report notification failed", "tx.id", report.TxID, "error", err)
		}
	}

	return report, nil
}

// reconcile evaluates every check of the expected record against the observed
// transaction. It is a pure function: no I/O, no short-circuiting, one
// verdict per evaluated check, in a fixed order.
func reconcile(expected artifact.Record, observed Transaction) Report {
	verdicts := []Verdict{
		checkBlockConfinement(expected, observed),
		checkInputCardinality(observed),
		checkOutputCardinality(expected, observed),
	}

	// When no change is expected the change check is skipped entirely rather
	// than asserting the absence of a change output; an unexpected extra
	// output is only caught indirectly by the cardinality check.
	if expected.HasChange() {
		verdicts = append(verdicts, checkChangeOutput(expected, observed))
	}

	verdicts = append(verdicts,
		checkTraderOutput(expected, observed),
		checkFee(expected, observed),
	)

	return Report{TxID: expected.TxID, Verdicts: verdicts}
}

// checkBlockConfinement asserts the transaction was confirmed in exactly the
// recorded block, by height and hash.
func checkBlockConfinement(expected artifact.Record, observed Transaction) Verdict {
	var problems []string
	if observed.BlockHeight != expected.BlockHeight {
		problems = append(problems, "height")
	}
	if observed.BlockHash != expected.BlockHash {
		problems = append(problems, "hash")
	}

	if len(problems) > 0 {
		return fail(CheckBlockConfinement,
			"block %v mismatch: expected height %d hash %s, node reports height %d hash %s",
			problems, expected.BlockHeight, expected.BlockHash, observed.BlockHeight, observed.BlockHash)
	}

	return pass(CheckBlockConfinement)
}

// checkInputCardinality asserts at least one input exists. Input selection is
// non-deterministic upstream, so exact input identities are not validated.
func checkInputCardinality(observed Transaction) Verdict {
	if len(observed.Inputs) < 1 {
		return fail(CheckInputCardinality, "expected at least one input, got %d", len(observed.Inputs))
	}

	return pass(CheckInputCardinality)
}

// checkOutputCardinality asserts the output count matches the expectation:
// two outputs when change goes back to the miner, one otherwise.
func checkOutputCardinality(expected artifact.Record, observed Transaction) Verdict {
	expectedCount := 1
	if expected.HasChange() {
		expectedCount = 2
	}

	if len(observed.Outputs) != expectedCount {
		return fail(CheckOutputCardinality, "expected %d outputs, got %d", expectedCount, len(observed.Outputs))
	}

	return pass(CheckOutputCardinality)
}

// checkChangeOutput asserts an output pays the recorded change address with
// the recorded change amount, within tolerance.
func checkChangeOutput(expected artifact.Record, observed Transaction) Verdict {
	out, ok := observed.OutputByAddress(expected.MinerChangeAddress)
	if !ok {
		return fail(CheckChangeOutput, "no output pays change address %s", expected.MinerChangeAddress)
	}

	if !closeTo(out.Value, expected.MinerChangeAmount) {
		return fail(CheckChangeOutput, "change amount mismatch: expected %s, got %s", expected.MinerChangeAmount, out.Value)
	}

	return pass(CheckChangeOutput)
}

// checkTraderOutput asserts an output pays the trader's address with the
// recorded amount, within tolerance.
func checkTraderOutput(expected artifact.Record, observed Transaction) Verdict {
	out, ok := observed.OutputByAddress(expected.TraderOutputAddress)
	if !ok {
		return fail(CheckTraderOutput, "no output pays trader address %s", expected.TraderOutputAddress)
	}

	if !closeTo(out.Value, expected.TraderOutputAmount) {
		return fail(CheckTraderOutput, "trader amount mismatch: expected %s, got %s", expected.TraderOutputAmount, out.Value)
	}

	return pass(CheckTraderOutput)
}

// checkFee asserts the observed fee magnitude matches the recorded fee. The
// wallet reports wallet-perspective fees as negative; magnitudes are compared.
func checkFee(expected artifact.Record, observed Transaction) Verdict {
	observedFee := observed.Fee.Abs()
	if !closeTo(observedFee, expected.Fee) {
		return fail(CheckFee, "fee mismatch: expected %s, got %s", expected.Fee, observedFee)
	}

	return pass(CheckFee)
}

// closeTo reports whether two amounts are equal within amountTolerance.
func closeTo(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(amountTolerance)
}
