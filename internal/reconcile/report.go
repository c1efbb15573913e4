package reconcile

import "context"

// ReportNotifier defines the contract for components interested in the final
// reconciliation report, e.g. a storage backend keeping an audit trail of
// verification runs.
type ReportNotifier interface {
	// NotifyReport is called once per run with the complete report, whether
	// or not the checks passed.
	//
	// Implementations should return a non-nil error only if the notification
	// itself fails (e.g. network I/O, persistence failure). Notification
	// failures never invalidate the report.
	NotifyReport(ctx context.Context, report Report) error
}
