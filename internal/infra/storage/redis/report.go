package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gabapcia/txverify/internal/reconcile"
)

// reportKeyPrefix is the namespace prefix for all keys holding reconciliation reports.
const reportKeyPrefix = "txverify"

// reportKey constructs the Redis key under which the report for a given
// transaction id is stored. The format is:
//
//	"txverify:report:<txid>"
func reportKey(txID string) string {
	return fmt.Sprintf("%s:report:%s", reportKeyPrefix, txID)
}

// NotifyReport persists the reconciliation report as JSON, keyed by the
// transaction id. Re-running a verification overwrites the previous report
// for the same transaction; the latest run wins. The key has no expiration.
func (c *client) NotifyReport(ctx context.Context, report reconcile.Report) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return err
	}

	return c.conn.Set(ctx, reportKey(report.TxID), payload, 0).Err()
}

// Compile-time assertion to ensure client implements the ReportNotifier interface.
var _ reconcile.ReportNotifier = new(client)
