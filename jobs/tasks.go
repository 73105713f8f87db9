// Package jobs contains the background tasks run by the worker process:
// the nightly overdue invoice scan and the exchange-rate refresh.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskInvoiceOverdueScan flags issued invoices past their due date.
	TaskInvoiceOverdueScan = "invoice:overdue_scan"
	// TaskRateRefresh recomputes the derived exchange rate.
	TaskRateRefresh = "fx:rate_refresh"
)

// NewOverdueScanTask constructs the overdue scan task. It carries no
// payload; the scan always runs against the current clock.
func NewOverdueScanTask() *asynq.Task {
	return asynq.NewTask(TaskInvoiceOverdueScan, nil)
}

// NewRateRefreshTask constructs the rate refresh task.
func NewRateRefreshTask() *asynq.Task {
	return asynq.NewTask(TaskRateRefresh, nil)
}

// OverdueScanner marks issued invoices past due as EN_RETARD.
type OverdueScanner interface {
	MarkOverdue(ctx context.Context, now time.Time) (int, error)
}

// RateSource derives the current XOF per EUR rate from the catalogue.
type RateSource interface {
	CurrentRate(ctx context.Context) (decimal.Decimal, error)
}

// RateSink stores a freshly derived rate.
type RateSink interface {
	Set(ctx context.Context, rate decimal.Decimal) error
}

// HandleOverdueScan returns the handler for TaskInvoiceOverdueScan.
func HandleOverdueScan(scanner OverdueScanner, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		flagged, err := scanner.MarkOverdue(ctx, time.Now())
		if err != nil {
			return err
		}
		logger.Info("overdue scan complete", slog.Int("flagged", flagged))
		return nil
	}
}

// HandleRateRefresh returns the handler for TaskRateRefresh.
func HandleRateRefresh(source RateSource, sink RateSink, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		rate, err := source.CurrentRate(ctx)
		if err != nil {
			return err
		}
		if err := sink.Set(ctx, rate); err != nil {
			return err
		}
		logger.Info("exchange rate refreshed", slog.String("rate", rate.String()))
		return nil
	}
}
