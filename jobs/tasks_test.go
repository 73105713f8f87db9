package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type fakeScanner struct {
	flagged int
	err     error
	calls   int
}

func (f *fakeScanner) MarkOverdue(_ context.Context, _ time.Time) (int, error) {
	f.calls++
	return f.flagged, f.err
}

type fakeRateSource struct {
	rate decimal.Decimal
}

func (f *fakeRateSource) CurrentRate(context.Context) (decimal.Decimal, error) {
	return f.rate, nil
}

type fakeRateSink struct {
	stored decimal.Decimal
	calls  int
}

func (f *fakeRateSink) Set(_ context.Context, rate decimal.Decimal) error {
	f.stored = rate
	f.calls++
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHandleOverdueScan(t *testing.T) {
	scanner := &fakeScanner{flagged: 3}
	handler := HandleOverdueScan(scanner, testLogger())

	require.NoError(t, handler(context.Background(), NewOverdueScanTask()))
	require.Equal(t, 1, scanner.calls)
}

func TestHandleOverdueScanPropagatesError(t *testing.T) {
	scanner := &fakeScanner{err: errors.New("db down")}
	handler := HandleOverdueScan(scanner, testLogger())

	require.Error(t, handler(context.Background(), NewOverdueScanTask()))
}

func TestHandleRateRefresh(t *testing.T) {
	source := &fakeRateSource{rate: decimal.NewFromInt(656)}
	sink := &fakeRateSink{}
	handler := HandleRateRefresh(source, sink, testLogger())

	require.NoError(t, handler(context.Background(), NewRateRefreshTask()))
	require.Equal(t, 1, sink.calls)
	require.True(t, sink.stored.Equal(decimal.NewFromInt(656)))
}
