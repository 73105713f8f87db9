package invoice

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIsOverdue(t *testing.T) {
	due := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	inv := Invoice{Status: StatusEmise, DueDate: due}

	require.False(t, IsOverdue(inv, time.Date(2025, 6, 15, 23, 59, 0, 0, time.UTC)))
	require.True(t, IsOverdue(inv, time.Date(2025, 6, 16, 0, 1, 0, 0, time.UTC)))
}

func TestIsOverdueIgnoresTimeOfDay(t *testing.T) {
	inv := Invoice{
		Status:  StatusEmise,
		DueDate: time.Date(2025, 6, 15, 18, 30, 0, 0, time.UTC),
	}
	// Same calendar day, later clock time: not overdue.
	require.False(t, IsOverdue(inv, time.Date(2025, 6, 15, 23, 0, 0, 0, time.UTC)))
}

func TestPaidAndCancelledNeverOverdue(t *testing.T) {
	longAgo := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	now := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)

	require.False(t, IsOverdue(Invoice{Status: StatusPayee, DueDate: longAgo}, now))
	require.False(t, IsOverdue(Invoice{Status: StatusAnnulee, DueDate: longAgo}, now))
}

func TestDaysOverdue(t *testing.T) {
	inv := Invoice{
		Status:  StatusEmise,
		DueDate: time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
	}
	require.Equal(t, 0, DaysOverdue(inv, time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)))
	require.Equal(t, 1, DaysOverdue(inv, time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC)))
	require.Equal(t, 5, DaysOverdue(inv, time.Date(2025, 6, 15, 8, 0, 0, 0, time.UTC)))
}
