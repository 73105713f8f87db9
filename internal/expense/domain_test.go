package expense

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var allStatuses = []Status{StatusEnAttente, StatusApprouvee, StatusRejetee, StatusPayee}

func TestCanTransitionTable(t *testing.T) {
	allowed := map[Status][]Status{
		StatusEnAttente: {StatusApprouvee, StatusRejetee},
		StatusApprouvee: {StatusPayee, StatusEnAttente},
		StatusRejetee:   {StatusEnAttente},
		StatusPayee:     {StatusEnAttente},
	}
	for _, from := range allStatuses {
		for _, to := range allStatuses {
			want := false
			for _, a := range allowed[from] {
				if a == to {
					want = true
				}
			}
			require.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestCanTransitionNoSelfLoops(t *testing.T) {
	for _, s := range allStatuses {
		require.False(t, CanTransition(s, s), "self transition %s", s)
	}
}

func TestRejectedCannotBePaid(t *testing.T) {
	require.False(t, CanTransition(StatusRejetee, StatusPayee))
}

func TestPaidCanBeReopened(t *testing.T) {
	require.True(t, CanTransition(StatusPayee, StatusEnAttente))
}

func TestStatusValid(t *testing.T) {
	for _, s := range allStatuses {
		require.True(t, s.Valid())
	}
	require.False(t, Status("BROUILLON").Valid())
}
