package invoice

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var allStatuses = []Status{StatusBrouillon, StatusEmise, StatusPayee, StatusAnnulee, StatusEnRetard}

func TestCanTransitionTable(t *testing.T) {
	allowed := map[Status][]Status{
		StatusBrouillon: {StatusEmise, StatusAnnulee},
		StatusEmise:     {StatusPayee, StatusAnnulee, StatusEnRetard},
		StatusPayee:     {},
		StatusAnnulee:   {StatusBrouillon},
		StatusEnRetard:  {StatusPayee, StatusAnnulee},
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

func TestCanTransitionDraftCases(t *testing.T) {
	require.True(t, CanTransition(StatusBrouillon, StatusEmise))
	require.False(t, CanTransition(StatusBrouillon, StatusPayee))
}

func TestPayeeIsTerminal(t *testing.T) {
	for _, to := range allStatuses {
		require.False(t, CanTransition(StatusPayee, to))
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range allStatuses {
		require.True(t, s.Valid())
	}
	require.False(t, Status("PENDING").Valid())
}
