package invoice

import "time"

// IsOverdue reports whether the invoice is past due at now. Paid and
// cancelled invoices are never overdue. The comparison is date-only; the
// time of day of both instants is ignored.
func IsOverdue(inv Invoice, now time.Time) bool {
	if inv.Status == StatusPayee || inv.Status == StatusAnnulee {
		return false
	}
	return dateOnly(now).After(dateOnly(inv.DueDate))
}

// DaysOverdue returns the number of whole days the invoice is late, or 0
// when it is not overdue.
func DaysOverdue(inv Invoice, now time.Time) int {
	if !IsOverdue(inv, now) {
		return 0
	}
	return int(dateOnly(now).Sub(dateOnly(inv.DueDate)).Hours() / 24)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
