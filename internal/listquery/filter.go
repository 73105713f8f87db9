// Package listquery normalises the structured list filters used by every
// listing screen into query parameters and SQL-friendly bounds.
package listquery

import (
	"net/url"
	"strconv"
	"time"
)

// PeriodType selects which date inputs of a Filter are meaningful.
type PeriodType string

const (
	PeriodNone  PeriodType = ""
	PeriodDay   PeriodType = "day"
	PeriodMonth PeriodType = "month"
	PeriodYear  PeriodType = "year"
	PeriodRange PeriodType = "range"
)

// Filter is the structured filter submitted by a listing screen.
type Filter struct {
	Search      string
	Status      string
	CompanyID   int64
	ShipID      int64
	CategoryID  int64
	SupplierID  int64
	PayMethodID int64
	Active      *bool
	AmountMin   *int64
	AmountMax   *int64

	Period PeriodType
	Day    *time.Time
	Month  int
	Year   int
	From   *time.Time
	To     *time.Time

	Page      int
	Size      int
	Sort      string
	Direction string
}

// Query is the normalised representation of a Filter. DateFrom/DateTo are
// full instants; Month/Year are only set when the filter passed them alone.
type Query struct {
	Search      string
	Status      string
	CompanyID   int64
	ShipID      int64
	CategoryID  int64
	SupplierID  int64
	PayMethodID int64
	Active      *bool
	AmountMin   *int64
	AmountMax   *int64
	DateFrom    *time.Time
	DateTo      *time.Time
	Month       int
	Year        int
	Page        int
	Size        int
	Sort        string
	Direction   string
}

// Build normalises the filter. Incomplete date combinations (a day period
// without a date, a range missing a bound) yield no date filter at all.
func (f Filter) Build() Query {
	q := Query{
		Search:      f.Search,
		Status:      f.Status,
		CompanyID:   f.CompanyID,
		ShipID:      f.ShipID,
		CategoryID:  f.CategoryID,
		SupplierID:  f.SupplierID,
		PayMethodID: f.PayMethodID,
		Active:      f.Active,
		AmountMin:   f.AmountMin,
		AmountMax:   f.AmountMax,
		Page:        f.Page,
		Size:        f.Size,
		Sort:        f.Sort,
		Direction:   normaliseDirection(f.Direction),
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Size < 1 {
		q.Size = 20
	}

	switch f.Period {
	case PeriodDay:
		if f.Day != nil {
			from := startOfDay(*f.Day)
			to := endOfDay(*f.Day)
			q.DateFrom, q.DateTo = &from, &to
		}
	case PeriodMonth:
		switch {
		case f.Month >= 1 && f.Month <= 12 && f.Year > 0:
			from := time.Date(f.Year, time.Month(f.Month), 1, 0, 0, 0, 0, time.UTC)
			to := endOfDay(from.AddDate(0, 1, -1))
			q.DateFrom, q.DateTo = &from, &to
		case f.Month >= 1 && f.Month <= 12:
			q.Month = f.Month
		case f.Year > 0:
			q.Year = f.Year
		}
	case PeriodYear:
		if f.Year > 0 {
			q.Year = f.Year
		}
	case PeriodRange:
		if f.From != nil && f.To != nil {
			from := startOfDay(*f.From)
			to := endOfDay(*f.To)
			q.DateFrom, q.DateTo = &from, &to
		}
	}
	return q
}

// Values renders the query as HTTP query parameters. Date bounds are sent as
// YYYY-MM-DD strings.
func (q Query) Values() url.Values {
	values := url.Values{}
	values.Set("page", strconv.Itoa(q.Page))
	values.Set("size", strconv.Itoa(q.Size))
	setString(values, "search", q.Search)
	setString(values, "status", q.Status)
	setID(values, "company_id", q.CompanyID)
	setID(values, "ship_id", q.ShipID)
	setID(values, "category_id", q.CategoryID)
	setID(values, "supplier_id", q.SupplierID)
	setID(values, "payment_method_id", q.PayMethodID)
	if q.Active != nil {
		values.Set("active", strconv.FormatBool(*q.Active))
	}
	if q.AmountMin != nil {
		values.Set("amount_min", strconv.FormatInt(*q.AmountMin, 10))
	}
	if q.AmountMax != nil {
		values.Set("amount_max", strconv.FormatInt(*q.AmountMax, 10))
	}
	if q.DateFrom != nil {
		values.Set("date_from", q.DateFrom.Format("2006-01-02"))
	}
	if q.DateTo != nil {
		values.Set("date_to", q.DateTo.Format("2006-01-02"))
	}
	if q.Month > 0 {
		values.Set("month", strconv.Itoa(q.Month))
	}
	if q.Year > 0 {
		values.Set("year", strconv.Itoa(q.Year))
	}
	setString(values, "sort", q.Sort)
	setString(values, "direction", q.Direction)
	return values
}

func setString(values url.Values, key, v string) {
	if v != "" {
		values.Set(key, v)
	}
}

func setID(values url.Values, key string, id int64) {
	if id > 0 {
		values.Set(key, strconv.FormatInt(id, 10))
	}
}

func normaliseDirection(dir string) string {
	if dir == "desc" || dir == "DESC" {
		return "desc"
	}
	if dir == "" {
		return ""
	}
	return "asc"
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// endOfDay returns the last represented instant of the day at millisecond
// precision, matching the bounds the UI sends.
func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 999*int(time.Millisecond), t.Location())
}
