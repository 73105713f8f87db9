package listquery

import (
	"net/url"
	"strconv"
	"time"
)

// Parse reads a Filter back from HTTP query parameters. Unparseable values
// are dropped rather than rejected; listing screens always get a page.
func Parse(values url.Values) Filter {
	f := Filter{
		Search:      values.Get("search"),
		Status:      values.Get("status"),
		CompanyID:   parseID(values.Get("company_id")),
		ShipID:      parseID(values.Get("ship_id")),
		CategoryID:  parseID(values.Get("category_id")),
		SupplierID:  parseID(values.Get("supplier_id")),
		PayMethodID: parseID(values.Get("payment_method_id")),
		Period:      PeriodType(values.Get("period")),
		Sort:        values.Get("sort"),
		Direction:   values.Get("direction"),
	}
	if v := values.Get("active"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			f.Active = &b
		}
	}
	f.AmountMin = parseAmount(values.Get("amount_min"))
	f.AmountMax = parseAmount(values.Get("amount_max"))
	f.Day = parseDate(values.Get("day"))
	f.Month, _ = strconv.Atoi(values.Get("month"))
	f.Year, _ = strconv.Atoi(values.Get("year"))
	f.From = parseDate(values.Get("date_from"))
	f.To = parseDate(values.Get("date_to"))
	f.Page, _ = strconv.Atoi(values.Get("page"))
	f.Size, _ = strconv.Atoi(values.Get("size"))

	// Date parameters without an explicit period keep their obvious meaning.
	if f.Period == PeriodNone {
		switch {
		case f.From != nil || f.To != nil:
			f.Period = PeriodRange
		case f.Day != nil:
			f.Period = PeriodDay
		case f.Month > 0 || f.Year > 0:
			f.Period = PeriodMonth
		}
	}
	return f
}

func parseID(s string) int64 {
	id, _ := strconv.ParseInt(s, 10, 64)
	if id < 0 {
		return 0
	}
	return id
}

func parseAmount(s string) *int64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &t
}
