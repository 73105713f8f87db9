package listquery

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBuildMonthWithYear(t *testing.T) {
	q := Filter{Period: PeriodMonth, Month: 6, Year: 2025}.Build()

	require.NotNil(t, q.DateFrom)
	require.NotNil(t, q.DateTo)
	require.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), *q.DateFrom)
	require.Equal(t, time.Date(2025, 6, 30, 23, 59, 59, 999000000, time.UTC), *q.DateTo)
	require.Zero(t, q.Month)
	require.Zero(t, q.Year)
}

func TestBuildMonthAlone(t *testing.T) {
	q := Filter{Period: PeriodMonth, Month: 6}.Build()

	require.Nil(t, q.DateFrom)
	require.Nil(t, q.DateTo)
	require.Equal(t, 6, q.Month)
}

func TestBuildYearAlone(t *testing.T) {
	q := Filter{Period: PeriodYear, Year: 2024}.Build()

	require.Nil(t, q.DateFrom)
	require.Nil(t, q.DateTo)
	require.Equal(t, 2024, q.Year)
}

func TestBuildDayWithoutDateYieldsNoDateFilter(t *testing.T) {
	q := Filter{Period: PeriodDay}.Build()

	require.Nil(t, q.DateFrom)
	require.Nil(t, q.DateTo)
}

func TestBuildRangeNormalisesBounds(t *testing.T) {
	from := time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)
	to := time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC)
	q := Filter{Period: PeriodRange, From: &from, To: &to}.Build()

	require.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), *q.DateFrom)
	require.Equal(t, time.Date(2025, 3, 12, 23, 59, 59, 999000000, time.UTC), *q.DateTo)
}

func TestBuildRangeMissingBoundYieldsNoDateFilter(t *testing.T) {
	from := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	q := Filter{Period: PeriodRange, From: &from}.Build()

	require.Nil(t, q.DateFrom)
	require.Nil(t, q.DateTo)
}

func TestBuildDefaultsPageAndSize(t *testing.T) {
	q := Filter{}.Build()
	require.Equal(t, 1, q.Page)
	require.Equal(t, 20, q.Size)
}

func TestValues(t *testing.T) {
	min := int64(50000)
	active := true
	q := Filter{
		Search:    "remorquage",
		CompanyID: 7,
		Active:    &active,
		AmountMin: &min,
		Period:    PeriodMonth,
		Month:     6,
		Year:      2025,
		Page:      2,
		Size:      25,
		Sort:      "issue_date",
		Direction: "DESC",
	}.Build().Values()

	require.Equal(t, "2", q.Get("page"))
	require.Equal(t, "25", q.Get("size"))
	require.Equal(t, "remorquage", q.Get("search"))
	require.Equal(t, "7", q.Get("company_id"))
	require.Equal(t, "true", q.Get("active"))
	require.Equal(t, "50000", q.Get("amount_min"))
	require.Equal(t, "2025-06-01", q.Get("date_from"))
	require.Equal(t, "2025-06-30", q.Get("date_to"))
	require.Equal(t, "issue_date", q.Get("sort"))
	require.Equal(t, "desc", q.Get("direction"))
	require.Empty(t, q.Get("month"))
}
