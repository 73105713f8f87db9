package analytics

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// DashboardSummary aggregates the statistics the dashboard renders.
type DashboardSummary struct {
	Invoices     []StatusTotal  `json:"invoices"`
	Expenses     []StatusTotal  `json:"expenses"`
	Overdue      StatusTotal    `json:"overdue"`
	Monthly      []MonthPoint   `json:"monthly"`
	TopCompanies []CompanyTotal `json:"top_companies"`
	GeneratedAt  time.Time      `json:"generated_at"`
}

const topCompaniesLimit = 5

// Service coordinates dashboard query execution with the cache layer.
type Service struct {
	repo  Repository
	cache *Cache
	now   func() time.Time
}

// NewService wires a Repository with a Cache helper.
func NewService(repo Repository, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache, now: time.Now}
}

// Dashboard returns the cached summary, computing it when stale. The
// aggregate queries run concurrently.
func (s *Service) Dashboard(ctx context.Context) (DashboardSummary, error) {
	key, err := s.cache.BuildKey(ctx, keyDashboard())
	if err != nil {
		return DashboardSummary{}, err
	}
	var summary DashboardSummary
	err = s.cache.FetchJSON(ctx, key, &summary, func(ctx context.Context) (interface{}, error) {
		return s.compute(ctx)
	})
	return summary, err
}

// Bump invalidates the dashboard after a domain write.
func (s *Service) Bump(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

func (s *Service) compute(ctx context.Context) (DashboardSummary, error) {
	now := s.now()
	summary := DashboardSummary{GeneratedAt: now}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		summary.Invoices, err = s.repo.InvoiceTotals(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		summary.Expenses, err = s.repo.ExpenseTotals(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		cutoff := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		summary.Overdue, err = s.repo.OverdueTotals(ctx, cutoff)
		return err
	})
	g.Go(func() error {
		var err error
		summary.Monthly, err = s.repo.MonthlySeries(ctx, now.AddDate(0, -11, 0))
		return err
	})
	g.Go(func() error {
		var err error
		summary.TopCompanies, err = s.repo.TopCompanies(ctx, topCompaniesLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return DashboardSummary{}, err
	}
	return summary, nil
}
