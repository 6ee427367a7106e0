package service

import (
	"context"
	"time"

	"retail-backoffice/internal/repository"
)

const (
	DefaultLowStock = 5
	maxSalesDays    = 90
)

type DashboardService interface {
	GetSalesPerDay(ctx context.Context, days int) ([]repository.SalesPerDay, error)
	GetDashboardStats(ctx context.Context, lowStock int) (*repository.DashboardStats, error)
}

type dashboardService struct {
	txRepo repository.TransactionRepository
	loc    *time.Location
	now    Clock
}

func NewDashboardService(txRepo repository.TransactionRepository, loc *time.Location) DashboardService {
	if loc == nil {
		loc = time.UTC
	}
	return &dashboardService{txRepo: txRepo, loc: loc, now: time.Now}
}

// GetSalesPerDay covers today and the days-1 days before it, in the store's
// time zone. days is clamped to 1..90.
func (s *dashboardService) GetSalesPerDay(ctx context.Context, days int) ([]repository.SalesPerDay, error) {
	if days < 1 {
		days = 7
	}
	if days > maxSalesDays {
		days = maxSalesDays
	}

	today := s.startOfToday()
	startDate := today.AddDate(0, 0, -(days - 1))
	endDate := today.AddDate(0, 0, 1).Add(-time.Nanosecond)

	return s.txRepo.GetSalesPerDay(ctx, startDate, endDate)
}

func (s *dashboardService) GetDashboardStats(ctx context.Context, lowStock int) (*repository.DashboardStats, error) {
	if lowStock <= 0 {
		lowStock = DefaultLowStock
	}
	return s.txRepo.GetDashboardStats(ctx, lowStock, s.startOfToday())
}

func (s *dashboardService) startOfToday() time.Time {
	now := s.now().In(s.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
}
