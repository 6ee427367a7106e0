package service

import (
	"context"
	"testing"
	"time"

	"retail-backoffice/internal/repository"
)

type rangeRecorder struct {
	repository.TransactionRepository
	start, end time.Time
	lowStock   int
	since      time.Time
}

func (r *rangeRecorder) GetSalesPerDay(ctx context.Context, start, end time.Time) ([]repository.SalesPerDay, error) {
	r.start, r.end = start, end
	return nil, nil
}

func (r *rangeRecorder) GetDashboardStats(ctx context.Context, lowStock int, since time.Time) (*repository.DashboardStats, error) {
	r.lowStock, r.since = lowStock, since
	return &repository.DashboardStats{}, nil
}

func TestSalesPerDayRange(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*3600)
	tests := []struct {
		days      int
		wantStart string
	}{
		{7, "2026-10-08"},
		{1, "2026-10-14"},
		{0, "2026-10-08"},
		{365, "2026-07-17"},
	}

	for _, tt := range tests {
		repo := &rangeRecorder{}
		svc := NewDashboardService(repo, jakarta).(*dashboardService)
		svc.now = func() time.Time { return testNow }

		if _, err := svc.GetSalesPerDay(context.Background(), tt.days); err != nil {
			t.Fatalf("days=%d: %v", tt.days, err)
		}
		if got := repo.start.Format("2006-01-02"); got != tt.wantStart {
			t.Fatalf("days=%d: start = %s, want %s", tt.days, got, tt.wantStart)
		}
		if got := repo.end.Format("2006-01-02 15:04"); got != "2026-10-14 23:59" {
			t.Fatalf("days=%d: end = %s", tt.days, got)
		}
	}
}

func TestDashboardLowStockDefault(t *testing.T) {
	repo := &rangeRecorder{}
	svc := NewDashboardService(repo, time.FixedZone("WIB", 7*3600)).(*dashboardService)
	svc.now = func() time.Time { return testNow }
	if _, err := svc.GetDashboardStats(context.Background(), 0); err != nil {
		t.Fatalf("stats: %v", err)
	}
	if repo.lowStock != DefaultLowStock {
		t.Fatalf("low stock = %d, want %d", repo.lowStock, DefaultLowStock)
	}
	if got := repo.since.Format("2006-01-02 15:04 MST"); got != "2026-10-14 00:00 WIB" {
		t.Fatalf("since = %s, want start of the local day", got)
	}
}
