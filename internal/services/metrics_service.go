package services

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/chitragupta-ai/chitragupta-server/internal/core"
	"github.com/chitragupta-ai/chitragupta-server/internal/models"
)

// DashboardMetrics is the console home screen payload.
type DashboardMetrics struct {
	LeadsToday       int64   `json:"leads_today"`
	PendingApprovals int64   `json:"pending_approvals"`
	PipelineValue    float64 `json:"pipeline_value"`
	SystemHealth     string  `json:"system_health"`
}

type MetricsService struct {
	store core.Store
	now   func() time.Time
}

func NewMetricsService(store core.Store) *MetricsService {
	return &MetricsService{store: store, now: time.Now}
}

// Dashboard gathers the three headline numbers in parallel.
func (s *MetricsService) Dashboard(ctx context.Context) (*DashboardMetrics, error) {
	metrics := &DashboardMetrics{SystemHealth: "healthy"}
	since := models.StartOfDay(s.now())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		count, err := s.store.CountLeadsCreatedSince(gctx, since)
		if err != nil {
			return err
		}
		metrics.LeadsToday = count
		return nil
	})
	g.Go(func() error {
		count, err := s.store.CountPendingApprovals(gctx)
		if err != nil {
			return err
		}
		metrics.PendingApprovals = count
		return nil
	})
	g.Go(func() error {
		total, err := s.store.SumOpenQuoteTotals(gctx)
		if err != nil {
			return err
		}
		metrics.PipelineValue = total
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return metrics, nil
}

// Daily returns the stored counter snapshot for one calendar day.
func (s *MetricsService) Daily(ctx context.Context, dayKey string) (*models.DailyMetric, error) {
	if dayKey == "" {
		dayKey = models.DayKey(s.now())
	}
	return s.store.GetDailyMetric(ctx, dayKey)
}
