package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"laklak-api/internal/cache"
	"laklak-api/internal/model"
	"laklak-api/internal/repository"
)

// ReportService is the read side: audit listings and the dashboard. All
// listings are provider-scoped unless the caller is a supervisor.
type ReportService struct {
	store     repository.InventoryStore
	cache     cache.Cache
	ttl       time.Duration
	threshold int64
}

// NewReportService creates the read-side service.
func NewReportService(store repository.InventoryStore, c cache.Cache, dashboardTTL time.Duration, lowStockThreshold int64) *ReportService {
	return &ReportService{
		store:     store,
		cache:     c,
		ttl:       dashboardTTL,
		threshold: lowStockThreshold,
	}
}

// ListTransactions returns inventory transactions visible to the actor,
// newest first.
func (s *ReportService) ListTransactions(ctx context.Context, actor model.Actor, f model.TransactionFilter) ([]model.InventoryTransaction, error) {
	if !actor.Supervisor() {
		f.ProviderID = actor.UserID
	}
	records, err := s.store.ListTransactions(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return records, nil
}

// ListAlerts returns low stock alerts visible to the actor, newest first.
func (s *ReportService) ListAlerts(ctx context.Context, actor model.Actor, f model.AlertFilter) ([]model.LowStockAlert, error) {
	if !actor.Supervisor() {
		f.ProviderID = actor.UserID
	}
	alerts, err := s.store.ListAlerts(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	return alerts, nil
}

// ListPriceChanges returns price change logs visible to the actor, newest
// first.
func (s *ReportService) ListPriceChanges(ctx context.Context, actor model.Actor, f model.PriceChangeFilter) ([]model.PriceChangeLog, error) {
	if !actor.Supervisor() {
		f.ProviderID = actor.UserID
	}
	logs, err := s.store.ListPriceChanges(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list price changes: %w", err)
	}
	return logs, nil
}

// Dashboard returns aggregate inventory stats for the actor's scope,
// cached per provider. Supervisors see the global view under their own
// cache key. Cache failures degrade to a direct read.
func (s *ReportService) Dashboard(ctx context.Context, actor model.Actor) (*model.DashboardStats, error) {
	providerID := actor.UserID
	if actor.Supervisor() {
		providerID = 0
	}
	key := fmt.Sprintf("dashboard:provider:%d", providerID)

	if data, err := s.cache.Get(ctx, key); err == nil {
		var stats model.DashboardStats
		if err := json.Unmarshal(data, &stats); err == nil {
			return &stats, nil
		}
		// Corrupt entry: drop it and fall through to the database.
		_ = s.cache.Delete(ctx, key)
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		log.Printf("[ReportService] dashboard cache read failed: %v", err)
	}

	stats, err := s.store.DashboardStats(ctx, providerID, s.threshold)
	if err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}

	if data, err := json.Marshal(stats); err == nil {
		if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
			log.Printf("[ReportService] dashboard cache write failed: %v", err)
		}
	}
	return stats, nil
}

// InvalidateDashboard drops the cached dashboard for a provider (and the
// global supervisor view).
func (s *ReportService) InvalidateDashboard(ctx context.Context, providerID int64) {
	for _, id := range []int64{providerID, 0} {
		if err := s.cache.Delete(ctx, fmt.Sprintf("dashboard:provider:%d", id)); err != nil {
			log.Printf("[ReportService] dashboard cache invalidation failed: %v", err)
		}
	}
}
