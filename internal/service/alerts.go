package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"laklak-api/internal/model"
	"laklak-api/internal/repository"
	"laklak-api/pkg/apierror"
)

// AlertService owns the low stock alert lifecycle. Alerts are created by
// the event processor; this service only moves them forward.
type AlertService struct {
	store repository.InventoryStore
}

// NewAlertService creates the alert lifecycle service.
func NewAlertService(store repository.InventoryStore) *AlertService {
	return &AlertService{store: store}
}

// Acknowledge moves a pending alert to acknowledged, recording who and
// when. Acknowledging an alert in any other state is a conflict.
func (s *AlertService) Acknowledge(ctx context.Context, actor model.Actor, alertID int64) (*model.LowStockAlert, error) {
	alert, err := s.scopedAlert(ctx, actor, alertID)
	if err != nil {
		return nil, err
	}

	if err := s.store.AcknowledgeAlert(ctx, alert.ID, actor.UserID, time.Now().UTC()); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, apierror.NotFound("no such alert")
		case errors.Is(err, repository.ErrAlertConflict):
			return nil, apierror.Conflict("alert is not pending")
		}
		return nil, fmt.Errorf("acknowledge alert: %w", err)
	}
	return s.store.GetAlert(ctx, alert.ID)
}

// Resolve closes a pending or acknowledged alert. A resolved alert stays
// resolved; resolving it again is a conflict.
func (s *AlertService) Resolve(ctx context.Context, actor model.Actor, alertID int64) (*model.LowStockAlert, error) {
	alert, err := s.scopedAlert(ctx, actor, alertID)
	if err != nil {
		return nil, err
	}

	if err := s.store.ResolveAlert(ctx, alert.ID, time.Now().UTC()); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, apierror.NotFound("no such alert")
		case errors.Is(err, repository.ErrAlertConflict):
			return nil, apierror.Conflict("alert is already resolved")
		}
		return nil, fmt.Errorf("resolve alert: %w", err)
	}
	return s.store.GetAlert(ctx, alert.ID)
}

// scopedAlert loads an alert and enforces provider scope. Alerts of other
// providers read as not-found.
func (s *AlertService) scopedAlert(ctx context.Context, actor model.Actor, id int64) (*model.LowStockAlert, error) {
	alert, err := s.store.GetAlert(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apierror.NotFound("no such alert")
		}
		return nil, fmt.Errorf("get alert: %w", err)
	}
	if !actor.Supervisor() && alert.ProviderID != actor.UserID {
		return nil, apierror.NotFound("no such alert")
	}
	return alert, nil
}
