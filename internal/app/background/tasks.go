package background

import (
	"context"
	"log/slog"
	"time"
)

// RateRefresher is the part of form.Form the refresh loop drives.
type RateRefresher interface {
	RefreshRate(ctx context.Context) error
}

// HealthRefresher publishes the rate source status, see grpcapi.HealthHandler.
type HealthRefresher interface {
	Refresh(ctx context.Context) bool
}

type BackgroundTasks struct {
	Form            RateRefresher
	RefreshInterval time.Duration
	Health          HealthRefresher
	CheckInterval   time.Duration
	Logger          *slog.Logger
}

func NewBackgroundTasks(form RateRefresher, refreshInterval time.Duration, logger *slog.Logger) *BackgroundTasks {
	return &BackgroundTasks{
		Form:            form,
		RefreshInterval: refreshInterval,
		Logger:          logger,
	}
}

// WithHealthCheck adds a periodic rate source health check to StartAll.
func (bt *BackgroundTasks) WithHealthCheck(p HealthRefresher, interval time.Duration) *BackgroundTasks {
	bt.Health = p
	bt.CheckInterval = interval
	return bt
}

func (bt *BackgroundTasks) StartAll(ctx context.Context) {
	go bt.startRateRefresh(ctx)
	if bt.Health != nil {
		go bt.startHealthCheck(ctx)
	}
}

// Курс запрашивается сразу и затем по тикеру. Каждый запрос в своей горутине,
// чтобы медленный ответ не задерживал следующий тик.
func (bt *BackgroundTasks) startRateRefresh(ctx context.Context) {
	ticker := time.NewTicker(bt.RefreshInterval)
	defer ticker.Stop()

	bt.refreshOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			go bt.refreshOnce(ctx)
		}
	}
}

func (bt *BackgroundTasks) refreshOnce(ctx context.Context) {
	if err := bt.Form.RefreshRate(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		bt.Logger.Error("rate refresh failed", "error", err)
	}
}

func (bt *BackgroundTasks) startHealthCheck(ctx context.Context) {
	ticker := time.NewTicker(bt.CheckInterval)
	defer ticker.Stop()

	bt.Health.Refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			bt.Health.Refresh(ctx)
		}
	}
}
