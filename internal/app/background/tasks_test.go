package background

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingRefresher struct {
	calls atomic.Int32
	err   error
}

func (r *countingRefresher) RefreshRate(context.Context) error {
	r.calls.Add(1)
	return r.err
}

func TestRateRefresh_TicksUntilCancelled(t *testing.T) {
	r := &countingRefresher{err: errors.New("upstream down")}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx, cancel := context.WithCancel(context.Background())

	NewBackgroundTasks(r, 10*time.Millisecond, logger).StartAll(ctx)

	assert.Eventually(t, func() bool { return r.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()

	time.Sleep(30 * time.Millisecond)
	stopped := r.calls.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, stopped, r.calls.Load())
}

type countingHealth struct {
	calls atomic.Int32
}

func (p *countingHealth) Refresh(context.Context) bool {
	p.calls.Add(1)
	return true
}

func TestHealthCheck_TicksUntilCancelled(t *testing.T) {
	r := &countingRefresher{}
	p := &countingHealth{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx, cancel := context.WithCancel(context.Background())

	NewBackgroundTasks(r, time.Hour, logger).WithHealthCheck(p, 10*time.Millisecond).StartAll(ctx)

	assert.Eventually(t, func() bool { return p.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()

	time.Sleep(30 * time.Millisecond)
	stopped := p.calls.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, stopped, p.calls.Load())
	assert.Equal(t, int32(1), r.calls.Load())
}
