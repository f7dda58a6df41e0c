package grpcapi

import (
	"context"
	"log/slog"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// FormService is the service name health clients ask about.
const FormService = "exchange_form.v1.Form"

// RateSourceChecker reports whether the rate source answers.
type RateSourceChecker interface {
	IsHealthy(ctx context.Context) bool
}

// HealthHandler serves grpc.health.v1 with the status of the last rate
// source check. Until the first check the form is NOT_SERVING.
type HealthHandler struct {
	server  *health.Server
	checker RateSourceChecker
	logger  *slog.Logger

	mu     sync.Mutex
	status grpc_health_v1.HealthCheckResponse_ServingStatus
}

func NewHealthHandler(checker RateSourceChecker, logger *slog.Logger) *HealthHandler {
	h := &HealthHandler{
		server:  health.NewServer(),
		checker: checker,
		logger:  logger,
		status:  grpc_health_v1.HealthCheckResponse_UNKNOWN,
	}
	h.set(grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	return h
}

func (h *HealthHandler) Register(s *grpc.Server) {
	grpc_health_v1.RegisterHealthServer(s, h.server)
}

// Refresh asks the rate source once and publishes the result.
func (h *HealthHandler) Refresh(ctx context.Context) bool {
	ok := h.checker.IsHealthy(ctx)
	if ok {
		h.set(grpc_health_v1.HealthCheckResponse_SERVING)
	} else {
		h.set(grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	}
	return ok
}

// Shutdown switches every service to NOT_SERVING; later refreshes are ignored.
func (h *HealthHandler) Shutdown() {
	h.server.Shutdown()
}

func (h *HealthHandler) set(status grpc_health_v1.HealthCheckResponse_ServingStatus) {
	h.mu.Lock()
	defer h.mu.Unlock()

	prev := h.status
	h.status = status
	h.server.SetServingStatus("", status)
	h.server.SetServingStatus(FormService, status)

	if prev == status || prev == grpc_health_v1.HealthCheckResponse_UNKNOWN {
		return
	}
	if status == grpc_health_v1.HealthCheckResponse_SERVING {
		h.logger.Info("rate source is back", "service", FormService)
	} else {
		h.logger.Warn("rate source is down", "service", FormService)
	}
}
