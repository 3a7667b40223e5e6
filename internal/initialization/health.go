package initialization

import (
	"context"
	"errors"
	"time"

	"github.com/agentboard/api/internal/db"
	"github.com/agentboard/api/internal/logging"
)

// Health status values
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// HealthChecker checks the dependencies the API needs to serve requests
type HealthChecker struct {
	store   *db.Store
	logger  *logging.Logger
	timeout time.Duration
}

// NewHealthChecker creates a new health checker instance
func NewHealthChecker(store *db.Store, logger *logging.Logger) *HealthChecker {
	return &HealthChecker{
		store:   store,
		logger:  logger,
		timeout: 2 * time.Second,
	}
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks"`
}

// Healthy reports whether every check passed
func (h HealthStatus) Healthy() bool {
	return h.Status == StatusHealthy
}

// CheckResult represents the result of an individual health check
type CheckResult struct {
	Status   string  `json:"status"` // "pass" or "fail"
	Message  string  `json:"message,omitempty"`
	Duration float64 `json:"duration_ms"`
}

// CheckAll performs all health checks
func (hc *HealthChecker) CheckAll(ctx context.Context) HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, hc.timeout)
	defer cancel()

	checks := map[string]CheckResult{
		"database": hc.run(ctx, "database", func(ctx context.Context) (string, error) {
			return "", hc.store.Ping(ctx)
		}),
		"schema": hc.run(ctx, "schema", func(ctx context.Context) (string, error) {
			version, err := hc.store.SchemaVersion(ctx)
			if err != nil {
				return "", err
			}
			if version == 0 {
				return "no migrations applied", errNoSchema
			}
			return "", nil
		}),
	}

	status := StatusHealthy
	for _, c := range checks {
		if c.Status != "pass" {
			status = StatusUnhealthy
		}
	}

	return HealthStatus{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Checks:    checks,
	}
}

func (hc *HealthChecker) run(ctx context.Context, name string, check func(context.Context) (string, error)) CheckResult {
	start := time.Now()
	message, err := check(ctx)
	result := CheckResult{
		Status:   "pass",
		Message:  message,
		Duration: float64(time.Since(start).Microseconds()) / 1000,
	}
	if err != nil {
		result.Status = "fail"
		if result.Message == "" {
			result.Message = "unavailable"
		}
		if hc.logger != nil {
			hc.logger.Warn("Health check failed", map[string]interface{}{
				"check": name,
				"error": err.Error(),
			})
		}
	}
	return result
}

var errNoSchema = errors.New("schema not migrated")
