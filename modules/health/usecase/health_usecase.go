package usecase

import (
	"context"
	"time"

	"bill-tracker/domain"
	"bill-tracker/pkg/log"

	"golang.org/x/sync/errgroup"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a plain function, e.g. a *sql.DB's PingContext.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Component is one dependency reported by the health check.
type Component struct {
	Name   string
	Pinger Pinger
}

type healthUsecase struct {
	backend    string
	components []Component
	timeout    time.Duration
	logger     log.Logger
}

func NewHealthUsecase(backend string, components []Component, timeout time.Duration, logger log.Logger) domain.HealthUsecase {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &healthUsecase{
		backend:    backend,
		components: components,
		timeout:    timeout,
		logger:     logger,
	}
}

// Check pings every component concurrently; the report is healthy only
// when all of them answer.
func (u *healthUsecase) Check(ctx context.Context) *domain.HealthReport {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	results := make([]*domain.ComponentHealth, len(u.components))
	// failures are recorded, not returned, so every component reports
	var g errgroup.Group
	for i, c := range u.components {
		g.Go(func() error {
			res := &domain.ComponentHealth{Name: c.Name, Healthy: true}
			if err := c.Pinger.Ping(ctx); err != nil {
				res.Healthy, res.Error = false, err.Error()
				u.logger.WarnContext(ctx, "health check failed", log.String("component", c.Name), log.Error(err))
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	report := &domain.HealthReport{Healthy: true, Backend: u.backend, Components: results}
	for _, r := range results {
		report.Healthy = report.Healthy && r.Healthy
	}
	return report
}
