package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"msc-cert/portal-backend/internal/certificates"
)

// StatusService is the part of the certificate service the refresher drives.
type StatusService interface {
	RefreshStatuses(ctx context.Context) (int, error)
	ExpiringSoon(ctx context.Context) ([]certificates.Certificate, error)
	MaintenanceDue(ctx context.Context) ([]certificates.Certificate, error)
}

// RunSummary reports the outcome of one sweep.
type RunSummary struct {
	Changed        int
	ExpiringSoon   int
	MaintenanceDue int
	Duration       time.Duration
}

// StatusRefresher periodically re-derives certificate statuses.
type StatusRefresher struct {
	cron    *cron.Cron
	spec    string
	service StatusService
	logger  *zap.Logger
	timeout time.Duration

	mu      sync.Mutex
	running bool
}

// NewStatusRefresher parses spec (seconds field first) in loc.
func NewStatusRefresher(service StatusService, spec string, loc *time.Location, logger *zap.Logger) (*StatusRefresher, error) {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if _, err := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor).Parse(spec); err != nil {
		return nil, fmt.Errorf("invalid cron spec %q: %w", spec, err)
	}
	return &StatusRefresher{
		cron:    cron.New(cron.WithSeconds(), cron.WithLocation(loc), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		spec:    spec,
		service: service,
		logger:  logger,
		timeout: 10 * time.Minute,
	}, nil
}

// RunOnce performs a single sweep.
func (r *StatusRefresher) RunOnce(ctx context.Context) (RunSummary, error) {
	start := time.Now()
	summary := RunSummary{}

	changed, err := r.service.RefreshStatuses(ctx)
	summary.Changed = changed
	if err != nil {
		return summary, fmt.Errorf("refresh statuses: %w", err)
	}

	expiring, err := r.service.ExpiringSoon(ctx)
	if err != nil {
		return summary, fmt.Errorf("list expiring certificates: %w", err)
	}
	summary.ExpiringSoon = len(expiring)

	due, err := r.service.MaintenanceDue(ctx)
	if err != nil {
		return summary, fmt.Errorf("list maintenance due certificates: %w", err)
	}
	summary.MaintenanceDue = len(due)
	summary.Duration = time.Since(start)

	r.logger.Info("Certificate status sweep completed",
		zap.Int("changed", summary.Changed),
		zap.Int("expiring_soon", summary.ExpiringSoon),
		zap.Int("maintenance_due", summary.MaintenanceDue),
		zap.Duration("duration", summary.Duration),
	)
	return summary, nil
}

// Start schedules the sweep. It returns an error when already running.
func (r *StatusRefresher) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return fmt.Errorf("status refresher already running")
	}

	_, err := r.cron.AddFunc(r.spec, func() {
		runCtx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()
		if _, err := r.RunOnce(runCtx); err != nil {
			r.logger.Error("Certificate status sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("schedule status sweep: %w", err)
	}

	r.logger.Info("Starting status refresher", zap.String("schedule", r.spec))
	r.cron.Start()
	r.running = true
	return nil
}

// Stop waits for a running sweep to finish.
func (r *StatusRefresher) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return
	}

	r.logger.Info("Stopping status refresher")
	<-r.cron.Stop().Done()
	r.running = false
}

// Next returns the next scheduled run, zero before Start.
func (r *StatusRefresher) Next() time.Time {
	entries := r.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}
