package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/saturnino-fabrica-de-software/accesssync/internal/domain"
	"github.com/saturnino-fabrica-de-software/accesssync/internal/service"
)

// Runner executes one reconciliation pass
type Runner interface {
	RunPass(ctx context.Context) (service.PassSummary, error)
}

type Config struct {
	Interval    time.Duration
	PassTimeout time.Duration
	RunOnStart  bool
}

// Status is a snapshot of the poll driver for the ops API
type Status struct {
	Running   bool                 `json:"running"`
	Passes    int64                `json:"passes"`
	LastPass  *service.PassSummary `json:"last_pass,omitempty"`
	LastError string               `json:"last_error,omitempty"`
	LastRunAt time.Time            `json:"last_run_at,omitempty"`
	NextRunAt time.Time            `json:"next_run_at,omitempty"`
	Interval  string               `json:"interval"`
	DryRun    bool                 `json:"dry_run"`
}

// Poller drives passes on a fixed interval. At most one pass runs at a time,
// whether it was scheduled or triggered.
type Poller struct {
	runner Runner
	cfg    Config
	logger *slog.Logger

	cron    *cron.Cron
	passID  cron.EntryID
	running atomic.Bool

	mu      sync.RWMutex
	base    context.Context
	passes  int64
	last    *service.PassSummary
	lastErr error
	lastAt  time.Time
	dryRun  bool
}

func New(runner Runner, cfg Config, logger *slog.Logger) (*Poller, error) {
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive, got %s", cfg.Interval)
	}
	if cfg.PassTimeout <= 0 {
		cfg.PassTimeout = 10 * time.Minute
	}

	logger = logger.With("component", "poller")
	cl := cronLogger{logger: logger}

	p := &Poller{
		runner: runner,
		cfg:    cfg,
		logger: logger,
		base:   context.Background(),
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
	}

	id, err := p.cron.AddFunc(fmt.Sprintf("@every %s", cfg.Interval), p.scheduled)
	if err != nil {
		return nil, fmt.Errorf("schedule pass: %w", err)
	}
	p.passID = id

	return p, nil
}

// MarkDryRun flags the status so operators can tell no external call is made
func (p *Poller) MarkDryRun(dryRun bool) {
	p.mu.Lock()
	p.dryRun = dryRun
	p.mu.Unlock()
}

// Schedule registers a housekeeping job on the same scheduler.
// Must be called before Run.
func (p *Poller) Schedule(spec, name string, job func(ctx context.Context) error) error {
	_, err := p.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(p.baseContext(), p.cfg.PassTimeout)
		defer cancel()

		if err := job(ctx); err != nil {
			p.logger.Error("scheduled job failed", "job", name, "error", err)
			return
		}
		p.logger.Debug("scheduled job finished", "job", name)
	})
	if err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	return nil
}

// Run starts the schedule and blocks until ctx is done, then waits for the
// in-flight pass to return.
func (p *Poller) Run(ctx context.Context) error {
	p.mu.Lock()
	p.base = ctx
	p.mu.Unlock()

	p.cron.Start()
	p.logger.Info("poller started",
		"interval", p.cfg.Interval.String(),
		"pass_timeout", p.cfg.PassTimeout.String(),
	)

	if p.cfg.RunOnStart {
		p.scheduled()
	}

	<-ctx.Done()

	stopped := p.cron.Stop()
	<-stopped.Done()
	p.logger.Info("poller stopped")
	return nil
}

// Trigger runs a pass now. It fails with domain.ErrPassInProgress when a pass
// is already running.
func (p *Poller) Trigger(ctx context.Context) (service.PassSummary, error) {
	return p.runPass(ctx, "manual")
}

func (p *Poller) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()

	st := Status{
		Running:   p.running.Load(),
		Passes:    p.passes,
		LastRunAt: p.lastAt,
		Interval:  p.cfg.Interval.String(),
		DryRun:    p.dryRun,
	}
	if p.last != nil {
		summary := *p.last
		st.LastPass = &summary
	}
	if p.lastErr != nil {
		st.LastError = p.lastErr.Error()
	}
	if entry := p.cron.Entry(p.passID); entry.Valid() {
		st.NextRunAt = entry.Next
	}
	return st
}

func (p *Poller) scheduled() {
	_, err := p.runPass(p.baseContext(), "schedule")
	if errors.Is(err, domain.ErrPassInProgress) {
		p.logger.Debug("skipping scheduled pass, one is already running")
	}
}

func (p *Poller) runPass(ctx context.Context, trigger string) (service.PassSummary, error) {
	if !p.running.CompareAndSwap(false, true) {
		return service.PassSummary{}, domain.ErrPassInProgress
	}
	defer p.running.Store(false)

	ctx, cancel := context.WithTimeout(ctx, p.cfg.PassTimeout)
	defer cancel()

	p.logger.Debug("pass starting", "trigger", trigger)
	summary, err := p.runner.RunPass(ctx)
	if err != nil {
		p.logger.Error("pass failed", "trigger", trigger, "error", err)
	}

	p.mu.Lock()
	p.passes++
	p.last = &summary
	p.lastErr = err
	p.lastAt = summary.FinishedAt
	if p.lastAt.IsZero() {
		p.lastAt = time.Now().UTC()
	}
	p.mu.Unlock()

	return summary, err
}

func (p *Poller) baseContext() context.Context {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.base
}

// cronLogger routes cron's own logging through slog
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
