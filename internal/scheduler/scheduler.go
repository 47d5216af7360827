package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/swapi-vault/movies-api/internal/config"
	"github.com/swapi-vault/movies-api/internal/models"
	"github.com/swapi-vault/movies-api/internal/services"
	"github.com/swapi-vault/movies-api/internal/tracing"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Synchronizer runs one catalog synchronisation
type Synchronizer interface {
	Synchronize(ctx context.Context, trigger string) ([]models.Movie, error)
}

// SyncScheduler triggers the movie synchronisation on a cron schedule
type SyncScheduler struct {
	sync       Synchronizer
	cron       *cron.Cron
	schedule   string
	timeout    time.Duration
	runOnStart bool
	logger     *logrus.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	entryID cron.EntryID
}

func New(cfg *config.SyncConfig, s Synchronizer, logger *logrus.Logger) (*SyncScheduler, error) {
	if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
		return nil, fmt.Errorf("invalid cron expression '%s': %w", cfg.Schedule, err)
	}

	return &SyncScheduler{
		sync: s,
		cron: cron.New(cron.WithChain(
			cron.Recover(cron.PrintfLogger(logger)),
			cron.SkipIfStillRunning(cron.PrintfLogger(logger)),
		)),
		schedule:   cfg.Schedule,
		timeout:    cfg.Timeout,
		runOnStart: cfg.RunOnStart,
		logger:     logger,
	}, nil
}

// Start registers the job and starts the cron loop.
// Runs started by the scheduler are cancelled when ctx is done or Stop is called.
func (s *SyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return errors.New("scheduler already started")
	}

	ctx, cancel := context.WithCancel(ctx)

	entryID, err := s.cron.AddFunc(s.schedule, func() { s.run(ctx) })
	if err != nil {
		cancel()
		return fmt.Errorf("invalid cron expression '%s': %w", s.schedule, err)
	}
	s.entryID = entryID
	s.cancel = cancel

	if s.runOnStart {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.run(ctx)
		}()
	}

	s.cron.Start()
	s.logger.WithFields(logrus.Fields{
		"schedule":     s.schedule,
		"run_on_start": s.runOnStart,
	}).Info("Movie sync scheduler started")
	return nil
}

// Stop halts the schedule and waits for a running sync to return
func (s *SyncScheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()

	<-s.cron.Stop().Done()
	s.wg.Wait()
	s.logger.Info("Movie sync scheduler stopped")
}

// NextRun reports when the job fires next; zero before Start
func (s *SyncScheduler) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entryID == 0 {
		return time.Time{}
	}
	return s.cron.Entry(s.entryID).Next
}

func (s *SyncScheduler) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	runCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	runCtx, span := tracing.StartSpan(runCtx, "scheduler.SyncMovies")
	defer span.End()

	inserted, err := s.sync.Synchronize(runCtx, services.TriggerSchedule)
	if errors.Is(err, services.ErrSyncInProgress) {
		s.logger.Info("Skipping scheduled sync, another run is in progress")
		return
	}
	if err != nil {
		tracing.RecordError(span, err)
		// the service already logged the failure details
		return
	}

	tracing.AddSpanAttributes(span, map[string]interface{}{"sync.inserted": len(inserted)})
}
