package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/atlas/internal/common"
	"github.com/ternarybob/atlas/internal/interfaces"
)

// Service runs scheduled catalog ingestions through robfig/cron. Overlapping
// runs are skipped, never queued: a crawl that outlives its interval simply
// absorbs the next tick.
type Service struct {
	ingest    interfaces.IngestService
	config    common.IngestConfig
	cron      *cron.Cron
	logger    arbor.ILogger
	mu        sync.Mutex
	running   bool
	inFlight  bool
	lastRun   time.Time
	lastError string
}

// NewService creates a scheduler service
func NewService(ingest interfaces.IngestService, config common.IngestConfig, logger arbor.ILogger) *Service {
	return &Service{
		ingest: ingest,
		config: config,
		cron:   cron.New(),
		logger: logger,
	}
}

// Start registers the cron entry and begins ticking. A disabled schedule is
// not an error; the service just stays idle.
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	if !s.config.ScheduleEnabled || s.config.Schedule == "" {
		s.logger.Info().Msg("Scheduled ingestion disabled")
		return nil
	}

	if _, err := s.cron.AddFunc(s.config.Schedule, s.runScheduled); err != nil {
		return fmt.Errorf("failed to register schedule %q: %w", s.config.Schedule, err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info().
		Str("schedule", s.config.Schedule).
		Str("session_id", s.config.ScheduleSessionID).
		Msg("Scheduler started")
	return nil
}

// Stop halts the cron loop and waits for an in-flight run to finish
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info().Msg("Scheduler stopped")
}

func (s *Service) runScheduled() {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		s.logger.Warn().Msg("Skipping scheduled ingestion, previous run still in flight")
		return
	}
	s.inFlight = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight = false
		s.mu.Unlock()
	}()

	s.logger.Info().Msg("Starting scheduled ingestion")

	result, err := s.ingest.Run(context.Background(), "scheduled", s.config.ScheduleSessionID)

	s.mu.Lock()
	s.lastRun = time.Now()
	if err != nil {
		s.lastError = err.Error()
	} else {
		s.lastError = ""
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error().Err(err).Msg("Scheduled ingestion failed")
		return
	}

	s.logger.Info().
		Str("job_id", result.JobID).
		Int("total", result.TotalProjects).
		Int("processed", result.TotalProcessed).
		Int("errors", result.TotalErrors).
		Msg("Scheduled ingestion completed")
}

// Status reports the last scheduled run for the health endpoint
func (s *Service) Status() (lastRun time.Time, lastError string, running bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun, s.lastError, s.running
}
