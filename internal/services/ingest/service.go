package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/atlas/internal/fetcher"
	"github.com/ternarybob/atlas/internal/interfaces"
	"github.com/ternarybob/atlas/internal/models"
	"github.com/ternarybob/atlas/internal/parser"
	"github.com/ternarybob/atlas/internal/services/partner"
)

const (
	rateLimitCooldown   = 2 * time.Second
	rateLimitMaxRetries = 5
)

// Config tunes one ingestion run
type Config struct {
	PageSize         int
	ChunkSize        int
	ProgressInterval int
}

// Service crawls the partner catalog end to end: token, scope probe, hub
// walk, offset pagination, parse, reconcile, aggregate rebuild. One run is
// one job row.
type Service struct {
	tokens     interfaces.TokenService
	client     *partner.Client
	tracker    *Tracker
	reconciler *Reconciler
	retry      *fetcher.RetryPolicy
	config     Config
	logger     arbor.ILogger
}

// NewService creates the ingest service
func NewService(tokens interfaces.TokenService, client *partner.Client, tracker *Tracker, reconciler *Reconciler, config Config, logger arbor.ILogger) *Service {
	if config.PageSize <= 0 {
		config.PageSize = 200
	}
	if config.ChunkSize <= 0 {
		config.ChunkSize = 1000
	}
	if config.ProgressInterval <= 0 {
		config.ProgressInterval = 50
	}
	return &Service{
		tokens:     tokens,
		client:     client,
		tracker:    tracker,
		reconciler: reconciler,
		retry:      fetcher.NewRetryPolicy(),
		config:     config,
		logger:     logger,
	}
}

// Run executes one full catalog ingestion for the session. Authentication
// and scope problems surface before any job row exists, so a rejected sync
// leaves no failed-job noise in the audit trail.
func (s *Service) Run(ctx context.Context, triggeredBy, sessionID string) (*interfaces.RunResult, error) {
	token, err := s.tokens.AccessTokenForSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.client.ProbeScopes(ctx, token); err != nil {
		return nil, err
	}

	job, err := s.tracker.Start(ctx, triggeredBy)
	if err != nil {
		return nil, fmt.Errorf("failed to create ingestion job: %w", err)
	}

	result, runErr := s.crawl(ctx, job, sessionID)
	if runErr != nil {
		s.tracker.Fail(ctx, job, runErr)
		return nil, runErr
	}

	// The rollup is best-effort: a failed rebuild is noted on the job but
	// does not fail a crawl that already landed its records.
	if err := s.reconciler.RebuildAggregates(ctx); err != nil {
		s.logger.Warn().Err(err).Str("job_id", job.ID).Msg("Aggregate rebuild failed")
		job.Notes = "aggregate rebuild failed: " + err.Error()
	}

	s.tracker.Complete(ctx, job)
	return result, nil
}

func (s *Service) crawl(ctx context.Context, job *models.IngestJob, sessionID string) (*interfaces.RunResult, error) {
	var hubs []partner.Hub
	err := s.callWithRetry(ctx, sessionID, func(token string) error {
		var callErr error
		hubs, callErr = s.client.ListHubs(ctx, token)
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list hubs: %w", err)
	}

	s.logger.Info().
		Str("job_id", job.ID).
		Int("hubs", len(hubs)).
		Msg("Starting catalog crawl")

	var batch []*models.Project
	lastProgress := 0

	for _, hub := range hubs {
		offset := 0
		for {
			var page []partner.Project
			err := s.callWithRetry(ctx, sessionID, func(token string) error {
				var callErr error
				page, callErr = s.client.ListProjects(ctx, token, hub.ID, s.config.PageSize, offset)
				return callErr
			})
			if err != nil {
				return nil, fmt.Errorf("failed to list projects for hub %s at offset %d: %w", hub.ID, offset, err)
			}
			if len(page) == 0 {
				break
			}

			for _, raw := range page {
				parsed := parser.Parse(raw.Name)
				batch = append(batch, &models.Project{
					ProjectID:       raw.ID,
					NameRaw:         raw.Name,
					HubID:           hub.ID,
					CountryName:     parsed.CountryName,
					CountryCode:     parsed.CountryCode,
					UnitCode:        parsed.UnitCode,
					UnitNumber:      parsed.UnitNumber,
					City:            parsed.City,
					ParseConfidence: parsed.Confidence,
				})
			}

			job.TotalProjects += len(page)
			if job.TotalProjects-lastProgress >= s.config.ProgressInterval {
				lastProgress = job.TotalProjects
				s.tracker.Progress(ctx, job)
			}

			if len(batch) >= s.config.ChunkSize {
				processed, failed := s.reconciler.Flush(ctx, batch)
				job.ProcessedProjects += processed
				job.ErrorsCount += failed
				batch = batch[:0]
			}

			// Offset advances by what actually came back, not by the
			// requested page size; a short page also means we are done.
			offset += len(page)
			if len(page) < s.config.PageSize {
				break
			}
		}
	}

	if len(batch) > 0 {
		processed, failed := s.reconciler.Flush(ctx, batch)
		job.ProcessedProjects += processed
		job.ErrorsCount += failed
	}

	return &interfaces.RunResult{
		Success:        true,
		JobID:          job.ID,
		TotalProjects:  job.TotalProjects,
		TotalProcessed: job.ProcessedProjects,
		TotalErrors:    job.ErrorsCount,
	}, nil
}

// callWithRetry runs one catalog call with the recovery ladder: a rejected
// token is refreshed and retried exactly once, 429 cools down and replays
// the same call, and retryable upstream statuses back off per policy.
func (s *Service) callWithRetry(ctx context.Context, sessionID string, call func(token string) error) error {
	refreshed := false
	rateLimitHits := 0
	attempt := 0

	for {
		token, err := s.tokens.AccessTokenForSession(ctx, sessionID)
		if err != nil {
			return err
		}

		err = call(token)
		switch {
		case err == nil:
			return nil

		case errors.Is(err, partner.ErrTokenRejected):
			if refreshed {
				return fmt.Errorf("access token rejected after refresh: %w", err)
			}
			refreshed = true
			s.tokens.Invalidate(sessionID)
			s.logger.Debug().Msg("Access token rejected, refreshing and retrying once")

		case errors.Is(err, partner.ErrRateLimited):
			rateLimitHits++
			if rateLimitHits > rateLimitMaxRetries {
				return fmt.Errorf("rate limited %d times in a row: %w", rateLimitHits, err)
			}
			s.logger.Warn().
				Int("hits", rateLimitHits).
				Dur("cooldown", rateLimitCooldown).
				Msg("Rate limited by partner API, cooling down")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(rateLimitCooldown):
			}

		default:
			var statusErr *partner.StatusError
			if errors.As(err, &statusErr) && s.retry.ShouldRetry(attempt+1, statusErr.StatusCode, nil) {
				backoff := s.retry.CalculateBackoff(attempt)
				attempt++
				s.logger.Debug().
					Int("attempt", attempt).
					Int("status_code", statusErr.StatusCode).
					Dur("backoff", backoff).
					Msg("Retrying after upstream error")
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(backoff):
				}
				continue
			}
			return err
		}
	}
}
