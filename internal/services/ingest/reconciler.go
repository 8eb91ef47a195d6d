package ingest

import (
	"context"
	"sort"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/atlas/internal/interfaces"
	"github.com/ternarybob/atlas/internal/models"
)

// Reconciler lands parsed records into storage and keeps the per-country
// rollup in sync with the project table.
type Reconciler struct {
	projects       interfaces.ProjectStorage
	aggregates     interfaces.AggregateStorage
	chunkSize      int
	highConfidence float64
	logger         arbor.ILogger
}

// NewReconciler creates a reconciler. chunkSize bounds the records per
// storage write; highConfidence is the parse-confidence threshold counted
// separately in the rollup.
func NewReconciler(projects interfaces.ProjectStorage, aggregates interfaces.AggregateStorage, chunkSize int, highConfidence float64, logger arbor.ILogger) *Reconciler {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	return &Reconciler{
		projects:       projects,
		aggregates:     aggregates,
		chunkSize:      chunkSize,
		highConfidence: highConfidence,
		logger:         logger,
	}
}

// Flush upserts the batch in chunks. A failed chunk counts all of its records
// as errors and the flush moves on; one bad chunk must not discard the rest
// of a crawl.
func (r *Reconciler) Flush(ctx context.Context, batch []*models.Project) (processed, failed int) {
	for start := 0; start < len(batch); start += r.chunkSize {
		end := start + r.chunkSize
		if end > len(batch) {
			end = len(batch)
		}
		chunk := batch[start:end]

		if err := r.projects.UpsertProjects(ctx, chunk); err != nil {
			r.logger.Error().
				Err(err).
				Int("chunk_size", len(chunk)).
				Msg("Failed to upsert project chunk")
			failed += len(chunk)
			continue
		}
		processed += len(chunk)
	}
	return processed, failed
}

// RebuildAggregates recomputes the per-country rollup from the full project
// table and swaps it in wholesale. Records whose country was never resolved
// carry no code and stay out of the rollup.
func (r *Reconciler) RebuildAggregates(ctx context.Context) error {
	type bucket struct {
		total          int
		highConfidence int
	}
	buckets := make(map[string]*bucket)

	err := r.projects.ForEachProject(ctx, func(p *models.Project) error {
		if p.CountryCode == "" {
			return nil
		}
		b := buckets[p.CountryCode]
		if b == nil {
			b = &bucket{}
			buckets[p.CountryCode] = b
		}
		b.total++
		if p.ParseConfidence >= r.highConfidence {
			b.highConfidence++
		}
		return nil
	})
	if err != nil {
		return err
	}

	codes := make([]string, 0, len(buckets))
	for code := range buckets {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	now := time.Now()
	aggregates := make([]*models.CountryAggregate, 0, len(codes))
	for _, code := range codes {
		b := buckets[code]
		agg := &models.CountryAggregate{
			CountryCode:         code,
			ProjectCount:        b.total,
			HighConfidenceCount: b.highConfidence,
			RebuiltAt:           now,
		}
		if centroid, ok := countryCentroids[code]; ok {
			agg.CentroidLat = centroid[0]
			agg.CentroidLon = centroid[1]
			agg.HasCentroid = true
		}
		aggregates = append(aggregates, agg)
	}

	if err := r.aggregates.ReplaceAll(ctx, aggregates); err != nil {
		return err
	}

	r.logger.Info().
		Int("countries", len(aggregates)).
		Msg("Country aggregates rebuilt")
	return nil
}
