package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/atlas/internal/interfaces"
	"github.com/ternarybob/atlas/internal/models"
)

// AggregateStorage implements the AggregateStorage interface for Badger
type AggregateStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewAggregateStorage creates a new AggregateStorage instance
func NewAggregateStorage(db *BadgerDB, logger arbor.ILogger) interfaces.AggregateStorage {
	return &AggregateStorage{
		db:     db,
		logger: logger,
	}
}

// ReplaceAll swaps the entire aggregate set. The view is materialized
// wholesale after each run, never patched row by row.
func (s *AggregateStorage) ReplaceAll(ctx context.Context, aggregates []*models.CountryAggregate) error {
	if err := s.db.Store().DeleteMatching(&models.CountryAggregate{}, nil); err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to clear aggregates: %w", err)
	}

	for _, agg := range aggregates {
		if agg.CountryCode == "" {
			continue
		}
		if err := s.db.Store().Upsert(agg.CountryCode, agg); err != nil {
			return fmt.Errorf("failed to store aggregate %s: %w", agg.CountryCode, err)
		}
	}
	return nil
}

func (s *AggregateStorage) ListAggregates(ctx context.Context) ([]*models.CountryAggregate, error) {
	var aggregates []models.CountryAggregate
	if err := s.db.Store().Find(&aggregates, badgerhold.Where("CountryCode").Ne("").SortBy("CountryCode")); err != nil {
		return nil, fmt.Errorf("failed to list aggregates: %w", err)
	}

	result := make([]*models.CountryAggregate, len(aggregates))
	for i := range aggregates {
		result[i] = &aggregates[i]
	}
	return result, nil
}
