package badger

import (
	"context"
	"testing"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/atlas/internal/common"
	"github.com/ternarybob/atlas/internal/models"
)

func newTestDB(t *testing.T) *BadgerDB {
	t.Helper()

	db, err := NewBadgerDB(arbor.NewLogger(), &common.BadgerConfig{Path: t.TempDir()})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestProjectUpsertIdempotent(t *testing.T) {
	db := newTestDB(t)
	logger := arbor.NewLogger()
	storage := NewProjectStorage(db, logger)
	ctx := context.Background()

	unit := 123
	batch := []*models.Project{
		{ProjectID: "p-1", NameRaw: "Sweden_123_Stockholm", CountryName: "Sweden", CountryCode: "SE", UnitCode: "123", UnitNumber: &unit, City: "Stockholm", ParseConfidence: 1.0},
		{ProjectID: "p-2", NameRaw: "Unknown_XX_", CountryName: "Unknown", ParseConfidence: 0.5},
	}

	if err := storage.UpsertProjects(ctx, batch); err != nil {
		t.Fatalf("First upsert failed: %v", err)
	}
	if err := storage.UpsertProjects(ctx, batch); err != nil {
		t.Fatalf("Second upsert failed: %v", err)
	}

	count, err := storage.CountProjects(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 projects after double upsert, got %d", count)
	}

	stored, err := storage.GetProject(ctx, "p-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if stored.CountryCode != "SE" || stored.City != "Stockholm" {
		t.Errorf("Stored row drifted: %+v", stored)
	}
	if stored.UnitNumber == nil || *stored.UnitNumber != 123 {
		t.Errorf("Expected unit number 123, got %v", stored.UnitNumber)
	}
}

func TestProjectUpsertLastWriteWins(t *testing.T) {
	db := newTestDB(t)
	storage := NewProjectStorage(db, arbor.NewLogger())
	ctx := context.Background()

	first := []*models.Project{{ProjectID: "p-1", NameRaw: "Sweden_123_Stockholm", CountryCode: "SE", ParseConfidence: 1.0}}
	if err := storage.UpsertProjects(ctx, first); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	stored, _ := storage.GetProject(ctx, "p-1")
	firstIngested := stored.IngestedAt

	time.Sleep(5 * time.Millisecond)

	// A later run renames the project; the whole row is overwritten, no
	// partial-field merge, but the original ingest time survives.
	second := []*models.Project{{ProjectID: "p-1", NameRaw: "Danmark_7_Copenhagen", CountryCode: "DK", City: "Copenhagen", ParseConfidence: 1.0}}
	if err := storage.UpsertProjects(ctx, second); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	stored, err := storage.GetProject(ctx, "p-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if stored.CountryCode != "DK" || stored.City != "Copenhagen" {
		t.Errorf("Expected last write to win, got %+v", stored)
	}
	if !stored.IngestedAt.Equal(firstIngested) {
		t.Errorf("IngestedAt must survive overwrites: was %v, now %v", firstIngested, stored.IngestedAt)
	}
	if !stored.UpdatedAt.After(firstIngested) {
		t.Errorf("UpdatedAt must advance on overwrite")
	}
}

func TestJobLifecyclePersistence(t *testing.T) {
	db := newTestDB(t)
	storage := NewJobStorage(db, arbor.NewLogger())
	ctx := context.Background()

	job := &models.IngestJob{
		ID:          "job-1",
		TriggeredBy: "manual",
		Status:      models.JobStatusRunning,
		CreatedAt:   time.Now(),
	}
	if err := storage.SaveJob(ctx, job); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	job.Status = models.JobStatusCompleted
	job.ProcessedProjects = 250
	job.TotalProjects = 250
	job.CompletedAt = time.Now()
	if err := storage.SaveJob(ctx, job); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	stored, err := storage.GetJob(ctx, "job-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if stored.Status != models.JobStatusCompleted || stored.ProcessedProjects != 250 {
		t.Errorf("Unexpected stored job: %+v", stored)
	}
}

func TestListJobsNewestFirst(t *testing.T) {
	db := newTestDB(t)
	storage := NewJobStorage(db, arbor.NewLogger())
	ctx := context.Background()

	base := time.Now()
	for i, id := range []string{"job-a", "job-b", "job-c"} {
		job := &models.IngestJob{
			ID:          id,
			TriggeredBy: "manual",
			Status:      models.JobStatusCompleted,
			CreatedAt:   base.Add(time.Duration(i) * time.Second),
		}
		if err := storage.SaveJob(ctx, job); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	jobs, err := storage.ListJobs(ctx, 2)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("Expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0].ID != "job-c" || jobs[1].ID != "job-b" {
		t.Errorf("Expected newest first, got %s, %s", jobs[0].ID, jobs[1].ID)
	}
}

func TestSessionUpsertSupersedes(t *testing.T) {
	db := newTestDB(t)
	storage := NewSessionStorage(db, arbor.NewLogger())
	ctx := context.Background()

	session := &models.Session{
		SessionID:       "sess-1",
		RefreshTokenEnc: "bm9uY2U=.Y2lwaGVydGV4dA==",
		Scope:           "data:read",
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	if err := storage.UpsertSession(ctx, session); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	// A later exchange supersedes the row for the same session id.
	session.RefreshTokenEnc = "bm9uY2Uy.Y2lwaGVydGV4dDI="
	if err := storage.UpsertSession(ctx, session); err != nil {
		t.Fatalf("Second upsert failed: %v", err)
	}

	stored, err := storage.GetSession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if stored.RefreshTokenEnc != "bm9uY2Uy.Y2lwaGVydGV4dDI=" {
		t.Errorf("Expected superseded token, got %s", stored.RefreshTokenEnc)
	}
}

func TestSessionDeleteIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	storage := NewSessionStorage(db, arbor.NewLogger())
	ctx := context.Background()

	if err := storage.DeleteSession(ctx, "never-existed"); err != nil {
		t.Errorf("Deleting a missing session must not error: %v", err)
	}
}

func TestAggregateReplaceAll(t *testing.T) {
	db := newTestDB(t)
	storage := NewAggregateStorage(db, arbor.NewLogger())
	ctx := context.Background()

	first := []*models.CountryAggregate{
		{CountryCode: "SE", ProjectCount: 10, HighConfidenceCount: 8, RebuiltAt: time.Now()},
		{CountryCode: "DK", ProjectCount: 5, HighConfidenceCount: 5, RebuiltAt: time.Now()},
	}
	if err := storage.ReplaceAll(ctx, first); err != nil {
		t.Fatalf("ReplaceAll failed: %v", err)
	}

	// The rebuild is wholesale: countries absent from the new set disappear.
	second := []*models.CountryAggregate{
		{CountryCode: "SE", ProjectCount: 12, HighConfidenceCount: 9, RebuiltAt: time.Now()},
	}
	if err := storage.ReplaceAll(ctx, second); err != nil {
		t.Fatalf("ReplaceAll failed: %v", err)
	}

	aggregates, err := storage.ListAggregates(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(aggregates) != 1 {
		t.Fatalf("Expected 1 aggregate after replace, got %d", len(aggregates))
	}
	if aggregates[0].CountryCode != "SE" || aggregates[0].ProjectCount != 12 {
		t.Errorf("Unexpected aggregate: %+v", aggregates[0])
	}
}
