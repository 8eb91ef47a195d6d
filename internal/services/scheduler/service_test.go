package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/atlas/internal/common"
	"github.com/ternarybob/atlas/internal/interfaces"
)

type fakeIngest struct {
	runs    int32
	block   chan struct{} // when set, Run blocks until closed
	lastBy  string
	lastSID string
	mu      sync.Mutex
}

func (f *fakeIngest) Run(ctx context.Context, triggeredBy, sessionID string) (*interfaces.RunResult, error) {
	atomic.AddInt32(&f.runs, 1)
	f.mu.Lock()
	f.lastBy = triggeredBy
	f.lastSID = sessionID
	f.mu.Unlock()
	if f.block != nil {
		<-f.block
	}
	return &interfaces.RunResult{JobID: "job-1"}, nil
}

func TestScheduledRunUsesConfiguredSession(t *testing.T) {
	ingest := &fakeIngest{}
	svc := NewService(ingest, common.IngestConfig{ScheduleSessionID: "scheduler"}, arbor.NewLogger())

	svc.runScheduled()

	if got := atomic.LoadInt32(&ingest.runs); got != 1 {
		t.Fatalf("Expected 1 run, got %d", got)
	}
	ingest.mu.Lock()
	defer ingest.mu.Unlock()
	if ingest.lastBy != "scheduled" {
		t.Errorf("Expected triggered_by=scheduled, got %s", ingest.lastBy)
	}
	if ingest.lastSID != "scheduler" {
		t.Errorf("Expected configured session id, got %s", ingest.lastSID)
	}
}

func TestOverlappingScheduledRunIsSkipped(t *testing.T) {
	ingest := &fakeIngest{block: make(chan struct{})}
	svc := NewService(ingest, common.IngestConfig{ScheduleSessionID: "scheduler"}, arbor.NewLogger())

	done := make(chan struct{})
	go func() {
		defer close(done)
		svc.runScheduled()
	}()

	// Wait for the first run to be in flight, then tick again.
	deadline := time.Now().Add(time.Second)
	for atomic.LoadInt32(&ingest.runs) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("First run never started")
		}
		time.Sleep(5 * time.Millisecond)
	}

	svc.runScheduled() // must return immediately without a second run

	close(ingest.block)
	<-done

	if got := atomic.LoadInt32(&ingest.runs); got != 1 {
		t.Errorf("Expected overlapping tick to be skipped, got %d runs", got)
	}
}

func TestStartDisabledScheduleIsNoop(t *testing.T) {
	svc := NewService(&fakeIngest{}, common.IngestConfig{ScheduleEnabled: false}, arbor.NewLogger())
	if err := svc.Start(); err != nil {
		t.Fatalf("Disabled schedule must not error: %v", err)
	}
	svc.Stop()
}

func TestStartRejectsBadSchedule(t *testing.T) {
	svc := NewService(&fakeIngest{}, common.IngestConfig{ScheduleEnabled: true, Schedule: "not a cron"}, arbor.NewLogger())
	if err := svc.Start(); err == nil {
		t.Fatal("Expected error for malformed schedule")
	}
}
