package events

import (
	"testing"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/atlas/internal/models"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	svc := NewService(arbor.NewLogger())

	ch1, cancel1 := svc.Subscribe()
	defer cancel1()
	ch2, cancel2 := svc.Subscribe()
	defer cancel2()

	event := &models.Event{Type: models.EventJobStarted, JobID: "job-1", Timestamp: time.Now()}
	svc.Publish(event)

	for _, ch := range []<-chan *models.Event{ch1, ch2} {
		select {
		case got := <-ch:
			if got.JobID != "job-1" || got.Type != models.EventJobStarted {
				t.Errorf("Unexpected event: %+v", got)
			}
		case <-time.After(time.Second):
			t.Fatal("Subscriber did not receive event")
		}
	}
}

func TestCancelledSubscriberStopsReceiving(t *testing.T) {
	svc := NewService(arbor.NewLogger())

	ch, cancel := svc.Subscribe()
	cancel()
	cancel() // idempotent

	// The channel is closed on cancel; publishing afterwards must not panic.
	svc.Publish(&models.Event{Type: models.EventJobCompleted, JobID: "job-2", Timestamp: time.Now()})

	if _, ok := <-ch; ok {
		t.Error("Expected closed channel after cancel")
	}
}

func TestSlowSubscriberDoesNotBlockPublish(t *testing.T) {
	svc := NewService(arbor.NewLogger())

	_, cancel := svc.Subscribe() // never drained
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < subscriberBuffer*2; i++ {
			svc.Publish(&models.Event{Type: models.EventJobProgress, JobID: "job-3", Timestamp: time.Now()})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}
}
