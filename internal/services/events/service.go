package events

import (
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/atlas/internal/interfaces"
	"github.com/ternarybob/atlas/internal/models"
)

const subscriberBuffer = 64

// Service implements EventService with a channel-fanout pub/sub pattern.
// Each subscriber gets a buffered channel; a subscriber that stops draining
// loses events rather than stalling the ingest pipeline.
type Service struct {
	subscribers map[int]chan *models.Event
	nextID      int
	mu          sync.Mutex
	logger      arbor.ILogger
}

// NewService creates a new event service
func NewService(logger arbor.ILogger) interfaces.EventService {
	return &Service{
		subscribers: make(map[int]chan *models.Event),
		logger:      logger,
	}
}

// Publish fans the event out to all current subscribers without blocking
func (s *Service) Publish(event *models.Event) {
	if event == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, ch := range s.subscribers {
		select {
		case ch <- event:
		default:
			s.logger.Warn().
				Str("event_type", string(event.Type)).
				Int("subscriber_id", id).
				Msg("Dropping event for slow subscriber")
		}
	}
}

// Subscribe registers a new subscriber and returns its channel plus a
// cancel function. Cancel is idempotent and closes the channel.
func (s *Service) Subscribe() (<-chan *models.Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++

	ch := make(chan *models.Event, subscriberBuffer)
	s.subscribers[id] = ch

	s.logger.Debug().
		Int("subscriber_id", id).
		Int("subscriber_count", len(s.subscribers)).
		Msg("Event subscriber registered")

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subscribers, id)
			close(ch)
		})
	}

	return ch, cancel
}
