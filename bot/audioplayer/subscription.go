package audioplayer

import (
	"sync"

	"kunkel-music-bot/model"
)

type EventType string

var (
	EventTrackStart EventType = "track-start"
	EventTrackEnd   EventType = "track-end"
	EventDestroyed  EventType = "destroyed"
)

type Event struct {
	Type      EventType
	SessionID string
	GuildID   string
	Track     *model.Track
	Err       error
}

type Subscriptions struct {
	subscriptions     map[EventType][]func(Event)
	subscriptionsSync sync.Mutex
}

func NewSubscriptions() *Subscriptions {
	return &Subscriptions{
		subscriptions:     make(map[EventType][]func(Event)),
		subscriptionsSync: sync.Mutex{},
	}
}

// Subscribe registers the provided function to be called
// whenever an event of the provided type is emitted.
func (s *Subscriptions) Subscribe(eventType EventType, f func(Event)) {
	s.subscriptionsSync.Lock()
	defer s.subscriptionsSync.Unlock()

	if s.subscriptions[eventType] == nil {
		s.subscriptions[eventType] = make([]func(Event), 0)
	}
	s.subscriptions[eventType] = append(s.subscriptions[eventType], f)
}

// Emit calls all the subscribers of the event's type in
// a separate goroutine, so the emitter is never blocked.
func (s *Subscriptions) Emit(event Event) {
	s.subscriptionsSync.Lock()
	l, ok := s.subscriptions[event.Type]
	s.subscriptionsSync.Unlock()

	if ok && l != nil {
		go func() {
			for _, f := range l {
				f(event)
			}
		}()
	}
}
