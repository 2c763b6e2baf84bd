package audioplayer

import (
	"context"
	"errors"
	"sync"
)

var ErrRegistryClosed = errors.New("registry has been shut down")

// creation is a session being constructed by a factory,
// concurrent callers for the same guild wait on done.
type creation struct {
	done    chan struct{}
	session *Session
	err     error
}

type Registry struct {
	sessions      map[string]*Session
	pending       map[string]*creation
	subscriptions *Subscriptions
	closed        bool
	mutex         sync.Mutex
}

// NewRegistry constructs a new object that holds
// the live sessions for all the guilds
func NewRegistry() *Registry {
	return &Registry{
		sessions:      make(map[string]*Session),
		pending:       make(map[string]*creation),
		subscriptions: NewSubscriptions(),
		mutex:         sync.Mutex{},
	}
}

// Subscriptions returns the events emitted by
// all the sessions in the registry.
func (r *Registry) Subscriptions() *Subscriptions {
	return r.subscriptions
}

// GetOrCreate returns the live session for the provided guildID.
// If there is no such session, it is constructed with the provided
// factory, inserted and started. Concurrent callers for the same
// guildID wait for a single factory call. A failed factory leaves
// no entry in the registry. The returned bool is true only for
// the caller whose factory constructed the session.
func (r *Registry) GetOrCreate(guildID string, factory func() (*Session, error)) (*Session, bool, error) {
	r.mutex.Lock()
	if s, ok := r.sessions[guildID]; ok {
		r.mutex.Unlock()
		return s, false, nil
	}
	if c, ok := r.pending[guildID]; ok {
		r.mutex.Unlock()
		<-c.done
		return c.session, false, c.err
	}
	if r.closed {
		r.mutex.Unlock()
		return nil, false, ErrRegistryClosed
	}
	c := &creation{done: make(chan struct{})}
	r.pending[guildID] = c
	r.mutex.Unlock()

	s, err := factory()
	if err == nil && s == nil {
		err = ErrSessionClosed
	}

	r.mutex.Lock()
	delete(r.pending, guildID)
	if err == nil {
		// NOTE: start while holding the lock, so a concurrent
		// Shutdown always sees a started session
		if err = s.start(r); err == nil {
			r.sessions[guildID] = s
			c.session = s
		}
	}
	c.err = err
	r.mutex.Unlock()
	close(c.done)

	if err != nil {
		return nil, false, err
	}
	return s, true, nil
}

// Get returns the live session for the provided guildID,
// returns nil, false if there is no such session
func (r *Registry) Get(guildID string) (*Session, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	s, ok := r.sessions[guildID]
	return s, ok
}

// Remove removes the provided session from the registry. A session
// that has already been replaced by a newer one for the same guild
// is ignored. Removing is idempotent.
func (r *Registry) Remove(guildID string, s *Session) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if current, ok := r.sessions[guildID]; ok && current == s {
		delete(r.sessions, guildID)
	}
}

// Keys returns a slice containing all the guildIDs
// with a live session
func (r *Registry) Keys() []string {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	keys := make([]string, 0, len(r.sessions))
	for k := range r.sessions {
		keys = append(keys, k)
	}
	return keys
}

func (r *Registry) Len() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return len(r.sessions)
}

// Shutdown rejects new sessions, stops all the live sessions
// and waits for their player loops to exit.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mutex.Lock()
	r.closed = true
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mutex.Unlock()

	errs := make(chan error, len(sessions))
	wg := sync.WaitGroup{}
	for _, s := range sessions {
		wg.Add(1)
		go func(s *Session) {
			defer wg.Done()
			if err := s.Stop(ctx); err != nil {
				errs <- err
			}
		}(s)
	}
	wg.Wait()
	close(errs)
	return <-errs
}
