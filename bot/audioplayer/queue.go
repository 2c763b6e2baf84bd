package audioplayer

import (
	"context"
	"errors"
	"sync"
	"time"

	"kunkel-music-bot/model"
)

var (
	ErrDequeueTimeout = errors.New("timed out waiting for a track")
	ErrTrackNotFound  = errors.New("track not found in the queue")
	ErrQueueClosed    = errors.New("queue is closed")
)

type Queue struct {
	tracks []*model.Track
	notify chan struct{}
	closed chan struct{}
	mutex  sync.Mutex
}

// NewQueue constructs an empty FIFO queue of tracks
// pending to be played in a single session.
func NewQueue() *Queue {
	return &Queue{
		tracks: make([]*model.Track, 0),
		notify: make(chan struct{}, 1),
		closed: make(chan struct{}),
		mutex:  sync.Mutex{},
	}
}

// Enqueue appends the provided track to the tail of the queue
// and returns it's 1-based position. It never blocks.
func (q *Queue) Enqueue(track *model.Track) (int, error) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	if q.isClosed() {
		return 0, ErrQueueClosed
	}
	q.tracks = append(q.tracks, track)
	q.wake()
	return len(q.tracks), nil
}

// Dequeue removes and returns the head of the queue. If the queue
// is empty it waits until a track is enqueued, the timeout elapses
// or the context is done. When the timeout elapses with an empty
// queue, the queue is closed and ErrDequeueTimeout is returned, so
// an enqueue racing the timeout is either dequeued or rejected.
// A non-positive timeout waits without a limit.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (*model.Track, error) {
	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}
	for {
		if track, ok, err := q.tryDequeue(); err != nil {
			return nil, err
		} else if ok {
			return track, nil
		}
		select {
		case <-q.notify:
		case <-q.closed:
			return nil, ErrQueueClosed
		case <-expired:
			return q.expire()
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// RemoveAt removes the track at the provided 1-based position,
// as displayed by Snapshot. ErrTrackNotFound is returned and the
// queue is left unchanged when the position is out of range.
func (q *Queue) RemoveAt(position int) (*model.Track, error) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	if position < 1 || position > len(q.tracks) {
		return nil, ErrTrackNotFound
	}
	idx := position - 1
	track := q.tracks[idx]
	tracks := make([]*model.Track, 0, len(q.tracks)-1)
	tracks = append(tracks, q.tracks[:idx]...)
	q.tracks = append(tracks, q.tracks[idx+1:]...)
	return track, nil
}

// Clear removes all the pending tracks and returns
// the number of removed tracks.
func (q *Queue) Clear() int {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	n := len(q.tracks)
	q.tracks = make([]*model.Track, 0)
	return n
}

// Close clears the queue and rejects all future enqueues.
// Waiting dequeues return ErrQueueClosed.
func (q *Queue) Close() int {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	n := len(q.tracks)
	q.tracks = make([]*model.Track, 0)
	if !q.isClosed() {
		close(q.closed)
	}
	return n
}

// Snapshot returns an ordered copy of the pending tracks.
func (q *Queue) Snapshot() []*model.Track {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	tracks := make([]*model.Track, len(q.tracks))
	copy(tracks, q.tracks)
	return tracks
}

// Len returns the number of pending tracks.
func (q *Queue) Len() int {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return len(q.tracks)
}

func (q *Queue) tryDequeue() (*model.Track, bool, error) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	if q.isClosed() {
		return nil, false, ErrQueueClosed
	}
	if len(q.tracks) == 0 {
		return nil, false, nil
	}
	return q.pop(), true, nil
}

// expire dequeues the head if a track arrived before the timeout
// fired, or closes the empty queue while holding the mutex.
func (q *Queue) expire() (*model.Track, error) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	if q.isClosed() {
		return nil, ErrQueueClosed
	}
	if len(q.tracks) > 0 {
		return q.pop(), nil
	}
	close(q.closed)
	return nil, ErrDequeueTimeout
}

// pop must be called with the mutex held and a non-empty queue.
func (q *Queue) pop() *model.Track {
	track := q.tracks[0]
	q.tracks[0] = nil
	q.tracks = q.tracks[1:]
	if len(q.tracks) > 0 {
		// NOTE: pass the wake up to another waiting
		// dequeue, as enqueue signals are coalesced
		q.wake()
	}
	return track
}

// wake must be called with the mutex held.
func (q *Queue) wake() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

func (q *Queue) isClosed() bool {
	select {
	case <-q.closed:
		return true
	default:
		return false
	}
}
