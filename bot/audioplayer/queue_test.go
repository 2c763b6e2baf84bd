package audioplayer_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"kunkel-music-bot/bot/audioplayer"
	"kunkel-music-bot/model"

	"github.com/stretchr/testify/suite"
)

type QueueTestSuite struct {
	suite.Suite
}

func titles(tracks []*model.Track) []string {
	l := make([]string, 0, len(tracks))
	for _, t := range tracks {
		l = append(l, t.Title())
	}
	return l
}

// TestUnitSnapshotOrder tests that the snapshot always
// returns the tracks in the order they were enqueued.
func (s *QueueTestSuite) TestUnitSnapshotOrder() {
	q := audioplayer.NewQueue()
	expected := make([]string, 0)
	for _, title := range []string{"A", "B", "C", "D", "E"} {
		position, err := q.Enqueue(newTrack(title))
		s.NoError(err)
		expected = append(expected, title)
		s.Equal(len(expected), position)
		s.Equal(expected, titles(q.Snapshot()))
	}
	s.Equal(5, q.Len())
}

// TestUnitSnapshotIsCopy tests that modifying a
// snapshot does not modify the queue.
func (s *QueueTestSuite) TestUnitSnapshotIsCopy() {
	q := audioplayer.NewQueue()
	q.Enqueue(newTrack("A"))
	snapshot := q.Snapshot()
	snapshot[0] = newTrack("B")
	s.Equal([]string{"A"}, titles(q.Snapshot()))
}

// TestUnitDequeueFIFO tests that the tracks are
// dequeued in the order they were enqueued.
func (s *QueueTestSuite) TestUnitDequeueFIFO() {
	q := audioplayer.NewQueue()
	q.Enqueue(newTrack("A"))
	q.Enqueue(newTrack("B"))
	q.Enqueue(newTrack("C"))

	for _, title := range []string{"A", "B", "C"} {
		track, err := q.Dequeue(context.Background(), time.Second)
		s.NoError(err)
		s.Equal(title, track.Title())
	}
	s.Equal(0, q.Len())
}

// TestUnitDequeueTimeout tests that dequeue on an empty
// queue times out after at least the provided timeout.
func (s *QueueTestSuite) TestUnitDequeueTimeout() {
	q := audioplayer.NewQueue()
	timeout := 50 * time.Millisecond

	t := time.Now()
	track, err := q.Dequeue(context.Background(), timeout)
	s.ErrorIs(err, audioplayer.ErrDequeueTimeout)
	s.Nil(track)
	s.GreaterOrEqual(time.Since(t), timeout)

	_, err = q.Enqueue(newTrack("A"))
	s.ErrorIs(err, audioplayer.ErrQueueClosed)
}

// TestUnitDequeueTimeoutEnqueueRace tests that a track enqueued
// while the dequeue timeout elapses is either returned by the
// dequeue or rejected by the closed queue, never dropped.
func (s *QueueTestSuite) TestUnitDequeueTimeoutEnqueueRace() {
	for i := 0; i < 500; i++ {
		q := audioplayer.NewQueue()
		enqueued := make(chan error, 1)
		go func() {
			time.Sleep(time.Millisecond)
			_, err := q.Enqueue(newTrack("A"))
			enqueued <- err
		}()
		track, err := q.Dequeue(context.Background(), time.Millisecond)
		enqueueErr := <-enqueued
		if enqueueErr != nil {
			s.ErrorIs(enqueueErr, audioplayer.ErrQueueClosed)
			s.ErrorIs(err, audioplayer.ErrDequeueTimeout)
			continue
		}
		if err != nil {
			s.FailNow("Accepted track was not dequeued", "iteration %d: %v", i, err)
		}
		s.Equal("A", track.Title())
	}
}

// TestUnitDequeueWaitsForEnqueue tests that a waiting
// dequeue returns the track enqueued while waiting.
func (s *QueueTestSuite) TestUnitDequeueWaitsForEnqueue() {
	q := audioplayer.NewQueue()

	go func() {
		time.Sleep(20 * time.Millisecond)
		q.Enqueue(newTrack("A"))
	}()
	track, err := q.Dequeue(context.Background(), 5*time.Second)
	s.NoError(err)
	s.Equal("A", track.Title())
}

// TestUnitDequeueContextCanceled tests that a waiting
// dequeue returns when it's context is canceled.
func (s *QueueTestSuite) TestUnitDequeueContextCanceled() {
	q := audioplayer.NewQueue()
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := q.Dequeue(ctx, 0)
	s.ErrorIs(err, context.Canceled)
}

// TestUnitRemoveAt tests that RemoveAt removes exactly
// the track displayed at the provided position.
func (s *QueueTestSuite) TestUnitRemoveAt() {
	q := audioplayer.NewQueue()
	for _, title := range []string{"A", "B", "C", "D"} {
		q.Enqueue(newTrack(title))
	}
	snapshot := q.Snapshot()
	removed, err := q.RemoveAt(3)
	s.NoError(err)
	s.Same(snapshot[2], removed)
	s.Equal([]string{"A", "B", "D"}, titles(q.Snapshot()))

	removed, err = q.RemoveAt(1)
	s.NoError(err)
	s.Equal("A", removed.Title())
	s.Equal([]string{"B", "D"}, titles(q.Snapshot()))
}

// TestUnitRemoveAtOutOfRange tests that removing an out of range
// position leaves the queue unchanged and reports not found.
func (s *QueueTestSuite) TestUnitRemoveAtOutOfRange() {
	q := audioplayer.NewQueue()
	q.Enqueue(newTrack("A"))
	q.Enqueue(newTrack("B"))

	for _, position := range []int{-1, 0, 3, 100} {
		removed, err := q.RemoveAt(position)
		s.ErrorIs(err, audioplayer.ErrTrackNotFound)
		s.Nil(removed)
		s.Equal([]string{"A", "B"}, titles(q.Snapshot()))
	}
}

// TestUnitRemoveAndClear enqueues A, B and C, removes the
// second track and then clears the queue.
func (s *QueueTestSuite) TestUnitRemoveAndClear() {
	q := audioplayer.NewQueue()
	q.Enqueue(newTrack("A"))
	q.Enqueue(newTrack("B"))
	q.Enqueue(newTrack("C"))
	s.Equal([]string{"A", "B", "C"}, titles(q.Snapshot()))

	_, err := q.RemoveAt(2)
	s.NoError(err)
	s.Equal([]string{"A", "C"}, titles(q.Snapshot()))

	s.Equal(2, q.Clear())
	s.Empty(q.Snapshot())
	s.Equal(0, q.Clear())
}

// TestUnitClose tests that a closed queue rejects enqueues
// and wakes up waiting dequeues.
func (s *QueueTestSuite) TestUnitClose() {
	q := audioplayer.NewQueue()
	q.Enqueue(newTrack("A"))

	errs := make(chan error, 1)
	q2 := audioplayer.NewQueue()
	go func() {
		_, err := q2.Dequeue(context.Background(), 0)
		errs <- err
	}()
	time.Sleep(20 * time.Millisecond)
	q2.Close()
	select {
	case err := <-errs:
		s.ErrorIs(err, audioplayer.ErrQueueClosed)
	case <-time.After(5 * time.Second):
		s.Fail("Dequeue did not return after close")
	}

	s.Equal(1, q.Close())
	s.Equal(0, q.Close())
	_, err := q.Enqueue(newTrack("B"))
	s.ErrorIs(err, audioplayer.ErrQueueClosed)
	s.Empty(q.Snapshot())
}

// TestUnitConcurrentEnqueueDequeue tests that concurrent
// enqueues and dequeues never lose or duplicate a track.
func (s *QueueTestSuite) TestUnitConcurrentEnqueueDequeue() {
	q := audioplayer.NewQueue()
	producers, perProducer := 8, 50
	total := producers * perProducer

	results := make(chan *model.Track, total)
	consumers := sync.WaitGroup{}
	for i := 0; i < 4; i++ {
		consumers.Add(1)
		go func() {
			defer consumers.Done()
			for {
				track, err := q.Dequeue(context.Background(), 200*time.Millisecond)
				if err != nil {
					return
				}
				results <- track
			}
		}()
	}
	producersWg := sync.WaitGroup{}
	tracks := make(map[*model.Track]bool)
	tracksMutex := sync.Mutex{}
	for i := 0; i < producers; i++ {
		producersWg.Add(1)
		go func() {
			defer producersWg.Done()
			for j := 0; j < perProducer; j++ {
				t := newTrack("T")
				tracksMutex.Lock()
				tracks[t] = true
				tracksMutex.Unlock()
				_, err := q.Enqueue(t)
				s.NoError(err)
			}
		}()
	}
	producersWg.Wait()
	consumers.Wait()
	close(results)

	seen := make(map[*model.Track]bool)
	for t := range results {
		s.False(seen[t], "track dequeued twice")
		seen[t] = true
		s.True(tracks[t])
	}
	s.Len(seen, total)
	s.Equal(0, q.Len())
}

// TestQueueTestSuite runs the queue test suite
func TestQueueTestSuite(t *testing.T) {
	suite.Run(t, new(QueueTestSuite))
}
