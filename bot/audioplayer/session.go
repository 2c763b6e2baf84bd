package audioplayer

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"kunkel-music-bot/model"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

var (
	ErrNotPlaying     = errors.New("nothing is playing")
	ErrSessionClosed  = errors.New("session has been closed")
	ErrAlreadyPaused  = errors.New("playback is already paused")
	ErrNotPaused      = errors.New("playback is not paused")
	ErrInvalidVolume  = errors.New("volume must be an integer in range (0, 100]")
	ErrSessionStarted = errors.New("session has already been started")
)

var volumeValidator = validator.New()

type State int

const (
	WaitingForTrack State = iota
	Resolving
	Playing
	TrackDone
	TrackError
	Destroyed
)

func (s State) String() string {
	switch s {
	case WaitingForTrack:
		return "WAITING_FOR_TRACK"
	case Resolving:
		return "RESOLVING"
	case Playing:
		return "PLAYING"
	case TrackDone:
		return "TRACK_DONE"
	case TrackError:
		return "TRACK_ERROR"
	case Destroyed:
		return "DESTROYED"
	}
	return "UNKNOWN"
}

type Config struct {
	IdleTimeout   time.Duration // time waited for a track before the session is destroyed
	PauseTimeout  time.Duration // time a track may stay paused, 0 disables it
	StopTimeout   time.Duration // time waited for the sink to finish a stopped stream
	DefaultVolume float64       // initial volume in range (0, 1]
}

// DefaultConfig returns the session configuration that
// is used for the values left empty in a configuration.
func DefaultConfig() Config {
	return Config{
		IdleTimeout:   300 * time.Second,
		PauseTimeout:  0,
		StopTimeout:   5 * time.Second,
		DefaultVolume: 0.5,
	}
}

type signalKind int

const (
	signalPause signalKind = iota
	signalResume
	signalSkip
	signalVolume
)

type signal struct {
	kind   signalKind
	volume float64
	reply  chan error
}

// playback is alive while the sink is streaming a track,
// finished is closed once the loop stopped serving signals.
type playback struct {
	signals  chan signal
	finished chan struct{}
}

type Session struct {
	log                 *log.Entry
	id                  string
	guildID             string
	config              Config
	queue               *Queue
	sink                Sink
	resolver            Resolver
	notifier            Notifier
	registry            *Registry
	ctx                 context.Context
	cancel              context.CancelFunc
	done                chan struct{}
	mutex               sync.Mutex
	started             bool
	state               State
	current             *model.Track
	paused              bool
	volume              float64
	nowPlayingMessageID string
	playback            *playback
}

// NewSession constructs a session for the provided guild. The
// session owns the provided sink, it's player loop is started
// when the session is inserted into a Registry.
func NewSession(guildID string, sink Sink, resolver Resolver, notifier Notifier, config Config, logger *log.Logger) *Session {
	defaults := DefaultConfig()
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = defaults.IdleTimeout
	}
	if config.StopTimeout <= 0 {
		config.StopTimeout = defaults.StopTimeout
	}
	if config.DefaultVolume <= 0 || config.DefaultVolume > 1 {
		config.DefaultVolume = defaults.DefaultVolume
	}
	if logger == nil {
		logger = log.New()
	}
	id := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		log: logger.WithFields(log.Fields{
			"GuildID":   guildID,
			"SessionID": id,
		}),
		id:       id,
		guildID:  guildID,
		config:   config,
		queue:    NewQueue(),
		sink:     sink,
		resolver: resolver,
		notifier: notifier,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
		state:    WaitingForTrack,
		volume:   config.DefaultVolume,
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) GuildID() string {
	return s.guildID
}

// Done returns a channel that is closed once the
// session has been destroyed.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) State() State {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.state
}

// Current returns the track that is currently being resolved
// or played, nil if there is no such track.
func (s *Session) Current() *model.Track {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.current
}

func (s *Session) IsPaused() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.paused
}

// Volume returns the session's volume in range (0, 1].
func (s *Session) Volume() float64 {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.volume
}

// VolumePercent returns the session's volume as a percentage.
func (s *Session) VolumePercent() int {
	return int(math.Round(s.Volume() * 100))
}

func (s *Session) NowPlayingMessageID() string {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.nowPlayingMessageID
}

// Enqueue adds the provided track to the tail of the session's
// queue and returns it's 1-based position in the queue.
func (s *Session) Enqueue(track *model.Track) (int, error) {
	position, err := s.queue.Enqueue(track)
	if errors.Is(err, ErrQueueClosed) {
		return 0, ErrSessionClosed
	}
	return position, err
}

// RemoveAt removes the pending track at the provided 1-based position.
func (s *Session) RemoveAt(position int) (*model.Track, error) {
	return s.queue.RemoveAt(position)
}

// Clear removes all the pending tracks, the current
// track keeps playing.
func (s *Session) Clear() int {
	return s.queue.Clear()
}

// Snapshot returns the pending tracks in play order,
// not including the current track.
func (s *Session) Snapshot() []*model.Track {
	return s.queue.Snapshot()
}

func (s *Session) Pause() error {
	return s.send(signal{kind: signalPause})
}

func (s *Session) Resume() error {
	return s.send(signal{kind: signalResume})
}

// Skip stops the current track, the player loop then
// continues with the next track in the queue.
func (s *Session) Skip() error {
	return s.send(signal{kind: signalSkip})
}

// SetVolume validates and sets the session's volume from
// the provided percentage in range (0, 100]. The volume
// is applied to the sink if a track is currently playing
// and to every following track.
func (s *Session) SetVolume(percent int) error {
	if err := volumeValidator.Var(percent, "gt=0,lte=100"); err != nil {
		return ErrInvalidVolume
	}
	volume := float64(percent) / 100

	s.mutex.Lock()
	if s.state == Destroyed {
		s.mutex.Unlock()
		return ErrSessionClosed
	}
	s.volume = volume
	s.mutex.Unlock()

	if err := s.send(signal{kind: signalVolume, volume: volume}); err != nil && !errors.Is(err, ErrNotPlaying) {
		return err
	}
	return nil
}

// Stop cancels any in-flight resolution, stops the current track,
// clears the queue and destroys the session. It returns once the
// session's player loop has exited, or when the context is done.
func (s *Session) Stop(ctx context.Context) error {
	s.cancel()

	s.mutex.Lock()
	started := s.started
	s.mutex.Unlock()
	if !started {
		s.destroy()
		return nil
	}
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// start runs the session's player loop in a new goroutine.
func (s *Session) start(registry *Registry) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.started {
		return ErrSessionStarted
	}
	s.started = true
	s.registry = registry
	go s.run()
	return nil
}

// send delivers the provided signal to the player loop and
// waits for it to be applied. ErrNotPlaying is returned when
// no track is being streamed.
func (s *Session) send(sig signal) error {
	s.mutex.Lock()
	pb := s.playback
	destroyed := s.state == Destroyed
	s.mutex.Unlock()

	if destroyed {
		return ErrSessionClosed
	}
	if pb == nil {
		return ErrNotPlaying
	}
	sig.reply = make(chan error, 1)
	select {
	case pb.signals <- sig:
	case <-pb.finished:
		return ErrNotPlaying
	}
	return <-sig.reply
}

func (s *Session) setState(state State) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.log.Tracef("State %s -> %s", s.state, state)
	s.state = state
}

func (s *Session) setCurrent(track *model.Track) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.current = track
}

func (s *Session) emit(eventType EventType, track *model.Track, err error) {
	if s.registry == nil {
		return
	}
	s.registry.Subscriptions().Emit(Event{
		Type:      eventType,
		SessionID: s.id,
		GuildID:   s.guildID,
		Track:     track,
		Err:       err,
	})
}

// run is the session's player loop. It plays the queued tracks
// one by one, until the idle timeout elapses with an empty queue
// or the session is stopped.
func (s *Session) run() {
	defer s.destroy()

	s.log.Debug("Player loop started")
	for {
		s.setState(WaitingForTrack)
		track, err := s.queue.Dequeue(s.ctx, s.config.IdleTimeout)
		if err != nil {
			if errors.Is(err, ErrDequeueTimeout) {
				s.log.WithField(
					"IdleTimeout", s.config.IdleTimeout,
				).Debug("No track queued in time, destroying the session")
			}
			return
		}
		s.setCurrent(track)
		if !track.IsMaterialized() {
			s.setState(Resolving)
			materialized, err := s.resolver.Materialize(s.ctx, track)
			if err != nil {
				if s.ctx.Err() != nil {
					return
				}
				s.fail(track, err)
				continue
			}
			track = materialized
		}
		if !s.play(track) {
			return
		}
	}
}

// fail reports the provided track as failed and drops it.
func (s *Session) fail(track *model.Track, err error) {
	s.log.WithField("Track", track.Title()).Warnf("Track failed: %v", err)
	s.setState(TrackError)
	s.setCurrent(nil)
	if s.notifier != nil {
		s.notifier.TrackFailed(track, err)
	}
}

// play streams the provided materialized track through the sink
// and serves control signals until the stream completes. It returns
// false if the session should be destroyed.
func (s *Session) play(track *model.Track) bool {
	completed := make(chan error, 1)

	s.sink.SetVolume(s.Volume())
	if err := s.sink.Play(track.StreamUrl, func(err error) {
		select {
		case completed <- err:
		default:
		}
	}); err != nil {
		s.fail(track, err)
		return true
	}

	pb := &playback{
		signals:  make(chan signal),
		finished: make(chan struct{}),
	}
	s.mutex.Lock()
	s.log.Tracef("State %s -> %s", s.state, Playing)
	s.state = Playing
	s.current = track
	s.paused = false
	s.playback = pb
	previousMessageID := s.nowPlayingMessageID
	s.mutex.Unlock()

	defer func() {
		s.mutex.Lock()
		s.playback = nil
		s.current = nil
		s.paused = false
		s.mutex.Unlock()
		close(pb.finished)
	}()

	s.log.WithField("Track", track.Title()).Debug("Playing track")
	if s.notifier != nil {
		if id, err := s.notifier.NowPlaying(track, previousMessageID); err != nil {
			s.log.Warnf("Could not post now playing status: %v", err)
		} else {
			s.mutex.Lock()
			s.nowPlayingMessageID = id
			s.mutex.Unlock()
		}
	}
	s.emit(EventTrackStart, track, nil)

	var pauseTimer *time.Timer
	var pauseExpired <-chan time.Time
	defer func() {
		if pauseTimer != nil {
			pauseTimer.Stop()
		}
	}()

	for {
		select {
		case err := <-completed:
			if err != nil {
				s.log.WithField("Track", track.Title()).Debugf("Stream finished: %v", err)
			}
			s.setState(TrackDone)
			s.emit(EventTrackEnd, track, err)
			return true
		case sig := <-pb.signals:
			err := s.apply(sig)
			sig.reply <- err
			if err != nil || s.config.PauseTimeout <= 0 {
				continue
			}
			switch sig.kind {
			case signalPause:
				pauseTimer = time.NewTimer(s.config.PauseTimeout)
				pauseExpired = pauseTimer.C
			case signalResume:
				if pauseTimer != nil {
					pauseTimer.Stop()
				}
				pauseTimer, pauseExpired = nil, nil
			}
		case <-pauseExpired:
			s.log.WithField(
				"PauseTimeout", s.config.PauseTimeout,
			).Debug("Track paused for too long, destroying the session")
			s.stopStream(completed)
			s.emit(EventTrackEnd, track, nil)
			return false
		case <-s.ctx.Done():
			s.stopStream(completed)
			s.emit(EventTrackEnd, track, s.ctx.Err())
			return false
		}
	}
}

// apply applies the provided signal to the sink,
// it is only called from the player loop.
func (s *Session) apply(sig signal) error {
	switch sig.kind {
	case signalPause:
		if s.sink.IsPaused() {
			return ErrAlreadyPaused
		}
		s.sink.Pause()
		s.setPaused(true)
	case signalResume:
		if !s.sink.IsPaused() {
			return ErrNotPaused
		}
		s.sink.Resume()
		s.setPaused(false)
	case signalSkip:
		s.log.Trace("Skipping the current track")
		s.sink.Stop()
	case signalVolume:
		s.sink.SetVolume(sig.volume)
	}
	return nil
}

func (s *Session) setPaused(paused bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.paused = paused
}

// stopStream stops the sink and waits for the stream
// to complete, at most for the configured stop timeout.
func (s *Session) stopStream(completed <-chan error) {
	s.sink.Stop()
	t := time.NewTimer(s.config.StopTimeout)
	defer t.Stop()
	select {
	case <-completed:
	case <-t.C:
		s.log.Warn("Sink did not finish the stopped stream in time")
	}
}

// destroy tears down the session, it is called
// once, when the player loop exits.
func (s *Session) destroy() {
	s.mutex.Lock()
	if s.state == Destroyed {
		s.mutex.Unlock()
		return
	}
	s.state = Destroyed
	s.current = nil
	s.mutex.Unlock()

	s.cancel()
	if n := s.queue.Close(); n > 0 {
		s.log.Tracef("Dropped %d pending tracks", n)
	}
	if err := s.sink.Disconnect(); err != nil {
		s.log.Warnf("Could not disconnect the sink: %v", err)
	}
	if s.registry != nil {
		s.registry.Remove(s.guildID, s)
	}
	s.log.Debug("Session destroyed")
	s.emit(EventDestroyed, nil, nil)
	close(s.done)
}
