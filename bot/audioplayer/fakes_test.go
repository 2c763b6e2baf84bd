package audioplayer_test

import (
	"context"
	"errors"
	"sync"

	"kunkel-music-bot/model"
)

var errResolve = errors.New("could not resolve the track")

func newTrack(title string) *model.Track {
	return model.NewTrack(
		&model.TrackInfo{
			VideoID:         title,
			Title:           title,
			Url:             "https://www.youtube.com/watch?v=" + title,
			DurationSeconds: 10,
		},
		&model.Requester{ID: "USER-ID-TEST", Name: "tester"},
	)
}

// fakeSink records all the calls, a stream only completes
// when it is stopped or finished by the test.
type fakeSink struct {
	mutex        sync.Mutex
	done         func(error)
	playing      bool
	paused       bool
	volume       float64
	played       []string
	volumes      []float64
	disconnected bool
	playErr      error
	started      chan string
}

func newFakeSink() *fakeSink {
	return &fakeSink{
		volume:  1,
		played:  make([]string, 0),
		volumes: make([]float64, 0),
		started: make(chan string, 32),
	}
}

func (f *fakeSink) Play(streamUrl string, done func(error)) error {
	f.mutex.Lock()
	if f.playErr != nil {
		f.mutex.Unlock()
		return f.playErr
	}
	f.played = append(f.played, streamUrl)
	f.volumes = append(f.volumes, f.volume)
	f.done = done
	f.playing = true
	f.paused = false
	f.mutex.Unlock()
	f.started <- streamUrl
	return nil
}

func (f *fakeSink) Pause() {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.paused = true
}

func (f *fakeSink) Resume() {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.paused = false
}

func (f *fakeSink) Stop() {
	f.finish(nil)
}

// finish ends the current stream as if it played to the end.
func (f *fakeSink) finish(err error) {
	f.mutex.Lock()
	done := f.done
	f.done = nil
	f.playing = false
	f.paused = false
	f.mutex.Unlock()
	if done != nil {
		go done(err)
	}
}

func (f *fakeSink) IsPlaying() bool {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.playing
}

func (f *fakeSink) IsPaused() bool {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.paused
}

func (f *fakeSink) SetVolume(volume float64) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.volume = volume
}

func (f *fakeSink) Volume() float64 {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.volume
}

func (f *fakeSink) Disconnect() error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.disconnected = true
	return nil
}

func (f *fakeSink) isDisconnected() bool {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.disconnected
}

func (f *fakeSink) playedUrls() []string {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	urls := make([]string, len(f.played))
	copy(urls, f.played)
	return urls
}

func (f *fakeSink) playedVolumes() []float64 {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	volumes := make([]float64, len(f.volumes))
	copy(volumes, f.volumes)
	return volumes
}

// fakeResolver fails for the titles in fail and blocks
// until the context is done for the titles in block.
type fakeResolver struct {
	fail     map[string]bool
	block    map[string]bool
	canceled chan string
	resolved chan string
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{
		fail:     make(map[string]bool),
		block:    make(map[string]bool),
		canceled: make(chan string, 32),
		resolved: make(chan string, 32),
	}
}

func (r *fakeResolver) Materialize(ctx context.Context, track *model.Track) (*model.Track, error) {
	title := track.Title()
	r.resolved <- title
	if r.block[title] {
		<-ctx.Done()
		r.canceled <- title
		return nil, ctx.Err()
	}
	if r.fail[title] {
		return nil, errResolve
	}
	return track.Materialize("stream://" + title), nil
}

type fakeNotifier struct {
	mutex      sync.Mutex
	messages   int
	previous   []string
	nowPlaying chan string
	failed     chan string
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{
		previous:   make([]string, 0),
		nowPlaying: make(chan string, 32),
		failed:     make(chan string, 32),
	}
}

func (n *fakeNotifier) NowPlaying(track *model.Track, previousMessageID string) (string, error) {
	n.mutex.Lock()
	n.messages++
	id := "MESSAGE-" + track.Title()
	n.previous = append(n.previous, previousMessageID)
	n.mutex.Unlock()
	n.nowPlaying <- track.Title()
	return id, nil
}

func (n *fakeNotifier) TrackFailed(track *model.Track, err error) {
	n.failed <- track.Title()
}

func (n *fakeNotifier) previousMessageIDs() []string {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	ids := make([]string, len(n.previous))
	copy(ids, n.previous)
	return ids
}
