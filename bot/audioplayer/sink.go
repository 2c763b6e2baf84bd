package audioplayer

import (
	"context"

	"kunkel-music-bot/model"
)

// Sink is the voice connection of a single session. After the
// session has been started only it's player loop calls the
// mutating methods.
type Sink interface {
	// Play starts streaming the provided url and returns without
	// waiting for the stream to finish. done is called exactly
	// once, when the stream ends naturally or is stopped.
	Play(streamUrl string, done func(error)) error
	Pause()
	Resume()
	// Stop ends the current stream, which calls the done
	// callback passed to Play.
	Stop()
	IsPlaying() bool
	IsPaused() bool
	// SetVolume sets the volume in range (0, 1].
	SetVolume(volume float64)
	Volume() float64
	Disconnect() error
}

// Resolver materializes lazy tracks into playable tracks
// right before they are played.
type Resolver interface {
	Materialize(ctx context.Context, track *model.Track) (*model.Track, error)
}

// Notifier posts user facing status messages of a session.
type Notifier interface {
	// NowPlaying posts the now playing status for the provided track
	// and returns the id of the posted message. previousMessageID
	// is the id returned by the previous call, or empty.
	NowPlaying(track *model.Track, previousMessageID string) (string, error)
	TrackFailed(track *model.Track, err error)
}
