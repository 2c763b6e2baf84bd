package voice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/jonas747/dca"
	log "github.com/sirupsen/logrus"
)

var (
	ErrNotReady       = errors.New("voice connection is not ready")
	ErrAlreadyPlaying = errors.New("a stream is already playing")
	ErrNoSession      = errors.New("discord session is not opened")
)

type Configuration struct {
	Bitrate        int           `yaml:"Bitrate" validate:"gte=8,lte=512"`
	ConnectTimeout time.Duration `yaml:"ConnectTimeout" validate:"required"`
}

type Connector struct {
	log        *log.Logger
	session    func() *discordgo.Session
	config     *Configuration
	join       func(s *discordgo.Session, guildID string, channelID string) (*discordgo.VoiceConnection, error)
	disconnect func(vc *discordgo.VoiceConnection) error
}

// NewConnector constructs an object that joins the bot to
// voice channels through the session returned by the
// provided function.
func NewConnector(session func() *discordgo.Session, config *Configuration, logger *log.Logger) *Connector {
	return &Connector{
		log:     logger,
		session: session,
		config:  config,
		join: func(s *discordgo.Session, guildID string, channelID string) (*discordgo.VoiceConnection, error) {
			return s.ChannelVoiceJoin(guildID, channelID, false, true)
		},
		disconnect: func(vc *discordgo.VoiceConnection) error {
			return vc.Disconnect()
		},
	}
}

// Join joins the voice channel identified by the provided channelID
// and waits for the connection to be ready. A connection that does
// not become ready is disconnected, so the client does not stay in
// the channel without a session.
func (c *Connector) Join(ctx context.Context, guildID string, channelID string) (*discordgo.VoiceConnection, error) {
	vc, err := c.connect(ctx, guildID, channelID)
	if err != nil {
		if vc != nil {
			if dErr := c.disconnect(vc); dErr != nil {
				c.log.WithField("GuildID", guildID).Tracef(
					"Could not disconnect the failed connection: %v", dErr,
				)
			}
		}
		return nil, err
	}
	return vc, nil
}

// Move moves the guild's live voice connection to the provided
// channel. The connection is owned by the guild's session, so
// it is never disconnected here, even when the move fails.
func (c *Connector) Move(ctx context.Context, guildID string, channelID string) error {
	_, err := c.connect(ctx, guildID, channelID)
	return err
}

// connect returns the connection even when it failed, so
// the caller may decide whether to disconnect it.
func (c *Connector) connect(ctx context.Context, guildID string, channelID string) (*discordgo.VoiceConnection, error) {
	s := c.session()
	if s == nil {
		return nil, ErrNoSession
	}
	c.log.WithFields(log.Fields{
		"GuildID":   guildID,
		"ChannelID": channelID,
	}).Trace("Joining voice channel")

	vc, err := c.join(s, guildID, channelID)
	if err != nil {
		return vc, fmt.Errorf("join voice channel %s: %w", channelID, err)
	}
	if vc == nil {
		return nil, fmt.Errorf("join voice channel %s: %w", channelID, ErrNotReady)
	}
	ctx, cancel := context.WithTimeout(ctx, c.config.ConnectTimeout)
	defer cancel()
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for !isReady(vc) {
		select {
		case <-ctx.Done():
			return vc, fmt.Errorf("join voice channel %s: %w", channelID, ErrNotReady)
		case <-ticker.C:
		}
	}
	return vc, nil
}

// Connected returns true if the provided state tracks the
// user in a voice channel of the guild.
func Connected(state *discordgo.State, guildID string, userID string) bool {
	if state == nil {
		return false
	}
	vs, err := state.VoiceState(guildID, userID)
	return err == nil && vs != nil && len(vs.ChannelID) > 0
}

// NewSink constructs a sink that streams into the provided
// voice connection.
func (c *Connector) NewSink(vc *discordgo.VoiceConnection) *Sink {
	return NewSink(vc, c.config.Bitrate, c.log.WithField("GuildID", vc.GuildID))
}

func isReady(vc *discordgo.VoiceConnection) bool {
	vc.RLock()
	defer vc.RUnlock()
	return vc.Ready
}

type Sink struct {
	log       *log.Entry
	vc        *discordgo.VoiceConnection
	bitrate   int
	mutex     sync.Mutex
	encoding  *dca.EncodeSession
	streaming *dca.StreamingSession
	volume    float64
}

// NewSink constructs an object that encodes audio streams
// with dca and streams them into the provided voice connection.
func NewSink(vc *discordgo.VoiceConnection, bitrate int, log *log.Entry) *Sink {
	return &Sink{
		log:     log,
		vc:      vc,
		bitrate: bitrate,
		volume:  1,
	}
}

// Play starts encoding and streaming the provided url. The
// volume is applied when the encoding starts, so a volume
// change is heard from the next stream on.
func (s *Sink) Play(streamUrl string, done func(error)) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.encoding != nil {
		return ErrAlreadyPlaying
	}
	if !isReady(s.vc) {
		return ErrNotReady
	}
	options := *dca.StdEncodeOptions
	options.RawOutput = true
	options.Bitrate = s.bitrate
	options.Application = dca.AudioApplicationLowDelay
	options.Volume = int(math.Round(s.volume * 256))

	encoding, err := dca.EncodeFile(streamUrl, &options)
	if err != nil {
		return err
	}
	s.vc.Speaking(true)
	streamDone := make(chan error, 1)
	streaming := dca.NewStream(encoding, s.vc, streamDone)
	s.encoding, s.streaming = encoding, streaming

	go func() {
		err := <-streamDone
		s.vc.Speaking(false)
		if msg := encoding.FFMPEGMessages(); len(msg) > 0 && err != nil && err != io.EOF {
			s.log.Tracef("ffmpeg: %s", msg)
		}
		encoding.Cleanup()

		s.mutex.Lock()
		if s.encoding == encoding {
			s.encoding, s.streaming = nil, nil
		}
		s.mutex.Unlock()

		if err == io.EOF {
			err = nil
		}
		done(err)
	}()
	return nil
}

func (s *Sink) Pause() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.streaming != nil {
		s.streaming.SetPaused(true)
	}
}

func (s *Sink) Resume() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.streaming != nil {
		s.streaming.SetPaused(false)
	}
}

// Stop stops the current stream, which finishes
// the stream with io.EOF.
func (s *Sink) Stop() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.streaming == nil {
		return
	}
	// NOTE: a paused stream does not read the encoder,
	// so it has to be resumed to notice the stop
	if s.streaming.Paused() {
		s.streaming.SetPaused(false)
	}
	if err := s.encoding.Stop(); err != nil {
		s.log.Tracef("Could not stop the encoding: %v", err)
	}
}

func (s *Sink) IsPlaying() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.streaming != nil
}

func (s *Sink) IsPaused() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.streaming != nil && s.streaming.Paused()
}

func (s *Sink) SetVolume(volume float64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.volume = volume
}

func (s *Sink) Volume() float64 {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.volume
}

// Disconnect stops the current stream and
// leaves the voice channel.
func (s *Sink) Disconnect() error {
	s.Stop()
	return s.vc.Disconnect()
}
