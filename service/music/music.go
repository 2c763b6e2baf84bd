package music

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"kunkel-music-bot/bot/audioplayer"
	"kunkel-music-bot/model"
	"kunkel-music-bot/service/queue"

	log "github.com/sirupsen/logrus"
)

var (
	ErrNoChannel       = errors.New("no voice channel to join")
	ErrConnection      = errors.New("could not connect to the voice channel")
	ErrNotConnected    = errors.New("not connected to a voice channel")
	ErrHistoryDisabled = errors.New("history is disabled")
	ErrEntryNotFound   = errors.New("history entry not found")
	ErrSessionReplaced = errors.New("session has been replaced")
)

// Voice connects the bot to voice channels.
type Voice interface {
	// Join joins the provided voice channel and returns
	// a sink streaming into it.
	Join(ctx context.Context, guildID string, channelID string) (audioplayer.Sink, error)
	// Move moves an existing connection in the guild
	// to the provided voice channel.
	Move(ctx context.Context, guildID string, channelID string) error
}

// Resolver finds tracks and materializes them before they are played.
type Resolver interface {
	audioplayer.Resolver
	Search(ctx context.Context, query string) (*model.TrackInfo, error)
}

// History persists the played tracks.
type History interface {
	PersistEntry(ctx context.Context, entry *model.HistoryEntry) (*model.HistoryEntry, error)
	GetHistory(ctx context.Context, guildID string, limit int) ([]*model.HistoryEntry, error)
	RemoveEntries(ctx context.Context, guildID string, ids ...uint) error
	ClearHistory(ctx context.Context, guildID string) error
}

// NotifierFactory returns the notifier that posts the status
// messages of a session to the provided text channel.
type NotifierFactory func(guildID string, textChannelID string) audioplayer.Notifier

type Configuration struct {
	LogLevel      log.Level     `yaml:"LogLevel" validate:"required"`
	IdleTimeout   time.Duration `yaml:"IdleTimeout" validate:"required"`
	PauseTimeout  time.Duration `yaml:"PauseTimeout"`
	StopTimeout   time.Duration `yaml:"StopTimeout"`
	DefaultVolume int           `yaml:"DefaultVolume" validate:"gt=0,lte=100"`
	QueueLimit    int           `yaml:"QueueLimit" validate:"gte=1"`
	HistoryLimit  int           `yaml:"HistoryLimit" validate:"gte=1"`
}

// Request identifies who requested a command and where.
type Request struct {
	GuildID        string
	TextChannelID  string
	VoiceChannelID string // Voice channel of the requester, empty if not in one
	Requester      *model.Requester
}

type PlayResult struct {
	Track    *model.Track
	Position int  // 1-based position of the track in the queue
	Created  bool // true if a new session was started for the track
}

type MusicService struct {
	log          *log.Logger
	registry     *audioplayer.Registry
	voice        Voice
	resolver     Resolver
	notifiers    NotifierFactory
	history      History
	queueService *queue.QueueService
	config       *Configuration
}

// NewMusicService constructs an object that holds the logic
// behind the bot's music commands. The provided history may be
// nil, in which case the played tracks are not persisted.
func NewMusicService(config *Configuration, registry *audioplayer.Registry, voice Voice, resolver Resolver, notifiers NotifierFactory, history History) *MusicService {
	l := log.New()
	l.SetLevel(config.LogLevel)

	service := &MusicService{
		log:          l,
		registry:     registry,
		voice:        voice,
		resolver:     resolver,
		notifiers:    notifiers,
		history:      history,
		queueService: queue.NewQueueService(),
		config:       config,
	}
	if history != nil {
		registry.Subscriptions().Subscribe(
			audioplayer.EventTrackStart,
			service.recordHistory,
		)
	}
	l.Debug("Created a new music service")
	return service
}

// SetLogOutput sets the writer the logs of the service
// and it's sessions are written to.
func (service *MusicService) SetLogOutput(w io.Writer) {
	service.log.SetOutput(w)
}

func (service *MusicService) sessionConfig() audioplayer.Config {
	return audioplayer.Config{
		IdleTimeout:   service.config.IdleTimeout,
		PauseTimeout:  service.config.PauseTimeout,
		StopTimeout:   service.config.StopTimeout,
		DefaultVolume: float64(service.config.DefaultVolume) / 100,
	}
}

// getOrCreateSession returns the guild's live session, or joins
// the provided voice channel and starts a new session.
func (service *MusicService) getOrCreateSession(ctx context.Context, req *Request, channelID string) (*audioplayer.Session, bool, error) {
	return service.registry.GetOrCreate(req.GuildID, func() (*audioplayer.Session, error) {
		if len(channelID) == 0 {
			return nil, ErrNoChannel
		}
		sink, err := service.voice.Join(ctx, req.GuildID, channelID)
		if err != nil {
			service.log.WithFields(log.Fields{
				"GuildID":   req.GuildID,
				"ChannelID": channelID,
			}).Warnf("Could not join voice channel: %v", err)
			return nil, fmt.Errorf("%w: %v", ErrConnection, err)
		}
		var notifier audioplayer.Notifier
		if service.notifiers != nil {
			notifier = service.notifiers(req.GuildID, req.TextChannelID)
		}
		service.log.WithField("GuildID", req.GuildID).Debug("Starting a new session")
		return audioplayer.NewSession(
			req.GuildID,
			sink,
			service.resolver,
			notifier,
			service.sessionConfig(),
			service.log,
		), nil
	})
}

func (service *MusicService) getSession(guildID string) (*audioplayer.Session, error) {
	session, ok := service.registry.Get(guildID)
	if !ok {
		return nil, ErrNotConnected
	}
	return session, nil
}

// Play searches the provided query and enqueues the found track
// to the guild's session, starting a new session in the requester's
// voice channel if there is none.
func (service *MusicService) Play(ctx context.Context, req *Request, query string) (*PlayResult, error) {
	if _, ok := service.registry.Get(req.GuildID); !ok && len(req.VoiceChannelID) == 0 {
		return nil, ErrNoChannel
	}
	info, err := service.resolver.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	track := model.NewTrack(info, req.Requester)

	// NOTE: a session being destroyed rejects the enqueue,
	// wait for it to be torn down and start a fresh one
	for attempt := 0; ; attempt++ {
		session, created, err := service.getOrCreateSession(ctx, req, req.VoiceChannelID)
		if err != nil {
			return nil, err
		}
		position, err := session.Enqueue(track)
		if err == nil {
			service.log.WithFields(log.Fields{
				"GuildID":  req.GuildID,
				"Position": position,
			}).Tracef("Enqueued track: %s", track.Title())
			return &PlayResult{Track: track, Position: position, Created: created}, nil
		}
		if !errors.Is(err, audioplayer.ErrSessionClosed) || attempt > 0 {
			return nil, err
		}
		select {
		case <-session.Done():
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Join joins the provided voice channel, or the requester's voice
// channel if none is provided. An existing connection is moved.
// Returns true if a new session was started.
func (service *MusicService) Join(ctx context.Context, req *Request, channelID string) (bool, error) {
	if len(channelID) == 0 {
		channelID = req.VoiceChannelID
	}
	if len(channelID) == 0 {
		return false, ErrNoChannel
	}
	if _, ok := service.registry.Get(req.GuildID); ok {
		if err := service.voice.Move(ctx, req.GuildID, channelID); err != nil {
			return false, fmt.Errorf("%w: %v", ErrConnection, err)
		}
		return false, nil
	}
	_, created, err := service.getOrCreateSession(ctx, req, channelID)
	return created, err
}

func (service *MusicService) Pause(guildID string) error {
	session, err := service.getSession(guildID)
	if err != nil {
		return err
	}
	return session.Pause()
}

func (service *MusicService) Resume(guildID string) error {
	session, err := service.getSession(guildID)
	if err != nil {
		return err
	}
	return session.Resume()
}

// Skip stops the current track and returns it.
func (service *MusicService) Skip(guildID string) (*model.Track, error) {
	session, err := service.getSession(guildID)
	if err != nil {
		return nil, err
	}
	current := session.Current()
	if err := session.Skip(); err != nil {
		return nil, err
	}
	return current, nil
}

// Stop stops the playback, clears the queue and leaves the
// voice channel. It returns once the session is destroyed, so
// a following play request starts a fresh session.
func (service *MusicService) Stop(ctx context.Context, guildID string) error {
	session, err := service.getSession(guildID)
	if err != nil {
		return err
	}
	return session.Stop(ctx)
}

// SessionID returns the id of the guild's live session.
func (service *MusicService) SessionID(guildID string) (string, bool) {
	session, ok := service.registry.Get(guildID)
	if !ok {
		return "", false
	}
	return session.ID(), true
}

// StopSession stops the guild's live session only if it is the
// session identified by the provided sessionID, a newer session
// of the guild is left playing and ErrSessionReplaced is returned.
func (service *MusicService) StopSession(ctx context.Context, guildID string, sessionID string) error {
	session, err := service.getSession(guildID)
	if err != nil {
		return err
	}
	if session.ID() != sessionID {
		return ErrSessionReplaced
	}
	return session.Stop(ctx)
}

// Queue returns the provided 1-based page of the guild's queue.
func (service *MusicService) Queue(guildID string, page int) (*model.QueuePage, error) {
	session, err := service.getSession(guildID)
	if err != nil {
		return nil, err
	}
	tracks := session.Snapshot()
	offset := service.queueService.PageOffset(len(tracks), service.config.QueueLimit, page)
	return service.queuePage(session, tracks, offset), nil
}

// ScrollQueue returns the page following (or preceding, when forward
// is false) the page of the guild's queue at the provided offset.
// Scrolling past either end wraps around.
func (service *MusicService) ScrollQueue(guildID string, offset int, forward bool) (*model.QueuePage, error) {
	session, err := service.getSession(guildID)
	if err != nil {
		return nil, err
	}
	tracks := session.Snapshot()
	p := service.queuePage(session, tracks, offset)
	if forward {
		service.queueService.IncrementQueueOffset(p)
	} else {
		service.queueService.DecrementQueueOffset(p)
	}
	return service.queuePage(session, tracks, p.Offset), nil
}

func (service *MusicService) queuePage(session *audioplayer.Session, tracks []*model.Track, offset int) *model.QueuePage {
	p := service.queueService.NewQueuePage(
		session.GuildID(),
		session.Current(),
		tracks,
		offset,
		service.config.QueueLimit,
	)
	p.Volume = session.VolumePercent()
	p.Paused = session.IsPaused()
	return p
}

// Remove removes the track at the provided 1-based
// position of the guild's queue.
func (service *MusicService) Remove(guildID string, position int) (*model.Track, error) {
	session, err := service.getSession(guildID)
	if err != nil {
		return nil, err
	}
	return session.RemoveAt(position)
}

// Clear removes all the pending tracks of the guild's queue
// and returns the number of removed tracks.
func (service *MusicService) Clear(guildID string) (int, error) {
	session, err := service.getSession(guildID)
	if err != nil {
		return 0, err
	}
	return session.Clear(), nil
}

// NowPlaying returns the guild's current track.
func (service *MusicService) NowPlaying(guildID string) (*model.Track, error) {
	session, err := service.getSession(guildID)
	if err != nil {
		return nil, err
	}
	current := session.Current()
	if current == nil {
		return nil, audioplayer.ErrNotPlaying
	}
	return current, nil
}

// Volume returns the guild's volume in percent.
func (service *MusicService) Volume(guildID string) (int, error) {
	session, err := service.getSession(guildID)
	if err != nil {
		return 0, err
	}
	return session.VolumePercent(), nil
}

// SetVolume sets the guild's volume from the provided
// percentage in range (0, 100].
func (service *MusicService) SetVolume(guildID string, percent int) error {
	session, err := service.getSession(guildID)
	if err != nil {
		return err
	}
	return session.SetVolume(percent)
}

// History returns the tracks recently played in the guild.
func (service *MusicService) History(ctx context.Context, guildID string) ([]*model.HistoryEntry, error) {
	if service.history == nil {
		return nil, ErrHistoryDisabled
	}
	return service.history.GetHistory(ctx, guildID, service.config.HistoryLimit)
}

// RemoveHistoryEntry removes the entry at the provided 1-based
// position of the guild's history, as returned by History.
func (service *MusicService) RemoveHistoryEntry(ctx context.Context, guildID string, position int) (*model.HistoryEntry, error) {
	entries, err := service.History(ctx, guildID)
	if err != nil {
		return nil, err
	}
	if position < 1 || position > len(entries) {
		return nil, ErrEntryNotFound
	}
	entry := entries[position-1]
	if err := service.history.RemoveEntries(ctx, guildID, entry.ID); err != nil {
		return nil, err
	}
	return entry, nil
}

// ClearHistory removes all the history entries of the guild.
func (service *MusicService) ClearHistory(ctx context.Context, guildID string) error {
	if service.history == nil {
		return ErrHistoryDisabled
	}
	return service.history.ClearHistory(ctx, guildID)
}

// Shutdown stops all the sessions.
func (service *MusicService) Shutdown(ctx context.Context) error {
	return service.registry.Shutdown(ctx)
}

func (service *MusicService) recordHistory(e audioplayer.Event) {
	if e.Track == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := service.history.PersistEntry(ctx, &model.HistoryEntry{
		GuildID:   e.GuildID,
		SessionID: e.SessionID,
		Info:      e.Track.Info,
		Requester: e.Track.Requester,
		PlayedAt:  time.Now(),
	}); err != nil {
		service.log.WithField("GuildID", e.GuildID).Warnf(
			"Could not persist history entry: %v", err,
		)
	}
}
