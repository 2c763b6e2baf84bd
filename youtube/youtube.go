package youtube

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"kunkel-music-bot/model"
	"kunkel-music-bot/youtube/search"
	"kunkel-music-bot/youtube/stream"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

var ErrNoResults = search.ErrNoResults

type Configuration struct {
	LogLevel          log.Level     `yaml:"LogLevel"`
	RequestsPerSecond float64       `yaml:"RequestsPerSecond" validate:"gt=0"`
	Burst             int           `yaml:"Burst" validate:"gte=1"`
	Retries           int           `yaml:"Retries" validate:"gte=1"`
	SearchTimeout     time.Duration `yaml:"SearchTimeout" validate:"required"`
}

type Youtube struct {
	log    *log.Logger
	idx    atomic.Int64
	search *search.Search
	stream *stream.Stream
	config *Configuration
}

// NewYoutube constructs an object that handles
// youtube integration
func NewYoutube(config *Configuration) *Youtube {
	l := log.New()
	l.SetLevel(config.LogLevel)
	limiter := rate.NewLimiter(rate.Limit(config.RequestsPerSecond), config.Burst)
	return &Youtube{
		log:    l,
		search: search.NewSearch(limiter),
		stream: stream.NewStream(limiter, config.Retries),
		config: config,
	}
}

// SetLogOutput sets the writer the logs are written to.
func (y *Youtube) SetLogOutput(w io.Writer) {
	y.log.SetOutput(w)
}

// Search returns the info of the track the provided
// query or url refers to.
func (y *Youtube) Search(ctx context.Context, query string) (*model.TrackInfo, error) {
	i, t := y.idx.Add(1)%100, time.Now()
	y.log.WithField("Query", query).Tracef("[Y%d]Start: Search", i)

	ctx, cancel := context.WithTimeout(ctx, y.config.SearchTimeout)
	defer cancel()

	info, err := y.search.GetTrackInfo(ctx, query)
	if err != nil {
		y.log.WithField("Query", query).Debugf("[Y%d]Error: %v", i, err)
		return nil, err
	}
	y.log.WithField("Latency", time.Since(t)).Tracef("[Y%d]Done : Search", i)
	return info, nil
}

// Materialize resolves the provided track's stable url into a
// playable stream url. It returns a new track, the provided
// track is not modified.
func (y *Youtube) Materialize(ctx context.Context, track *model.Track) (*model.Track, error) {
	if track == nil || track.Info == nil {
		return nil, fmt.Errorf("materialize: %w", ErrNoResults)
	}
	i, t := y.idx.Add(1)%100, time.Now()
	y.log.WithField("Url", track.Info.Url).Tracef("[Y%d]Start: Materialize", i)

	streamUrl, err := y.stream.GetStreamUrl(ctx, track.Info.Url)
	if err != nil {
		y.log.WithField("Url", track.Info.Url).Debugf("[Y%d]Error: %v", i, err)
		return nil, err
	}
	y.log.WithField("Latency", time.Since(t)).Tracef("[Y%d]Done : Materialize", i)
	return track.Materialize(streamUrl), nil
}
