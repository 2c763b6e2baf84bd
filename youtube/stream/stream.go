package stream

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kkdai/youtube/v2"
	"github.com/lrstanley/go-ytdlp"
	"golang.org/x/time/rate"
)

var ErrNoFormats = errors.New("no formats found")

type Stream struct {
	yt      *youtube.Client
	limiter *rate.Limiter
	retries int
}

// NewStream constructs an object that converts stable youtube
// urls into time limited stream urls. The provided limiter
// bounds the yt-dlp invocations.
func NewStream(limiter *rate.Limiter, retries int) *Stream {
	if retries < 1 {
		retries = 1
	}
	return &Stream{
		yt:      &youtube.Client{},
		limiter: limiter,
		retries: retries,
	}
}

// GetStreamUrl converts the provided url into a stream url,
// falling back to yt-dlp when the stream url could not
// be extracted directly.
func (s *Stream) GetStreamUrl(ctx context.Context, url string) (string, error) {
	streamUrl, err := s.getStreamUrl(ctx, url)
	if err == nil {
		return streamUrl, nil
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	streamUrl, err2 := s.getStreamUrlYtdlp(ctx, url)
	if err2 != nil {
		return "", fmt.Errorf("stream url of %s: %w", url, errors.Join(err, err2))
	}
	return streamUrl, nil
}

func (s *Stream) getStreamUrl(ctx context.Context, url string) (string, error) {
	var gErr error = nil
	for i := 0; i < s.retries; i++ {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		video, format, err := s.getStreamFormat(ctx, url)
		if err != nil {
			gErr = err
			continue
		}
		streamUrl, err := s.yt.GetStreamURLContext(ctx, video, format)
		if err != nil {
			gErr = err
			continue
		}
		return streamUrl, nil
	}
	return "", gErr
}

func (s *Stream) getStreamUrlYtdlp(ctx context.Context, url string) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}
	res, err := ytdlp.New().
		Print("%(url)s").
		Format("bestaudio[acodec=opus]/bestaudio").
		NoCheckFormats().
		NoWarnings().
		IgnoreConfig().
		Run(ctx, "--no-playlist", "--skip-download", url)
	if err != nil {
		return "", err
	}
	for _, l := range strings.Split(strings.TrimSpace(res.Stdout), "\n") {
		if l = strings.TrimSpace(l); strings.HasPrefix(l, "http") {
			return l, nil
		}
	}
	return "", ErrNoFormats
}

// getStreamFormat gets the youtube video belonging to the provided
// url and returns it's format that best fits the music bot.
// This tries to return the format with audio mimetype, opus codec, high audio
// quality and low video quality.
func (s *Stream) getStreamFormat(ctx context.Context, url string) (*youtube.Video, *youtube.Format, error) {
	video, err := s.yt.GetVideoContext(ctx, url)
	if err != nil {
		return nil, nil, err
	}
	formats := BestAudioFormats(video.Formats)
	if len(formats) == 0 {
		return nil, nil, ErrNoFormats
	}
	return video, &formats[0], nil
}

// BestAudioFormats filters the provided formats, so the first
// format is the one with the best audio and smallest video.
func BestAudioFormats(formats youtube.FormatList) youtube.FormatList {
	if formats2 := formats.WithAudioChannels(); len(formats2) > 0 {
		formats = formats2
	}
	// NOTE: prefer audio formats with opus codecs
	formats2 := make(youtube.FormatList, 0)
	for _, f := range formats {
		t := f.MimeType
		if strings.Contains(t, "opus") && strings.Contains(t, "audio") {
			formats2 = append(formats2, f)
		}
	}
	if len(formats2) > 0 {
		formats = formats2
	}
	formats2 = make(youtube.FormatList, 0)
	for _, f := range formats {
		if f.AudioQuality == "AUDIO_QUALITY_HIGH" {
			formats2 = append(formats2, f)
		}
	}
	if len(formats2) == 0 {
		for _, f := range formats {
			if f.AudioQuality == "AUDIO_QUALITY_MEDIUM" {
				formats2 = append(formats2, f)
			}
		}
	}
	if len(formats2) > 0 {
		formats = formats2
	}
	// NOTE: video quality is unimportant, so
	// prefer the smallest possible video size
	if formats2 := formats.Quality("tiny"); len(formats2) > 0 {
		formats = formats2
	} else if formats2 := formats.Quality("small"); len(formats2) > 0 {
		formats = formats2
	} else if formats2 := formats.Quality("medium"); len(formats2) > 0 {
		formats = formats2
	}
	return formats
}
