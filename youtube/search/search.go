package search

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"kunkel-music-bot/model"

	"github.com/kkdai/youtube/v2"
	"github.com/lrstanley/go-ytdlp"
	"github.com/ppalone/ytsearch"
	"golang.org/x/time/rate"
)

var ErrNoResults = errors.New("no results found")

var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`youtube.*watch\?(?:.*&)?v=(?P<videoID>[^&\/#]+)`),
	regexp.MustCompile(`youtu\.be\/(?P<videoID>[^?&\/#]+)`),
	regexp.MustCompile(`youtube\.com\/shorts\/(?P<videoID>[^?&\/#]+)`),
}

type Search struct {
	yt      *youtube.Client
	search  *ytsearch.Client
	limiter *rate.Limiter
}

// NewSearch constructs an object that handles
// searching tracks on youtube either by url or query.
// The provided limiter bounds the yt-dlp invocations.
func NewSearch(limiter *rate.Limiter) *Search {
	return &Search{
		yt:      &youtube.Client{},
		search:  ytsearch.NewClient(nil),
		limiter: limiter,
	}
}

// GetTrackInfo returns the info of the track the provided query
// refers to. If the query is a youtube video url, the url is used
// for fetching the info, otherwise the first search result is used.
func (s *Search) GetTrackInfo(ctx context.Context, query string) (*model.TrackInfo, error) {
	query = strings.TrimSpace(query)
	if len(query) == 0 {
		return nil, ErrNoResults
	}
	if videoID, ok := ExtractVideoID(query); ok {
		return s.getVideoInfo(ctx, videoID)
	}
	info, err := s.searchQuery(ctx, query)
	if err == nil {
		return info, nil
	}
	// NOTE: the search scraper breaks whenever youtube
	// changes it's page, yt-dlp is slower but reliable
	info, err2 := s.searchYtdlp(ctx, query)
	if err2 != nil {
		return nil, fmt.Errorf("search %q: %w", query, errors.Join(err, err2))
	}
	return info, nil
}

// ExtractVideoID returns the id of the youtube video the
// provided url points to, false if it is not a video url.
func ExtractVideoID(url string) (string, bool) {
	if !strings.Contains(url, "youtu") {
		return "", false
	}
	for _, re := range videoIDPatterns {
		m := re.FindStringSubmatch(url)
		if m == nil {
			continue
		}
		if v := m[re.SubexpIndex("videoID")]; len(v) > 0 {
			return v, true
		}
	}
	return "", false
}

// VideoUrl returns the stable watch url of the provided video id.
func VideoUrl(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

func (s *Search) getVideoInfo(ctx context.Context, videoID string) (*model.TrackInfo, error) {
	video, err := s.yt.GetVideoContext(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("get video %s: %w", videoID, err)
	}
	return &model.TrackInfo{
		VideoID:         video.ID,
		Title:           video.Title,
		Url:             VideoUrl(video.ID),
		DurationSeconds: int(video.Duration.Seconds()),
	}, nil
}

func (s *Search) searchQuery(ctx context.Context, query string) (*model.TrackInfo, error) {
	res, err := s.search.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	for _, r := range res.Results {
		if len(r.VideoID) == 0 {
			continue
		}
		return &model.TrackInfo{
			VideoID:         r.VideoID,
			Title:           r.Title,
			Url:             VideoUrl(r.VideoID),
			DurationSeconds: ParseDuration(r.Duration),
		}, nil
	}
	return nil, ErrNoResults
}

func (s *Search) searchYtdlp(ctx context.Context, query string) (*model.TrackInfo, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	res, err := ytdlp.New().
		FlatPlaylist().
		Print("%(id)s\t%(title)s\t%(duration)s").
		PlaylistItems("1").
		NoWarnings().
		IgnoreConfig().
		Run(ctx, "ytsearch1:"+query)
	if err != nil {
		return nil, err
	}
	for _, l := range strings.Split(strings.TrimSpace(res.Stdout), "\n") {
		if info, ok := parseYtdlpLine(l); ok {
			return info, nil
		}
	}
	return nil, ErrNoResults
}

// parseYtdlpLine parses a "id\ttitle\tduration" line
// printed by yt-dlp.
func parseYtdlpLine(l string) (*model.TrackInfo, bool) {
	ps := strings.Split(l, "\t")
	if len(ps) < 3 || len(ps[0]) == 0 {
		return nil, false
	}
	d, _ := strconv.ParseFloat(ps[2], 64)
	return &model.TrackInfo{
		VideoID:         ps[0],
		Title:           ps[1],
		Url:             VideoUrl(ps[0]),
		DurationSeconds: int(d),
	}, true
}

// ParseDuration parses durations like "3:20" or "1:05:20"
// into seconds. Returns 0 for unparsable durations.
func ParseDuration(s string) int {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0
	}
	seconds := 0
	for _, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 {
			return 0
		}
		seconds = seconds*60 + v
	}
	return seconds
}
