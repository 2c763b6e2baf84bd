package builder_test

import (
	"errors"
	"testing"
	"time"

	"kunkel-music-bot/builder"
	"kunkel-music-bot/builder/queue"
	"kunkel-music-bot/model"

	"github.com/stretchr/testify/suite"
)

type BuilderTestSuite struct {
	suite.Suite
	builder *builder.Builder
	track   *model.Track
}

// SetupSuite runs on suite init and creates the builder.
func (s *BuilderTestSuite) SetupSuite() {
	s.builder = builder.NewBuilder(&builder.Configuration{
		Color: 1234,
		Queue: &queue.Configuration{
			Title: "Music",
			Buttons: &queue.ButtonsConfig{
				Backward: "Backward",
				Forward:  "Forward",
			},
		},
	})
	s.track = model.NewTrack(&model.TrackInfo{
		VideoID:         "yuFI5KSPAt4",
		Title:           "Snow",
		Url:             "https://www.youtube.com/watch?v=yuFI5KSPAt4",
		DurationSeconds: 200,
	}, &model.Requester{ID: "USER", Name: "user"})
}

// TestUnitNowPlaying tests the now playing embed.
func (s *BuilderTestSuite) TestUnitNowPlaying() {
	embed := s.builder.NowPlaying(s.track)
	s.Equal("Now playing", embed.Title)
	s.Equal("**3:20**　[Snow](https://www.youtube.com/watch?v=yuFI5KSPAt4)", embed.Description)
	s.Equal(s.builder.Track().Color("yuFI5KSPAt4"), embed.Color)
	s.NotNil(embed.Footer)
	s.Equal("Requested by user", embed.Footer.Text)

	s.Empty(s.builder.NowPlaying(nil).Description)
}

// TestUnitTrackFailed tests the embed of a failed track.
func (s *BuilderTestSuite) TestUnitTrackFailed() {
	embed := s.builder.TrackFailed(s.track, errors.New("no formats"))
	s.Contains(embed.Description, "Could not play Snow")
	s.Contains(embed.Description, "no formats")
	s.Equal(1234, embed.Color)
}

// TestUnitEnqueued tests the embed of an enqueued track.
func (s *BuilderTestSuite) TestUnitEnqueued() {
	embed := s.builder.Enqueued(s.track, 3)
	s.Equal("Added **3:20**　Snow to the queue at position ***3***", embed.Description)
}

// TestUnitHistory tests the history embed.
func (s *BuilderTestSuite) TestUnitHistory() {
	s.Equal("No tracks have been played yet", s.builder.History(nil).Description)

	playedAt := time.Unix(1700000000, 0)
	embed := s.builder.History([]*model.HistoryEntry{
		{GuildID: "GUILD", Info: s.track.Info, PlayedAt: playedAt},
		{GuildID: "GUILD", Info: &model.TrackInfo{Title: "Other"}, PlayedAt: playedAt},
	})
	s.Equal(
		"***1***　Snow　<t:1700000000:R>\n***2***　Other　<t:1700000000:R>",
		embed.Description,
	)
}

// TestBuilderTestSuite runs the builder test suite
func TestBuilderTestSuite(t *testing.T) {
	suite.Run(t, new(BuilderTestSuite))
}
