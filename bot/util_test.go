package bot_test

import (
	"errors"
	"fmt"
	"testing"

	"kunkel-music-bot/bot"
	"kunkel-music-bot/bot/audioplayer"
	"kunkel-music-bot/service/music"
	"kunkel-music-bot/youtube"

	"github.com/stretchr/testify/suite"
)

type UtilTestSuite struct {
	suite.Suite
}

// TestUnitErrorMessage tests that the wrapped errors
// are mapped to the user facing messages.
func (s *UtilTestSuite) TestUnitErrorMessage() {
	s.Empty(bot.ErrorMessage(nil))
	s.Equal(
		"The volume must be a number between 1 and 100.",
		bot.ErrorMessage(audioplayer.ErrInvalidVolume),
	)
	s.Equal(
		"Could not connect to the voice channel, try again later.",
		bot.ErrorMessage(fmt.Errorf("%w: timeout", music.ErrConnection)),
	)
	s.Equal(
		"No tracks found.",
		bot.ErrorMessage(fmt.Errorf("search: %w", youtube.ErrNoResults)),
	)
	s.Equal(
		"There is no track at that position in the queue.",
		bot.ErrorMessage(audioplayer.ErrTrackNotFound),
	)
	s.Equal(
		"There is no entry at that position in the history.",
		bot.ErrorMessage(fmt.Errorf("history: %w", music.ErrEntryNotFound)),
	)
	s.Equal("Sorry, something went wrong ...", bot.ErrorMessage(errors.New("unknown")))
}

// TestUtilTestSuite runs the util test suite
func TestUtilTestSuite(t *testing.T) {
	suite.Run(t, new(UtilTestSuite))
}
