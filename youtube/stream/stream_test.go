package stream_test

import (
	"testing"

	"kunkel-music-bot/youtube/stream"

	"github.com/kkdai/youtube/v2"
	"github.com/stretchr/testify/suite"
)

type YoutubeStreamTestSuite struct {
	suite.Suite
}

// TestUnitBestAudioFormats tests that the opus audio format with
// the best audio quality is preferred.
func (s *YoutubeStreamTestSuite) TestUnitBestAudioFormats() {
	formats := youtube.FormatList{
		{ItagNo: 18, MimeType: `video/mp4; codecs="avc1.42001E, mp4a.40.2"`, AudioChannels: 2, AudioQuality: "AUDIO_QUALITY_LOW", Quality: "medium"},
		{ItagNo: 249, MimeType: `audio/webm; codecs="opus"`, AudioChannels: 2, AudioQuality: "AUDIO_QUALITY_LOW", Quality: "tiny"},
		{ItagNo: 251, MimeType: `audio/webm; codecs="opus"`, AudioChannels: 2, AudioQuality: "AUDIO_QUALITY_MEDIUM", Quality: "tiny"},
		{ItagNo: 140, MimeType: `audio/mp4; codecs="mp4a.40.2"`, AudioChannels: 2, AudioQuality: "AUDIO_QUALITY_HIGH", Quality: "tiny"},
		{ItagNo: 137, MimeType: `video/mp4; codecs="avc1.640028"`, AudioChannels: 0, Quality: "hd1080"},
	}
	best := stream.BestAudioFormats(formats)
	s.Require().NotEmpty(best)
	s.Equal(251, best[0].ItagNo)
}

// TestUnitBestAudioFormatsNoOpus tests that formats without
// opus are still used when no opus format exists.
func (s *YoutubeStreamTestSuite) TestUnitBestAudioFormatsNoOpus() {
	formats := youtube.FormatList{
		{ItagNo: 137, MimeType: `video/mp4; codecs="avc1.640028"`, AudioChannels: 0, Quality: "hd1080"},
		{ItagNo: 140, MimeType: `audio/mp4; codecs="mp4a.40.2"`, AudioChannels: 2, AudioQuality: "AUDIO_QUALITY_MEDIUM", Quality: "tiny"},
	}
	best := stream.BestAudioFormats(formats)
	s.Require().NotEmpty(best)
	s.Equal(140, best[0].ItagNo)
}

// TestYoutubeStreamTestSuite runs the youtube stream test suite
func TestYoutubeStreamTestSuite(t *testing.T) {
	suite.Run(t, new(YoutubeStreamTestSuite))
}
