package bot_test

import (
	"os"
	"testing"

	"kunkel-music-bot/bot"

	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v2"
)

type ConfigTestSuite struct {
	suite.Suite
}

// TestUnitExampleConfiguration tests that every key of the
// example config file is read by some component.
func (s *ConfigTestSuite) TestUnitExampleConfiguration() {
	data, err := os.ReadFile("../config.yaml")
	s.Require().NoError(err)

	var root struct {
		MusicBot *bot.Configuration `yaml:"MusicBot"`
	}
	s.Require().NoError(yaml.UnmarshalStrict(data, &root))
	s.Require().NotNil(root.MusicBot)
	s.Require().NotNil(root.MusicBot.Music)
	s.Equal(10, root.MusicBot.Music.HistoryLimit)
	s.Require().NotNil(root.MusicBot.Datastore)
	s.False(root.MusicBot.Datastore.Enabled)
}

// TestConfigTestSuite runs the config test suite
func TestConfigTestSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}
