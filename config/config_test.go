package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"kunkel-music-bot/config"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"
)

type inner struct {
	Timeout time.Duration `yaml:"Timeout" validate:"required"`
	Limit   int           `yaml:"Limit" validate:"gte=1"`
}

type target struct {
	LogLevel log.Level `yaml:"LogLevel" env:"CONFIG_TEST_LOG_LEVEL"`
	Token    string    `yaml:"Token" env:"CONFIG_TEST_TOKEN" validate:"required"`
	Inner    *inner    `yaml:"Inner" validate:"required"`
}

type ConfigTestSuite struct {
	suite.Suite
	dir string
}

// SetupTest creates a temporary directory for the config files
// and clears the environment used by the tests.
func (s *ConfigTestSuite) SetupTest() {
	s.dir = s.T().TempDir()
	os.Unsetenv("CONFIG_TEST_TOKEN")
	os.Unsetenv("CONFIG_TEST_LOG_LEVEL")
}

func (s *ConfigTestSuite) write(name string, content string) string {
	path := filepath.Join(s.dir, name)
	s.Require().NoError(os.WriteFile(path, []byte(content), 0o600))
	return path
}

// TestUnitMergeFiles tests that later files override
// the fields set by earlier files.
func (s *ConfigTestSuite) TestUnitMergeFiles() {
	base := s.write("base.yaml", "LogLevel: info\nToken: base\nInner:\n  Timeout: 5s\n  Limit: 10\n")
	override := s.write("override.yaml", "Token: override\nInner:\n  Limit: 3\n")

	var t target
	s.Require().NoError(config.LoadAndValidateConfiguration(
		[]string{base, override}, nil, &t,
	))
	s.Equal(log.InfoLevel, t.LogLevel)
	s.Equal("override", t.Token)
	s.Equal(5*time.Second, t.Inner.Timeout)
	s.Equal(3, t.Inner.Limit)
}

// TestUnitEnvironmentOverride tests that the environment
// overrides the yaml files and env files fill unset variables.
func (s *ConfigTestSuite) TestUnitEnvironmentOverride() {
	base := s.write("base.yaml", "LogLevel: info\nToken: base\nInner:\n  Timeout: 5s\n  Limit: 10\n")
	envFile := s.write(".env", "CONFIG_TEST_TOKEN=from-file\nCONFIG_TEST_LOG_LEVEL=debug\n")
	s.T().Setenv("CONFIG_TEST_TOKEN", "from-env")

	var t target
	s.Require().NoError(config.LoadAndValidateConfiguration(
		[]string{base}, []string{envFile, filepath.Join(s.dir, "missing.env")}, &t,
	))
	s.Equal("from-env", t.Token)
	s.Equal(log.DebugLevel, t.LogLevel)
	os.Unsetenv("CONFIG_TEST_LOG_LEVEL")
}

// TestUnitValidation tests that invalid configurations are rejected.
func (s *ConfigTestSuite) TestUnitValidation() {
	invalid := s.write("invalid.yaml", "Token: token\nInner:\n  Timeout: 5s\n  Limit: 0\n")
	var t target
	s.Error(config.LoadAndValidateConfiguration([]string{invalid}, nil, &t))

	missing := s.write("missing.yaml", "Inner:\n  Timeout: 5s\n  Limit: 1\n")
	var t2 target
	s.Error(config.LoadAndValidateConfiguration([]string{missing}, nil, &t2))
}

// TestUnitMissingFile tests that a missing yaml file is an error.
func (s *ConfigTestSuite) TestUnitMissingFile() {
	var t target
	s.Error(config.LoadConfiguration([]string{filepath.Join(s.dir, "nope.yaml")}, &t))
}

// TestConfigTestSuite runs the config test suite
func TestConfigTestSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}
