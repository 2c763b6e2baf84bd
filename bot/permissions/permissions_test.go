package permissions_test

import (
	"testing"

	"kunkel-music-bot/bot/permissions"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/suite"
)

type PermissionsTestSuite struct {
	suite.Suite
	session *discordgo.Session
	checker *permissions.PermissionsChecker
}

// SetupTest builds a state with a guild in which everyone may
// use the text channel, and the voice channel is denied to the client.
func (s *PermissionsTestSuite) SetupTest() {
	state := discordgo.NewState()
	state.User = &discordgo.User{ID: "CLIENT"}
	s.Require().NoError(state.GuildAdd(&discordgo.Guild{
		ID:      "GUILD",
		OwnerID: "OWNER",
		Roles: []*discordgo.Role{{
			ID: "GUILD",
			Permissions: discordgo.PermissionViewChannel |
				discordgo.PermissionSendMessages |
				discordgo.PermissionVoiceConnect |
				discordgo.PermissionVoiceSpeak,
		}},
	}))
	s.Require().NoError(state.ChannelAdd(&discordgo.Channel{
		ID:      "TEXT",
		GuildID: "GUILD",
		Type:    discordgo.ChannelTypeGuildText,
	}))
	s.Require().NoError(state.ChannelAdd(&discordgo.Channel{
		ID:      "VOICE",
		GuildID: "GUILD",
		Type:    discordgo.ChannelTypeGuildVoice,
		PermissionOverwrites: []*discordgo.PermissionOverwrite{{
			ID:   "CLIENT",
			Type: discordgo.PermissionOverwriteTypeMember,
			Deny: discordgo.PermissionVoiceSpeak,
		}},
	}))
	s.Require().NoError(state.MemberAdd(&discordgo.Member{
		GuildID: "GUILD",
		User:    &discordgo.User{ID: "CLIENT"},
	}))
	s.session = &discordgo.Session{State: state}
	s.checker = permissions.NewPermissionsChecker(
		func() *discordgo.Session { return s.session },
	)
}

// TestUnitTextChannel tests the text channel permissions.
func (s *PermissionsTestSuite) TestUnitTextChannel() {
	s.NoError(s.checker.CheckTextChannel("TEXT"))
	s.ErrorIs(s.checker.CheckTextChannel("UNKNOWN"), permissions.ErrMissingSendMessages)
}

// TestUnitVoiceChannel tests that a denied overwrite is respected.
func (s *PermissionsTestSuite) TestUnitVoiceChannel() {
	s.ErrorIs(s.checker.CheckVoiceChannel("VOICE"), permissions.ErrMissingVoice)
	s.NoError(s.checker.CheckVoiceChannel("TEXT"))
}

// TestPermissionsTestSuite runs the permissions test suite
func TestPermissionsTestSuite(t *testing.T) {
	suite.Run(t, new(PermissionsTestSuite))
}
