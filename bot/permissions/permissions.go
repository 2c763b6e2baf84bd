package permissions

import (
	"errors"

	"github.com/bwmarrin/discordgo"
)

var (
	ErrMissingSendMessages = errors.New("missing permission to send messages")
	ErrMissingVoice        = errors.New("missing permission to connect and speak")
)

type PermissionsChecker struct {
	session func() *discordgo.Session
}

// NewPermissionsChecker constructs a new object that
// handles checking permissions for users and the client
func NewPermissionsChecker(s func() *discordgo.Session) *PermissionsChecker {
	return &PermissionsChecker{
		session: s,
	}
}

// CheckTextChannel checks whether the client may view and send
// messages in the text channel identified by the provided channelID.
func (checker *PermissionsChecker) CheckTextChannel(channelID string) error {
	return checker.check(
		channelID,
		discordgo.PermissionViewChannel|discordgo.PermissionSendMessages,
		ErrMissingSendMessages,
	)
}

// CheckVoiceChannel checks whether the client may connect and
// speak in the voice channel identified by the provided channelID.
func (checker *PermissionsChecker) CheckVoiceChannel(channelID string) error {
	return checker.check(
		channelID,
		discordgo.PermissionVoiceConnect|discordgo.PermissionVoiceSpeak,
		ErrMissingVoice,
	)
}

func (checker *PermissionsChecker) check(channelID string, required int64, missing error) error {
	s := checker.session()
	per, err := s.State.UserChannelPermissions(s.State.User.ID, channelID)
	if err != nil {
		return errors.Join(missing, err)
	}
	if per&required != required {
		return missing
	}
	return nil
}
