package bot

import (
	"errors"

	"kunkel-music-bot/bot/audioplayer"
	"kunkel-music-bot/bot/permissions"
	"kunkel-music-bot/bot/transaction"
	"kunkel-music-bot/model"
	"kunkel-music-bot/service/music"
	"kunkel-music-bot/youtube"

	"github.com/bwmarrin/discordgo"
)

type Util struct {
	*Bot
}

// checkVoice checks if the interaction user is in a voice channel and if the bot
// is either not in any channel or in the same channel as the user. If this is false,
// the bot responds to the interaction and warns the user, else the bot does not
// respond and the user's voice channel is returned.
func (bot *Util) checkVoice(t *transaction.Transaction) (string, bool) {
	botState, _ := bot.session.State.VoiceState(
		t.GuildID(),
		bot.session.State.User.ID,
	)
	userState, _ := bot.session.State.VoiceState(
		t.GuildID(),
		t.UserID(),
	)
	// user should always be in a voice channel
	if userState == nil || len(userState.ChannelID) == 0 {
		bot.respond(t, "You need to be in a voice channel!")
		return "", false
	} else if userState.Deaf || userState.SelfDeaf {
		bot.respond(t, "You need to undeafen!")
		return "", false
	}
	if botState != nil && len(botState.ChannelID) > 0 &&
		botState.ChannelID != userState.ChannelID {
		// if the bot is in a voice channel, the user should be in the same channel
		bot.respond(t, "We need to be in the same voice channel!")
		return "", false
	}
	return userState.ChannelID, true
}

// request builds the music request of the transaction's user.
func (bot *Util) request(t *transaction.Transaction, voiceChannelID string) *music.Request {
	req := &music.Request{
		GuildID:        t.GuildID(),
		TextChannelID:  t.Interaction().ChannelID,
		VoiceChannelID: voiceChannelID,
		Requester:      &model.Requester{ID: t.UserID()},
	}
	if m := t.Interaction().Member; m != nil && m.User != nil {
		req.Requester.Name = m.Nick
		if len(req.Requester.Name) == 0 {
			req.Requester.Name = m.User.Username
		}
	}
	return req
}

// respond answers the transaction with an ephemeral status message.
func (bot *Util) respond(t *transaction.Transaction, message string) {
	t.Respond(
		true,
		[]*discordgo.MessageEmbed{bot.builder.Status(message)},
		nil,
	)
}

// respondError answers the transaction with the user
// facing message of the provided error.
func (bot *Util) respondError(t *transaction.Transaction, err error) {
	bot.log.WithField("GuildID", t.GuildID()).Debugf("Command failed: %v", err)
	bot.respond(t, ErrorMessage(err))
}

// ensureClientTextChannelPermissions checks whether the client
// has all the required permission is the text channel identified
// by the provided channelID.
func (bot *Util) ensureClientTextChannelPermissions(channelID string) bool {
	if err := bot.permissions.CheckTextChannel(channelID); err != nil {
		bot.log.WithField("ChannelID", channelID).Tracef(
			"Client missing permissions: %v", err,
		)
		return false
	}
	return true
}

// ErrorMessage returns the message displayed to the users
// when a command fails with the provided error.
func ErrorMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, music.ErrNoChannel):
		return "You need to be in a voice channel!"
	case errors.Is(err, music.ErrConnection):
		return "Could not connect to the voice channel, try again later."
	case errors.Is(err, permissions.ErrMissingVoice):
		return "I am not allowed to speak in that voice channel!"
	case errors.Is(err, music.ErrNotConnected):
		return "I am not connected to a voice channel."
	case errors.Is(err, music.ErrHistoryDisabled):
		return "The history is not available."
	case errors.Is(err, music.ErrEntryNotFound):
		return "There is no entry at that position in the history."
	case errors.Is(err, audioplayer.ErrNotPlaying):
		return "Nothing is playing."
	case errors.Is(err, audioplayer.ErrAlreadyPaused):
		return "The track is already paused."
	case errors.Is(err, audioplayer.ErrNotPaused):
		return "The track is not paused."
	case errors.Is(err, audioplayer.ErrInvalidVolume):
		return "The volume must be a number between 1 and 100."
	case errors.Is(err, audioplayer.ErrTrackNotFound):
		return "There is no track at that position in the queue."
	case errors.Is(err, audioplayer.ErrSessionClosed),
		errors.Is(err, audioplayer.ErrRegistryClosed):
		return "The player is shutting down, try again later."
	case errors.Is(err, youtube.ErrNoResults):
		return "No tracks found."
	default:
		return "Sorry, something went wrong ..."
	}
}
