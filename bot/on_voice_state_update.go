package bot

import (
	"context"
	"errors"

	"kunkel-music-bot/bot/transaction"
	"kunkel-music-bot/bot/voice"
	"kunkel-music-bot/service/music"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// onVoiceStateUpdate is a handler function called when discord emits
// VoiceStateUpdate event for the bot's user. When the bot has been
// disconnected from the voice channel by someone else, the guild's
// session is stopped, so the next play request starts a new one.
func (bot *DiscordEventHandler) onVoiceStateUpdate(t *transaction.Transaction, s *discordgo.Session, v *discordgo.VoiceStateUpdate) {
	bot.log.WithField("GuildID", t.GuildID()).Trace("Voice state update")

	if len(v.ChannelID) > 0 {
		return
	}
	sessionID, ok := bot.music.SessionID(t.GuildID())
	if !ok {
		return
	}
	// NOTE: the state holds the latest voice state, a delayed
	// disconnect of a torn down session is followed by the join
	// of the live one
	if voice.Connected(s.State, t.GuildID(), v.UserID) {
		bot.log.WithField("GuildID", t.GuildID()).Trace(
			"Client is still connected, ignoring the disconnect",
		)
		return
	}
	bot.log.WithFields(log.Fields{
		"GuildID":   t.GuildID(),
		"SessionID": sessionID,
	}).Debug("Disconnected from voice, stopping the session")

	ctx, cancel := context.WithTimeout(bot.ctx, bot.config.ShutdownTimeout)
	defer cancel()
	err := bot.music.StopSession(ctx, t.GuildID(), sessionID)
	if err != nil && !errors.Is(err, music.ErrSessionReplaced) {
		bot.log.WithField("GuildID", t.GuildID()).Debugf(
			"Could not stop the session: %v", err,
		)
	}
}
