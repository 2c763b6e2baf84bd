package bot

import (
	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// onReady is a handler function called when discord emits
// READY event
func (bot *DiscordEventHandler) onReady(s *discordgo.Session, r *discordgo.Ready) {
	if err := s.UpdateListeningStatus(
		"/" + bot.config.SlashCommands.Help.Name,
	); err != nil {
		bot.log.Debugf("Could not update the status: %v", err)
	}
	bot.log.WithFields(log.Fields{
		"Username": r.User.Username + " #" + r.User.Discriminator,
		"Guilds":   len(r.Guilds),
	}).Info("Bot ready")

	// NOTE: mark the bot as ready, so the
	// other handlers start working
	bot.ready.Store(true)
}
