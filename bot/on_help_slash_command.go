package bot

import (
	"kunkel-music-bot/bot/transaction"

	"github.com/bwmarrin/discordgo"
)

// onHelpSlashCommand is a handler function called when the bot's help slash
// command is called in the discord channel, this is not emmited through the
// discord's websocket, but is rather called from INTERACTION_CREATE event when
// the interaction's command data name matches the help slash command's name.
func (bot *DiscordEventHandler) onHelpSlashCommand(t *transaction.Transaction) {
	help := bot.helpContent
	if len(help) == 0 {
		help = "Sorry, there is currently no help available."
	}
	t.Respond(true, []*discordgo.MessageEmbed{
		bot.builder.Status(help),
	}, nil)
}
