package bot

import (
	"strings"

	"kunkel-music-bot/bot/transaction"

	"github.com/bwmarrin/discordgo"
)

// onApplicationCommand is a handler function called when discord emits
// INTERACTION_CREATE event and the interaction's type is applicationCommand.
func (bot *DiscordEventHandler) onApplicationCommand(t *transaction.Transaction) {
	// NOTE: an application command has been used,
	// determine which one.
	data := t.Interaction().ApplicationCommandData()
	name := strings.TrimSpace(data.Name)
	switch name {
	case strings.TrimSpace(bot.config.SlashCommands.Music.Name):
		if len(data.Options) == 0 {
			return
		}
		bot.onMusicSlashCommand(t, data.Options[0])
		return
	case strings.TrimSpace(bot.config.SlashCommands.Help.Name):
		// help slash command has been used
		bot.onHelpSlashCommand(t)
		return
	}
}

// option returns the option of the subcommand with the
// provided name, or nil if the option was not provided.
func option(sub *discordgo.ApplicationCommandInteractionDataOption, name string) *discordgo.ApplicationCommandInteractionDataOption {
	for _, o := range sub.Options {
		if o.Name == name {
			return o
		}
	}
	return nil
}
