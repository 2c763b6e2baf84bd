package bot

import (
	"kunkel-music-bot/bot/transaction"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// onButtonClick is a handler function called when a user
// clicks a button on a message owned by the bot.
// This is not emitted through the discord websocket, but is rather
// called from the INTERACTION_CREATE event when the interaction type
// is button click.
func (bot *DiscordEventHandler) onButtonClick(t *transaction.Transaction) {
	util := &Util{bot.Bot}
	data := t.Interaction().MessageComponentData()
	label, offset, ok := bot.builder.Queue().ParseButtonCustomID(data.CustomID)
	if !ok {
		util.respond(t, "Sorry, something went wrong ...")
		return
	}
	bot.log.WithFields(log.Fields{
		"GuildID": t.GuildID(),
		"Offset":  offset,
	}).Tracef("Button clicked (%s)", label)

	forward := label == bot.builder.Queue().ButtonsConfig().Forward
	page, err := bot.music.ScrollQueue(t.GuildID(), offset, forward)
	if err != nil {
		util.respondError(t, err)
		return
	}
	t.Update(
		[]*discordgo.MessageEmbed{bot.builder.Queue().MapQueuePageToEmbed(page)},
		bot.builder.Queue().GetQueueComponents(page),
	)
}
