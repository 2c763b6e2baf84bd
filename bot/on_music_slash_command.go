package bot

import (
	"context"
	"fmt"

	"kunkel-music-bot/bot/slash_command"
	"kunkel-music-bot/bot/transaction"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// onMusicSlashCommand is a handler function called when the bot's music slash
// command is called in the discord channel, this is not emmited through the
// discord's websocket, but is rather called from INTERACTION_CREATE event when
// the interaction's command data name matches the music slash command's name.
func (bot *DiscordEventHandler) onMusicSlashCommand(t *transaction.Transaction, sub *discordgo.ApplicationCommandInteractionDataOption) {
	bot.log.WithFields(log.Fields{
		"GuildID":    t.GuildID(),
		"Subcommand": sub.Name,
	}).Trace("Music slash command")

	util := &Util{bot.Bot}
	guildID := t.GuildID()

	switch sub.Name {
	case slash_command.Play:
		channelID, ok := util.checkVoice(t)
		if !ok {
			return
		}
		query := ""
		if o := option(sub, slash_command.QueryOption); o != nil {
			query = o.StringValue()
		}
		t.Defer(false)
		res, err := bot.music.Play(bot.ctx, util.request(t, channelID), query)
		if err != nil {
			util.respondError(t, err)
			return
		}
		t.Respond(false, []*discordgo.MessageEmbed{
			bot.builder.Enqueued(res.Track, res.Position),
		}, nil)

	case slash_command.Pause:
		if _, ok := util.checkVoice(t); !ok {
			return
		}
		bot.respondStatus(t, bot.music.Pause(guildID), "Paused")

	case slash_command.Resume:
		if _, ok := util.checkVoice(t); !ok {
			return
		}
		bot.respondStatus(t, bot.music.Resume(guildID), "Resumed")

	case slash_command.Skip:
		if _, ok := util.checkVoice(t); !ok {
			return
		}
		skipped, err := bot.music.Skip(guildID)
		bot.respondStatus(t, err, fmt.Sprintf(
			"Skipped %s", bot.builder.Track().Title(skipped.Title()),
		))

	case slash_command.Stop, slash_command.Leave:
		if _, ok := util.checkVoice(t); !ok {
			return
		}
		bot.onStop(t)

	case slash_command.Queue:
		page := 1
		if o := option(sub, slash_command.PageOption); o != nil {
			page = int(o.IntValue())
		}
		p, err := bot.music.Queue(guildID, page)
		if err != nil {
			util.respondError(t, err)
			return
		}
		t.Respond(false, []*discordgo.MessageEmbed{
			bot.builder.Queue().MapQueuePageToEmbed(p),
		}, bot.builder.Queue().GetQueueComponents(p))

	case slash_command.Remove:
		if _, ok := util.checkVoice(t); !ok {
			return
		}
		position := 0
		if o := option(sub, slash_command.PositionOption); o != nil {
			position = int(o.IntValue())
		}
		removed, err := bot.music.Remove(guildID, position)
		bot.respondStatus(t, err, fmt.Sprintf(
			"Removed %s from the queue", bot.builder.Track().Title(removed.Title()),
		))

	case slash_command.Clear:
		if _, ok := util.checkVoice(t); !ok {
			return
		}
		n, err := bot.music.Clear(guildID)
		bot.respondStatus(t, err, fmt.Sprintf("Cleared ***%d*** tracks from the queue", n))

	case slash_command.NowPlaying:
		current, err := bot.music.NowPlaying(guildID)
		if err != nil {
			util.respondError(t, err)
			return
		}
		t.Respond(false, []*discordgo.MessageEmbed{
			bot.builder.NowPlaying(current),
		}, nil)

	case slash_command.Volume:
		o := option(sub, slash_command.PercentOption)
		if o == nil {
			volume, err := bot.music.Volume(guildID)
			bot.respondStatus(t, err, fmt.Sprintf("Volume is ***%d%%***", volume))
			return
		}
		if _, ok := util.checkVoice(t); !ok {
			return
		}
		percent := int(o.IntValue())
		bot.respondStatus(
			t,
			bot.music.SetVolume(guildID, percent),
			fmt.Sprintf("Volume set to ***%d%%***", percent),
		)

	case slash_command.Join:
		bot.onJoin(t, sub)

	case slash_command.History:
		t.Defer(false)
		if o := option(sub, slash_command.ClearOption); o != nil && o.BoolValue() {
			bot.respondStatus(
				t,
				bot.music.ClearHistory(bot.ctx, guildID),
				"Cleared the history",
			)
			return
		}
		if o := option(sub, slash_command.DeleteOption); o != nil {
			removed, err := bot.music.RemoveHistoryEntry(bot.ctx, guildID, int(o.IntValue()))
			if err != nil {
				util.respondError(t, err)
				return
			}
			bot.respondStatus(t, nil, fmt.Sprintf(
				"Deleted %s from the history",
				bot.builder.Track().Title(removed.Info.Title),
			))
			return
		}
		entries, err := bot.music.History(bot.ctx, guildID)
		if err != nil {
			util.respondError(t, err)
			return
		}
		t.Respond(false, []*discordgo.MessageEmbed{
			bot.builder.History(entries),
		}, nil)
	}
}

// onStop stops the guild's session and waits for the bot to
// leave the voice channel before responding.
func (bot *DiscordEventHandler) onStop(t *transaction.Transaction) {
	util := &Util{bot.Bot}
	if !bot.blockedCommands.TryBlock(t.GuildID(), slash_command.Stop) {
		util.respond(t, "Already stopping ...")
		return
	}
	defer bot.blockedCommands.Unblock(t.GuildID(), slash_command.Stop)

	t.Defer(false)
	ctx, cancel := context.WithTimeout(bot.ctx, bot.config.ShutdownTimeout)
	defer cancel()
	bot.respondStatus(t, bot.music.Stop(ctx, t.GuildID()), "Goodbye!")
}

// onJoin joins the provided channel, or the user's voice channel.
func (bot *DiscordEventHandler) onJoin(t *transaction.Transaction, sub *discordgo.ApplicationCommandInteractionDataOption) {
	util := &Util{bot.Bot}
	channelID := ""
	if o := option(sub, slash_command.ChannelOption); o != nil {
		channelID = o.ChannelValue(nil).ID
	} else if vs, err := bot.session.State.VoiceState(t.GuildID(), t.UserID()); err == nil {
		channelID = vs.ChannelID
	}
	if !bot.blockedCommands.TryBlock(t.GuildID(), slash_command.Join) {
		util.respond(t, "Already joining ...")
		return
	}
	defer bot.blockedCommands.Unblock(t.GuildID(), slash_command.Join)

	t.Defer(false)
	_, err := bot.music.Join(bot.ctx, util.request(t, ""), channelID)
	bot.respondStatus(t, err, fmt.Sprintf("Joined <#%s>", channelID))
}

// respondStatus responds with the provided message if the
// err is nil, or with the user facing message of the error.
func (bot *DiscordEventHandler) respondStatus(t *transaction.Transaction, err error, message string) {
	util := &Util{bot.Bot}
	if err != nil {
		util.respondError(t, err)
		return
	}
	t.Respond(false, []*discordgo.MessageEmbed{bot.builder.Status(message)}, nil)
}
