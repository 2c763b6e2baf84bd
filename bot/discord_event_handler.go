package bot

import "github.com/bwmarrin/discordgo"

type DiscordEventHandler struct {
	*Bot
}

// setHandlers adds handlers for discord events to the
// provided session.
// It Adds handler for ready, voice state update
// and interaction create events, but it determines
// the type of interaction and calls the appropriate function.
func (bot *DiscordEventHandler) setHandlers() {
	bot.session.AddHandler(
		func(s *discordgo.Session, r *discordgo.Ready) {
			bot.onReady(s, r)
		},
	)
	bot.session.AddHandler(
		func(s *discordgo.Session, v *discordgo.VoiceStateUpdate) {
			if len(v.GuildID) > 0 && bot.ready.Load() &&
				v.UserID == s.State.User.ID {

				t := bot.transactions.New("VoiceStateUpdate", v.GuildID, nil)
				bot.onVoiceStateUpdate(t, s, v)
			}
		},
	)
	bot.session.AddHandler(
		func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			if len(i.GuildID) == 0 || !bot.ready.Load() ||
				i.Interaction.AppID != s.State.User.ID {
				return
			}
			util := &Util{bot.Bot}

			if len(i.ChannelID) > 0 {
				if !util.ensureClientTextChannelPermissions(i.ChannelID) {
					return
				}
			}

			switch i.Interaction.Type {
			case discordgo.InteractionApplicationCommand:
				t := bot.transactions.New(
					"Interaction/ApplicationCommand",
					i.GuildID,
					i.Interaction,
				)
				bot.onApplicationCommand(t)
				return
			case discordgo.InteractionMessageComponent:
				switch i.Interaction.MessageComponentData().ComponentType {
				case discordgo.ButtonComponent:
					t := bot.transactions.New(
						"Interaction/ButtonClick",
						i.GuildID,
						i.Interaction,
					)
					bot.onButtonClick(t)
					return
				}
				return
			}
		},
	)
}
