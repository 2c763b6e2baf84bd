package slash_command

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// Names of the music command's subcommands and options.
const (
	Play       = "play"
	Pause      = "pause"
	Resume     = "resume"
	Skip       = "skip"
	Stop       = "stop"
	Leave      = "leave"
	Queue      = "queue"
	Remove     = "remove"
	Clear      = "clear"
	NowPlaying = "now-playing"
	Volume     = "volume"
	Join       = "join"
	History    = "history"

	QueryOption    = "query"
	PageOption     = "page"
	PositionOption = "position"
	PercentOption  = "percent"
	ChannelOption  = "channel"
	DeleteOption   = "delete"
	ClearOption    = "clear"
)

type ChatCommandConfig struct {
	Name        string `yaml:"Name" validate:"required"`
	Description string `yaml:"Description" validate:"required"`
}

type SlashCommandsConfig struct {
	Music *ChatCommandConfig `yaml:"Music" validate:"required"`
	Help  *ChatCommandConfig `yaml:"Help" validate:"required"`
}

// Commands returns the global slash commands of the bot, the
// music command with a subcommand for each music operation
// and the help command.
func Commands(config *SlashCommandsConfig) []*discordgo.ApplicationCommand {
	minPosition := float64(1)
	minPercent := float64(1)
	return []*discordgo.ApplicationCommand{
		{
			Name:        config.Music.Name,
			Description: config.Music.Description,
			Options: []*discordgo.ApplicationCommandOption{
				subcommand(Play, "Play a track or add it to the queue",
					&discordgo.ApplicationCommandOption{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        QueryOption,
						Description: "Name or youtube url of the track",
						Required:    true,
					},
				),
				subcommand(Pause, "Pause the current track"),
				subcommand(Resume, "Resume the paused track"),
				subcommand(Skip, "Skip the current track"),
				subcommand(Stop, "Stop the playback and clear the queue"),
				subcommand(Leave, "Leave the voice channel"),
				subcommand(Queue, "Show the queue",
					&discordgo.ApplicationCommandOption{
						Type:        discordgo.ApplicationCommandOptionInteger,
						Name:        PageOption,
						Description: "Page of the queue",
						MinValue:    &minPosition,
					},
				),
				subcommand(Remove, "Remove a track from the queue",
					&discordgo.ApplicationCommandOption{
						Type:        discordgo.ApplicationCommandOptionInteger,
						Name:        PositionOption,
						Description: "Position of the track in the queue",
						Required:    true,
					},
				),
				subcommand(Clear, "Remove all the tracks from the queue"),
				subcommand(NowPlaying, "Show the current track"),
				subcommand(Volume, "Show or set the volume",
					&discordgo.ApplicationCommandOption{
						Type:        discordgo.ApplicationCommandOptionInteger,
						Name:        PercentOption,
						Description: "Volume in percent",
						MinValue:    &minPercent,
						MaxValue:    100,
					},
				),
				subcommand(Join, "Join a voice channel",
					&discordgo.ApplicationCommandOption{
						Type:         discordgo.ApplicationCommandOptionChannel,
						Name:         ChannelOption,
						Description:  "Voice channel to join, your voice channel by default",
						ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildVoice},
					},
				),
				subcommand(History, "Show the recently played tracks",
					&discordgo.ApplicationCommandOption{
						Type:        discordgo.ApplicationCommandOptionInteger,
						Name:        DeleteOption,
						Description: "Position of the entry to delete from the history",
						MinValue:    &minPosition,
					},
					&discordgo.ApplicationCommandOption{
						Type:        discordgo.ApplicationCommandOptionBoolean,
						Name:        ClearOption,
						Description: "Delete the whole history",
					},
				),
			},
		},
		{
			Name:        config.Help.Name,
			Description: config.Help.Description,
		},
	}
}

func subcommand(name string, description string, options ...*discordgo.ApplicationCommandOption) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionSubCommand,
		Name:        name,
		Description: description,
		Options:     options,
	}
}

// Register deletes all of the bot's previously registered
// global slash commands that changed, then registers the
// music and help global slash commands.
func Register(session *discordgo.Session, config *SlashCommandsConfig) error {
	// NOTE: guildID  is an empty string, so the commands are
	// global
	guildID := ""

	commands := Commands(config)
	// fetch all global application commands defined by
	// the bot user
	registeredCommands, err := session.ApplicationCommands(
		session.State.User.ID,
		guildID,
	)
	if err != nil {
		return fmt.Errorf("could not fetch global application commands: %w", err)
	}
	toDelete, toAdd := Diff(registeredCommands, commands)

	// delete the outdated global application commands
	for _, v := range toDelete {
		if err := session.ApplicationCommandDelete(
			session.State.User.ID,
			guildID,
			v.ID,
		); err != nil {
			return fmt.Errorf(
				"could not delete global application command '%v': %w",
				v.Name, err,
			)
		}
	}
	// register the new global application commands
	for _, cmd := range toAdd {
		if _, err := session.ApplicationCommandCreate(
			session.State.User.ID,
			guildID,
			cmd,
		); err != nil {
			return fmt.Errorf(
				"could not create global application command '%v': %w",
				cmd.Name, err,
			)
		}
	}
	return nil
}

// Diff returns the registered commands that no longer match any of
// the provided commands, and the commands that are not registered yet.
func Diff(registered []*discordgo.ApplicationCommand, commands []*discordgo.ApplicationCommand) (toDelete []*discordgo.ApplicationCommand, toAdd []*discordgo.ApplicationCommand) {
	toDelete = make([]*discordgo.ApplicationCommand, 0)
	toAdd = make([]*discordgo.ApplicationCommand, 0)

	for _, v := range registered {
		del := true
		for _, v2 := range commands {
			if equal(v, v2) {
				del = false
				break
			}
		}
		if del {
			toDelete = append(toDelete, v)
		}
	}
	for _, v := range commands {
		add := true
		for _, v2 := range registered {
			if equal(v, v2) {
				add = false
				break
			}
		}
		if add {
			toAdd = append(toAdd, v)
		}
	}
	return toDelete, toAdd
}

func equal(a *discordgo.ApplicationCommand, b *discordgo.ApplicationCommand) bool {
	if a.Name != b.Name || a.Description != b.Description {
		return false
	}
	if len(a.Options) != len(b.Options) {
		return false
	}
	for i := range a.Options {
		if a.Options[i].Name != b.Options[i].Name ||
			len(a.Options[i].Options) != len(b.Options[i].Options) {
			return false
		}
	}
	return true
}
