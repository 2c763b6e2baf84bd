package builder

import (
	"fmt"
	"strings"

	"kunkel-music-bot/builder/queue"
	"kunkel-music-bot/builder/track"
	"kunkel-music-bot/model"

	"github.com/bwmarrin/discordgo"
)

type Configuration struct {
	Queue *queue.Configuration `yaml:"Queue" validate:"required"`
	Color int                  `yaml:"Color"`
}

type Builder struct {
	queue  *queue.QueueBuilder
	track  *track.TrackBuilder
	config *Configuration
}

// NewBuilder constructs an object that handles building
// the embeds of the messages sent by the bot
func NewBuilder(config *Configuration) *Builder {
	b := &Builder{
		track:  track.NewTrackBuilder(),
		config: config,
	}
	b.queue = queue.NewQueueBuidler(config.Queue, b.track)
	return b
}

// Queue returns an object that handles mapping
// queue pages to embeds.
func (builder *Builder) Queue() *queue.QueueBuilder {
	return builder.queue
}

// Track return an object that handles formatting
// tracks' titles and durations.
func (builder *Builder) Track() *track.TrackBuilder {
	return builder.track
}

// NowPlaying builds the embed announcing that
// the provided track started playing.
func (builder *Builder) NowPlaying(t *model.Track) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: "Now playing",
		Color: builder.config.Color,
	}
	if t == nil || t.Info == nil {
		return embed
	}
	embed.Color = builder.track.Color(t.Info.VideoID)
	embed.Description = fmt.Sprintf(
		"**%s**　[%s](%s)",
		builder.track.DurationString(t.Info.DurationSeconds),
		builder.track.Title(t.Info.Title),
		t.Info.Url,
	)
	if t.Requester != nil && len(t.Requester.Name) > 0 {
		embed.Footer = &discordgo.MessageEmbedFooter{
			Text: "Requested by " + t.Requester.Name,
		}
	}
	return embed
}

// Enqueued builds the embed announcing that the provided
// track was added to the queue at the provided position.
func (builder *Builder) Enqueued(t *model.Track, position int) *discordgo.MessageEmbed {
	description := fmt.Sprintf("Added to the queue at position ***%d***", position)
	if t != nil && t.Info != nil {
		description = fmt.Sprintf(
			"Added **%s**　%s to the queue at position ***%d***",
			builder.track.DurationString(t.Info.DurationSeconds),
			builder.track.Title(t.Info.Title),
			position,
		)
	}
	return builder.Status(description)
}

// TrackFailed builds the embed reporting that the
// provided track could not be played.
func (builder *Builder) TrackFailed(t *model.Track, err error) *discordgo.MessageEmbed {
	title := "unknown track"
	if t != nil && t.Info != nil {
		title = builder.track.Title(t.Info.Title)
	}
	description := fmt.Sprintf("Could not play %s, skipping it", title)
	if err != nil {
		description += fmt.Sprintf("\n> %v", err)
	}
	return &discordgo.MessageEmbed{
		Title:       "Playback failed",
		Description: description,
		Color:       builder.config.Color,
	}
}

// History builds the embed listing the provided
// recently played tracks.
func (builder *Builder) History(entries []*model.HistoryEntry) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: "Recently played",
		Color: builder.config.Color,
	}
	if len(entries) == 0 {
		embed.Description = "No tracks have been played yet"
		return embed
	}
	lines := make([]string, 0, len(entries))
	for i, e := range entries {
		title := ""
		if e.Info != nil {
			title = builder.track.ShortTitle(builder.track.Title(e.Info.Title))
		}
		lines = append(lines, fmt.Sprintf(
			"***%d***　%s　<t:%d:R>", i+1, title, e.PlayedAt.Unix(),
		))
	}
	embed.Description = strings.Join(lines, "\n")
	return embed
}

// Status builds a simple embed with the provided description.
func (builder *Builder) Status(description string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Description: description,
		Color:       builder.config.Color,
	}
}
