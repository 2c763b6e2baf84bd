package queue

import (
	"fmt"
	"strconv"
	"strings"

	"kunkel-music-bot/builder/track"
	"kunkel-music-bot/model"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
)

const customIDSplit = "<split>"

type Configuration struct {
	Title       string         `yaml:"Title" validate:"required"`
	Description string         `yaml:"Description"`
	Footer      string         `yaml:"Footer"`
	Buttons     *ButtonsConfig `yaml:"Buttons" validate:"required"`
}

type ButtonsConfig struct {
	Backward string `yaml:"Backward" validate:"required"`
	Forward  string `yaml:"Forward" validate:"required"`
}

type QueueBuilder struct {
	config       *Configuration
	trackBuilder *track.TrackBuilder
}

// NewQueueBuidler constructs an object that handles
// mapping the queue pages to embeds.
func NewQueueBuidler(config *Configuration, trackBuilder *track.TrackBuilder) *QueueBuilder {
	return &QueueBuilder{
		config:       config,
		trackBuilder: trackBuilder,
	}
}

// ButtonsConfig returns the builder's buttons config.
func (builder *QueueBuilder) ButtonsConfig() *ButtonsConfig {
	return builder.config.Buttons
}

// MapQueuePageToEmbed maps the provided queue page to a message embed.
// The embed has the current track in the first field and the
// tracks displayed on the page in the second field.
func (builder *QueueBuilder) MapQueuePageToEmbed(page *model.QueuePage) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       builder.config.Title,
		Fields:      make([]*discordgo.MessageEmbedField, 0),
		Description: builder.config.Description,
		Footer: &discordgo.MessageEmbedFooter{
			Text: builder.config.Footer,
		},
	}
	spacer := "> "
	spacer2 := spacer + "ㅤ"
	if page.Current != nil && page.Current.Info != nil {
		info := page.Current.Info
		embed.Color = builder.trackBuilder.Color(info.VideoID)
		current := builder.trackBuilder.WrapTitle(
			builder.trackBuilder.Title(info.Title),
		)
		status := builder.trackBuilder.DurationString(info.DurationSeconds)
		if page.Paused {
			status += " (paused)"
		}
		current = fmt.Sprintf(
			"**%s**　%s\n%s",
			status, current, spacer2,
		)
		current = fmt.Sprintf("%s\n%s", spacer, current)
		embed.Fields = append(embed.Fields,
			&discordgo.MessageEmbedField{
				Name:  "Now",
				Value: " " + current,
			},
		)
	}
	if len(page.Tracks) > 0 {
		tracks := make([]string, 0)
		for i, t := range page.Tracks {
			tracks = append(tracks, fmt.Sprintf(
				"***%d***　%s",
				i+page.Offset+1,
				builder.trackBuilder.ShortTitle(
					builder.trackBuilder.Title(t.Title()),
				),
			))
		}
		s := strings.Join(tracks, "\n")
		if len(tracks) < page.Limit && page.Size > page.Limit {
			s += strings.Repeat("\n"+spacer, page.Limit-len(tracks))
		}
		s += fmt.Sprintf(
			"\n%s\n%s%sTracks in queue: ***%d***",
			spacer, spacer,
			strings.Repeat("　", 3),
			page.Size,
		)
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Next",
			Value: s,
		})
	}
	if page.Current == nil && len(page.Tracks) == 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Next",
			Value: "The queue is empty",
		})
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name:   "Volume",
		Value:  fmt.Sprintf("%d%%", page.Volume),
		Inline: true,
	})
	return embed
}

// GetQueueComponents constructs the buttons for scrolling
// through the provided queue page. The buttons are disabled
// when all the tracks fit on a single page.
func (builder *QueueBuilder) GetQueueComponents(page *model.QueuePage) []discordgo.MessageComponent {
	disabled := page.Size <= page.Limit
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				builder.newButton(builder.config.Buttons.Backward, page.Offset, disabled),
				builder.newButton(builder.config.Buttons.Forward, page.Offset, disabled),
			},
		},
	}
}

// ParseButtonCustomID returns the label of the button and the
// offset of the queue page it was attached to, from the button's
// customID. ok is false if the customID was not built by this builder.
func (builder *QueueBuilder) ParseButtonCustomID(customID string) (label string, offset int, ok bool) {
	parts := strings.Split(customID, customIDSplit)
	if len(parts) != 3 {
		return "", 0, false
	}
	offset, err := strconv.Atoi(parts[1])
	if err != nil || offset < 0 {
		return "", 0, false
	}
	if parts[0] != builder.config.Buttons.Backward && parts[0] != builder.config.Buttons.Forward {
		return "", 0, false
	}
	return parts[0], offset, true
}

func (builder *QueueBuilder) newButton(label string, offset int, disabled bool) discordgo.Button {
	return discordgo.Button{
		// NOTE: a random suffix so discord does not
		// merge buttons of different queue messages
		CustomID: strings.Join(
			[]string{label, strconv.Itoa(offset), uuid.NewString()},
			customIDSplit,
		),
		Label:    label,
		Style:    discordgo.SecondaryButton,
		Disabled: disabled,
	}
}
