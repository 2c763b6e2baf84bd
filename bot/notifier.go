package bot

import (
	"kunkel-music-bot/bot/audioplayer"
	"kunkel-music-bot/model"

	log "github.com/sirupsen/logrus"
)

// notifier posts the status messages of a single
// session to the text channel it was started from.
type notifier struct {
	*Bot
	guildID   string
	channelID string
}

func (bot *Bot) newNotifier(guildID string, textChannelID string) audioplayer.Notifier {
	return &notifier{Bot: bot, guildID: guildID, channelID: textChannelID}
}

// NowPlaying replaces the previous now playing message of
// the session with a new one for the provided track.
func (n *notifier) NowPlaying(track *model.Track, previousMessageID string) (string, error) {
	if len(previousMessageID) > 0 {
		if err := n.session.ChannelMessageDelete(n.channelID, previousMessageID); err != nil {
			n.log.WithFields(log.Fields{
				"GuildID":   n.guildID,
				"MessageID": previousMessageID,
			}).Tracef("Could not delete the now playing message: %v", err)
		}
	}
	msg, err := n.session.ChannelMessageSendEmbed(
		n.channelID,
		n.builder.NowPlaying(track),
	)
	if err != nil {
		n.log.WithField("GuildID", n.guildID).Warnf(
			"Could not send the now playing message: %v", err,
		)
		return "", err
	}
	return msg.ID, nil
}

// TrackFailed reports that the provided track was skipped.
func (n *notifier) TrackFailed(track *model.Track, err error) {
	if _, sendErr := n.session.ChannelMessageSendEmbed(
		n.channelID,
		n.builder.TrackFailed(track, err),
	); sendErr != nil {
		n.log.WithField("GuildID", n.guildID).Warnf(
			"Could not send the track failed message: %v", sendErr,
		)
	}
}
