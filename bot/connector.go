package bot

import (
	"context"

	"kunkel-music-bot/bot/audioplayer"
	"kunkel-music-bot/bot/permissions"
	"kunkel-music-bot/bot/voice"
)

// voiceConnector joins the voice channels requested by the music
// service, after checking the client is allowed to speak in them.
type voiceConnector struct {
	connector   *voice.Connector
	permissions *permissions.PermissionsChecker
}

func (c *voiceConnector) Join(ctx context.Context, guildID string, channelID string) (audioplayer.Sink, error) {
	if err := c.permissions.CheckVoiceChannel(channelID); err != nil {
		return nil, err
	}
	vc, err := c.connector.Join(ctx, guildID, channelID)
	if err != nil {
		return nil, err
	}
	return c.connector.NewSink(vc), nil
}

// Move moves the guild's existing voice connection, the sink
// streaming into it keeps streaming in the new channel.
func (c *voiceConnector) Move(ctx context.Context, guildID string, channelID string) error {
	if err := c.permissions.CheckVoiceChannel(channelID); err != nil {
		return err
	}
	return c.connector.Move(ctx, guildID, channelID)
}
