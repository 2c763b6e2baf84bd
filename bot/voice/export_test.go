package voice

import "github.com/bwmarrin/discordgo"

// SetVoiceFuncs replaces the functions joining and leaving
// the voice channels through discord.
func (c *Connector) SetVoiceFuncs(
	join func(guildID string, channelID string) (*discordgo.VoiceConnection, error),
	disconnect func(vc *discordgo.VoiceConnection) error,
) {
	c.join = func(_ *discordgo.Session, guildID string, channelID string) (*discordgo.VoiceConnection, error) {
		return join(guildID, channelID)
	}
	c.disconnect = disconnect
}
