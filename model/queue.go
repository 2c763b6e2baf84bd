package model

type QueuePage struct {
	GuildID string   `json:"guild_id"` // Id of the discord server the queue belongs to
	Current *Track   `json:"current"`  // Track that is currently playing, nil when idle
	Tracks  []*Track `json:"tracks"`   // Tracks displayed on this page
	Offset  int      `json:"offset"`   // Offset of the first displayed track in the queue
	Limit   int      `json:"limit"`    // Number of tracks displayed at once
	Size    int      `json:"size"`     // Total number of pending tracks
	Volume  int      `json:"volume"`   // Session volume in percent
	Paused  bool     `json:"paused"`
}
