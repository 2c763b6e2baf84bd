package model

import "time"

type HistoryEntry struct {
	ID        uint       `json:"id"`
	GuildID   string     `json:"guild_id"`
	SessionID string     `json:"session_id"` // Id of the playback session that played the track
	Info      *TrackInfo `json:"info"`
	Requester *Requester `json:"requester"`
	PlayedAt  time.Time  `json:"played_at"`
}
