package model

import "time"

type Requester struct {
	ID   string `json:"id"`   // Id of the discord user that requested the track
	Name string `json:"name"` // Display name of the requester
}

type TrackInfo struct {
	VideoID         string `json:"video_id"`
	Title           string `json:"title"`
	Url             string `json:"url"` // Stable url of the page the track was found on
	DurationSeconds int    `json:"duration_seconds"`
}

type Track struct {
	Requester *Requester `json:"requester"`
	Info      *TrackInfo `json:"info"`
	StreamUrl string     `json:"stream_url"` // Time limited url of the playable stream, empty until materialized
	Added     time.Time  `json:"added"`
}

// NewTrack constructs a lazy track from the provided
// info, that still needs to be materialized before it
// may be played.
func NewTrack(info *TrackInfo, requester *Requester) *Track {
	return &Track{
		Requester: requester,
		Info:      info,
		Added:     time.Now(),
	}
}

// IsMaterialized returns true if the track holds
// a playable stream url.
func (t *Track) IsMaterialized() bool {
	return len(t.StreamUrl) > 0
}

// Materialize returns a copy of the track that
// plays from the provided stream url. The original
// track is not modified.
func (t *Track) Materialize(streamUrl string) *Track {
	t2 := *t
	t2.StreamUrl = streamUrl
	return &t2
}

// Title returns the track's title, or an empty
// string if the track has no info.
func (t *Track) Title() string {
	if t == nil || t.Info == nil {
		return ""
	}
	return t.Info.Title
}
