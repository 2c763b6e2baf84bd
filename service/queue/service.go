package queue

import (
	"kunkel-music-bot/model"
)

type QueueService struct{}

// NewQueueService constructs an object that holds some
// logic for displaying queues.
func NewQueueService() *QueueService {
	return &QueueService{}
}

// PageOffset returns the offset of the first track on the provided
// 1-based page of a queue with the provided size. Pages past the
// end are clamped to the last page, pages before the start to
// the first page.
func (service *QueueService) PageOffset(size int, limit int, page int) int {
	if limit < 1 || size < 1 || page < 1 {
		return 0
	}
	offset := (page - 1) * limit
	if offset >= size {
		i := size - 1
		offset = i - i%limit
	}
	return offset
}

// NewQueuePage builds a page of the provided pending tracks,
// starting at the provided offset.
func (service *QueueService) NewQueuePage(guildID string, current *model.Track, tracks []*model.Track, offset int, limit int) *model.QueuePage {
	page := &model.QueuePage{
		GuildID: guildID,
		Current: current,
		Tracks:  make([]*model.Track, 0),
		Offset:  offset,
		Limit:   limit,
		Size:    len(tracks),
	}
	if offset < 0 || offset >= len(tracks) {
		page.Offset = 0
	}
	end := page.Offset + limit
	if end > len(tracks) {
		end = len(tracks)
	}
	if page.Offset < end {
		page.Tracks = append(page.Tracks, tracks[page.Offset:end]...)
	}
	return page
}

// IncrementQueueOffset increments the provided page's
// offset by it's limit. If the new offset is larger than
// the size of the queue, the offset is wrapped back to 0.
func (service *QueueService) IncrementQueueOffset(page *model.QueuePage) {
	page.Offset += page.Limit
	if page.Offset >= page.Size {
		page.Offset = 0
	}
}

// DecrementQueueOffset decrements the provided page's
// offset by it's limit. If the new offset is less than 0,
// the offset is wrapped to the last page.
func (service *QueueService) DecrementQueueOffset(page *model.QueuePage) {
	page.Offset -= page.Limit
	if page.Offset < 0 {
		page.Offset = service.PageOffset(page.Size, page.Limit, page.Size)
	}
}
