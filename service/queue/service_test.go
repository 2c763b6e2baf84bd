package queue_test

import (
	"testing"

	"kunkel-music-bot/model"
	"kunkel-music-bot/service/queue"

	"github.com/stretchr/testify/suite"
)

type QueueServiceTestSuite struct {
	suite.Suite
	service *queue.QueueService
}

// SetupSuite runs on suit init and creates
// the queue service.
func (s *QueueServiceTestSuite) SetupSuite() {
	s.service = queue.NewQueueService()
}

func tracks(n int) []*model.Track {
	l := make([]*model.Track, 0, n)
	for i := 0; i < n; i++ {
		l = append(l, model.NewTrack(&model.TrackInfo{Title: string(rune('A' + i))}, nil))
	}
	return l
}

// TestUnitPageOffset tests that PageOffset returns the
// offsets of the pages and clamps out of range pages.
func (s *QueueServiceTestSuite) TestUnitPageOffset() {
	s.Equal(0, s.service.PageOffset(13, 10, 1))
	s.Equal(10, s.service.PageOffset(13, 10, 2))
	s.Equal(10, s.service.PageOffset(13, 10, 3))
	s.Equal(0, s.service.PageOffset(13, 10, 0))
	s.Equal(10, s.service.PageOffset(20, 10, 3))
	s.Equal(0, s.service.PageOffset(0, 10, 2))
	s.Equal(0, s.service.PageOffset(5, 0, 2))
}

// TestUnitNewQueuePage tests that the page contains only
// the tracks between it's offset and limit.
func (s *QueueServiceTestSuite) TestUnitNewQueuePage() {
	l := tracks(5)
	current := model.NewTrack(&model.TrackInfo{Title: "CURRENT"}, nil)

	page := s.service.NewQueuePage("GUILD-ID-TEST", current, l, 2, 2)
	s.Equal("GUILD-ID-TEST", page.GuildID)
	s.Same(current, page.Current)
	s.Equal(5, page.Size)
	s.Equal(2, page.Offset)
	s.Require().Len(page.Tracks, 2)
	s.Equal("C", page.Tracks[0].Title())
	s.Equal("D", page.Tracks[1].Title())

	page = s.service.NewQueuePage("GUILD-ID-TEST", nil, l, 4, 2)
	s.Require().Len(page.Tracks, 1)
	s.Equal("E", page.Tracks[0].Title())

	page = s.service.NewQueuePage("GUILD-ID-TEST", nil, l, 10, 2)
	s.Equal(0, page.Offset)
	s.Len(page.Tracks, 2)

	page = s.service.NewQueuePage("GUILD-ID-TEST", nil, nil, 0, 2)
	s.Empty(page.Tracks)
	s.Equal(0, page.Size)
}

// TestUnitIncrementQueueOffset tests that
// IncrementQueueOffset() properly increments the page's offset.
func (s *QueueServiceTestSuite) TestUnitIncrementQueueOffset() {
	page := &model.QueuePage{
		GuildID: "GUILD-ID-TEST",
		Size:    13,
		Limit:   10,
		Offset:  0,
	}
	s.service.IncrementQueueOffset(page)
	s.Equal("GUILD-ID-TEST", page.GuildID)
	s.Equal(10, page.Offset)

	s.service.IncrementQueueOffset(page)
	s.Equal(0, page.Offset)

	page.Size = 20
	s.service.IncrementQueueOffset(page)
	s.service.IncrementQueueOffset(page)
	s.Equal(0, page.Offset)

	page.Size = 21
	s.service.IncrementQueueOffset(page)
	s.service.IncrementQueueOffset(page)
	s.Equal(20, page.Offset)
}

// TestUnitDecrementQueueOffset tests that
// DecrementQueueOffset() properly decrements the page's offset.
func (s *QueueServiceTestSuite) TestUnitDecrementQueueOffset() {
	page := &model.QueuePage{
		GuildID: "GUILD-ID-TEST",
		Size:    13,
		Limit:   10,
		Offset:  0,
	}
	s.service.DecrementQueueOffset(page)
	s.Equal(10, page.Offset)
	s.service.DecrementQueueOffset(page)
	s.Equal(0, page.Offset)

	page.Size = 20
	s.service.DecrementQueueOffset(page)
	s.Equal(10, page.Offset)

	page.Size = 5
	page.Offset = 0
	s.service.DecrementQueueOffset(page)
	s.Equal(0, page.Offset)
}

// TestQueueServiceTestSuite runs the queue service test suite
func TestQueueServiceTestSuite(t *testing.T) {
	suite.Run(t, new(QueueServiceTestSuite))
}
