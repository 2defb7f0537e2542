package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"tubbit/internal/models"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type WatchHistorySuite struct {
	suite.Suite
	db     *gorm.DB
	repo   WatchHistoryRepository
	viewer *models.User
	owner  *models.User
	base   time.Time
}

func TestWatchHistorySuite(t *testing.T) {
	suite.Run(t, new(WatchHistorySuite))
}

func (s *WatchHistorySuite) SetupTest() {
	s.db = newTestDB(s.T())
	s.repo = NewWatchHistoryRepository(s.db)
	s.viewer = seedUser(s.T(), s.db, "viewer")
	s.owner = seedUser(s.T(), s.db, "creator")
	s.base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func (s *WatchHistorySuite) at(minutes int) time.Time {
	return s.base.Add(time.Duration(minutes) * time.Minute)
}

func (s *WatchHistorySuite) historyIDs() []uint {
	entries, err := s.repo.List(context.Background(), s.viewer.ID)
	s.Require().NoError(err)
	ids := make([]uint, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.VideoID)
	}
	return ids
}

func (s *WatchHistorySuite) TestRecordMovesRewatchToFront() {
	ctx := context.Background()
	v1 := seedVideo(s.T(), s.db, s.owner.ID, "first", videoOpts{})
	v2 := seedVideo(s.T(), s.db, s.owner.ID, "second", videoOpts{})

	for i, id := range []uint{v1.ID, v2.ID, v1.ID} {
		_, err := s.repo.Record(ctx, s.viewer.ID, id, s.at(i))
		s.Require().NoError(err)
	}

	s.Equal([]uint{v1.ID, v2.ID}, s.historyIDs())
	s.Equal(int64(2), countRows(s.T(), s.db, &models.WatchHistoryEntry{}, "user_id = ?", s.viewer.ID))
}

func (s *WatchHistorySuite) TestRecordKeepsMostRecentHundred() {
	ctx := context.Background()
	total := models.MaxWatchHistory + 5
	videos := make([]*models.Video, 0, total)
	for i := 0; i < total; i++ {
		videos = append(videos, seedVideo(s.T(), s.db, s.owner.ID, fmt.Sprintf("clip-%03d", i), videoOpts{}))
	}

	var evicted int64
	for i, v := range videos {
		n, err := s.repo.Record(ctx, s.viewer.ID, v.ID, s.at(i))
		s.Require().NoError(err)
		evicted += n
	}

	ids := s.historyIDs()
	s.Len(ids, models.MaxWatchHistory)
	s.Equal(int64(5), evicted)
	s.Equal(videos[total-1].ID, ids[0])
	s.Equal(videos[5].ID, ids[len(ids)-1])
	s.Equal(int64(0), countRows(s.T(), s.db, &models.WatchHistoryEntry{}, "video_id = ?", videos[0].ID))
}

func (s *WatchHistorySuite) TestRecordAtCapacityRewatchDoesNotEvict() {
	ctx := context.Background()
	videos := make([]*models.Video, 0, models.MaxWatchHistory)
	for i := 0; i < models.MaxWatchHistory; i++ {
		v := seedVideo(s.T(), s.db, s.owner.ID, fmt.Sprintf("cap-%03d", i), videoOpts{})
		videos = append(videos, v)
		_, err := s.repo.Record(ctx, s.viewer.ID, v.ID, s.at(i))
		s.Require().NoError(err)
	}

	n, err := s.repo.Record(ctx, s.viewer.ID, videos[0].ID, s.at(models.MaxWatchHistory))
	s.Require().NoError(err)
	s.Zero(n)

	ids := s.historyIDs()
	s.Len(ids, models.MaxWatchHistory)
	s.Equal(videos[0].ID, ids[0])
}

func (s *WatchHistorySuite) TestRecordUnknownUser() {
	v := seedVideo(s.T(), s.db, s.owner.ID, "orphan", videoOpts{})
	_, err := s.repo.Record(context.Background(), 9999, v.ID, s.at(0))
	s.True(models.HasCode(err, models.CodeNotFound))
}

func (s *WatchHistorySuite) TestRecordRequiresVideo() {
	_, err := s.repo.Record(context.Background(), s.viewer.ID, 0, s.at(0))
	s.True(models.HasCode(err, models.CodeValidation))
}

func (s *WatchHistorySuite) TestListPreloadsVideoAndOwner() {
	ctx := context.Background()
	v := seedVideo(s.T(), s.db, s.owner.ID, "loaded", videoOpts{views: 7})
	seedLike(s.T(), s.db, s.viewer.ID, v.Target())
	_, err := s.repo.Record(ctx, s.viewer.ID, v.ID, s.at(0))
	s.Require().NoError(err)

	entries, err := s.repo.List(ctx, s.viewer.ID)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Require().NotNil(entries[0].Video)
	s.Equal("loaded", entries[0].Video.Title)
	s.Equal(int64(1), entries[0].Video.LikesCount)
	s.Require().NotNil(entries[0].Video.Owner)
	s.Equal("creator", entries[0].Video.Owner.Username)
}

func (s *WatchHistorySuite) TestListSkipsVanishedVideos() {
	ctx := context.Background()
	kept := seedVideo(s.T(), s.db, s.owner.ID, "kept", videoOpts{})
	gone := seedVideo(s.T(), s.db, s.owner.ID, "gone", videoOpts{})
	_, err := s.repo.Record(ctx, s.viewer.ID, kept.ID, s.at(0))
	s.Require().NoError(err)
	_, err = s.repo.Record(ctx, s.viewer.ID, gone.ID, s.at(1))
	s.Require().NoError(err)

	s.Require().NoError(s.db.Exec("DELETE FROM videos WHERE id = ?", gone.ID).Error)

	s.Equal([]uint{kept.ID}, s.historyIDs())
}

func (s *WatchHistorySuite) TestListEmpty() {
	entries, err := s.repo.List(context.Background(), s.viewer.ID)
	s.Require().NoError(err)
	s.NotNil(entries)
	s.Empty(entries)
}
