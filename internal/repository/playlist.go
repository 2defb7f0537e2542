package repository

import (
	"context"
	"time"

	"tubbit/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PlaylistRepository defines persistence operations for playlists and their entries.
type PlaylistRepository interface {
	Create(ctx context.Context, playlist *models.Playlist) error
	// GetByID loads the playlist with its videos in position order. Unpublished
	// videos are included only when includeUnpublished is set.
	GetByID(ctx context.Context, id uint, includeUnpublished bool) (*models.Playlist, error)
	ListByOwner(ctx context.Context, ownerID uint) ([]models.Playlist, error)
	Update(ctx context.Context, id uint, name, description string) error
	Delete(ctx context.Context, id uint) error
	// AddVideo appends the video; it reports false when the video was already present.
	AddVideo(ctx context.Context, playlistID, videoID uint) (bool, error)
	// RemoveVideo reports false when the video was not in the playlist.
	RemoveVideo(ctx context.Context, playlistID, videoID uint) (bool, error)
}

type playlistRepository struct {
	db *gorm.DB
}

// NewPlaylistRepository returns a new PlaylistRepository implementation.
func NewPlaylistRepository(db *gorm.DB) PlaylistRepository {
	return &playlistRepository{db: db}
}

func withPlaylistDetails(db *gorm.DB) *gorm.DB {
	return db.Select(`playlists.*,
		(SELECT COUNT(*) FROM playlist_videos WHERE playlist_videos.playlist_id = playlists.id) AS videos_count,
		(SELECT CAST(COALESCE(SUM(videos.views), 0) AS BIGINT) FROM playlist_videos JOIN videos ON videos.id = playlist_videos.video_id
			WHERE playlist_videos.playlist_id = playlists.id) AS total_views`)
}

func (r *playlistRepository) Create(ctx context.Context, playlist *models.Playlist) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(playlist).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *playlistRepository) GetByID(ctx context.Context, id uint, includeUnpublished bool) (*models.Playlist, error) {
	db := readDB(r.db).WithContext(ctx)

	var playlist models.Playlist
	err := withPlaylistDetails(db.Model(&models.Playlist{})).
		Preload("Owner", ownerSummary).
		Where("playlists.id = ?", id).
		First(&playlist).Error
	if err != nil {
		return nil, notFoundOr(err, "Playlist", id)
	}

	videos := []models.Video{}
	q := withVideoDetails(db.Model(&models.Video{})).
		Joins("JOIN playlist_videos ON playlist_videos.video_id = videos.id AND playlist_videos.playlist_id = ?", id).
		Preload("Owner", ownerSummary)
	if !includeUnpublished {
		q = q.Where("videos.is_published = ?", true)
	}
	if err := q.Order("playlist_videos.position ASC").Find(&videos).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	playlist.Videos = videos
	return &playlist, nil
}

func (r *playlistRepository) ListByOwner(ctx context.Context, ownerID uint) ([]models.Playlist, error) {
	playlists := []models.Playlist{}
	err := withPlaylistDetails(readDB(r.db).WithContext(ctx).Model(&models.Playlist{})).
		Where("playlists.owner_id = ?", ownerID).
		Order("playlists.updated_at DESC").
		Order("playlists.id DESC").
		Find(&playlists).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return playlists, nil
}

func (r *playlistRepository) Update(ctx context.Context, id uint, name, description string) error {
	res := r.db.WithContext(ctx).Model(&models.Playlist{}).Where("id = ?", id).
		Updates(map[string]interface{}{"name": name, "description": description})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Playlist", id)
	}
	return nil
}

func (r *playlistRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("playlist_id = ?", id).Delete(&models.PlaylistVideo{}).Error; err != nil {
			return models.NewInternalError(err)
		}
		res := tx.Delete(&models.Playlist{}, id)
		if res.Error != nil {
			return models.NewInternalError(res.Error)
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Playlist", id)
		}
		return nil
	})
}

func (r *playlistRepository) AddVideo(ctx context.Context, playlistID, videoID uint) (bool, error) {
	var added bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var next int
		if err := tx.Model(&models.PlaylistVideo{}).
			Where("playlist_id = ?", playlistID).
			Select("COALESCE(MAX(position), 0) + 1").
			Scan(&next).Error; err != nil {
			return models.NewInternalError(err)
		}

		entry := &models.PlaylistVideo{PlaylistID: playlistID, VideoID: videoID, Position: next, AddedAt: time.Now()}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(entry)
		if res.Error != nil {
			return models.NewInternalError(res.Error)
		}
		added = res.RowsAffected > 0
		if !added {
			return nil
		}
		if err := tx.Model(&models.Playlist{}).Where("id = ?", playlistID).
			Update("updated_at", time.Now()).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	return added, err
}

func (r *playlistRepository) RemoveVideo(ctx context.Context, playlistID, videoID uint) (bool, error) {
	res := r.db.WithContext(ctx).Where("playlist_id = ? AND video_id = ?", playlistID, videoID).
		Delete(&models.PlaylistVideo{})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}
