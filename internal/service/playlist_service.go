package service

import (
	"context"
	"strings"

	"tubbit/internal/models"
	"tubbit/internal/repository"
)

const maxPlaylistNameLen = 120

type PlaylistService struct {
	playlistRepo repository.PlaylistRepository
	videoRepo    repository.VideoRepository
}

type CreatePlaylistInput struct {
	OwnerID     uint
	Name        string
	Description string
	IsPublished *bool
}

type UpdatePlaylistInput struct {
	UserID      uint
	PlaylistID  uint
	Name        string
	Description string
}

func NewPlaylistService(playlistRepo repository.PlaylistRepository, videoRepo repository.VideoRepository) *PlaylistService {
	return &PlaylistService{playlistRepo: playlistRepo, videoRepo: videoRepo}
}

func validatePlaylistName(name string) error {
	if name == "" {
		return models.NewValidationError("Playlist name is required")
	}
	if len([]rune(name)) > maxPlaylistNameLen {
		return models.NewValidationError("Playlist name too long (max 120 characters)")
	}
	return nil
}

func (s *PlaylistService) CreatePlaylist(ctx context.Context, in CreatePlaylistInput) (*models.Playlist, error) {
	name := strings.TrimSpace(in.Name)
	if err := validatePlaylistName(name); err != nil {
		return nil, err
	}
	playlist := &models.Playlist{
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		IsPublished: in.IsPublished == nil || *in.IsPublished,
		OwnerID:     in.OwnerID,
	}
	if err := s.playlistRepo.Create(ctx, playlist); err != nil {
		return nil, err
	}
	return s.playlistRepo.GetByID(ctx, playlist.ID, true)
}

// GetPlaylist returns the playlist with its videos in order. Owners also see
// unpublished videos and unpublished playlists; everyone else gets NotFound for the latter.
func (s *PlaylistService) GetPlaylist(ctx context.Context, playlistID, viewerID uint) (*models.Playlist, error) {
	playlist, err := s.playlistRepo.GetByID(ctx, playlistID, false)
	if err != nil {
		return nil, err
	}
	if playlist.OwnerID != viewerID {
		if !playlist.IsPublished {
			return nil, models.NewNotFoundError("Playlist", playlistID)
		}
		return playlist, nil
	}
	return s.playlistRepo.GetByID(ctx, playlistID, true)
}

// ListUserPlaylists lists ownerID's playlists, hiding unpublished ones from other viewers.
func (s *PlaylistService) ListUserPlaylists(ctx context.Context, ownerID, viewerID uint) ([]models.Playlist, error) {
	playlists, err := s.playlistRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if ownerID == viewerID {
		return playlists, nil
	}
	visible := make([]models.Playlist, 0, len(playlists))
	for _, p := range playlists {
		if p.IsPublished {
			visible = append(visible, p)
		}
	}
	return visible, nil
}

// ownedPlaylist loads a playlist and checks userID owns it.
func (s *PlaylistService) ownedPlaylist(ctx context.Context, userID, playlistID uint, action string) (*models.Playlist, error) {
	playlist, err := s.playlistRepo.GetByID(ctx, playlistID, true)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(playlist.OwnerID, userID, action); err != nil {
		return nil, err
	}
	return playlist, nil
}

func (s *PlaylistService) UpdatePlaylist(ctx context.Context, in UpdatePlaylistInput) (*models.Playlist, error) {
	name := strings.TrimSpace(in.Name)
	if err := validatePlaylistName(name); err != nil {
		return nil, err
	}
	if _, err := s.ownedPlaylist(ctx, in.UserID, in.PlaylistID, "update this playlist"); err != nil {
		return nil, err
	}
	if err := s.playlistRepo.Update(ctx, in.PlaylistID, name, strings.TrimSpace(in.Description)); err != nil {
		return nil, err
	}
	return s.playlistRepo.GetByID(ctx, in.PlaylistID, true)
}

func (s *PlaylistService) DeletePlaylist(ctx context.Context, userID, playlistID uint) error {
	if _, err := s.ownedPlaylist(ctx, userID, playlistID, "delete this playlist"); err != nil {
		return err
	}
	return s.playlistRepo.Delete(ctx, playlistID)
}

// AddVideo appends videoID to the playlist. Adding a video that is already
// there leaves the playlist unchanged.
func (s *PlaylistService) AddVideo(ctx context.Context, userID, playlistID, videoID uint) (*models.Playlist, error) {
	if _, err := s.ownedPlaylist(ctx, userID, playlistID, "modify this playlist"); err != nil {
		return nil, err
	}
	if _, err := s.videoRepo.GetByID(ctx, videoID); err != nil {
		return nil, err
	}
	if _, err := s.playlistRepo.AddVideo(ctx, playlistID, videoID); err != nil {
		return nil, err
	}
	return s.playlistRepo.GetByID(ctx, playlistID, true)
}

func (s *PlaylistService) RemoveVideo(ctx context.Context, userID, playlistID, videoID uint) (*models.Playlist, error) {
	if _, err := s.ownedPlaylist(ctx, userID, playlistID, "modify this playlist"); err != nil {
		return nil, err
	}
	removed, err := s.playlistRepo.RemoveVideo(ctx, playlistID, videoID)
	if err != nil {
		return nil, err
	}
	if !removed {
		return nil, models.NewNotFoundMessage("Video is not in this playlist")
	}
	return s.playlistRepo.GetByID(ctx, playlistID, true)
}
