package server

import (
	"context"

	"tubbit/internal/models"
	"tubbit/internal/service"

	"github.com/gofiber/fiber/v2"
)

type playlistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsPublished *bool  `json:"isPublished"`
}

// CreatePlaylist creates a playlist owned by the caller
// @Summary Create a playlist
// @Tags playlists
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{name=string,description=string,isPublished=bool} true "Playlist"
// @Success 201 {object} models.ApiResponse{data=models.Playlist}
// @Failure 400 {object} models.ErrorResponse
// @Router /playlist [post]
func (s *Server) CreatePlaylist(c *fiber.Ctx) error {
	var req playlistRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	playlist, err := s.playlistService.CreatePlaylist(c.UserContext(), service.CreatePlaylistInput{
		OwnerID:     currentUserID(c),
		Name:        req.Name,
		Description: req.Description,
		IsPublished: req.IsPublished,
	})
	if err != nil {
		return respondError(c, err)
	}
	return models.Respond(c, fiber.StatusCreated, playlist, "Playlist created successfully")
}

// GetUserPlaylists lists a user's playlists. Unpublished ones are only shown to the owner.
// @Summary List a user's playlists
// @Tags playlists
// @Produce json
// @Param userId path int true "User ID"
// @Success 200 {object} models.ApiResponse{data=[]models.Playlist}
// @Failure 404 {object} models.ErrorResponse
// @Router /playlist/user/{userId} [get]
func (s *Server) GetUserPlaylists(c *fiber.Ctx) error {
	ownerID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}
	playlists, err := s.playlistService.ListUserPlaylists(c.UserContext(), ownerID, currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, playlists, "Playlists fetched successfully")
}

// GetPlaylist returns one playlist with its videos
// @Summary Get a playlist
// @Tags playlists
// @Produce json
// @Param playlistId path int true "Playlist ID"
// @Success 200 {object} models.ApiResponse{data=models.Playlist}
// @Failure 404 {object} models.ErrorResponse
// @Router /playlist/{playlistId} [get]
func (s *Server) GetPlaylist(c *fiber.Ctx) error {
	playlistID, err := s.parseID(c, "playlistId")
	if err != nil {
		return nil
	}
	playlist, err := s.playlistService.GetPlaylist(c.UserContext(), playlistID, currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, playlist, "Playlist fetched successfully")
}

// UpdatePlaylist renames a playlist or changes its description (owner only)
// @Summary Update a playlist
// @Tags playlists
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param playlistId path int true "Playlist ID"
// @Param request body object{name=string,description=string} true "Playlist"
// @Success 200 {object} models.ApiResponse{data=models.Playlist}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /playlist/{playlistId} [patch]
func (s *Server) UpdatePlaylist(c *fiber.Ctx) error {
	playlistID, err := s.parseID(c, "playlistId")
	if err != nil {
		return nil
	}
	var req playlistRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	playlist, err := s.playlistService.UpdatePlaylist(c.UserContext(), service.UpdatePlaylistInput{
		UserID:      currentUserID(c),
		PlaylistID:  playlistID,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return respondOwnerError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, playlist, "Playlist updated successfully")
}

// DeletePlaylist deletes a playlist (owner only)
// @Summary Delete a playlist
// @Tags playlists
// @Produce json
// @Security BearerAuth
// @Param playlistId path int true "Playlist ID"
// @Success 200 {object} models.ApiResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /playlist/{playlistId} [delete]
func (s *Server) DeletePlaylist(c *fiber.Ctx) error {
	playlistID, err := s.parseID(c, "playlistId")
	if err != nil {
		return nil
	}
	if err := s.playlistService.DeletePlaylist(c.UserContext(), currentUserID(c), playlistID); err != nil {
		return respondOwnerError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, fiber.Map{}, "Playlist deleted successfully")
}

// AddVideoToPlaylist appends a video to a playlist (owner only)
// @Summary Add a video to a playlist
// @Tags playlists
// @Produce json
// @Security BearerAuth
// @Param videoId path int true "Video ID"
// @Param playlistId path int true "Playlist ID"
// @Success 200 {object} models.ApiResponse{data=models.Playlist}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /playlist/add/{videoId}/{playlistId} [patch]
func (s *Server) AddVideoToPlaylist(c *fiber.Ctx) error {
	return s.changePlaylistVideo(c, s.playlistService.AddVideo, "Video added to playlist")
}

// RemoveVideoFromPlaylist removes a video from a playlist (owner only)
// @Summary Remove a video from a playlist
// @Tags playlists
// @Produce json
// @Security BearerAuth
// @Param videoId path int true "Video ID"
// @Param playlistId path int true "Playlist ID"
// @Success 200 {object} models.ApiResponse{data=models.Playlist}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /playlist/remove/{videoId}/{playlistId} [patch]
func (s *Server) RemoveVideoFromPlaylist(c *fiber.Ctx) error {
	return s.changePlaylistVideo(c, s.playlistService.RemoveVideo, "Video removed from playlist")
}

func (s *Server) changePlaylistVideo(
	c *fiber.Ctx,
	change func(ctx context.Context, userID, playlistID, videoID uint) (*models.Playlist, error),
	message string,
) error {
	videoID, err := s.parseID(c, "videoId")
	if err != nil {
		return nil
	}
	playlistID, err := s.parseID(c, "playlistId")
	if err != nil {
		return nil
	}
	playlist, err := change(c.UserContext(), currentUserID(c), playlistID, videoID)
	if err != nil {
		return respondOwnerError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, playlist, message)
}
