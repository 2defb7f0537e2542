package server

import (
	"tubbit/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ToggleVideoLike likes or unlikes a video
// @Summary Toggle a video like
// @Tags likes
// @Produce json
// @Security BearerAuth
// @Param videoId path int true "Video ID"
// @Success 200 {object} models.ApiResponse{data=models.ToggleResult}
// @Failure 404 {object} models.ErrorResponse
// @Router /likes/toggle/v/{videoId} [post]
func (s *Server) ToggleVideoLike(c *fiber.Ctx) error {
	return s.toggleLike(c, "videoId", models.VideoTarget)
}

// ToggleCommentLike likes or unlikes a comment
// @Summary Toggle a comment like
// @Tags likes
// @Produce json
// @Security BearerAuth
// @Param commentId path int true "Comment ID"
// @Success 200 {object} models.ApiResponse{data=models.ToggleResult}
// @Failure 404 {object} models.ErrorResponse
// @Router /likes/toggle/c/{commentId} [post]
func (s *Server) ToggleCommentLike(c *fiber.Ctx) error {
	return s.toggleLike(c, "commentId", models.CommentTarget)
}

// ToggleTweetLike likes or unlikes a tweet
// @Summary Toggle a tweet like
// @Tags likes
// @Produce json
// @Security BearerAuth
// @Param tweetId path int true "Tweet ID"
// @Success 200 {object} models.ApiResponse{data=models.ToggleResult}
// @Failure 404 {object} models.ErrorResponse
// @Router /likes/toggle/t/{tweetId} [post]
func (s *Server) ToggleTweetLike(c *fiber.Ctx) error {
	return s.toggleLike(c, "tweetId", models.TweetTarget)
}

func (s *Server) toggleLike(c *fiber.Ctx, param string, target func(uint) models.Target) error {
	id, err := s.parseID(c, param)
	if err != nil {
		return nil
	}
	res, err := s.likeService.ToggleLike(c.UserContext(), currentUserID(c), target(id))
	if err != nil {
		return respondError(c, err)
	}
	message := "Like removed"
	if res.Active {
		message = "Like added"
	}
	return models.Respond(c, fiber.StatusOK, res, message)
}

// GetLikedVideos lists the published videos the caller has liked
// @Summary List liked videos
// @Tags likes
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} models.ApiResponse{data=models.VideoPage}
// @Router /likes/videos [get]
func (s *Server) GetLikedVideos(c *fiber.Ctx) error {
	p := parsePagination(c, 10)
	videos, err := s.likeService.ListLikedVideos(c.UserContext(), currentUserID(c), p.Page, p.Limit)
	if err != nil {
		return respondError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, videos, "Liked videos fetched successfully")
}
