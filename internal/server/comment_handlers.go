package server

import (
	"tubbit/internal/models"
	"tubbit/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetVideoComments lists the comments on a video, newest first
// @Summary List video comments
// @Tags comments
// @Produce json
// @Param videoId path int true "Video ID"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} models.ApiResponse{data=models.CommentPage}
// @Failure 404 {object} models.ErrorResponse
// @Router /comments/v/{videoId} [get]
func (s *Server) GetVideoComments(c *fiber.Ctx) error {
	return s.listComments(c, "videoId", models.VideoTarget)
}

// GetTweetComments lists the comments on a tweet, newest first
// @Summary List tweet comments
// @Tags comments
// @Produce json
// @Param tweetId path int true "Tweet ID"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} models.ApiResponse{data=models.CommentPage}
// @Failure 404 {object} models.ErrorResponse
// @Router /comments/t/{tweetId} [get]
func (s *Server) GetTweetComments(c *fiber.Ctx) error {
	return s.listComments(c, "tweetId", models.TweetTarget)
}

func (s *Server) listComments(c *fiber.Ctx, param string, target func(uint) models.Target) error {
	id, err := s.parseID(c, param)
	if err != nil {
		return nil
	}
	p := parsePagination(c, 10)
	comments, err := s.commentService.ListComments(c.UserContext(), target(id), p.Page, p.Limit)
	if err != nil {
		return respondError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, comments, "Comments fetched successfully")
}

// AddVideoComment comments on a video
// @Summary Comment on a video
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param videoId path int true "Video ID"
// @Param request body object{content=string} true "Comment"
// @Success 201 {object} models.ApiResponse{data=models.Comment}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /comments/v/{videoId} [post]
func (s *Server) AddVideoComment(c *fiber.Ctx) error {
	return s.addComment(c, "videoId", models.VideoTarget)
}

// AddTweetComment comments on a tweet
// @Summary Comment on a tweet
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param tweetId path int true "Tweet ID"
// @Param request body object{content=string} true "Comment"
// @Success 201 {object} models.ApiResponse{data=models.Comment}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /comments/t/{tweetId} [post]
func (s *Server) AddTweetComment(c *fiber.Ctx) error {
	return s.addComment(c, "tweetId", models.TweetTarget)
}

func (s *Server) addComment(c *fiber.Ctx, param string, target func(uint) models.Target) error {
	id, err := s.parseID(c, param)
	if err != nil {
		return nil
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	created, err := s.commentService.CreateComment(c.UserContext(), service.CreateCommentInput{
		UserID:  currentUserID(c),
		Target:  target(id),
		Content: req.Content,
	})
	if err != nil {
		return respondError(c, err)
	}
	return models.Respond(c, fiber.StatusCreated, created, "Comment added successfully")
}

// UpdateComment updates a comment (only owner)
// @Summary Update a comment
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param commentId path int true "Comment ID"
// @Param request body object{content=string} true "New content"
// @Success 200 {object} models.ApiResponse{data=models.Comment}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /comments/c/{commentId} [patch]
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	commentID, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	updated, err := s.commentService.UpdateComment(c.UserContext(), service.UpdateCommentInput{
		UserID:    currentUserID(c),
		CommentID: commentID,
		Content:   req.Content,
	})
	if err != nil {
		return respondOwnerError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, updated, "Comment updated successfully")
}

// DeleteComment deletes a comment and its likes (owner only)
// @Summary Delete a comment
// @Tags comments
// @Produce json
// @Security BearerAuth
// @Param commentId path int true "Comment ID"
// @Success 200 {object} models.ApiResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /comments/c/{commentId} [delete]
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	commentID, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}
	if err := s.commentService.DeleteComment(c.UserContext(), currentUserID(c), commentID); err != nil {
		return respondOwnerError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, fiber.Map{"commentId": commentID}, "Comment deleted successfully")
}
