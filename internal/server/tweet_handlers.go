package server

import (
	"strconv"

	"tubbit/internal/models"
	"tubbit/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateTweet posts a short text with an image
// @Summary Create a tweet
// @Description Content is sanitized to a small set of inline tags and limited to 280 characters.
// @Tags tweets
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param content formData string true "Content"
// @Param isPublic formData bool false "Defaults to true"
// @Param image formData file true "Image"
// @Success 201 {object} models.ApiResponse{data=models.Tweet}
// @Failure 400 {object} models.ErrorResponse
// @Router /tweets [post]
func (s *Server) CreateTweet(c *fiber.Ctx) error {
	image, closeImage, err := formFile(c, "image")
	if err != nil {
		return respondError(c, err)
	}
	defer closeImage()

	var isPublic *bool
	if raw := c.FormValue("isPublic"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("isPublic must be true or false"))
		}
		isPublic = &v
	}

	tweet, err := s.tweetService.CreateTweet(c.UserContext(), service.CreateTweetInput{
		OwnerID:  currentUserID(c),
		Content:  c.FormValue("content"),
		Image:    fileOrEmpty(image),
		IsPublic: isPublic,
	})
	if err != nil {
		return respondError(c, err)
	}
	return models.Respond(c, fiber.StatusCreated, tweet, "Tweet created successfully")
}

// GetUserTweets lists a user's tweets; the owner also sees private ones
// @Summary List a user's tweets
// @Tags tweets
// @Produce json
// @Param userId path int true "User ID"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} models.ApiResponse{data=models.TweetPage}
// @Failure 404 {object} models.ErrorResponse
// @Router /tweets/user/{userId} [get]
func (s *Server) GetUserTweets(c *fiber.Ctx) error {
	ownerID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}
	p := parsePagination(c, 10)
	tweets, err := s.tweetService.ListUserTweets(c.UserContext(), ownerID, currentUserID(c), p.Page, p.Limit)
	if err != nil {
		return respondError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, tweets, "Tweets fetched successfully")
}

// UpdateTweet edits a tweet's content (owner only)
// @Summary Update a tweet
// @Tags tweets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param tweetId path int true "Tweet ID"
// @Param request body object{content=string} true "New content"
// @Success 200 {object} models.ApiResponse{data=models.Tweet}
// @Failure 403 {object} models.ErrorResponse
// @Router /tweets/{tweetId} [patch]
func (s *Server) UpdateTweet(c *fiber.Ctx) error {
	tweetID, err := s.parseID(c, "tweetId")
	if err != nil {
		return nil
	}
	var req struct {
		Content string `json:"content" form:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	tweet, err := s.tweetService.UpdateTweet(c.UserContext(), service.UpdateTweetInput{
		UserID:  currentUserID(c),
		TweetID: tweetID,
		Content: req.Content,
	})
	if err != nil {
		return respondOwnerError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, tweet, "Tweet updated successfully")
}

// DeleteTweet removes a tweet with its comments and likes (owner only)
// @Summary Delete a tweet
// @Tags tweets
// @Produce json
// @Security BearerAuth
// @Param tweetId path int true "Tweet ID"
// @Success 200 {object} models.ApiResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /tweets/{tweetId} [delete]
func (s *Server) DeleteTweet(c *fiber.Ctx) error {
	tweetID, err := s.parseID(c, "tweetId")
	if err != nil {
		return nil
	}
	if err := s.tweetService.DeleteTweet(c.UserContext(), currentUserID(c), tweetID); err != nil {
		return respondOwnerError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, fiber.Map{}, "Tweet deleted successfully")
}
