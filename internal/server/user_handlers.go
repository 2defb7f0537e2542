package server

import (
	"context"
	"strings"

	"tubbit/internal/models"
	"tubbit/internal/service"
	"tubbit/internal/storage"

	"github.com/gofiber/fiber/v2"
)

// GetCurrentUser returns the authenticated user's profile
// @Summary Get current user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.ApiResponse{data=models.User}
// @Failure 401 {object} models.ErrorResponse
// @Router /users/current-user [get]
func (s *Server) GetCurrentUser(c *fiber.Ctx) error {
	user, err := s.userService.GetCurrentUser(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, user, "Current user fetched successfully")
}

// UpdateAccountDetails updates the caller's full name and email
// @Summary Update account details
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{fullname=string,email=string} true "Account details"
// @Success 200 {object} models.ApiResponse{data=models.User}
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /users/update-account [patch]
func (s *Server) UpdateAccountDetails(c *fiber.Ctx) error {
	var req struct {
		Fullname string `json:"fullname"`
		Email    string `json:"email"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	user, err := s.userService.UpdateAccountDetails(c.UserContext(), service.UpdateAccountInput{
		UserID:   currentUserID(c),
		Fullname: req.Fullname,
		Email:    req.Email,
	})
	if err != nil {
		return respondError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, user, "Account details updated successfully")
}

// UpdateAvatar replaces the caller's avatar
// @Summary Update avatar
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param avatar formData file true "Avatar image"
// @Success 200 {object} models.ApiResponse{data=models.User}
// @Failure 400 {object} models.ErrorResponse
// @Router /users/avatar [patch]
func (s *Server) UpdateAvatar(c *fiber.Ctx) error {
	return s.updateImage(c, "avatar", s.userService.UpdateAvatar, "Avatar updated successfully")
}

// UpdateCoverImage replaces the caller's cover image
// @Summary Update cover image
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param coverImage formData file true "Cover image"
// @Success 200 {object} models.ApiResponse{data=models.User}
// @Failure 400 {object} models.ErrorResponse
// @Router /users/cover-image [patch]
func (s *Server) UpdateCoverImage(c *fiber.Ctx) error {
	return s.updateImage(c, "coverImage", s.userService.UpdateCoverImage, "Cover image updated successfully")
}

func (s *Server) updateImage(
	c *fiber.Ctx,
	field string,
	update func(context.Context, uint, storage.File) (*models.User, error),
	message string,
) error {
	file, closeFile, err := formFile(c, field)
	if err != nil {
		return respondError(c, err)
	}
	defer closeFile()

	user, err := update(c.UserContext(), currentUserID(c), fileOrEmpty(file))
	if err != nil {
		return respondError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, user, message)
}

// GetChannelProfile returns a channel with its subscription counts
// @Summary Get channel profile
// @Description isSubscribed is computed for the signed-in viewer and false for anonymous ones.
// @Tags users
// @Produce json
// @Param username path string true "Channel username"
// @Success 200 {object} models.ApiResponse{data=models.ChannelProfile}
// @Failure 404 {object} models.ErrorResponse
// @Router /users/c/{username} [get]
func (s *Server) GetChannelProfile(c *fiber.Ctx) error {
	username := strings.TrimSpace(c.Params("username"))
	if username == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Username is missing"))
	}
	profile, err := s.userService.GetChannelProfile(c.UserContext(), username, currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, profile, "User channel fetched successfully")
}

// GetWatchHistory returns the caller's watch history, most recent first
// @Summary Get watch history
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.ApiResponse{data=[]models.WatchHistoryEntry}
// @Router /users/history [get]
func (s *Server) GetWatchHistory(c *fiber.Ctx) error {
	history, err := s.userService.GetWatchHistory(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, history, "Watch history fetched successfully")
}
