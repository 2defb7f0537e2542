package server

import (
	"tubbit/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ToggleSubscription subscribes the caller to a channel, or unsubscribes
// @Summary Toggle a subscription
// @Tags subscriptions
// @Produce json
// @Security BearerAuth
// @Param channelId path int true "Channel (user) ID"
// @Success 200 {object} models.ApiResponse{data=models.ToggleResult}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /subscriptions/c/{channelId} [post]
func (s *Server) ToggleSubscription(c *fiber.Ctx) error {
	channelID, err := s.parseID(c, "channelId")
	if err != nil {
		return nil
	}
	res, err := s.subscriptionService.ToggleSubscription(c.UserContext(), currentUserID(c), channelID)
	if err != nil {
		return respondError(c, err)
	}
	message := "Unsubscribed successfully"
	if res.Active {
		message = "Subscribed successfully"
	}
	return models.Respond(c, fiber.StatusOK, res, message)
}

// GetChannelSubscribers lists a channel's subscribers
// @Summary List channel subscribers
// @Tags subscriptions
// @Produce json
// @Param channelId path int true "Channel (user) ID"
// @Success 200 {object} models.ApiResponse{data=[]models.UserSummary}
// @Failure 404 {object} models.ErrorResponse
// @Router /subscriptions/c/{channelId} [get]
func (s *Server) GetChannelSubscribers(c *fiber.Ctx) error {
	channelID, err := s.parseID(c, "channelId")
	if err != nil {
		return nil
	}
	subscribers, err := s.subscriptionService.ListSubscribers(c.UserContext(), channelID)
	if err != nil {
		return respondError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, subscribers, "Subscribers fetched successfully")
}

// GetSubscribedChannels lists the channels a user subscribes to
// @Summary List subscribed channels
// @Tags subscriptions
// @Produce json
// @Param subscriberId path int true "Subscriber (user) ID"
// @Success 200 {object} models.ApiResponse{data=[]models.UserSummary}
// @Failure 404 {object} models.ErrorResponse
// @Router /subscriptions/u/{subscriberId} [get]
func (s *Server) GetSubscribedChannels(c *fiber.Ctx) error {
	subscriberID, err := s.parseID(c, "subscriberId")
	if err != nil {
		return nil
	}
	channels, err := s.subscriptionService.ListSubscribedChannels(c.UserContext(), subscriberID)
	if err != nil {
		return respondError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, channels, "Subscribed channels fetched successfully")
}
