package server

import (
	"tubbit/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetChannelStats returns aggregate counters for the caller's channel
// @Summary Channel stats
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.ApiResponse{data=models.ChannelStats}
// @Router /dashboard/stats [get]
func (s *Server) GetChannelStats(c *fiber.Ctx) error {
	stats, err := s.dashboardService.GetChannelStats(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, stats, "Channel stats fetched successfully")
}

// GetChannelVideos lists every video the caller owns, published or not
// @Summary Channel videos
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} models.ApiResponse{data=models.VideoPage}
// @Router /dashboard/videos [get]
func (s *Server) GetChannelVideos(c *fiber.Ctx) error {
	p := parsePagination(c, 10)
	videos, err := s.dashboardService.GetChannelVideos(c.UserContext(), currentUserID(c), p.Page, p.Limit)
	if err != nil {
		return respondError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, videos, "Channel videos fetched successfully")
}
