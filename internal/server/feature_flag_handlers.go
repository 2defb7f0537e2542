package server

import (
	"tubbit/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetFeatureFlags returns configured feature flags and evaluated state for current user.
// @Summary Feature flags
// @Tags meta
// @Produce json
// @Success 200 {object} models.ApiResponse
// @Router /feature-flags [get]
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	if s.featureFlags == nil {
		return models.Respond(c, fiber.StatusOK, fiber.Map{
			"raw":       map[string]string{},
			"evaluated": map[string]bool{},
		}, "Feature flags fetched")
	}

	return models.Respond(c, fiber.StatusOK, fiber.Map{
		"raw":       s.featureFlags.Raw(),
		"evaluated": s.featureFlags.Snapshot(currentUserID(c)),
	}, "Feature flags fetched")
}
