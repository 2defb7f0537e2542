package models

import "github.com/gofiber/fiber/v2"

// ApiResponse is the success envelope the frontend expects on every route.
type ApiResponse struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

// NewApiResponse builds a success envelope; success is derived from the status.
func NewApiResponse(status int, data any, message string) ApiResponse {
	if message == "" {
		message = "Success"
	}
	return ApiResponse{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    status < 400,
	}
}

// Respond writes data wrapped in the success envelope.
func Respond(c *fiber.Ctx, status int, data any, message string) error {
	return c.Status(status).JSON(NewApiResponse(status, data, message))
}
