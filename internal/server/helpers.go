package server

import (
	"errors"
	"strings"
	"time"
	"unicode"

	"tubbit/internal/middleware"
	"tubbit/internal/models"
	"tubbit/internal/service"
	"tubbit/internal/storage"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper.  Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// Pagination holds parsed page/limit query parameters.
type Pagination struct {
	Page  int
	Limit int
}

const (
	maxPaginationLimit = 100
)

// parsePagination extracts page and limit query parameters with the given default limit.
func parsePagination(c *fiber.Ctx, defaultLimit int) Pagination {
	limit := c.QueryInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxPaginationLimit {
		limit = maxPaginationLimit
	}

	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}

	return Pagination{
		Page:  page,
		Limit: limit,
	}
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
// The error message is derived from the parameter name (e.g. "id" -> "Invalid ID",
// "videoId" -> "Invalid video ID", "playlistId" -> "Invalid playlist ID").
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// humanizeParam converts a route param name into a human-readable label.
// Examples: "id" -> "ID", "userId" -> "user ID", "commentId" -> "comment ID".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if strings.HasSuffix(param, "Id") {
		prefix := param[:len(param)-2]
		words := splitCamel(prefix)
		return strings.ToLower(strings.Join(words, " ")) + " ID"
	}
	return param
}

// splitCamel splits a camelCase string into words.
func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	words = append(words, s[start:])
	return words
}

// mapServiceError maps an AppError code to its HTTP status.
func mapServiceError(err error) int {
	switch models.ErrorCode(err) {
	case models.CodeValidation:
		return fiber.StatusBadRequest
	case models.CodeUnauthorized:
		return fiber.StatusUnauthorized
	case models.CodeNotFound:
		return fiber.StatusNotFound
	case models.CodeConflict:
		return fiber.StatusConflict
	}
	return fiber.StatusInternalServerError
}

// respondError writes err with the status its code maps to.
func respondError(c *fiber.Ctx, err error) error {
	status := mapServiceError(err)
	if status == fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			"method", c.Method(), "path", c.Path(), "error", err.Error())
	}
	return models.RespondWithError(c, status, err)
}

// respondOwnerError is respondError for owner-only mutations: a signed-in
// caller who does not own the resource gets 403.
func respondOwnerError(c *fiber.Ctx, err error) error {
	if models.HasCode(err, models.CodeUnauthorized) {
		return models.RespondWithError(c, fiber.StatusForbidden, err)
	}
	return respondError(c, err)
}

func badBody(c *fiber.Ctx) error {
	return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid request body"))
}

// currentUserID is the authenticated caller, or 0 for anonymous viewers.
func currentUserID(c *fiber.Ctx) uint {
	id, _ := c.Locals("userID").(uint)
	return id
}

func currentClaims(c *fiber.Ctx) *middleware.TokenClaims {
	claims, _ := c.Locals("tokenClaims").(*middleware.TokenClaims)
	return claims
}

// formFile opens the multipart file under field. A missing part yields a nil
// file so the service can report which upload is required.
func formFile(c *fiber.Ctx, field string) (*storage.File, func(), error) {
	noop := func() {}
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, noop, nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil, noop, models.NewValidationError("Could not read uploaded " + field)
	}
	return &storage.File{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
	}, func() { _ = f.Close() }, nil
}

// fileOrEmpty dereferences an optional upload for inputs that take a value.
func fileOrEmpty(f *storage.File) storage.File {
	if f == nil {
		return storage.File{}
	}
	return *f
}

func (s *Server) cookie(name, value string, ttl time.Duration) *fiber.Cookie {
	sameSite := fiber.CookieSameSiteLaxMode
	if s.config.CookieSecure {
		sameSite = fiber.CookieSameSiteNoneMode
	}
	ck := &fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HTTPOnly: true,
		Secure:   s.config.CookieSecure,
		SameSite: sameSite,
	}
	if ttl > 0 {
		ck.Expires = time.Now().Add(ttl)
	} else {
		ck.Expires = time.Unix(0, 0)
		ck.MaxAge = -1
	}
	return ck
}

func (s *Server) setAuthCookies(c *fiber.Ctx, res *service.AuthResult) {
	c.Cookie(s.cookie(middleware.AccessTokenCookie, res.AccessToken, res.AccessTTL))
	c.Cookie(s.cookie(middleware.RefreshTokenCookie, res.RefreshToken, res.RefreshTTL))
}

func (s *Server) clearAuthCookies(c *fiber.Ctx) {
	c.Cookie(s.cookie(middleware.AccessTokenCookie, "", 0))
	c.Cookie(s.cookie(middleware.RefreshTokenCookie, "", 0))
}
