package server

import (
	"net/url"
	"strings"
	"time"

	"tubbit/internal/middleware"
	"tubbit/internal/models"
	"tubbit/internal/service"

	"github.com/gofiber/fiber/v2"
)

const (
	otpPerEmailLimit  = 3
	otpPerEmailWindow = 10 * time.Minute
)

// SendOTP handles POST /api/v1/auth/otp/send
// @Summary Send an email OTP
// @Description Emails a six digit code that unlocks signup or password reset.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{email=string,purpose=string} true "purpose is signup or reset_password"
// @Success 200 {object} models.ApiResponse{data=models.OTPSendResult}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Router /auth/otp/send [post]
func (s *Server) SendOTP(c *fiber.Ctx) error {
	var req struct {
		Email   string `json:"email"`
		Purpose string `json:"purpose"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	purpose, err := models.ParseOTPPurpose(strings.TrimSpace(req.Purpose))
	if err != nil {
		return respondError(c, err)
	}

	if s.redis != nil {
		email := models.NormalizeEmail(req.Email)
		allowed, err := middleware.CheckRateLimitAlways(c.UserContext(), s.redis, "otp_email", email, otpPerEmailLimit, otpPerEmailWindow)
		if err == nil && !allowed {
			return models.RespondWithError(c, fiber.StatusTooManyRequests,
				models.NewValidationError("Too many codes requested for this email, please try again later"))
		}
	}

	result, err := s.otpService.SendOTP(c.UserContext(), req.Email, purpose)
	if err != nil {
		return respondError(c, err)
	}
	message := "OTP sent successfully"
	if result.EmailDeliveryUncertain {
		message = "OTP generated but email delivery could not be confirmed"
	}
	return models.Respond(c, fiber.StatusOK, result, message)
}

// VerifyOTP handles POST /api/v1/auth/otp/verify
// @Summary Verify an email OTP
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{email=string,otp=string} true "Verification request"
// @Success 200 {object} models.ApiResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/otp/verify [post]
func (s *Server) VerifyOTP(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
		OTP   string `json:"otp"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if err := s.otpService.VerifyOTP(c.UserContext(), req.Email, strings.TrimSpace(req.OTP)); err != nil {
		return respondError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, fiber.Map{"email": models.NormalizeEmail(req.Email)}, "OTP verified successfully")
}

// Register handles POST /api/v1/users/register
// @Summary Register a user
// @Description Creates an account for an OTP-verified email. Multipart form with an optional avatar and cover image.
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Param fullname formData string true "Full name"
// @Param email formData string true "Email"
// @Param username formData string true "Username"
// @Param password formData string true "Password"
// @Param avatar formData file false "Avatar image"
// @Param coverImage formData file false "Cover image"
// @Success 201 {object} models.ApiResponse{data=models.User}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /users/register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	avatar, closeAvatar, err := formFile(c, "avatar")
	if err != nil {
		return respondError(c, err)
	}
	defer closeAvatar()
	cover, closeCover, err := formFile(c, "coverImage")
	if err != nil {
		return respondError(c, err)
	}
	defer closeCover()

	user, err := s.authService.Register(c.UserContext(), service.RegisterInput{
		Fullname:   c.FormValue("fullname"),
		Email:      c.FormValue("email"),
		Username:   c.FormValue("username"),
		Password:   c.FormValue("password"),
		Avatar:     avatar,
		CoverImage: cover,
	})
	if err != nil {
		return respondError(c, err)
	}
	return models.Respond(c, fiber.StatusCreated, user, "User registered successfully")
}

// Login handles POST /api/v1/users/login
// @Summary User login
// @Description Authenticates by email or username and sets the token cookies.
// @Tags users
// @Accept json
// @Produce json
// @Param request body object{email=string,username=string,password=string} true "Login credentials"
// @Success 200 {object} models.ApiResponse{data=service.AuthResult}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /users/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	res, err := s.authService.Login(c.UserContext(), service.LoginInput{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		return respondError(c, err)
	}
	s.setAuthCookies(c, res)
	return models.Respond(c, fiber.StatusOK, res, "User logged in successfully")
}

// RefreshToken handles POST /api/v1/users/refresh-token
// @Summary Rotate the token pair
// @Tags users
// @Accept json
// @Produce json
// @Param request body object{refreshToken=string} false "Refresh token when the cookie is not sent"
// @Success 200 {object} models.ApiResponse{data=service.AuthResult}
// @Failure 401 {object} models.ErrorResponse
// @Router /users/refresh-token [post]
func (s *Server) RefreshToken(c *fiber.Ctx) error {
	token := c.Cookies(middleware.RefreshTokenCookie)
	if token == "" {
		var req struct {
			RefreshToken string `json:"refreshToken"`
		}
		_ = c.BodyParser(&req)
		token = req.RefreshToken
	}

	res, err := s.authService.Refresh(c.UserContext(), token)
	if err != nil {
		return respondError(c, err)
	}
	s.setAuthCookies(c, res)
	return models.Respond(c, fiber.StatusOK, res, "Access token refreshed")
}

// Logout handles POST /api/v1/users/logout
// @Summary Log out
// @Description Clears the stored refresh token and revokes the presented access token.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.ApiResponse
// @Router /users/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	if err := s.authService.Logout(c.UserContext(), currentUserID(c), currentClaims(c)); err != nil {
		return respondError(c, err)
	}
	s.clearAuthCookies(c)
	return models.Respond(c, fiber.StatusOK, fiber.Map{}, "User logged out")
}

// ChangePassword handles POST /api/v1/users/change-password
// @Summary Change password
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{oldPassword=string,newPassword=string} true "Passwords"
// @Success 200 {object} models.ApiResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /users/change-password [post]
func (s *Server) ChangePassword(c *fiber.Ctx) error {
	var req struct {
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if err := s.authService.ChangePassword(c.UserContext(), currentUserID(c), req.OldPassword, req.NewPassword); err != nil {
		return respondError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, fiber.Map{}, "Password changed successfully")
}

// ResetPassword handles POST /api/v1/users/reset-password
// @Summary Reset a forgotten password
// @Description Requires the email to have passed OTP verification with purpose reset_password.
// @Tags users
// @Accept json
// @Produce json
// @Param request body object{email=string,newPassword=string} true "Reset request"
// @Success 200 {object} models.ApiResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /users/reset-password [post]
func (s *Server) ResetPassword(c *fiber.Ctx) error {
	var req struct {
		Email       string `json:"email"`
		NewPassword string `json:"newPassword"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if err := s.authService.ResetPassword(c.UserContext(), req.Email, req.NewPassword); err != nil {
		return respondError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, fiber.Map{}, "Password reset successfully")
}

// OAuthBegin handles GET /api/v1/auth/oauth/:provider
// @Summary Start an OAuth sign-in
// @Tags auth
// @Param provider path string true "google or github"
// @Success 302
// @Failure 404 {object} models.ErrorResponse
// @Router /auth/oauth/{provider} [get]
func (s *Server) OAuthBegin(c *fiber.Ctx) error {
	consentURL, err := s.oauthService.Begin(c.UserContext(), c.Params("provider"))
	if err != nil {
		return respondError(c, err)
	}
	return c.Redirect(consentURL, fiber.StatusFound)
}

// OAuthCallback handles GET /api/v1/auth/oauth/:provider/callback
// @Summary Finish an OAuth sign-in
// @Description Sets the token cookies and redirects to the frontend when one is configured.
// @Tags auth
// @Produce json
// @Param provider path string true "google or github"
// @Param state query string true "State issued by the begin route"
// @Param code query string true "Authorization code"
// @Success 200 {object} models.ApiResponse{data=service.AuthResult}
// @Success 302
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/oauth/{provider}/callback [get]
func (s *Server) OAuthCallback(c *fiber.Ctx) error {
	if denied := c.Query("error"); denied != "" {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Sign-in was cancelled"))
	}

	res, err := s.oauthService.Complete(c.UserContext(), c.Params("provider"), c.Query("state"), c.Query("code"))
	if err != nil {
		return respondError(c, err)
	}
	s.setAuthCookies(c, res)

	if s.config.FrontendURL != "" {
		target := strings.TrimRight(s.config.FrontendURL, "/") + "/oauth/complete?provider=" + url.QueryEscape(c.Params("provider"))
		return c.Redirect(target, fiber.StatusFound)
	}
	return models.Respond(c, fiber.StatusOK, res, "User logged in successfully")
}
