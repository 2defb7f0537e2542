package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"tubbit/internal/middleware"
	"tubbit/internal/models"
	"tubbit/internal/repository"
	"tubbit/internal/storage"
	"tubbit/internal/validation"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

// passwordCost is the bcrypt work factor for stored passwords.
var passwordCost = bcrypt.DefaultCost

// TokenConfig holds the signing secrets and lifetimes of issued tokens.
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// AuthResult is returned by every flow that signs a user in.
type AuthResult struct {
	User         *models.User  `json:"user"`
	AccessToken  string        `json:"accessToken"`
	RefreshToken string        `json:"refreshToken"`
	AccessTTL    time.Duration `json:"-"`
	RefreshTTL   time.Duration `json:"-"`
}

// AuthService owns credentials: registration, sessions and password changes.
type AuthService struct {
	userRepo repository.UserRepository
	otp      *OTPService
	uploader *storage.Uploader
	rdb      redis.Cmdable
	tokens   TokenConfig
}

type RegisterInput struct {
	Fullname   string
	Email      string
	Username   string
	Password   string
	Avatar     *storage.File
	CoverImage *storage.File
}

type LoginInput struct {
	Email    string
	Username string
	Password string
}

func NewAuthService(
	userRepo repository.UserRepository,
	otp *OTPService,
	uploader *storage.Uploader,
	rdb redis.Cmdable,
	tokens TokenConfig,
) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		otp:      otp,
		uploader: uploader,
		rdb:      rdb,
		tokens:   tokens,
	}
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return string(hashed), nil
}

// Register creates an email/password account. The email must have passed OTP
// verification; the verification marker is cleared once the user exists.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Email = models.NormalizeEmail(in.Email)
	in.Username = models.NormalizeUsername(in.Username)
	in.Fullname = strings.TrimSpace(in.Fullname)

	if in.Fullname == "" || in.Email == "" || in.Username == "" || in.Password == "" {
		return nil, models.NewValidationError("All fields are required")
	}
	if err := validation.ValidateFullname(in.Fullname); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateUsername(in.Username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	if err := s.otp.ConsumeVerification(ctx, in.Email); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.GetByEmailOrUsername(ctx, in.Email, in.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("User with this email or username already exists")
	}

	hashed, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Fullname: in.Fullname,
		Email:    in.Email,
		Username: in.Username,
		Password: hashed,
		AuthType: models.AuthTypeEmailPassword,
	}

	var uploaded []string
	if in.Avatar != nil {
		asset, err := s.uploader.UploadImage(ctx, storage.FolderAvatars, *in.Avatar)
		if err != nil {
			return nil, uploadError("Avatar", err)
		}
		user.Avatar, user.AvatarPublicID = asset.URL, asset.PublicID
		uploaded = append(uploaded, asset.PublicID)
	}
	if in.CoverImage != nil {
		asset, err := s.uploader.UploadImage(ctx, storage.FolderCovers, *in.CoverImage)
		if err != nil {
			s.uploader.Remove(ctx, uploaded...)
			return nil, uploadError("Cover image", err)
		}
		user.CoverImage, user.CoverImagePublicID = asset.URL, asset.PublicID
		uploaded = append(uploaded, asset.PublicID)
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		s.uploader.Remove(ctx, uploaded...)
		return nil, err
	}
	s.otp.ClearVerification(ctx, in.Email)
	return sanitizedUser(user), nil
}

// Login accepts either the email or the username.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	if strings.TrimSpace(in.Email) == "" && strings.TrimSpace(in.Username) == "" {
		return nil, models.NewValidationError("Username or email is required")
	}
	if in.Password == "" {
		return nil, models.NewValidationError("Password is required")
	}

	user, err := s.userRepo.GetByEmailOrUsername(ctx, in.Email, in.Username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundMessage("User does not exist")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)) != nil {
		return nil, models.NewUnauthorizedError("Invalid user credentials")
	}
	return s.signIn(ctx, user)
}

// signIn issues a new token pair and makes the refresh token the user's only active one.
func (s *AuthService) signIn(ctx context.Context, user *models.User) (*AuthResult, error) {
	access, _, err := middleware.IssueToken(s.tokens.AccessSecret, user.ID, s.tokens.AccessTTL)
	if err != nil {
		return nil, models.NewInternalError(fmt.Errorf("sign access token: %w", err))
	}
	refresh, _, err := middleware.IssueToken(s.tokens.RefreshSecret, user.ID, s.tokens.RefreshTTL)
	if err != nil {
		return nil, models.NewInternalError(fmt.Errorf("sign refresh token: %w", err))
	}
	if err := s.userRepo.SetRefreshToken(ctx, user.ID, refresh); err != nil {
		return nil, err
	}
	return &AuthResult{
		User:         sanitizedUser(user),
		AccessToken:  access,
		RefreshToken: refresh,
		AccessTTL:    s.tokens.AccessTTL,
		RefreshTTL:   s.tokens.RefreshTTL,
	}, nil
}

// Refresh rotates the token pair. A refresh token that is not the user's
// current one has been used or revoked and is rejected.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	if refreshToken == "" {
		return nil, models.NewUnauthorizedError("Unauthorized request")
	}
	claims, err := middleware.ParseToken(s.tokens.RefreshSecret, refreshToken)
	if err != nil {
		return nil, models.NewUnauthorizedError("Invalid refresh token")
	}

	user, err := s.userRepo.GetByIDWithSecrets(ctx, claims.UserID)
	if err != nil {
		if models.HasCode(err, models.CodeNotFound) {
			return nil, models.NewUnauthorizedError("Invalid refresh token")
		}
		return nil, err
	}
	if user.RefreshToken == "" || subtle.ConstantTimeCompare([]byte(user.RefreshToken), []byte(refreshToken)) != 1 {
		return nil, models.NewUnauthorizedError("Refresh token is expired or used")
	}
	return s.signIn(ctx, user)
}

// Logout clears the stored refresh token and revokes the presented access
// token for the rest of its lifetime.
func (s *AuthService) Logout(ctx context.Context, userID uint, access *middleware.TokenClaims) error {
	if err := s.userRepo.SetRefreshToken(ctx, userID, ""); err != nil {
		return err
	}
	if access == nil || access.JTI == "" || s.rdb == nil {
		return nil
	}
	remaining := time.Until(access.ExpiresAt)
	if remaining <= 0 {
		return nil
	}
	if err := s.rdb.Set(ctx, middleware.BlacklistKey(access.JTI), "1", remaining).Err(); err != nil {
		slog.WarnContext(ctx, "failed to blacklist access token", "err", err)
	}
	return nil
}

// ChangePassword requires the current password.
func (s *AuthService) ChangePassword(ctx context.Context, userID uint, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return models.NewValidationError("Old and new passwords are required")
	}
	if err := validation.ValidatePassword(newPassword); err != nil {
		return models.NewValidationError(err.Error())
	}
	user, err := s.userRepo.GetByIDWithSecrets(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)) != nil {
		return models.NewValidationError("Invalid old password")
	}
	hashed, err := hashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.userRepo.UpdateFields(ctx, userID, map[string]interface{}{"password": hashed})
}

// ResetPassword sets a new password for an OTP-verified email and ends every session.
func (s *AuthService) ResetPassword(ctx context.Context, email, newPassword string) error {
	email = models.NormalizeEmail(email)
	if email == "" || newPassword == "" {
		return models.NewValidationError("Email and new password are required")
	}
	if err := validation.ValidatePassword(newPassword); err != nil {
		return models.NewValidationError(err.Error())
	}
	if err := s.otp.ConsumeVerification(ctx, email); err != nil {
		return err
	}
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return models.NewNotFoundMessage("User with this email does not exist")
	}
	hashed, err := hashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdateFields(ctx, user.ID, map[string]interface{}{
		"password":      hashed,
		"refresh_token": "",
	}); err != nil {
		return err
	}
	s.otp.ClearVerification(ctx, email)
	return nil
}

// IsRevoked reports whether an access token jti was blacklisted by Logout.
func (s *AuthService) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if jti == "" || s.rdb == nil {
		return false, nil
	}
	n, err := s.rdb.Exists(ctx, middleware.BlacklistKey(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func sanitizedUser(u *models.User) *models.User {
	out := *u
	out.Password = ""
	out.RefreshToken = ""
	return &out
}
