package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"tubbit/internal/mailer"
	"tubbit/internal/models"
	"tubbit/internal/observability"
	"tubbit/internal/repository"
	"tubbit/internal/validation"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultOTPTTL         = 5 * time.Minute
	DefaultOTPVerifiedTTL = 10 * time.Minute
	otpDigits             = 6
)

var errOTPStoreUnavailable = errors.New("otp store unavailable")

func otpKey(email string) string         { return "otp:" + email }
func otpVerifiedKey(email string) string { return "otp_verified:" + email }

// OTPService issues and checks emailed one-time codes that gate signup and password reset.
type OTPService struct {
	rdb         redis.Cmdable
	userRepo    repository.UserRepository
	mailer      mailer.Mailer
	ttl         time.Duration
	verifiedTTL time.Duration
	generate    func() (string, error)
}

func NewOTPService(
	rdb redis.Cmdable,
	userRepo repository.UserRepository,
	m mailer.Mailer,
	ttl, verifiedTTL time.Duration,
) *OTPService {
	if ttl <= 0 {
		ttl = DefaultOTPTTL
	}
	if verifiedTTL <= 0 {
		verifiedTTL = DefaultOTPVerifiedTTL
	}
	return &OTPService{
		rdb:         rdb,
		userRepo:    userRepo,
		mailer:      m,
		ttl:         ttl,
		verifiedTTL: verifiedTTL,
		generate:    generateOTP,
	}
}

// generateOTP returns a uniformly random zero-padded six digit code.
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", otpDigits, n.Int64()), nil
}

// SendOTP stores a fresh code for email and mails it. A resend replaces the
// previous code and restarts its window. Mail failures do not fail the call.
func (s *OTPService) SendOTP(ctx context.Context, email string, purpose models.OTPPurpose) (*models.OTPSendResult, error) {
	email = models.NormalizeEmail(email)
	if err := validation.ValidateEmail(email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if _, err := models.ParseOTPPurpose(string(purpose)); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil && purpose == models.OTPPurposeSignup {
		return nil, models.NewConflictError("User with this email already exists")
	}
	if existing == nil && purpose == models.OTPPurposeResetPassword {
		return nil, models.NewNotFoundMessage("User with this email does not exist")
	}

	if s.rdb == nil {
		return nil, models.NewInternalError(errOTPStoreUnavailable)
	}
	code, err := s.generate()
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := s.rdb.Set(ctx, otpKey(email), code, s.ttl).Err(); err != nil {
		return nil, models.NewInternalError(fmt.Errorf("store otp: %w", err))
	}

	result := &models.OTPSendResult{Email: email, ExpiresInSeconds: int(s.ttl.Seconds())}
	if err := s.mailer.SendOTP(ctx, email, code, purpose); err != nil {
		slog.WarnContext(ctx, "otp email dispatch failed", "purpose", purpose, "err", err)
		observability.OTPEvents.WithLabelValues("mail_failed").Inc()
		result.EmailDeliveryUncertain = true
	}
	observability.OTPEvents.WithLabelValues("sent").Inc()
	return result, nil
}

// VerifyOTP checks code against the stored one. On success the code is spent
// and email is marked verified for the verified window.
func (s *OTPService) VerifyOTP(ctx context.Context, email, code string) error {
	email = models.NormalizeEmail(email)
	if email == "" || code == "" {
		return models.NewValidationError("Email and OTP are required")
	}
	if s.rdb == nil {
		return models.NewInternalError(errOTPStoreUnavailable)
	}

	stored, err := s.rdb.Get(ctx, otpKey(email)).Result()
	if errors.Is(err, redis.Nil) {
		observability.OTPEvents.WithLabelValues("expired").Inc()
		return models.NewUnauthorizedError("OTP expired or not found")
	}
	if err != nil {
		return models.NewInternalError(fmt.Errorf("load otp: %w", err))
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		observability.OTPEvents.WithLabelValues("rejected").Inc()
		return models.NewUnauthorizedError("Invalid OTP")
	}

	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, otpKey(email))
	pipe.Set(ctx, otpVerifiedKey(email), "true", s.verifiedTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return models.NewInternalError(fmt.Errorf("mark otp verified: %w", err))
	}
	observability.OTPEvents.WithLabelValues("verified").Inc()
	return nil
}

// ConsumeVerification fails unless email was verified within the verified window.
// The marker is left in place; ClearVerification removes it after the mutation succeeds.
func (s *OTPService) ConsumeVerification(ctx context.Context, email string) error {
	email = models.NormalizeEmail(email)
	if s.rdb == nil {
		return models.NewInternalError(errOTPStoreUnavailable)
	}
	v, err := s.rdb.Get(ctx, otpVerifiedKey(email)).Result()
	if errors.Is(err, redis.Nil) || (err == nil && v != "true") {
		return models.NewUnauthorizedError("Email not verified. Please verify OTP first")
	}
	if err != nil {
		return models.NewInternalError(fmt.Errorf("load otp marker: %w", err))
	}
	return nil
}

// ClearVerification removes the verified marker.
func (s *OTPService) ClearVerification(ctx context.Context, email string) {
	if s.rdb == nil {
		return
	}
	email = models.NormalizeEmail(email)
	if err := s.rdb.Del(ctx, otpVerifiedKey(email)).Err(); err != nil {
		slog.WarnContext(ctx, "failed to clear otp marker", "err", err)
	}
}
