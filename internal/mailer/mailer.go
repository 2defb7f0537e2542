// Package mailer hands transactional messages to an SMTP relay.
package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"tubbit/internal/config"
	"tubbit/internal/models"

	"golang.org/x/time/rate"
	"gopkg.in/gomail.v2"
)

// Mailer dispatches one-time codes.
type Mailer interface {
	SendOTP(ctx context.Context, to, code string, purpose models.OTPPurpose) error
}

// sender is the part of gomail.Dialer we use.
type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer sends through an SMTP relay, throttled to a fixed message rate.
type SMTPMailer struct {
	sender  sender
	from    string
	limiter *rate.Limiter
}

// New returns an SMTP mailer when SMTP_HOST is configured and a log-only mailer otherwise.
func New(cfg *config.Config, logger *slog.Logger) Mailer {
	if cfg == nil || strings.TrimSpace(cfg.SMTPHost) == "" {
		return NewLogMailer(logger, cfg == nil || !cfg.IsProduction())
	}
	dialer := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
	return NewSMTPMailer(dialer, cfg.SMTPFrom, cfg.MailRatePerSec)
}

// NewSMTPMailer wraps s. perSecond <= 0 selects one message per second with a burst of five.
func NewSMTPMailer(s sender, from string, perSecond float64) *SMTPMailer {
	if perSecond <= 0 {
		perSecond = 1
	}
	return &SMTPMailer{
		sender:  s,
		from:    from,
		limiter: rate.NewLimiter(rate.Limit(perSecond), 5),
	}
}

// SendOTP blocks until the rate limiter admits the message or ctx ends.
func (m *SMTPMailer) SendOTP(ctx context.Context, to, code string, purpose models.OTPPurpose) error {
	if err := m.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("mail throttled: %w", err)
	}
	if err := m.sender.DialAndSend(buildOTPMessage(m.from, to, code, purpose)); err != nil {
		return fmt.Errorf("send otp mail: %w", err)
	}
	return nil
}

func buildOTPMessage(from, to, code string, purpose models.OTPPurpose) *gomail.Message {
	subject, action := "Verify your Tubbit account", "finish creating your account"
	if purpose == models.OTPPurposeResetPassword {
		subject, action = "Reset your Tubbit password", "reset your password"
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", fmt.Sprintf("Your code is %s. Enter it to %s. It expires in 5 minutes.", code, action))
	msg.AddAlternative("text/html", fmt.Sprintf(
		"<p>Your code is <strong>%s</strong>.</p><p>Enter it to %s. It expires in 5 minutes.</p>", code, action))
	return msg
}

// LogMailer writes codes to the log instead of sending them.
type LogMailer struct {
	logger     *slog.Logger
	revealCode bool
}

// NewLogMailer returns a mailer for environments without SMTP. The code is only
// logged when revealCode is set.
func NewLogMailer(logger *slog.Logger, revealCode bool) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{logger: logger, revealCode: revealCode}
}

func (m *LogMailer) SendOTP(ctx context.Context, to, code string, purpose models.OTPPurpose) error {
	attrs := []any{slog.String("to", to), slog.String("purpose", string(purpose))}
	if m.revealCode {
		attrs = append(attrs, slog.String("code", code))
	}
	m.logger.InfoContext(ctx, "otp mail not sent: SMTP is not configured", attrs...)
	return nil
}
