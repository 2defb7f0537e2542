package models

import "fmt"

// OTPPurpose names the account mutation an emailed code unlocks.
type OTPPurpose string

const (
	OTPPurposeSignup        OTPPurpose = "signup"
	OTPPurposeResetPassword OTPPurpose = "reset_password"
)

// ParseOTPPurpose validates a purpose received from a request body.
func ParseOTPPurpose(raw string) (OTPPurpose, error) {
	switch p := OTPPurpose(raw); p {
	case OTPPurposeSignup, OTPPurposeResetPassword:
		return p, nil
	}
	return "", NewValidationError(fmt.Sprintf("Unsupported OTP purpose %q", raw))
}

// OTPSendResult reports how an OTP request was handled. The code itself is never returned.
type OTPSendResult struct {
	Email string `json:"email"`
	// EmailDeliveryUncertain is set when the mailer failed; the code is still valid.
	EmailDeliveryUncertain bool `json:"emailDeliveryUncertain,omitempty"`
	ExpiresInSeconds       int  `json:"expiresInSeconds"`
}
