package domain

import "time"

// OTPPurpose scopes a one-time code to a single flow.
type OTPPurpose string

const (
	OTPEmailVerification OTPPurpose = "EMAIL_VERIFICATION"
	OTPEmailChange       OTPPurpose = "EMAIL_CHANGE"
	OTPPasswordReset     OTPPurpose = "PASSWORD_RESET"
)

// OneTimeCode is the single active code for a (user, purpose) pair.
// PK: user_id, SK: purpose. Writing a new one replaces the previous one.
type OneTimeCode struct {
	UserID    string     `json:"userId" dynamodbav:"user_id"`
	Purpose   OTPPurpose `json:"purpose" dynamodbav:"purpose"`
	Code      string     `json:"code" dynamodbav:"code"`
	CreatedAt time.Time  `json:"createdAt" dynamodbav:"created_at"`
	ExpiresAt int64      `json:"-" dynamodbav:"expires_at"` // TTL (Unix seconds), housekeeping only
}

// PendingEmailChange is an in-flight email change keyed by its code.
type PendingEmailChange struct {
	OTP        string    `json:"otp" dynamodbav:"otp"`
	UserID     string    `json:"userId" dynamodbav:"user_id"`
	NewEmail   string    `json:"newEmail" dynamodbav:"new_email"`
	ValidUntil time.Time `json:"validUntil" dynamodbav:"valid_until"`
	ExpiresAt  int64     `json:"-" dynamodbav:"expires_at"`
}

// PendingPasswordReset is an in-flight password reset keyed by its code.
type PendingPasswordReset struct {
	OTP        string    `json:"otp" dynamodbav:"otp"`
	UserID     string    `json:"userId" dynamodbav:"user_id"`
	ValidUntil time.Time `json:"validUntil" dynamodbav:"valid_until"`
	ExpiresAt  int64     `json:"-" dynamodbav:"expires_at"`
}
