package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gym-api/internal/application/notification"
	"github.com/gym-api/internal/application/otp"
	"github.com/gym-api/internal/domain"
	"github.com/gym-api/internal/pkg/clock"
	"github.com/gym-api/internal/pkg/id"
	"github.com/gym-api/internal/pkg/password"
)

// ResendCooldown is the minimum gap between two verification codes.
const ResendCooldown = 60 * time.Second

// pendingRetention keeps consumed-or-abandoned pending rows around past
// validUntil so the TTL sweeper, not the flows, removes them.
const pendingRetention = 24 * time.Hour

// codeAttempts bounds how often a pending code is redrawn after colliding
// with a code another user holds.
const codeAttempts = 3

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResult struct {
	Token      string `json:"token"`
	IsVerified bool   `json:"isVerified"`
	UserType   string `json:"userType"`
}

type VerifyRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6,numeric"`
}

type ResendOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type EmailChangeRequest struct {
	NewEmail string `json:"newEmail" validate:"required,email"`
}

type ChangeEmailRequest struct {
	OTP string `json:"otp" validate:"required,len=6,numeric"`
}

type ChangePasswordRequest struct {
	NewPassword string `json:"newPassword" validate:"required,min=8,max=72"`
}

type ResetPasswordRequest struct {
	OTP         string `json:"otp" validate:"required,len=6,numeric"`
	NewPassword string `json:"newPassword" validate:"required,min=8,max=72"`
}

type Service interface {
	Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	VerifyEmail(ctx context.Context, req VerifyRequest) error
	ResendOTP(ctx context.Context, email string) error
	RequestEmailChange(ctx context.Context, userID, newEmail string) error
	ChangeEmail(ctx context.Context, userID, code string) error
	ChangePassword(ctx context.Context, userID, newPassword string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, req ResetPasswordRequest) error
}

type userStore interface {
	Create(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByPhoneNumber(ctx context.Context, phone string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

type pendingEmailStore interface {
	GetByOTP(ctx context.Context, otp string) (*domain.PendingEmailChange, error)
	Replace(ctx context.Context, userID, otp string, rec *domain.PendingEmailChange) error
	Delete(ctx context.Context, otp string) error
}

type pendingResetStore interface {
	GetByOTP(ctx context.Context, otp string) (*domain.PendingPasswordReset, error)
	Replace(ctx context.Context, userID, otp string, rec *domain.PendingPasswordReset) error
	Delete(ctx context.Context, otp string) error
}

type tokenSigner interface {
	Sign(userID, role string) (string, error)
}

type ServiceDeps struct {
	Users          userStore
	OTP            otp.Service
	EmailChanges   pendingEmailStore
	PasswordResets pendingResetStore
	Hasher         password.Hasher
	Signer         tokenSigner
	Notifier       notification.Notifier
	Clock          clock.Clock
	// PendingTTL is the validity window of pending email changes and resets.
	PendingTTL time.Duration
}

type service struct {
	users          userStore
	otp            otp.Service
	emailChanges   pendingEmailStore
	passwordResets pendingResetStore
	hasher         password.Hasher
	signer         tokenSigner
	notifier       notification.Notifier
	clock          clock.Clock
	pendingTTL     time.Duration
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		users:          deps.Users,
		otp:            deps.OTP,
		emailChanges:   deps.EmailChanges,
		passwordResets: deps.PasswordResets,
		hasher:         deps.Hasher,
		signer:         deps.Signer,
		notifier:       deps.Notifier,
		clock:          deps.Clock,
		pendingTTL:     deps.PendingTTL,
	}
	if s.clock == nil {
		s.clock = clock.System{}
	}
	if s.pendingTTL <= 0 {
		s.pendingTTL = 15 * time.Minute
	}
	return s
}

func (s *service) Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
	email := normalizeEmail(req.Email)
	if err := s.ensureEmailFree(ctx, email); err != nil {
		return nil, err
	}
	phone := req.PhoneNumber
	if phone != nil && *phone == "" {
		phone = nil
	}
	if phone != nil {
		_, err := s.users.GetByPhoneNumber(ctx, *phone)
		if err == nil {
			return nil, fmt.Errorf("phone number already in use: %w", domain.ErrConflict)
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	u := &domain.User{
		UserID:       id.New(),
		Email:        email,
		PhoneNumber:  phone,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		CompanyName:  req.CompanyName,
		UserType:     domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}

	code, err := s.otp.Create(ctx, u.UserID, domain.OTPEmailVerification)
	if err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, u.Email, "Email verification", codeBody("verify your email", code.Code, otp.Validity))
	return u, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("Invalid credentials.: %w", domain.ErrBadRequest)
		}
		return nil, err
	}
	if !s.hasher.Verify(u.PasswordHash, req.Password) {
		return nil, fmt.Errorf("Invalid credentials.: %w", domain.ErrBadRequest)
	}
	if !u.IsVerified {
		return nil, fmt.Errorf("Please verify your account first.: %w", domain.ErrBadRequest)
	}
	token, err := s.signer.Sign(u.UserID, u.UserType)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, IsVerified: u.IsVerified, UserType: u.UserType}, nil
}

// VerifyEmail checks the code, marks the account verified and then
// consumes the code.
func (s *service) VerifyEmail(ctx context.Context, req VerifyRequest) error {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("Invalid information provided.: %w", domain.ErrBadRequest)
		}
		return err
	}
	if u.IsVerified {
		return fmt.Errorf("account already verified: %w", domain.ErrBadRequest)
	}
	if err := s.otp.Validate(ctx, u.UserID, req.OTP, domain.OTPEmailVerification); err != nil {
		return err
	}
	if err := s.users.Update(ctx, u.UserID, map[string]interface{}{"is_verified": true}); err != nil {
		return err
	}
	if err := s.otp.Delete(ctx, u.UserID, domain.OTPEmailVerification); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("consume verification code: %w", err)
	}
	return nil
}

func (s *service) ResendOTP(ctx context.Context, email string) error {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}
	if u.IsVerified {
		return fmt.Errorf("account already verified: %w", domain.ErrBadRequest)
	}
	last, err := s.otp.FindLast(ctx, u.UserID, domain.OTPEmailVerification)
	if err != nil {
		return err
	}
	if last != nil && s.clock.Now().Sub(last.CreatedAt) < ResendCooldown {
		return fmt.Errorf("Please wait for 60 seconds before resending OTP.: %w", domain.ErrBadRequest)
	}
	code, err := s.otp.Create(ctx, u.UserID, domain.OTPEmailVerification)
	if err != nil {
		return err
	}
	s.notifier.Notify(ctx, u.Email, "Email verification", codeBody("verify your email", code.Code, otp.Validity))
	return nil
}

// RequestEmailChange issues an EMAIL_CHANGE code and records it as the
// user's only pending change. The code is mailed to the new address.
func (s *service) RequestEmailChange(ctx context.Context, userID, newEmail string) error {
	newEmail = normalizeEmail(newEmail)
	_, err := s.users.GetByEmail(ctx, newEmail)
	if err == nil {
		return fmt.Errorf("email already in use: %w", domain.ErrBadRequest)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if _, err := s.users.Get(ctx, userID); err != nil {
		return err
	}

	code, err := s.issuePending(ctx, userID, domain.OTPEmailChange, func(code string, validUntil time.Time) error {
		return s.emailChanges.Replace(ctx, userID, code, &domain.PendingEmailChange{
			OTP:        code,
			UserID:     userID,
			NewEmail:   newEmail,
			ValidUntil: validUntil,
			ExpiresAt:  validUntil.Add(pendingRetention).Unix(),
		})
	})
	if err != nil {
		return err
	}
	s.notifier.Notify(ctx, newEmail, "Change email verification", codeBody("confirm your new email", code, s.pendingTTL))
	return nil
}

// ChangeEmail consumes a pending change. Unknown, expired and foreign codes
// are all rejected with the same NotFound error.
func (s *service) ChangeEmail(ctx context.Context, userID, code string) error {
	p, err := s.emailChanges.GetByOTP(ctx, code)
	if err != nil {
		return rejectCode(err)
	}
	if p.UserID != userID || !s.clock.Now().Before(p.ValidUntil) {
		return rejectCode(domain.ErrNotFound)
	}
	existing, err := s.users.GetByEmail(ctx, p.NewEmail)
	if err == nil && existing.UserID != userID {
		return fmt.Errorf("email already in use: %w", domain.ErrConflict)
	}
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if err := s.users.Update(ctx, userID, map[string]interface{}{"email": normalizeEmail(p.NewEmail)}); err != nil {
		return err
	}
	if err := s.emailChanges.Delete(ctx, p.OTP); err != nil {
		slog.WarnContext(ctx, "failed to delete pending email change", "user_id", userID, "err", err)
	}
	s.discardCode(ctx, userID, domain.OTPEmailChange)
	return nil
}

func (s *service) ChangePassword(ctx context.Context, userID, newPassword string) error {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.setPassword(ctx, userID, newPassword); err != nil {
		return err
	}
	const body = "Your password was changed. If this wasn't you, reset your password immediately."
	s.notifier.Notify(ctx, u.Email, "Password changed", body)
	if u.PhoneNumber != nil {
		s.notifier.NotifySMS(ctx, *u.PhoneNumber, body)
	}
	return nil
}

func (s *service) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("User with email %s not found.: %w", email, domain.ErrNotFound)
		}
		return err
	}

	code, err := s.issuePending(ctx, u.UserID, domain.OTPPasswordReset, func(code string, validUntil time.Time) error {
		return s.passwordResets.Replace(ctx, u.UserID, code, &domain.PendingPasswordReset{
			OTP:        code,
			UserID:     u.UserID,
			ValidUntil: validUntil,
			ExpiresAt:  validUntil.Add(pendingRetention).Unix(),
		})
	})
	if err != nil {
		return err
	}
	s.notifier.Notify(ctx, u.Email, "Reset your password", codeBody("reset your password", code, s.pendingTTL))
	return nil
}

func (s *service) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	p, err := s.passwordResets.GetByOTP(ctx, req.OTP)
	if err != nil {
		return rejectCode(err)
	}
	if !s.clock.Now().Before(p.ValidUntil) {
		return rejectCode(domain.ErrNotFound)
	}
	if err := s.setPassword(ctx, p.UserID, req.NewPassword); err != nil {
		return err
	}
	if err := s.passwordResets.Delete(ctx, p.OTP); err != nil {
		slog.WarnContext(ctx, "failed to delete pending password reset", "user_id", p.UserID, "err", err)
	}
	s.discardCode(ctx, p.UserID, domain.OTPPasswordReset)
	return nil
}

func (s *service) setPassword(ctx context.Context, userID, plain string) error {
	hash, err := s.hasher.Hash(plain)
	if err != nil {
		return err
	}
	return s.users.Update(ctx, userID, map[string]interface{}{"password_hash": hash})
}

func (s *service) ensureEmailFree(ctx context.Context, email string) error {
	_, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return fmt.Errorf("email already in use: %w", domain.ErrConflict)
	}
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	return err
}

// issuePending draws a code for purpose and hands it to store. A conflict
// means the code is held by someone else or the user's pending row moved
// underneath; either way a fresh code is drawn, up to codeAttempts times.
func (s *service) issuePending(ctx context.Context, userID string, purpose domain.OTPPurpose, store func(code string, validUntil time.Time) error) (string, error) {
	var err error
	for attempt := 1; attempt <= codeAttempts; attempt++ {
		var code *domain.OneTimeCode
		code, err = s.otp.Create(ctx, userID, purpose)
		if err != nil {
			return "", err
		}
		err = store(code.Code, s.clock.Now().Add(s.pendingTTL))
		if err == nil {
			return code.Code, nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return "", err
		}
		slog.WarnContext(ctx, "pending code collided, redrawing", "user_id", userID, "purpose", purpose, "attempt", attempt)
	}
	return "", err
}

// discardCode removes the code backing a consumed pending record. The code
// may already have been superseded or swept, so NotFound is ignored.
func (s *service) discardCode(ctx context.Context, userID string, purpose domain.OTPPurpose) {
	err := s.otp.Delete(ctx, userID, purpose)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		slog.WarnContext(ctx, "failed to delete one-time code", "user_id", userID, "purpose", purpose, "err", err)
	}
}

func rejectCode(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("invalid or expired code: %w", domain.ErrNotFound)
	}
	return err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func codeBody(action, code string, validFor time.Duration) string {
	return fmt.Sprintf("Use the code %s to %s. It expires in %d minutes.", code, action, int(validFor.Minutes()))
}
