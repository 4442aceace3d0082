// Package otp manages one-time codes. There is at most one active code per
// (user, purpose): creating a code replaces the previous one.
package otp

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/gym-api/internal/domain"
	"github.com/gym-api/internal/pkg/clock"
	pkgtoken "github.com/gym-api/internal/pkg/token"
)

const (
	// CodeLength is the number of digits in every issued code.
	CodeLength = 6
	// Validity is how long a code stays usable after creation. A code aged
	// exactly Validity is still accepted.
	Validity = 15 * time.Minute
	// retention keeps records past Validity so late attempts report Expired
	// rather than NotFound before the TTL sweeper removes them.
	retention = 24 * time.Hour
)

type Service interface {
	Create(ctx context.Context, userID string, purpose domain.OTPPurpose) (*domain.OneTimeCode, error)
	Validate(ctx context.Context, userID, code string, purpose domain.OTPPurpose) error
	Delete(ctx context.Context, userID string, purpose domain.OTPPurpose) error
	// FindLast returns the current code for the pair, or nil when there is none.
	FindLast(ctx context.Context, userID string, purpose domain.OTPPurpose) (*domain.OneTimeCode, error)
}

type codeStore interface {
	Put(ctx context.Context, c *domain.OneTimeCode) error
	Get(ctx context.Context, userID string, purpose domain.OTPPurpose) (*domain.OneTimeCode, error)
	Delete(ctx context.Context, userID string, purpose domain.OTPPurpose) error
}

type service struct {
	repo     codeStore
	clock    clock.Clock
	generate func(n int) (string, error)
}

type ServiceDeps struct {
	Repo  codeStore
	Clock clock.Clock
	// Generate overrides the code generator; defaults to pkg/token.Numeric.
	Generate func(n int) (string, error)
}

func NewService(deps ServiceDeps) Service {
	s := &service{repo: deps.Repo, clock: deps.Clock, generate: deps.Generate}
	if s.clock == nil {
		s.clock = clock.System{}
	}
	if s.generate == nil {
		s.generate = pkgtoken.Numeric
	}
	return s
}

// Create issues a fresh code. The store write is a keyed upsert, so the
// previous code for the pair is superseded in the same operation.
func (s *service) Create(ctx context.Context, userID string, purpose domain.OTPPurpose) (*domain.OneTimeCode, error) {
	code, err := s.generate(CodeLength)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	c := &domain.OneTimeCode{
		UserID:    userID,
		Purpose:   purpose,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(retention).Unix(),
	}
	if err := s.repo.Put(ctx, c); err != nil {
		return nil, fmt.Errorf("store otp: %w", err)
	}
	return c, nil
}

// Validate checks code without consuming it; callers delete on success.
func (s *service) Validate(ctx context.Context, userID, code string, purpose domain.OTPPurpose) error {
	c, err := s.repo.Get(ctx, userID, purpose)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("invalid OTP: %w", domain.ErrNotFound)
		}
		return err
	}
	if subtle.ConstantTimeCompare([]byte(c.Code), []byte(code)) != 1 {
		return fmt.Errorf("invalid OTP: %w", domain.ErrNotFound)
	}
	if s.clock.Now().Sub(c.CreatedAt) > Validity {
		return fmt.Errorf("OTP has expired: %w", domain.ErrExpired)
	}
	return nil
}

func (s *service) Delete(ctx context.Context, userID string, purpose domain.OTPPurpose) error {
	return s.repo.Delete(ctx, userID, purpose)
}

func (s *service) FindLast(ctx context.Context, userID string, purpose domain.OTPPurpose) (*domain.OneTimeCode, error) {
	c, err := s.repo.Get(ctx, userID, purpose)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}
