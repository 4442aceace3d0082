package membership

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/gym-api/internal/domain"
	"github.com/gym-api/internal/pkg/id"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldTitle       = "title"
	fieldDescription = "description"
	fieldPrice       = "price"
)

type Service interface {
	Create(ctx context.Context, req domain.CreateMembershipRequest) (*domain.Membership, error)
	List(ctx context.Context) ([]domain.Membership, error)
	Get(ctx context.Context, membershipID string) (*domain.Membership, error)
	Update(ctx context.Context, membershipID string, req domain.UpdateMembershipRequest) (*domain.Membership, error)
	Delete(ctx context.Context, membershipID string) error
	// MyMembership returns the caller's enrollment with its plan attached.
	MyMembership(ctx context.Context, userID string) (*domain.UserMembership, error)
	Join(ctx context.Context, userID, membershipID string) (*domain.UserMembership, error)
}

type planStore interface {
	Put(ctx context.Context, m *domain.Membership) error
	Get(ctx context.Context, membershipID string) (*domain.Membership, error)
	List(ctx context.Context) ([]domain.Membership, error)
	Update(ctx context.Context, membershipID string, updates map[string]interface{}) error
	Delete(ctx context.Context, membershipID string) error
}

type enrollmentStore interface {
	Put(ctx context.Context, um *domain.UserMembership) error
	Get(ctx context.Context, userID string) (*domain.UserMembership, error)
	ListByMembership(ctx context.Context, membershipID string) ([]domain.UserMembership, error)
	Delete(ctx context.Context, userID string) error
}

type ServiceDeps struct {
	Plans       planStore
	Enrollments enrollmentStore
}

type service struct {
	plans       planStore
	enrollments enrollmentStore
}

func NewService(deps ServiceDeps) Service {
	return &service{plans: deps.Plans, enrollments: deps.Enrollments}
}

func (s *service) Create(ctx context.Context, req domain.CreateMembershipRequest) (*domain.Membership, error) {
	now := time.Now().UTC()
	m := &domain.Membership{
		MembershipID: id.New(),
		Title:        req.Title,
		Description:  req.Description,
		Price:        req.Price,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.plans.Put(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// List returns every plan, oldest first.
func (s *service) List(ctx context.Context) ([]domain.Membership, error) {
	plans, err := s.plans.List(ctx)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(plans, func(a, b domain.Membership) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), strings.Compare(a.MembershipID, b.MembershipID))
	})
	return plans, nil
}

func (s *service) Get(ctx context.Context, membershipID string) (*domain.Membership, error) {
	return s.plans.Get(ctx, membershipID)
}

func (s *service) Update(ctx context.Context, membershipID string, req domain.UpdateMembershipRequest) (*domain.Membership, error) {
	updates := map[string]interface{}{}
	if req.Title != nil {
		updates[fieldTitle] = *req.Title
	}
	if req.Description != nil {
		updates[fieldDescription] = *req.Description
	}
	if req.Price != nil {
		updates[fieldPrice] = *req.Price
	}
	if len(updates) == 0 {
		return s.plans.Get(ctx, membershipID)
	}
	if err := s.plans.Update(ctx, membershipID, updates); err != nil {
		return nil, err
	}
	return s.plans.Get(ctx, membershipID)
}

// Delete removes the plan, then drops the enrollments that pointed at it.
func (s *service) Delete(ctx context.Context, membershipID string) error {
	if err := s.plans.Delete(ctx, membershipID); err != nil {
		return err
	}
	members, err := s.enrollments.ListByMembership(ctx, membershipID)
	if err != nil {
		slog.WarnContext(ctx, "failed to list enrollments of deleted membership", "membership_id", membershipID, "err", err)
		return nil
	}
	for _, um := range members {
		if err := s.enrollments.Delete(ctx, um.UserID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			slog.WarnContext(ctx, "failed to delete enrollment", "user_id", um.UserID, "membership_id", membershipID, "err", err)
		}
	}
	return nil
}

func (s *service) MyMembership(ctx context.Context, userID string) (*domain.UserMembership, error) {
	um, err := s.enrollments.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("no active membership: %w", domain.ErrNotFound)
		}
		return nil, err
	}
	plan, err := s.plans.Get(ctx, um.MembershipID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	um.Membership = plan
	return um, nil
}

// Join enrolls the user in a plan, replacing any previous enrollment.
func (s *service) Join(ctx context.Context, userID, membershipID string) (*domain.UserMembership, error) {
	plan, err := s.plans.Get(ctx, membershipID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	um := &domain.UserMembership{
		UserID:       userID,
		MembershipID: plan.MembershipID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.enrollments.Put(ctx, um); err != nil {
		return nil, err
	}
	um.Membership = plan
	return um, nil
}
