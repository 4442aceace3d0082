package user

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gym-api/internal/domain"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldFirstName   = "first_name"
	fieldLastName    = "last_name"
	fieldPhoneNumber = "phone_number"
	fieldCompanyName = "company_name"
	fieldUserType    = "user_type"
	fieldAvatar      = "avatar"
)

const (
	// MaxAvatarSize is the largest accepted avatar upload.
	MaxAvatarSize = 5 << 20
	avatarURLTTL  = 15 * time.Minute
	defaultLimit  = 50
)

var avatarTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

type AvatarUpload struct {
	Reader   io.Reader
	Filename string
	Size     int64
}

type Service interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	// Profile returns the user with its membership and posts.
	Profile(ctx context.Context, userID string) (*domain.UserProfile, error)
	List(ctx context.Context, limit int, cursor string) ([]domain.User, string, error)
	// Update changes profile fields. userType is only honoured when asAdmin is set.
	Update(ctx context.Context, userID string, req domain.UpdateUserRequest, asAdmin bool) (*domain.User, error)
	Delete(ctx context.Context, userID string) error
	UploadAvatar(ctx context.Context, userID string, in AvatarUpload) (*domain.User, error)
	AvatarURL(ctx context.Context, userID string) (string, error)
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByPhoneNumber(ctx context.Context, phone string) (*domain.User, error)
	ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.User, string, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
	Delete(ctx context.Context, userID string) error
}

type objectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) error
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

type membershipReader interface {
	MyMembership(ctx context.Context, userID string) (*domain.UserMembership, error)
}

type enrollmentRemover interface {
	Delete(ctx context.Context, userID string) error
}

type postReader interface {
	MyPosts(ctx context.Context, userID string) ([]domain.PostDetail, error)
}

type ServiceDeps struct {
	UserRepo    userStore
	Objects     objectStore
	Memberships membershipReader
	Enrollments enrollmentRemover
	Posts       postReader
}

type service struct {
	repo        userStore
	objects     objectStore
	memberships membershipReader
	enrollments enrollmentRemover
	posts       postReader
}

func NewService(deps ServiceDeps) Service {
	return &service{
		repo:        deps.UserRepo,
		objects:     deps.Objects,
		memberships: deps.Memberships,
		enrollments: deps.Enrollments,
		posts:       deps.Posts,
	}
}

func (s *service) Get(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.Get(ctx, userID)
}

func (s *service) Profile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	um, err := s.memberships.MyMembership(ctx, userID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	posts, err := s.posts.MyPosts(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &domain.UserProfile{User: u, Membership: um, Posts: posts}, nil
}

func (s *service) List(ctx context.Context, limit int, cursor string) ([]domain.User, string, error) {
	if limit < 1 {
		limit = defaultLimit
	}
	return s.repo.ScanPage(ctx, int32(limit), cursor)
}

func (s *service) Update(ctx context.Context, userID string, req domain.UpdateUserRequest, asAdmin bool) (*domain.User, error) {
	updates := map[string]interface{}{}
	if req.FirstName != nil {
		updates[fieldFirstName] = *req.FirstName
	}
	if req.LastName != nil {
		updates[fieldLastName] = *req.LastName
	}
	if req.CompanyName != nil {
		updates[fieldCompanyName] = *req.CompanyName
	}
	// An empty phone number would be an empty GSI key; it is ignored.
	if req.PhoneNumber != nil && *req.PhoneNumber != "" {
		owner, err := s.repo.GetByPhoneNumber(ctx, *req.PhoneNumber)
		switch {
		case err == nil && owner.UserID != userID:
			return nil, fmt.Errorf("phone number already in use: %w", domain.ErrConflict)
		case err != nil && !errors.Is(err, domain.ErrNotFound):
			return nil, err
		}
		updates[fieldPhoneNumber] = *req.PhoneNumber
	}
	if req.UserType != nil {
		if !asAdmin {
			return nil, fmt.Errorf("only admins can change the user type: %w", domain.ErrForbidden)
		}
		switch *req.UserType {
		case domain.RoleAdmin, domain.RoleUser:
			updates[fieldUserType] = *req.UserType
		default:
			return nil, fmt.Errorf("invalid user type: %w", domain.ErrBadRequest)
		}
	}
	if len(updates) == 0 {
		return s.repo.Get(ctx, userID)
	}
	if err := s.repo.Update(ctx, userID, updates); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, userID)
}

// Delete removes the user record, then its enrollment and avatar.
func (s *service) Delete(ctx context.Context, userID string) error {
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, userID); err != nil {
		return err
	}
	if err := s.enrollments.Delete(ctx, userID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		slog.WarnContext(ctx, "failed to delete enrollment of deleted user", "user_id", userID, "err", err)
	}
	s.dropObject(ctx, u.Avatar)
	return nil
}

// UploadAvatar stores a new avatar object and points the user at it. The
// previous object is removed afterwards.
func (s *service) UploadAvatar(ctx context.Context, userID string, in AvatarUpload) (*domain.User, error) {
	ext := strings.ToLower(path.Ext(in.Filename))
	contentType, ok := avatarTypes[ext]
	if !ok {
		return nil, fmt.Errorf("avatar must be a jpg, jpeg or png image: %w", domain.ErrBadRequest)
	}
	if in.Size > MaxAvatarSize {
		return nil, fmt.Errorf("avatar exceeds 5 MiB: %w", domain.ErrBadRequest)
	}
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("avatars/%s/%s%s", userID, uuid.NewString(), ext)
	if err := s.objects.Upload(ctx, key, in.Reader, contentType); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, userID, map[string]interface{}{fieldAvatar: key}); err != nil {
		s.dropObject(ctx, key)
		return nil, err
	}
	s.dropObject(ctx, u.Avatar)
	return s.repo.Get(ctx, userID)
}

func (s *service) AvatarURL(ctx context.Context, userID string) (string, error) {
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	if u.Avatar == "" {
		return "", fmt.Errorf("user has no avatar: %w", domain.ErrNotFound)
	}
	return s.objects.PresignedURL(ctx, u.Avatar, avatarURLTTL)
}

func (s *service) dropObject(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.objects.Delete(ctx, key); err != nil {
		slog.WarnContext(ctx, "failed to delete avatar object", "key", key, "err", err)
	}
}
