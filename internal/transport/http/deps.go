package http

import (
	"github.com/gym-api/internal/application/notification"
	"github.com/gym-api/internal/domain"
	"github.com/gym-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/gym-api/internal/infrastructure/jwt"
	s3infra "github.com/gym-api/internal/infrastructure/s3"
	"github.com/gym-api/internal/pkg/clock"
	"github.com/gym-api/internal/pkg/password"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo           *dynamo.UserRepo
	OTPRepo            *dynamo.OTPRepo
	EmailChangeRepo    *dynamo.PendingRepo[domain.PendingEmailChange]
	PasswordResetRepo  *dynamo.PendingRepo[domain.PendingPasswordReset]
	MembershipRepo     *dynamo.MembershipRepo
	UserMembershipRepo *dynamo.UserMembershipRepo
	PostRepo           *dynamo.PostRepo
	CommentRepo        *dynamo.CommentRepo
	S3Store            *s3infra.Store
	Notifier           notification.Notifier
	JWTProvider        *jwtinfra.Provider
	Hasher             password.Hasher
	// Clock defaults to the system clock.
	Clock clock.Clock
}
