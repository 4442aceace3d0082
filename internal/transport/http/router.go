package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gym-api/internal/application/auth"
	"github.com/gym-api/internal/application/membership"
	"github.com/gym-api/internal/application/otp"
	"github.com/gym-api/internal/application/post"
	"github.com/gym-api/internal/application/user"
	"github.com/gym-api/internal/config"
	"github.com/gym-api/internal/domain"
	"github.com/gym-api/internal/transport/http/handler"
	appmiddleware "github.com/gym-api/internal/transport/http/middleware"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(appmiddleware.PerWindow(cfg.RateLimitRequests, cfg.RateLimitWindow).Limit)

	authMw := appmiddleware.Auth(deps.JWTProvider)
	adminOnly := appmiddleware.RequireRole(domain.RoleAdmin)
	userOnly := appmiddleware.RequireRole(domain.RoleUser)

	otpSvc := otp.NewService(otp.ServiceDeps{Repo: deps.OTPRepo, Clock: deps.Clock})
	authSvc := auth.NewService(auth.ServiceDeps{
		Users:          deps.UserRepo,
		OTP:            otpSvc,
		EmailChanges:   deps.EmailChangeRepo,
		PasswordResets: deps.PasswordResetRepo,
		Hasher:         deps.Hasher,
		Signer:         deps.JWTProvider,
		Notifier:       deps.Notifier,
		Clock:          deps.Clock,
		PendingTTL:     cfg.PendingTokenTTL,
	})
	membershipSvc := membership.NewService(membership.ServiceDeps{
		Plans:       deps.MembershipRepo,
		Enrollments: deps.UserMembershipRepo,
	})
	postSvc := post.NewService(post.ServiceDeps{Posts: deps.PostRepo, Comments: deps.CommentRepo})
	userSvc := user.NewService(user.ServiceDeps{
		UserRepo:    deps.UserRepo,
		Objects:     deps.S3Store,
		Memberships: membershipSvc,
		Enrollments: deps.UserMembershipRepo,
		Posts:       postSvc,
	})

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(authSvc)
	userH := handler.NewUserHandler(userSvc)
	membershipH := handler.NewMembershipHandler(membershipSvc)
	postH := handler.NewPostHandler(postSvc)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health-check/{action}", healthH.Ping)
		r.Get("/roles", handler.ListRoles)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authH.Register)
			r.Post("/login", authH.Login)
			r.Post("/verify", authH.Verify)
			r.Post("/resend-otp", authH.ResendOTP)
			r.Post("/forgot-password/{email}", authH.ForgotPassword)
			r.Post("/reset-password", authH.ResetPassword)

			r.Group(func(r chi.Router) {
				r.Use(authMw)
				r.Post("/change-email/request", authH.RequestEmailChange)
				r.Post("/change-email", authH.ChangeEmail)
				r.Post("/change-password", authH.ChangePassword)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(authMw)
			r.Get("/me", userH.Me)
			r.Put("/me/avatar", userH.UploadAvatar)
			r.With(adminOnly).Get("/all", userH.List)
			r.With(adminOnly).Patch("/admin/{id}", userH.AdminUpdate)
			r.With(adminOnly).Delete("/admin/{id}", userH.Delete)
			r.Get("/{id}", userH.Get)
			r.Get("/{id}/avatar", userH.Avatar)
			r.Patch("/{id}", userH.Update)
		})

		r.Route("/membership", func(r chi.Router) {
			r.Get("/", membershipH.List)

			r.Group(func(r chi.Router) {
				r.Use(authMw)
				r.With(userOnly).Get("/my-membership", membershipH.MyMembership)
				r.With(userOnly).Post("/join/{id}", membershipH.Join)

				r.Group(func(r chi.Router) {
					r.Use(adminOnly)
					r.Post("/", membershipH.Create)
					r.Get("/all-memberships", membershipH.List)
					r.Patch("/{id}", membershipH.Update)
					r.Delete("/{id}", membershipH.Delete)
				})
			})

			r.Get("/{id}", membershipH.Get)
		})

		r.Route("/post", func(r chi.Router) {
			r.Use(authMw)
			r.Post("/", postH.Create)
			r.Get("/", postH.List)
			r.Get("/my-posts", postH.MyPosts)
			r.Get("/{id}", postH.Get)
			r.Patch("/{id}", postH.Update)
			r.Delete("/{id}", postH.Delete)
			r.Post("/{id}/comment", postH.CreateComment)
			r.Patch("/{id}/comment/{commentId}", postH.UpdateComment)
			r.Delete("/{id}/comment/{commentId}", postH.DeleteComment)
		})
	})

	return r
}
