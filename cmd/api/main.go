package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gym-api/internal/application/notification"
	"github.com/gym-api/internal/config"
	"github.com/gym-api/internal/infrastructure/awsconf"
	"github.com/gym-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/gym-api/internal/infrastructure/jwt"
	s3infra "github.com/gym-api/internal/infrastructure/s3"
	"github.com/gym-api/internal/infrastructure/smtp"
	"github.com/gym-api/internal/infrastructure/sns"
	"github.com/gym-api/internal/pkg/clock"
	"github.com/gym-api/internal/pkg/password"
	transporthttp "github.com/gym-api/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, reading from environment")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	ctx := context.Background()
	awsCfg, err := awsconf.Load(ctx, cfg, "")
	if err != nil {
		slog.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(awsCfg, cfg.AWSEndpointURL)
	dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables)

	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		slog.Error("JWT provider not available", "err", err)
		os.Exit(1)
	}

	s3Store := s3infra.NewStore(s3infra.NewClient(awsCfg, cfg.AWSEndpointURL), cfg.S3BucketName)

	// SMS is optional; without it only email notifications go out.
	var smsSender sns.SMSSender
	if cfg.SNSEnabled {
		snsCfg, err := awsconf.Load(ctx, cfg, cfg.SNSRegion)
		if err != nil {
			slog.Warn("SNS sender not available", "err", err)
		} else {
			smsSender = sns.NewSender(snsCfg, cfg.AWSEndpointURL)
		}
	}
	dispatcher := notification.NewDispatcher(smtp.NewMailer(cfg), smsSender, cfg.NotifyMaxInflight)

	deps := &transporthttp.Deps{
		UserRepo:           dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users),
		OTPRepo:            dynamo.NewOTPRepo(dynamoClient, cfg.DynamoTables.OTPs),
		EmailChangeRepo:    dynamo.NewPendingEmailChangeRepo(dynamoClient, cfg.DynamoTables.PendingEmailChanges),
		PasswordResetRepo:  dynamo.NewPendingPasswordResetRepo(dynamoClient, cfg.DynamoTables.PendingPasswordResets),
		MembershipRepo:     dynamo.NewMembershipRepo(dynamoClient, cfg.DynamoTables.Memberships),
		UserMembershipRepo: dynamo.NewUserMembershipRepo(dynamoClient, cfg.DynamoTables.UserMemberships),
		PostRepo:           dynamo.NewPostRepo(dynamoClient, cfg.DynamoTables.Posts),
		CommentRepo:        dynamo.NewCommentRepo(dynamoClient, cfg.DynamoTables.Comments),
		S3Store:            s3Store,
		Notifier:           dispatcher,
		JWTProvider:        jwtProvider,
		Hasher:             password.NewArgon2id(),
		Clock:              clock.System{},
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      transporthttp.NewRouter(cfg, deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "err", err)
	}
	// Let queued emails and texts finish before exiting.
	if err := dispatcher.Close(shutdownCtx); err != nil {
		slog.Warn("notifications dropped on shutdown", "err", err)
	}
	slog.Info("server stopped")
}
