package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string `env:"APP_PORT" envDefault:"3000"`
	AppEnv  string `env:"APP_ENV" envDefault:"development"`

	AWSRegion      string `env:"AWS_REGION" envDefault:"us-east-1"`
	AWSEndpointURL string `env:"AWS_ENDPOINT_URL"` // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretKey   string `env:"AWS_SECRET_ACCESS_KEY"`
	DynamoTables   DynamoTables
	S3BucketName   string `env:"S3_BUCKET_NAME" envDefault:"gym-api-files"`

	JWTPrivateKeyPath string        `env:"JWT_PRIVATE_KEY_PATH" envDefault:"./private_key.pem"`
	JWTPublicKeyPath  string        `env:"JWT_PUBLIC_KEY_PATH" envDefault:"./public_key.pem"`
	JWTExpiry         time.Duration `env:"JWT_EXPIRY" envDefault:"168h"`

	SMTPHost     string `env:"SMTP_HOST" envDefault:"localhost"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"1025"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	SMTPFrom     string `env:"SMTP_FROM" envDefault:"noreply@example.com"`
	SMTPFromName string `env:"SMTP_FROM_NAME" envDefault:"Gym Management System"`

	SNSEnabled bool   `env:"SNS_ENABLED" envDefault:"false"`
	SNSRegion  string `env:"SNS_REGION" envDefault:"us-east-1"`

	AllowedOrigins    []string      `env:"ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	RateLimitRequests int           `env:"RATE_LIMIT_REQUESTS" envDefault:"10"`
	RateLimitWindow   time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"60s"`

	NotifyMaxInflight int           `env:"NOTIFY_MAX_INFLIGHT" envDefault:"32"`
	PendingTokenTTL   time.Duration `env:"PENDING_TOKEN_TTL" envDefault:"15m"`
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users                 string `env:"DYNAMO_TABLE_USERS" envDefault:"users"`
	OTPs                  string `env:"DYNAMO_TABLE_OTPS" envDefault:"otps"`
	PendingEmailChanges   string `env:"DYNAMO_TABLE_PENDING_EMAIL_CHANGES" envDefault:"pending_email_changes"`
	PendingPasswordResets string `env:"DYNAMO_TABLE_PENDING_PASSWORD_RESETS" envDefault:"pending_password_resets"`
	Memberships           string `env:"DYNAMO_TABLE_MEMBERSHIPS" envDefault:"memberships"`
	UserMemberships       string `env:"DYNAMO_TABLE_USER_MEMBERSHIPS" envDefault:"user_memberships"`
	Posts                 string `env:"DYNAMO_TABLE_POSTS" envDefault:"posts"`
	Comments              string `env:"DYNAMO_TABLE_COMMENTS" envDefault:"comments"`
}

// Load reads all configuration from environment variables.
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}
