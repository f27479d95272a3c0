package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort     string
	AppEnv      string
	StoreDriver string // "dynamo" | "memory"

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	S3ArchiveBucket string // empty disables webhook envelope archiving
	SNSTopicARN     string // empty disables publish notifications

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTExpiry         time.Duration
	RefreshTokenDur   time.Duration

	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string

	OTPTTL         time.Duration
	OTPMaxAttempts int

	StripeSecretKey        string
	StripeWebhookSecret    string
	StripeWebhookTolerance time.Duration
	PublishFeeCents        int64
	PromoFeeCents          int64
	Currency               string
	CheckoutSuccessURL     string
	CheckoutCancelURL      string
	PlannerFreeQuota       int

	AllowedOrigins []string // CORS allowed origins
	TrustProxy     bool     // honour X-Forwarded-For / X-Real-Ip from a fronting proxy
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users           string
	Sessions        string
	OneTimeCodes    string
	Events          string
	PendingPayments string
	PublishCounters string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort:     getEnv("APP_PORT", "3000"),
		AppEnv:      getEnv("APP_ENV", "development"),
		StoreDriver: getEnv("STORE_DRIVER", "dynamo"),

		AWSRegion:      getEnv("AWS_REGION", "ap-southeast-2"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Users:           getEnv("DYNAMO_TABLE_USERS", "users"),
			Sessions:        getEnv("DYNAMO_TABLE_SESSIONS", "sessions"),
			OneTimeCodes:    getEnv("DYNAMO_TABLE_ONE_TIME_CODES", "one_time_codes"),
			Events:          getEnv("DYNAMO_TABLE_EVENTS", "events"),
			PendingPayments: getEnv("DYNAMO_TABLE_PENDING_PAYMENTS", "pending_payments"),
			PublishCounters: getEnv("DYNAMO_TABLE_PUBLISH_COUNTERS", "publish_counters"),
		},

		S3ArchiveBucket: getEnv("S3_ARCHIVE_BUCKET", ""),
		SNSTopicARN:     getEnv("SNS_TOPIC_ARN", ""),

		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:         getEnvDuration("JWT_EXPIRY", 24*time.Hour),
		RefreshTokenDur:   getEnvDuration("REFRESH_TOKEN_EXPIRY", 30*24*time.Hour),

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "1025"),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@beatbookings.live"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		OTPTTL:         getEnvDuration("OTP_TTL", 10*time.Minute),
		OTPMaxAttempts: getEnvInt("OTP_MAX_ATTEMPTS", 5),

		StripeSecretKey:        getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret:    getEnv("STRIPE_WEBHOOK_SECRET", ""),
		StripeWebhookTolerance: getEnvDuration("STRIPE_WEBHOOK_TOLERANCE", 5*time.Minute),
		PublishFeeCents:        int64(getEnvInt("PUBLISH_FEE_CENTS", 2500)),
		PromoFeeCents:          int64(getEnvInt("PROMO_FEE_CENTS", 100)),
		Currency:               strings.ToLower(getEnv("CURRENCY", "aud")),
		CheckoutSuccessURL:     getEnv("CHECKOUT_SUCCESS_URL", "http://localhost:5173/events/{EVENT_ID}/payment-success"),
		CheckoutCancelURL:      getEnv("CHECKOUT_CANCEL_URL", "http://localhost:5173/events/{EVENT_ID}"),
		PlannerFreeQuota:       getEnvInt("PLANNER_FREE_QUOTA", 1),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
		TrustProxy:     getEnvBool("TRUST_PROXY", false),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// getEnvDuration accepts Go duration strings ("10m", "36h").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
