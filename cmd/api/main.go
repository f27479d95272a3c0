package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/beatbookings/publish-api/internal/config"
	"github.com/beatbookings/publish-api/internal/infrastructure/awscfg"
	"github.com/beatbookings/publish-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/beatbookings/publish-api/internal/infrastructure/jwt"
	"github.com/beatbookings/publish-api/internal/infrastructure/memory"
	s3infra "github.com/beatbookings/publish-api/internal/infrastructure/s3"
	"github.com/beatbookings/publish-api/internal/infrastructure/smtp"
	"github.com/beatbookings/publish-api/internal/infrastructure/sns"
	stripeinfra "github.com/beatbookings/publish-api/internal/infrastructure/stripe"
	transporthttp "github.com/beatbookings/publish-api/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, reading from environment")
	}

	cfg := config.Load()
	setupLogger(cfg.AppEnv)

	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		slog.Error("jwt provider not available", "err", err)
		os.Exit(1)
	}
	if cfg.StripeSecretKey == "" {
		slog.Warn("STRIPE_SECRET_KEY not set, checkout requests will fail upstream")
	}
	if cfg.StripeWebhookSecret == "" {
		slog.Warn("STRIPE_WEBHOOK_SECRET not set, every webhook delivery will be rejected")
	}

	deps := &transporthttp.Deps{
		Mailer:          smtp.NewMailer(cfg),
		JWTProvider:     jwtProvider,
		Checkout:        stripeinfra.NewClient(cfg.StripeSecretKey),
		WebhookVerifier: stripeinfra.NewWebhookVerifier(cfg.StripeWebhookSecret, cfg.StripeWebhookTolerance),
	}

	ctx := context.Background()
	switch cfg.StoreDriver {
	case "memory":
		slog.Warn("using in-memory store, data is lost on restart")
		deps.UserRepo = memory.NewUserRepo()
		deps.SessionRepo = memory.NewSessionRepo()
		deps.OTPRepo = memory.NewOTPRepo()
		deps.EventRepo = memory.NewEventRepo()
		deps.PaymentRepo = memory.NewPaymentRepo()
	case "dynamo":
		if err := wireAWS(ctx, cfg, deps); err != nil {
			slog.Error("aws setup failed", "err", err)
			os.Exit(1)
		}
	default:
		slog.Error("unknown STORE_DRIVER", "driver", cfg.StoreDriver)
		os.Exit(1)
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// wireAWS bootstraps DynamoDB tables and attaches the AWS-backed repos plus
// the optional S3 archive and SNS notifier.
func wireAWS(ctx context.Context, cfg *config.Config, deps *transporthttp.Deps) error {
	awsCfg, err := awscfg.Load(ctx, cfg)
	if err != nil {
		return err
	}

	dynamoClient := dynamo.NewClient(awsCfg, cfg.AWSEndpointURL)
	dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables)
	deps.StoreReady = dynamo.TableReady(dynamoClient, cfg.DynamoTables.Events)

	deps.UserRepo = dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users)
	deps.SessionRepo = dynamo.NewSessionRepo(dynamoClient, cfg.DynamoTables.Sessions)
	deps.OTPRepo = dynamo.NewOTPRepo(dynamoClient, cfg.DynamoTables.OneTimeCodes)
	deps.EventRepo = dynamo.NewEventRepo(dynamoClient, cfg.DynamoTables.Events, cfg.DynamoTables.PublishCounters)
	deps.PaymentRepo = dynamo.NewPaymentRepo(dynamoClient, cfg.DynamoTables.PendingPayments)

	if cfg.S3ArchiveBucket != "" {
		deps.Archive = s3infra.NewArchive(s3infra.NewClient(awsCfg, cfg.AWSEndpointURL), cfg.S3ArchiveBucket)
	} else {
		slog.Info("S3_ARCHIVE_BUCKET not set, webhook envelopes are not archived")
	}
	if cfg.SNSTopicARN != "" {
		deps.Notifier = sns.NewPublisher(awsCfg, cfg.AWSEndpointURL, cfg.SNSTopicARN)
	} else {
		slog.Info("SNS_TOPIC_ARN not set, publish notifications disabled")
	}
	return nil
}

func setupLogger(env string) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	var h slog.Handler
	if env == "production" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		opts.Level = slog.LevelDebug
		h = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(h))
}
