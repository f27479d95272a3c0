package http

import (
	"context"
	"net/http"

	"github.com/beatbookings/publish-api/internal/application/checkout"
	"github.com/beatbookings/publish-api/internal/application/event"
	"github.com/beatbookings/publish-api/internal/application/otp"
	"github.com/beatbookings/publish-api/internal/application/publish"
	"github.com/beatbookings/publish-api/internal/application/session"
	"github.com/beatbookings/publish-api/internal/application/webhook"
	"github.com/beatbookings/publish-api/internal/config"
	"github.com/beatbookings/publish-api/internal/domain"
	"github.com/beatbookings/publish-api/internal/transport/http/handler"
	appmiddleware "github.com/beatbookings/publish-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
)

// Deps holds all infrastructure dependencies for the router.
// Notifier and Archive are optional.
type Deps struct {
	UserRepo        UserRepository
	SessionRepo     SessionRepository
	OTPRepo         OTPRepository
	EventRepo       EventRepository
	PaymentRepo     PaymentRepository
	Mailer          Mailer
	JWTProvider     TokenProvider
	Checkout        CheckoutProcessor
	WebhookVerifier WebhookVerifier
	Notifier        EventNotifier
	Archive         ObjectStore
	StoreReady      func(context.Context) error
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	if cfg.TrustProxy {
		// Only behind a proxy that overwrites these headers; otherwise clients
		// could pick their own rate-limit key.
		r.Use(chimiddleware.RealIP)
	}
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authMw := appmiddleware.Auth(deps.JWTProvider)
	creatorsOnly := appmiddleware.RequireRole(domain.RoleArtist, domain.RolePlanner)

	// 5 requests/second, burst of 10, per client IP on the login endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	var notifier publish.Notifier
	if deps.Notifier != nil {
		notifier = deps.Notifier
	}

	otpSvc := otp.NewService(otp.ServiceDeps{
		CodeRepo:        deps.OTPRepo,
		UserRepo:        deps.UserRepo,
		SessionRepo:     deps.SessionRepo,
		Mailer:          deps.Mailer,
		JWTProvider:     deps.JWTProvider,
		CodeTTL:         cfg.OTPTTL,
		MaxAttempts:     cfg.OTPMaxAttempts,
		RefreshTokenDur: cfg.RefreshTokenDur,
	})
	sessionSvc := session.NewService(session.ServiceDeps{
		SessionRepo:     deps.SessionRepo,
		UserRepo:        deps.UserRepo,
		JWTProvider:     deps.JWTProvider,
		RefreshTokenDur: cfg.RefreshTokenDur,
	})
	eventSvc := event.NewService(deps.EventRepo)
	publishSvc := publish.NewService(publish.ServiceDeps{
		EventRepo:       deps.EventRepo,
		Notifier:        notifier,
		Policy:          publish.Policy{PlannerFreeQuota: cfg.PlannerFreeQuota},
		PublishFeeCents: cfg.PublishFeeCents,
		Currency:        cfg.Currency,
	})
	checkoutSvc := checkout.NewService(checkout.ServiceDeps{
		EventRepo:   deps.EventRepo,
		PaymentRepo: deps.PaymentRepo,
		Processor:   deps.Checkout,
		Pricing: checkout.Pricing{
			PublishFeeCents: cfg.PublishFeeCents,
			PromoFeeCents:   cfg.PromoFeeCents,
			Currency:        cfg.Currency,
		},
		SuccessURL: cfg.CheckoutSuccessURL,
		CancelURL:  cfg.CheckoutCancelURL,
	})
	reconcilerDeps := webhook.ReconcilerDeps{
		Verifier:    deps.WebhookVerifier,
		EventRepo:   deps.EventRepo,
		PaymentRepo: deps.PaymentRepo,
	}
	if deps.Archive != nil {
		reconcilerDeps.Archive = deps.Archive
	}
	if notifier != nil {
		reconcilerDeps.Notifier = notifier
	}
	reconciler := webhook.NewReconciler(reconcilerDeps)

	healthH := handler.NewHealthHandler(deps.StoreReady)
	otpH := handler.NewOTPHandler(otpSvc)
	sessionH := handler.NewSessionHandler(sessionSvc)
	eventH := handler.NewEventHandler(eventSvc)
	publishH := handler.NewPublishHandler(publishSvc, cfg.PublishFeeCents, cfg.Currency)
	checkoutH := handler.NewCheckoutHandler(checkoutSvc)
	webhookH := handler.NewWebhookHandler(reconciler)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/auth/otp/request", otpH.Request)
		r.With(sensitiveRL.Limit).Post("/auth/otp/verify", otpH.Verify)
		r.Post("/sessions/refresh", sessionH.Refresh)
		r.Post("/webhooks/stripe", webhookH.Stripe)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/sessions", sessionH.GetCurrent)
			r.Post("/sessions/logout", sessionH.Logout)
			r.Get("/events/{id}", eventH.Get)
			r.Get("/events/{id}/status", eventH.Status)

			// Event owners
			r.Group(func(r chi.Router) {
				r.Use(creatorsOnly)

				r.Post("/events", eventH.Create)
				r.Get("/events", eventH.ListMine)
				r.Get("/publish/eligibility", publishH.Eligibility)
				r.Post("/events/{id}/publish", publishH.Publish)
				r.Post("/checkout", checkoutH.Open)
				r.Post("/checkout/promo", checkoutH.OpenPromo)
				r.Get("/events/{id}/payments", checkoutH.Payments)
				r.Get("/checkout/{session_id}", checkoutH.Payment)
			})
		})
	})

	return r
}
