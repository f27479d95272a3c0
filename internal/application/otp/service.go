package otp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/beatbookings/publish-api/internal/domain"
	"github.com/beatbookings/publish-api/internal/pkg/id"
	"github.com/beatbookings/publish-api/internal/pkg/otpcode"
	pkgtoken "github.com/beatbookings/publish-api/internal/pkg/token"
)

// errInvalidCode is the single answer for every verification failure.
var errInvalidCode = fmt.Errorf("invalid or expired code: %w", domain.ErrUnauthorized)

type IssueRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
}

type VerifyRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
	OTP   string `json:"otp" validate:"required,len=6,numeric"`
	Role  string `json:"role" validate:"omitempty,creator_role"`
}

type VerifyResult struct {
	Bearer       string
	RefreshToken string
	Session      *domain.Session
}

type Service interface {
	Issue(ctx context.Context, req IssueRequest) error
	Verify(ctx context.Context, req VerifyRequest) (*VerifyResult, error)
}

type codeStore interface {
	Put(ctx context.Context, c *domain.OneTimeCode) error
	Get(ctx context.Context, email string) (*domain.OneTimeCode, error)
	Consume(ctx context.Context, email, codeHash string, now time.Time) error
	RecordFailure(ctx context.Context, email, codeHash string) (int, error)
	Delete(ctx context.Context, email, codeHash string) error
}

type userStore interface {
	Create(ctx context.Context, u *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type sessionStore interface {
	Put(ctx context.Context, s *domain.Session) error
}

type tokenSigner interface {
	Sign(userID, email, role, sessionID string) (string, error)
}

type mailer interface {
	SendEmail(to, subject, body string) error
}

// ServiceDeps holds all dependencies for the OTP service.
type ServiceDeps struct {
	CodeRepo        codeStore
	UserRepo        userStore
	SessionRepo     sessionStore
	Mailer          mailer
	JWTProvider     tokenSigner
	CodeTTL         time.Duration
	MaxAttempts     int
	RefreshTokenDur time.Duration
	Now             func() time.Time
}

type service struct {
	codeRepo        codeStore
	userRepo        userStore
	sessionRepo     sessionStore
	mailer          mailer
	jwtProvider     tokenSigner
	codeTTL         time.Duration
	maxAttempts     int
	refreshTokenDur time.Duration
	now             func() time.Time
	compare         func(stored, code string) bool
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		codeRepo:        deps.CodeRepo,
		userRepo:        deps.UserRepo,
		sessionRepo:     deps.SessionRepo,
		mailer:          deps.Mailer,
		jwtProvider:     deps.JWTProvider,
		codeTTL:         deps.CodeTTL,
		maxAttempts:     deps.MaxAttempts,
		refreshTokenDur: deps.RefreshTokenDur,
		now:             deps.Now,
		compare:         otpcode.Matches,
	}
	if s.codeTTL <= 0 {
		s.codeTTL = 10 * time.Minute
	}
	if s.maxAttempts <= 0 {
		s.maxAttempts = 5
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Issue replaces any live code for the email and mails the new one.
func (s *service) Issue(ctx context.Context, req IssueRequest) error {
	email := normalizeEmail(req.Email)
	if email == "" {
		return fmt.Errorf("email required: %w", domain.ErrBadRequest)
	}
	code, err := otpcode.Generate()
	if err != nil {
		return err
	}
	hash, err := otpcode.Hash(code)
	if err != nil {
		return err
	}
	now := s.now().UTC()
	rec := &domain.OneTimeCode{
		Email:     email,
		CodeHash:  hash,
		ExpiresAt: now.Add(s.codeTTL).Unix(),
		Attempts:  0,
		CreatedAt: now,
	}
	if err := s.codeRepo.Put(ctx, rec); err != nil {
		return fmt.Errorf("store one-time code: %w", err)
	}

	body := fmt.Sprintf("Your BeatBookings login code is %s.\r\n\r\nIt expires in %d minutes. If you did not request it you can ignore this email.",
		code, int(s.codeTTL.Minutes()))
	if err := s.mailer.SendEmail(email, "Your login code", body); err != nil {
		slog.Error("otp delivery failed", "email", email, "err", err)
		return fmt.Errorf("deliver login code: %w", domain.ErrUpstream)
	}
	return nil
}

// Verify consumes a live code and mints a session for the email's identity.
// All rejections return the same error.
func (s *service) Verify(ctx context.Context, req VerifyRequest) (*VerifyResult, error) {
	email := normalizeEmail(req.Email)
	now := s.now().UTC()

	rec, err := s.codeRepo.Get(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		s.compare(otpcode.DecoyHash(), req.OTP)
		return nil, errInvalidCode
	}
	if err != nil {
		return nil, fmt.Errorf("load one-time code: %w", err)
	}
	if rec.Expired(now) {
		if err := s.codeRepo.Delete(ctx, email, rec.CodeHash); err != nil {
			slog.Warn("failed to purge expired one-time code", "email", email, "err", err)
		}
		s.compare(otpcode.DecoyHash(), req.OTP)
		return nil, errInvalidCode
	}
	if rec.Attempts >= s.maxAttempts {
		s.compare(otpcode.DecoyHash(), req.OTP)
		return nil, errInvalidCode
	}
	if !s.compare(rec.CodeHash, req.OTP) {
		s.recordFailure(ctx, email, rec.CodeHash)
		return nil, errInvalidCode
	}
	if err := s.codeRepo.Consume(ctx, email, rec.CodeHash, now); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, errInvalidCode
		}
		return nil, fmt.Errorf("consume one-time code: %w", err)
	}

	u, err := s.resolveIdentity(ctx, email, req.Role, now)
	if err != nil {
		return nil, err
	}
	return s.mintSession(ctx, u, now)
}

func (s *service) recordFailure(ctx context.Context, email, codeHash string) {
	attempts, err := s.codeRepo.RecordFailure(ctx, email, codeHash)
	if err != nil {
		if !errors.Is(err, domain.ErrConflict) {
			slog.Warn("failed to record otp attempt", "email", email, "err", err)
		}
		return
	}
	if attempts >= s.maxAttempts {
		slog.Info("otp attempts exhausted, purging code", "email", email)
		if err := s.codeRepo.Delete(ctx, email, codeHash); err != nil {
			slog.Warn("failed to purge exhausted one-time code", "email", email, "err", err)
		}
	}
}

// resolveIdentity returns the identity for email, creating it on first login.
// A lost create race falls back to the winner's record.
func (s *service) resolveIdentity(ctx context.Context, email, role string, now time.Time) (*domain.User, error) {
	u, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("load identity: %w", err)
	}
	if !domain.ValidRole(role) {
		role = domain.RoleArtist
	}
	u = &domain.User{UserID: id.New(), Email: email, Role: role, CreatedAt: now}
	if err := s.userRepo.Create(ctx, u); err != nil {
		if !errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("create identity: %w", err)
		}
		return s.userRepo.GetByEmail(ctx, email)
	}
	slog.Info("identity created", "user_id", u.UserID, "role", u.Role)
	return u, nil
}

func (s *service) mintSession(ctx context.Context, u *domain.User, now time.Time) (*VerifyResult, error) {
	refreshToken, err := pkgtoken.NewRefreshToken()
	if err != nil {
		return nil, err
	}
	sess := &domain.Session{
		SessionID:        id.New(),
		UserID:           u.UserID,
		Enable:           true,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: now.Add(s.refreshTokenDur).Unix(),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.sessionRepo.Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	bearer, err := s.jwtProvider.Sign(u.UserID, u.Email, u.Role, sess.SessionID)
	if err != nil {
		return nil, fmt.Errorf("sign bearer: %w", err)
	}
	sess.User = u
	return &VerifyResult{Bearer: bearer, RefreshToken: refreshToken, Session: sess}, nil
}
