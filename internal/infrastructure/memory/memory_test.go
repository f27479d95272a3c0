package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/beatbookings/publish-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func draft(id, creator string) *domain.Event {
	return &domain.Event{EventID: id, CreatorID: creator, CreatorRole: domain.RolePlanner, Status: domain.EventStatusDraft}
}

func TestEventRepo_Publish_OnlyFromDraft(t *testing.T) {
	ctx := context.Background()
	r := NewEventRepo()
	require.NoError(t, r.Create(ctx, draft("e1", "u1")))

	req := domain.PublishRequest{EventID: "e1", CreatorID: "u1", Via: domain.PublishedViaPayment, At: time.Now()}
	require.NoError(t, r.Publish(ctx, req))
	err := r.Publish(ctx, req)
	assert.True(t, errors.Is(err, domain.ErrConflict))

	n, _ := r.CountPublished(ctx)
	assert.Equal(t, 1, n)
}

func TestEventRepo_Publish_WrongCreator(t *testing.T) {
	ctx := context.Background()
	r := NewEventRepo()
	require.NoError(t, r.Create(ctx, draft("e1", "u1")))

	err := r.Publish(ctx, domain.PublishRequest{EventID: "e1", CreatorID: "u2", At: time.Now()})
	assert.True(t, errors.Is(err, domain.ErrConflict))
	e, _ := r.Get(ctx, "e1")
	assert.Equal(t, domain.EventStatusDraft, e.Status)
}

func TestEventRepo_Publish_QuotaIsAtomic(t *testing.T) {
	ctx := context.Background()
	r := NewEventRepo()
	const planners = 20
	for i := 0; i < planners; i++ {
		require.NoError(t, r.Create(ctx, draft(string(rune('a'+i)), string(rune('A'+i)))))
	}

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < planners; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := r.Publish(ctx, domain.PublishRequest{
				EventID: string(rune('a' + i)), CreatorID: string(rune('A' + i)),
				Via: domain.PublishedViaFree, PlatformQuota: 1, At: time.Now(),
			})
			if err == nil {
				atomic.AddInt32(&wins, 1)
				return
			}
			var qe *domain.QuotaExceededError
			assert.True(t, errors.As(err, &qe))
		}(i)
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins)
}

func TestOTPRepo_ConsumeIsSingleUse(t *testing.T) {
	ctx := context.Background()
	r := NewOTPRepo()
	now := time.Now()
	require.NoError(t, r.Put(ctx, &domain.OneTimeCode{Email: "a@b.com", CodeHash: "h1", ExpiresAt: now.Add(time.Minute).Unix()}))

	require.NoError(t, r.Consume(ctx, "a@b.com", "h1", now))
	assert.True(t, errors.Is(r.Consume(ctx, "a@b.com", "h1", now), domain.ErrConflict))
}

func TestOTPRepo_ConsumeRejectsReplacedOrExpired(t *testing.T) {
	ctx := context.Background()
	r := NewOTPRepo()
	now := time.Now()
	require.NoError(t, r.Put(ctx, &domain.OneTimeCode{Email: "a@b.com", CodeHash: "h2", ExpiresAt: now.Add(time.Minute).Unix()}))

	assert.True(t, errors.Is(r.Consume(ctx, "a@b.com", "h1", now), domain.ErrConflict))
	assert.True(t, errors.Is(r.Consume(ctx, "a@b.com", "h2", now.Add(2*time.Minute)), domain.ErrConflict))
}

func TestPaymentRepo_ResolveOnlyFromPending(t *testing.T) {
	ctx := context.Background()
	r := NewPaymentRepo()
	require.NoError(t, r.Put(ctx, &domain.PendingPayment{CheckoutSessionID: "cs_1", EventID: "e1", Status: domain.PaymentStatusPending}))

	require.NoError(t, r.Resolve(ctx, "cs_1", domain.PaymentStatusCompleted))
	assert.True(t, errors.Is(r.Resolve(ctx, "cs_1", domain.PaymentStatusFailed), domain.ErrConflict))
	assert.True(t, errors.Is(r.Resolve(ctx, "cs_missing", domain.PaymentStatusCompleted), domain.ErrConflict))

	p, err := r.Get(ctx, "cs_1")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusCompleted, p.Status)
}

func TestSessionRepo_RotateRequiresCurrentToken(t *testing.T) {
	ctx := context.Background()
	r := NewSessionRepo()
	require.NoError(t, r.Put(ctx, &domain.Session{SessionID: "s1", UserID: "u1", Enable: true, RefreshToken: "t1"}))

	require.NoError(t, r.RotateRefreshToken(ctx, "s1", "t1", "t2", time.Now().Add(time.Hour).Unix()))
	err := r.RotateRefreshToken(ctx, "s1", "t1", "t3", time.Now().Add(time.Hour).Unix())
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	got, err := r.GetByRefreshToken(ctx, "t2")
	require.NoError(t, err)
	assert.Equal(t, "s1", got.SessionID)
}

func TestSessionRepo_RotateRejectsDisabled(t *testing.T) {
	ctx := context.Background()
	r := NewSessionRepo()
	require.NoError(t, r.Put(ctx, &domain.Session{SessionID: "s1", UserID: "u1", Enable: true, RefreshToken: "t1"}))
	require.NoError(t, r.Disable(ctx, "s1"))

	err := r.RotateRefreshToken(ctx, "s1", "t1", "t2", time.Now().Add(time.Hour).Unix())
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
