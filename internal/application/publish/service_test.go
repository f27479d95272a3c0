package publish

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/beatbookings/publish-api/internal/domain"
	"github.com/beatbookings/publish-api/internal/infrastructure/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) EventPublished(ctx context.Context, e *domain.Event, via string) error {
	return m.Called(ctx, e, via).Error(0)
}

func newSvc(repo *memory.EventRepo, n Notifier) Service {
	return NewService(ServiceDeps{
		EventRepo:       repo,
		Notifier:        n,
		Policy:          Policy{PlannerFreeQuota: 1},
		PublishFeeCents: 2500,
		Currency:        "aud",
	})
}

func seedDraft(t *testing.T, repo *memory.EventRepo, id string, creator domain.Caller) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, repo.Create(context.Background(), &domain.Event{
		EventID: id, CreatorID: creator.UserID, CreatorRole: creator.Role,
		Status: domain.EventStatusDraft, Title: id, CreatedAt: now, UpdatedAt: now,
	}))
}

var (
	plannerA = domain.Caller{UserID: "planner-a", Role: domain.RolePlanner}
	plannerB = domain.Caller{UserID: "planner-b", Role: domain.RolePlanner}
	artist   = domain.Caller{UserID: "artist-1", Role: domain.RoleArtist}
)

func TestEligibility_ReadsLiveCount(t *testing.T) {
	repo := memory.NewEventRepo()
	svc := newSvc(repo, nil)
	ctx := context.Background()

	v, err := svc.Eligibility(ctx, plannerA)
	require.NoError(t, err)
	assert.True(t, v.Allowed)
	assert.Equal(t, 0, v.PublishedCount)
	assert.Equal(t, int64(2500), v.Fee)

	seedDraft(t, repo, "e-artist", artist)
	_, err = svc.PublishFree(ctx, artist, "e-artist")
	require.NoError(t, err)

	v, err = svc.Eligibility(ctx, plannerA)
	require.NoError(t, err)
	assert.False(t, v.Allowed)
	assert.True(t, v.RequiresPayment)
	assert.Equal(t, 1, v.PublishedCount)
}

func TestPublishFree_Artist_AlwaysAllowed(t *testing.T) {
	repo := memory.NewEventRepo()
	n := &mockNotifier{}
	n.On("EventPublished", mock.Anything, mock.Anything, domain.PublishedViaFree).Return(nil)
	svc := newSvc(repo, n)
	ctx := context.Background()

	for _, id := range []string{"a1", "a2", "a3"} {
		seedDraft(t, repo, id, artist)
		e, err := svc.PublishFree(ctx, artist, id)
		require.NoError(t, err)
		assert.Equal(t, domain.EventStatusPublished, e.Status)
		assert.Equal(t, domain.PublishedViaFree, e.PublishedVia)
		require.NotNil(t, e.PublishedAt)
	}
	n.AssertNumberOfCalls(t, "EventPublished", 3)
}

func TestPublishFree_PlannerSecondPublish_QuotaExceeded(t *testing.T) {
	repo := memory.NewEventRepo()
	svc := newSvc(repo, nil)
	ctx := context.Background()

	seedDraft(t, repo, "p1", plannerA)
	seedDraft(t, repo, "p2", plannerB)

	_, err := svc.PublishFree(ctx, plannerA, "p1")
	require.NoError(t, err)

	_, err = svc.PublishFree(ctx, plannerB, "p2")
	require.Error(t, err)
	var qe *domain.QuotaExceededError
	require.True(t, errors.As(err, &qe))
	assert.Equal(t, 1, qe.PublishedCount)
	assert.True(t, errors.Is(err, domain.ErrPaymentRequired))

	e, err := repo.Get(ctx, "p2")
	require.NoError(t, err)
	assert.Equal(t, domain.EventStatusDraft, e.Status, "no mutation on quota failure")
}

func TestPublishFree_NotCreator_Forbidden(t *testing.T) {
	repo := memory.NewEventRepo()
	svc := newSvc(repo, nil)
	seedDraft(t, repo, "e1", plannerA)

	_, err := svc.PublishFree(context.Background(), plannerB, "e1")
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	e, _ := repo.Get(context.Background(), "e1")
	assert.Equal(t, domain.EventStatusDraft, e.Status)
}

func TestPublishFree_AlreadyPublished_Conflict(t *testing.T) {
	repo := memory.NewEventRepo()
	svc := newSvc(repo, nil)
	seedDraft(t, repo, "e1", artist)
	ctx := context.Background()

	_, err := svc.PublishFree(ctx, artist, "e1")
	require.NoError(t, err)
	_, err = svc.PublishFree(ctx, artist, "e1")
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestPublishFree_Missing_NotFound(t *testing.T) {
	_, err := newSvc(memory.NewEventRepo(), nil).PublishFree(context.Background(), artist, "nope")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestPublishFree_NotifierFailure_DoesNotFailPublish(t *testing.T) {
	repo := memory.NewEventRepo()
	n := &mockNotifier{}
	n.On("EventPublished", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("sns down"))
	seedDraft(t, repo, "e1", artist)

	e, err := newSvc(repo, n).PublishFree(context.Background(), artist, "e1")
	require.NoError(t, err)
	assert.Equal(t, domain.EventStatusPublished, e.Status)
}

func TestPublishFree_PlannersRaceForFreeSlot_OneWins(t *testing.T) {
	repo := memory.NewEventRepo()
	svc := newSvc(repo, nil)
	ctx := context.Background()

	const n = 10
	callers := make([]domain.Caller, n)
	for i := range callers {
		callers[i] = domain.Caller{UserID: "planner-" + string(rune('a'+i)), Role: domain.RolePlanner}
		seedDraft(t, repo, "ev-"+callers[i].UserID, callers[i])
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins, quota := 0, 0
	for _, c := range callers {
		wg.Add(1)
		go func(c domain.Caller) {
			defer wg.Done()
			_, err := svc.PublishFree(ctx, c, "ev-"+c.UserID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, domain.ErrPaymentRequired):
				quota++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(c)
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, n-1, quota)
	count, err := repo.CountPublished(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
