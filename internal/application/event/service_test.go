package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/beatbookings/publish-api/internal/domain"
	"github.com/beatbookings/publish-api/internal/infrastructure/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	owner    = domain.Caller{UserID: "u-owner", Email: "o@example.com", Role: domain.RolePlanner}
	stranger = domain.Caller{UserID: "u-other", Email: "x@example.com", Role: domain.RoleArtist}
)

func TestCreateDraft_StampsCallerAsCreator(t *testing.T) {
	svc := NewService(memory.NewEventRepo())
	e, err := svc.CreateDraft(context.Background(), owner, domain.CreateEventRequest{Title: "  Friday Jazz "})
	require.NoError(t, err)

	assert.NotEmpty(t, e.EventID)
	assert.Equal(t, "u-owner", e.CreatorID)
	assert.Equal(t, domain.RolePlanner, e.CreatorRole)
	assert.Equal(t, domain.EventStatusDraft, e.Status)
	assert.Equal(t, "Friday Jazz", e.Title)
	assert.Nil(t, e.PublishedAt)
}

func TestCreateDraft_UnknownRole_Forbidden(t *testing.T) {
	svc := NewService(memory.NewEventRepo())
	_, err := svc.CreateDraft(context.Background(), domain.Caller{UserID: "u", Role: "admin"}, domain.CreateEventRequest{Title: "x"})
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

func TestGet_DraftHiddenFromOthers(t *testing.T) {
	svc := NewService(memory.NewEventRepo())
	ctx := context.Background()
	e, err := svc.CreateDraft(ctx, owner, domain.CreateEventRequest{Title: "Gig"})
	require.NoError(t, err)

	got, err := svc.Get(ctx, owner, e.EventID)
	require.NoError(t, err)
	assert.Equal(t, e.EventID, got.EventID)

	_, err = svc.Get(ctx, stranger, e.EventID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestStatus(t *testing.T) {
	repo := memory.NewEventRepo()
	svc := NewService(repo)
	ctx := context.Background()
	e, err := svc.CreateDraft(ctx, owner, domain.CreateEventRequest{Title: "Gig"})
	require.NoError(t, err)

	v, err := svc.Status(ctx, owner, e.EventID)
	require.NoError(t, err)
	assert.Equal(t, domain.EventStatusDraft, v.Status)

	_, err = svc.Status(ctx, owner, "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestStatus_DraftHiddenFromOthers(t *testing.T) {
	repo := memory.NewEventRepo()
	svc := NewService(repo)
	ctx := context.Background()
	e, err := svc.CreateDraft(ctx, owner, domain.CreateEventRequest{Title: "Gig"})
	require.NoError(t, err)

	_, err = svc.Status(ctx, stranger, e.EventID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, repo.Publish(ctx, domain.PublishRequest{EventID: e.EventID, CreatorID: owner.UserID, Via: domain.PublishedViaFree, At: time.Now()}))
	v, err := svc.Status(ctx, stranger, e.EventID)
	require.NoError(t, err)
	assert.Equal(t, domain.EventStatusPublished, v.Status)
}

func TestListMine_OnlyCallersEventsNewestFirst(t *testing.T) {
	svc := NewService(memory.NewEventRepo())
	ctx := context.Background()
	first, err := svc.CreateDraft(ctx, owner, domain.CreateEventRequest{Title: "First"})
	require.NoError(t, err)
	second, err := svc.CreateDraft(ctx, owner, domain.CreateEventRequest{Title: "Second"})
	require.NoError(t, err)
	_, err = svc.CreateDraft(ctx, stranger, domain.CreateEventRequest{Title: "Theirs"})
	require.NoError(t, err)

	list, err := svc.ListMine(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.EventID, list[0].EventID)
	assert.Equal(t, first.EventID, list[1].EventID)

	_, err = svc.ListMine(ctx, domain.Caller{})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
