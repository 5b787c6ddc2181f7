package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"elderlink/internal/models"
	"elderlink/internal/utils"
)

func TestNotify_PersistsAndPushes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, user := f.user(models.RoleFamily)

	n, err := f.notifier.Notify(ctx, user.ID, models.NotificationSystem, "Welcome", "Hello", map[string]any{"k": "v"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"k":"v"}`, string(n.Data))
	assert.Equal(t, 1, f.pusher.Count(user.ID, EventNotification))

	count, err := f.notifier.UnreadCount(ctx, user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestNotifyMany_Dedupes(t *testing.T) {
	f := newFixture(t)
	_, a := f.user(models.RoleFamily)
	_, b := f.user(models.RoleDoctor)

	f.notifier.NotifyMany(context.Background(), []uuid.UUID{a.ID, b.ID, a.ID}, models.NotificationSystem, "t", "m", nil)
	assert.Len(t, f.notifications.For(a.ID), 1)
	assert.Len(t, f.notifications.For(b.ID), 1)
}

func TestNotifications_OwnerOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, owner := f.user(models.RoleFamily)
	_, other := f.user(models.RoleFamily)

	first, err := f.notifier.Notify(ctx, owner.ID, models.NotificationSystem, "one", "m", nil)
	require.NoError(t, err)
	_, err = f.notifier.Notify(ctx, owner.ID, models.NotificationSystem, "two", "m", nil)
	require.NoError(t, err)

	assert.ErrorIs(t, f.notifier.MarkRead(ctx, other.ID, first.ID), ErrNotFound)
	assert.ErrorIs(t, f.notifier.Delete(ctx, other.ID, first.ID), ErrNotFound)

	require.NoError(t, f.notifier.MarkRead(ctx, owner.ID, first.ID))
	unread, total, err := f.notifier.List(ctx, owner.ID, true, utils.Pagination{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "two", unread[0].Title)

	n, err := f.notifier.MarkAllRead(ctx, owner.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	require.NoError(t, f.notifier.Delete(ctx, owner.ID, first.ID))
	_, total, err = f.notifier.List(ctx, owner.ID, false, utils.Pagination{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestPush_WithoutPusher(t *testing.T) {
	s := NewNotificationService(nil, nil)
	assert.NotPanics(t, func() { s.Push(uuid.New(), EventNotification, nil) })
}
