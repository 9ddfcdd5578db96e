package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rkoshti/cliptube-be/internal/apperr"
)

func TestToggleSubscription(t *testing.T) {
	db := testDB(t)
	seedUser(t, db, "u-1", "ab")
	seedUser(t, db, "u-2", "cd")
	svc := NewSubscriptionService(db)
	ctx := context.Background()

	subscribed, err := svc.Toggle(ctx, "u-1", "u-2")
	require.NoError(t, err)
	assert.True(t, subscribed)

	got, err := svc.IsSubscribed(ctx, "u-1", "u-2")
	require.NoError(t, err)
	assert.True(t, got)

	// Toggling again unsubscribes.
	subscribed, err = svc.Toggle(ctx, "u-1", "u-2")
	require.NoError(t, err)
	assert.False(t, subscribed)

	got, err = svc.IsSubscribed(ctx, "u-1", "u-2")
	require.NoError(t, err)
	assert.False(t, got)
}

func TestToggleSelfSubscription(t *testing.T) {
	db := testDB(t)
	seedUser(t, db, "u-1", "ab")
	svc := NewSubscriptionService(db)

	_, err := svc.Toggle(context.Background(), "u-1", "u-1")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestToggleUnknownChannel(t *testing.T) {
	db := testDB(t)
	seedUser(t, db, "u-1", "ab")
	svc := NewSubscriptionService(db)

	_, err := svc.Toggle(context.Background(), "u-1", "ghost")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestSubscriptionCounts(t *testing.T) {
	db := testDB(t)
	seedUser(t, db, "u-1", "ab")
	seedUser(t, db, "u-2", "cd")
	seedUser(t, db, "u-3", "ef")
	svc := NewSubscriptionService(db)
	ctx := context.Background()

	_, err := svc.Toggle(ctx, "u-2", "u-1")
	require.NoError(t, err)
	_, err = svc.Toggle(ctx, "u-3", "u-1")
	require.NoError(t, err)
	_, err = svc.Toggle(ctx, "u-1", "u-2")
	require.NoError(t, err)

	counts, err := svc.Counts(ctx, "u-1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, counts.Subscribers)
	assert.EqualValues(t, 1, counts.SubscribedTo)
}
