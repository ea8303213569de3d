package userstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreUpsertMerge(t *testing.T) {
	store := NewMemoryStore()
	store.nowFn = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	_, err := store.Get(ctx, "a@x.com")
	assert.ErrorIs(t, err, ErrNotFound)

	err = store.UpsertMerge(ctx, "a@x.com", SubscriptionUpdate{
		SubscriptionStatus: "active",
		SubscriptionID:     "sub_1",
		PriceID:            "pri_1",
	})
	require.NoError(t, err)

	rec, err := store.Get(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", rec.Email)
	assert.Equal(t, "active", rec.SubscriptionStatus)
	assert.Equal(t, "sub_1", rec.SubscriptionID)
	assert.Equal(t, "pri_1", rec.PriceID)
	assert.Equal(t, "2024-05-01T12:00:00Z", rec.UpdatedAt)

	// A later event only touches its own fields.
	store.nowFn = func() time.Time { return time.Date(2024, 5, 2, 9, 30, 0, 0, time.UTC) }
	err = store.UpsertMerge(ctx, "a@x.com", SubscriptionUpdate{LastPaymentAt: "2024-05-02T09:29:00Z"})
	require.NoError(t, err)

	rec, err = store.Get(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "active", rec.SubscriptionStatus)
	assert.Equal(t, "sub_1", rec.SubscriptionID)
	assert.Equal(t, "2024-05-02T09:29:00Z", rec.LastPaymentAt)
	assert.Equal(t, "2024-05-02T09:30:00Z", rec.UpdatedAt, "updatedAt is refreshed on every write")

	assert.Equal(t, 2, store.Writes())
}

func TestMemoryStoreRequiresEmail(t *testing.T) {
	store := NewMemoryStore()
	err := store.UpsertMerge(context.Background(), "  ", SubscriptionUpdate{SubscriptionStatus: "active"})
	assert.Error(t, err)
	assert.Equal(t, 0, store.Writes())
}

func TestSubscriptionUpdateFields(t *testing.T) {
	update := SubscriptionUpdate{
		SubscriptionStatus: "canceled",
		LastPaymentAt:      "2024-05-01T00:00:00Z",
	}
	fields := update.Fields()
	assert.Equal(t, map[string]string{
		"subscriptionStatus": "canceled",
		"lastPaymentAt":      "2024-05-01T00:00:00Z",
	}, fields)
	assert.False(t, update.IsEmpty())
	assert.True(t, SubscriptionUpdate{}.IsEmpty())
}
