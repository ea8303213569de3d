package userstore

import (
	"context"
	"errors"

	"github.com/unisynhq/unisyn-web/app/models"
)

// ErrNotFound is returned when no record exists for the given email.
var ErrNotFound = errors.New("userstore: record not found")

// SubscriptionUpdate names the fields a single webhook event is allowed to
// touch. Empty fields are omitted from the write entirely, so a concurrent
// event can never be clobbered by a field it did not set.
type SubscriptionUpdate struct {
	SubscriptionStatus string
	SubscriptionID     string
	PriceID            string
	LastPaymentAt      string
}

// Fields returns the non-empty attributes of the update keyed by their
// storage attribute name.
func (u SubscriptionUpdate) Fields() map[string]string {
	fields := make(map[string]string, 4)
	if u.SubscriptionStatus != "" {
		fields["subscriptionStatus"] = u.SubscriptionStatus
	}
	if u.SubscriptionID != "" {
		fields["subscriptionId"] = u.SubscriptionID
	}
	if u.PriceID != "" {
		fields["priceId"] = u.PriceID
	}
	if u.LastPaymentAt != "" {
		fields["lastPaymentAt"] = u.LastPaymentAt
	}
	return fields
}

// IsEmpty reports whether the update carries no fields at all.
func (u SubscriptionUpdate) IsEmpty() bool {
	return len(u.Fields()) == 0
}

// Store persists per-customer subscription state keyed by email.
type Store interface {
	// UpsertMerge merges the update's named fields into the record
	// identified by email, creating the record when absent and always
	// stamping updatedAt. Fields absent from the update stay untouched.
	UpsertMerge(ctx context.Context, email string, update SubscriptionUpdate) error

	// Get returns the current record or ErrNotFound.
	Get(ctx context.Context, email string) (*models.SubscriptionRecord, error)
}
