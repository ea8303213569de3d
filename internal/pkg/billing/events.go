package billing

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/unisynhq/unisyn-web/app/models"
	"github.com/unisynhq/unisyn-web/internal/pkg/userstore"
)

// Paddle event types this service reacts to. Everything else is acknowledged
// and ignored so new provider event types never break the endpoint.
const (
	EventSubscriptionCreated  = "subscription.created"
	EventPaymentSucceeded     = "payment.succeeded"
	EventSubscriptionCanceled = "subscription.canceled"
)

// PaddleEvent is the flattened view of a webhook envelope, carrying only the
// fields the applier needs.
type PaddleEvent struct {
	EventType       string
	EventID         string
	CustomerEmail   string
	SubscriptionID  string
	PriceID         string
	CreatedAtMillis int64
}

// ParsePaddleEvent parses a webhook envelope ({event_type, event_id?, data}).
// Missing nested fields are left zero, never treated as an error; only an
// unparseable envelope fails.
func ParsePaddleEvent(payload []byte) (*PaddleEvent, error) {
	var raw struct {
		EventType string `json:"event_type"`
		EventID   string `json:"event_id"`
		Data      struct {
			ID        string `json:"id"`
			CreatedAt int64  `json:"created_at"`
			Customer  struct {
				Email string `json:"email"`
			} `json:"customer"`
			Items []struct {
				Price struct {
					ID string `json:"id"`
				} `json:"price"`
			} `json:"items"`
		} `json:"data"`
	}

	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, err
	}

	out := &PaddleEvent{
		EventType:       strings.TrimSpace(raw.EventType),
		EventID:         strings.TrimSpace(raw.EventID),
		CustomerEmail:   strings.TrimSpace(raw.Data.Customer.Email),
		SubscriptionID:  strings.TrimSpace(raw.Data.ID),
		CreatedAtMillis: raw.Data.CreatedAt,
	}
	if len(raw.Data.Items) > 0 {
		out.PriceID = strings.TrimSpace(raw.Data.Items[0].Price.ID)
	}
	return out, nil
}

// ApplyPaddleEvent maps a verified event onto a single upsert-merge against
// the user store. Unknown event types and events without a customer email
// are no-ops.
func ApplyPaddleEvent(ctx context.Context, store userstore.Store, event *PaddleEvent) error {
	return applyPaddleEventAt(ctx, store, event, time.Now())
}

func applyPaddleEventAt(ctx context.Context, store userstore.Store, event *PaddleEvent, now time.Time) error {
	update, recognized := eventUpdate(event, now)
	if !recognized {
		return nil
	}
	if event.CustomerEmail == "" {
		// Without the key there is nothing safe to write.
		return nil
	}
	return store.UpsertMerge(ctx, event.CustomerEmail, update)
}

func eventUpdate(event *PaddleEvent, now time.Time) (userstore.SubscriptionUpdate, bool) {
	switch event.EventType {
	case EventSubscriptionCreated:
		return userstore.SubscriptionUpdate{
			SubscriptionStatus: models.SubscriptionStatusActive,
			SubscriptionID:     event.SubscriptionID,
			PriceID:            event.PriceID,
		}, true
	case EventPaymentSucceeded:
		paidAt := now
		if event.CreatedAtMillis > 0 {
			paidAt = time.UnixMilli(event.CreatedAtMillis)
		}
		return userstore.SubscriptionUpdate{
			LastPaymentAt: paidAt.UTC().Format(time.RFC3339),
		}, true
	case EventSubscriptionCanceled:
		return userstore.SubscriptionUpdate{
			SubscriptionStatus: models.SubscriptionStatusCanceled,
		}, true
	default:
		return userstore.SubscriptionUpdate{}, false
	}
}
