package userstore

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/unisynhq/unisyn-web/app/models"
)

// MemoryStore is a mutex-guarded in-process store used by tests and as a
// fallback when no external store is configured. Not suitable for more than
// one instance.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]models.SubscriptionRecord
	writes  int
	nowFn   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]models.SubscriptionRecord),
		nowFn:   time.Now,
	}
}

func (s *MemoryStore) UpsertMerge(ctx context.Context, email string, update SubscriptionUpdate) error {
	_ = ctx
	if strings.TrimSpace(email) == "" {
		return fmt.Errorf("userstore: email is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record := s.records[email]
	record.Email = email
	if update.SubscriptionStatus != "" {
		record.SubscriptionStatus = update.SubscriptionStatus
	}
	if update.SubscriptionID != "" {
		record.SubscriptionID = update.SubscriptionID
	}
	if update.PriceID != "" {
		record.PriceID = update.PriceID
	}
	if update.LastPaymentAt != "" {
		record.LastPaymentAt = update.LastPaymentAt
	}
	record.UpdatedAt = s.nowFn().UTC().Format(time.RFC3339)

	s.records[email] = record
	s.writes++
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, email string) (*models.SubscriptionRecord, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[email]
	if !ok {
		return nil, ErrNotFound
	}
	return &record, nil
}

// Writes returns how many upserts were performed. Used by tests to assert
// that skipped events produce no store call.
func (s *MemoryStore) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
