package userstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/unisynhq/unisyn-web/app/models"
)

const redisKeyPrefix = "user:"

// RedisStore keeps subscription records as Redis hashes, one hash per
// customer email. HSET gives the same field-level merge semantics the
// DynamoDB store has.
type RedisStore struct {
	client *redis.Client
	nowFn  func() time.Time
}

// NewRedisStore creates the store on an existing client (usually the shared
// cache connection).
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		nowFn:  time.Now,
	}
}

func (s *RedisStore) UpsertMerge(ctx context.Context, email string, update SubscriptionUpdate) error {
	if strings.TrimSpace(email) == "" {
		return fmt.Errorf("userstore: email is required")
	}

	fields := update.Fields()
	fields["email"] = email
	fields["updatedAt"] = s.nowFn().UTC().Format(time.RFC3339)

	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}

	if err := s.client.HSet(ctx, redisKeyPrefix+email, args...).Err(); err != nil {
		return fmt.Errorf("userstore: redis upsert for %s: %w", email, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, email string) (*models.SubscriptionRecord, error) {
	cmd := s.client.HGetAll(ctx, redisKeyPrefix+email)
	if err := cmd.Err(); err != nil {
		return nil, fmt.Errorf("userstore: redis get for %s: %w", email, err)
	}
	if len(cmd.Val()) == 0 {
		return nil, ErrNotFound
	}

	var record models.SubscriptionRecord
	if err := cmd.Scan(&record); err != nil {
		return nil, fmt.Errorf("userstore: scan record for %s: %w", email, err)
	}
	return &record, nil
}
