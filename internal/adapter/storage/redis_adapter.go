package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/inventory-sale/internal/core/domain"
	"github.com/rl1809/inventory-sale/internal/port"
)

const (
	inflightKeyPrefix = "sale:inflight:"
	receiptKeyPrefix  = "sale:receipt:"
	requestKeyTTL     = 24 * time.Hour
)

// RedisAdapter deduplicates sale requests: an in-flight marker claims
// the request id, and the committed receipt is cached under the same
// id for a bounded window so retried requests replay their receipt.
type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

var _ port.IdempotencyStore = (*RedisAdapter)(nil)

func inflightKey(ownerID, requestID string) string {
	return inflightKeyPrefix + ownerID + ":" + requestID
}

func receiptKey(ownerID, requestID string) string {
	return receiptKeyPrefix + ownerID + ":" + requestID
}

func (r *RedisAdapter) SetInFlight(ctx context.Context, ownerID, requestID string) (bool, error) {
	ok, err := r.client.SetNX(ctx, inflightKey(ownerID, requestID), 1, requestKeyTTL).Result()
	if err != nil {
		return false, fmt.Errorf("set in-flight marker: %w", err)
	}
	return ok, nil
}

func (r *RedisAdapter) GetReceipt(ctx context.Context, ownerID, requestID string) (*domain.Receipt, bool, error) {
	payload, err := r.client.Get(ctx, receiptKey(ownerID, requestID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get cached receipt: %w", err)
	}

	var receipt domain.Receipt
	if err := json.Unmarshal(payload, &receipt); err != nil {
		return nil, false, fmt.Errorf("decode cached receipt: %w", err)
	}
	return &receipt, true, nil
}

func (r *RedisAdapter) CacheReceipt(ctx context.Context, ownerID, requestID string, receipt *domain.Receipt) error {
	payload, err := json.Marshal(receipt)
	if err != nil {
		return fmt.Errorf("encode receipt: %w", err)
	}
	if err := r.client.Set(ctx, receiptKey(ownerID, requestID), payload, requestKeyTTL).Err(); err != nil {
		return fmt.Errorf("cache receipt: %w", err)
	}
	return nil
}

func (r *RedisAdapter) Release(ctx context.Context, ownerID, requestID string) error {
	if err := r.client.Del(ctx, inflightKey(ownerID, requestID)).Err(); err != nil {
		return fmt.Errorf("release request id: %w", err)
	}
	return nil
}
