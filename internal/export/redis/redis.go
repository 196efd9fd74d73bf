// Package redis keeps failed export deliveries so they can be replayed.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tewans-kitchen/pos/internal/export"
	"go.uber.org/zap"
)

// KeyPrefix starts every dead-letter key.
const KeyPrefix = "export:failed"

// Setter is the part of *redis.Client the queue needs.
type Setter interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// Connect connects to the redis db and returns the client.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return nil, err
	}
	return rdb, nil
}

// DeadLetterQueue stores each failed delivery under
// "export:failed:{sink}:{transaction_id}". A later failure for the same sink
// and transaction overwrites the earlier one.
type DeadLetterQueue struct {
	client Setter
	ttl    time.Duration
	logger *zap.Logger
}

// NewDeadLetterQueue creates the queue. A zero ttl keeps entries until they
// are removed.
func NewDeadLetterQueue(client Setter, ttl time.Duration, logger *zap.Logger) *DeadLetterQueue {
	return &DeadLetterQueue{client: client, ttl: ttl, logger: logger}
}

// Key returns the key a failure is stored under.
func Key(sink, transactionID string) string {
	return fmt.Sprintf("%s:%s:%s", KeyPrefix, sink, transactionID)
}

func (q *DeadLetterQueue) Store(ctx context.Context, f export.FailedDelivery) error {
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal failed delivery: %w", err)
	}

	key := Key(f.Sink, f.Payload.ID)
	if err := q.client.Set(ctx, key, data, q.ttl).Err(); err != nil {
		return fmt.Errorf("store %s: %w", key, err)
	}

	q.logger.Info("stored failed delivery", zap.String("key", key))
	return nil
}
