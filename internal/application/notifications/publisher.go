package notifications

import (
	"context"
	"encoding/json"

	"swifttasks-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Publisher fans new notifications out to realtime subscribers.
type Publisher interface {
	Publish(ctx context.Context, n *domain.Notification) error
}

// Channel is the Redis channel a user's notifications are published on.
func Channel(userID uuid.UUID) string {
	return "notifications:" + userID.String()
}

// RedisPublisher publishes notifications as JSON on the user's channel.
type RedisPublisher struct {
	Rdb *redis.Client
}

func (p *RedisPublisher) Publish(ctx context.Context, n *domain.Notification) error {
	if p == nil || p.Rdb == nil {
		return nil
	}
	b, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return p.Rdb.Publish(ctx, Channel(n.UserID), b).Err()
}
