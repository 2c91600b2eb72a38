package sink

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultHistory is how many snapshots per record type are kept in the backup list.
const DefaultHistory = 100

// Redis publishes to a pub/sub channel and keeps a capped list per record type.
type Redis struct {
	client  *redis.Client
	channel string
	history int64
}

func NewRedis(ctx context.Context, addr string, db int, channel string) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("sink: connect redis %s: %w", addr, err)
	}
	return &Redis{client: client, channel: channel, history: DefaultHistory}, nil
}

func (r *Redis) Publish(ctx context.Context, key string, payload []byte) error {
	listKey := r.channel + ":" + key
	pipe := r.client.Pipeline()
	pipe.Publish(ctx, r.channel, payload)
	pipe.LPush(ctx, listKey, payload)
	pipe.LTrim(ctx, listKey, 0, r.history-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("sink: publish %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
