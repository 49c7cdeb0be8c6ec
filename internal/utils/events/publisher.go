package events

import (
	"context"
	"encoding/json"
	"time"

	"stash-backend/domain"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type (
	// Publisher delivers a JSON payload to a named topic.
	Publisher interface {
		Publish(ctx context.Context, topic string, payload any) error
	}

	redisPublisher struct {
		client *redis.Client
	}

	nopPublisher struct{}
)

// NewRedisClient connects to Redis, retrying the initial ping a few times.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	zapLog := zap.L().With(zap.String("addr", addr), zap.Int("db", db))

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	var err error
	for i := 0; i < 5; i++ {
		if err = rdb.Ping(ctx).Err(); err == nil {
			zapLog.Info("[Redis] Connected to Redis")
			return rdb, nil
		}
		zapLog.Warn("[Redis] Redis not ready, retrying in 2 seconds...", zap.Int("retry", i+1), zap.Error(err))
		select {
		case <-ctx.Done():
			_ = rdb.Close()
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
	_ = rdb.Close()
	return nil, err
}

func NewRedisPublisher(client *redis.Client) Publisher {
	return &redisPublisher{client: client}
}

func (p *redisPublisher) Publish(ctx context.Context, topic string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if err := p.client.Publish(ctx, topic, data).Err(); err != nil {
		return domain.NewUpstreamError("redis", err)
	}
	return nil
}

// NewNopPublisher returns a publisher that drops every message.
func NewNopPublisher() Publisher {
	return nopPublisher{}
}

func (nopPublisher) Publish(ctx context.Context, topic string, payload any) error {
	zap.L().Debug("event dropped, no broker configured", zap.String("topic", topic))
	return nil
}
