package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const miningEventsChannel = "mining:events"

// EventPublisher publishes mining lifecycle events for the web front-end's
// realtime panels (picked up by the WebSocket gateway).
type EventPublisher interface {
	PublishMiningStarted(ctx context.Context, userID uint64) error
	PublishMiningStopped(ctx context.Context, userID uint64, reason string) error
	PublishBalanceReconciled(ctx context.Context, userID uint64, accumulatedTokens float64) error
	Close() error
}

type redisPublisher struct {
	client *redis.Client
}

// NewRedisPublisher creates a new Redis publisher
func NewRedisPublisher(redisURL string) (EventPublisher, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	// Test connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &redisPublisher{
		client: client,
	}, nil
}

// MiningEvent is the wire format on the mining events channel.
type MiningEvent struct {
	Type              string  `json:"type"`
	UserID            uint64  `json:"user_id"`
	Reason            string  `json:"reason,omitempty"`
	AccumulatedTokens float64 `json:"accumulated_tokens,omitempty"`
}

func (p *redisPublisher) PublishMiningStarted(ctx context.Context, userID uint64) error {
	return p.publish(ctx, MiningEvent{Type: "mining.started", UserID: userID})
}

func (p *redisPublisher) PublishMiningStopped(ctx context.Context, userID uint64, reason string) error {
	return p.publish(ctx, MiningEvent{Type: "mining.stopped", UserID: userID, Reason: reason})
}

func (p *redisPublisher) PublishBalanceReconciled(ctx context.Context, userID uint64, accumulatedTokens float64) error {
	return p.publish(ctx, MiningEvent{Type: "mining.reconciled", UserID: userID, AccumulatedTokens: accumulatedTokens})
}

func (p *redisPublisher) publish(ctx context.Context, event MiningEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.client.Publish(ctx, miningEventsChannel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

func (p *redisPublisher) Close() error {
	return p.client.Close()
}
