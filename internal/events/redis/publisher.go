package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	interfaces "github.com/sheikh-saqib/ledger-replay/internal/interfaces"
)

// Publisher publishes JSON events on redis pub/sub channels.
// The topic passed to Publish is used as the channel name.
type Publisher struct {
	rdb *redis.Client
}

func NewPublisher(addr, password string) *Publisher {
	return &Publisher{
		rdb: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
	}
}

func (p *Publisher) Publish(ctx context.Context, topic string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := p.rdb.Publish(ctx, topic, payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.rdb.Close()
}

var _ interfaces.EventPublisher = (*Publisher)(nil)
