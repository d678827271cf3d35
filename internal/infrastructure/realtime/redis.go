package realtime

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/projectnexus/nexus/internal/application/ports"
	"github.com/projectnexus/nexus/internal/domain"
)

// Channel is the Redis pub/sub channel notifications travel on between the
// worker and API processes.
const Channel = "nexus:notifications"

// RedisPublisher publishes notification frames to Redis so that every API
// process can push them to its own connections.
type RedisPublisher struct {
	client *redis.Client
	log    zerolog.Logger
}

func NewRedisPublisher(client *redis.Client, log zerolog.Logger) *RedisPublisher {
	return &RedisPublisher{client: client, log: log}
}

func (p *RedisPublisher) Publish(n *domain.Notification) {
	msg, err := json.Marshal(newMessage(n))
	if err != nil {
		p.log.Warn().Err(err).Msg("encode notification frame")
		return
	}
	if err := p.client.Publish(context.Background(), Channel, msg).Err(); err != nil {
		p.log.Warn().Err(err).Str("recipient", n.Recipient.String()).Msg("publish notification")
	}
}

// Relay forwards frames from Redis into hub until ctx is done.
func Relay(ctx context.Context, client *redis.Client, hub *Hub, log zerolog.Logger) error {
	sub := client.Subscribe(ctx, Channel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var frame struct {
				Recipient string `json:"recipient"`
			}
			if err := json.Unmarshal([]byte(m.Payload), &frame); err != nil || frame.Recipient == "" {
				log.Warn().Err(err).Msg("dropping malformed notification frame")
				continue
			}
			hub.deliver(frame.Recipient, []byte(m.Payload))
		}
	}
}

var _ ports.NotificationPublisher = (*RedisPublisher)(nil)
