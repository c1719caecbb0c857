package realtime

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/johnquangdev/assembly-floor/internal/domain/entities"
	"github.com/johnquangdev/assembly-floor/pkg/retry"
)

var errSubscriptionClosed = errors.New("redis subscription closed")

// ResubscribePolicy retries a lost subscription indefinitely
var ResubscribePolicy = retry.Policy{
	InitialInterval: 500 * time.Millisecond,
	MaxInterval:     30 * time.Second,
}

// RedisNotifier publishes envelopes on a per-meeting channel so every
// replica's hub can deliver them
type RedisNotifier struct {
	client *redis.Client
	prefix string
	log    *zap.Logger
}

// NewRedisNotifier creates a notifier publishing on <prefix>:meeting:<id>
func NewRedisNotifier(client *redis.Client, prefix string, log *zap.Logger) *RedisNotifier {
	if prefix == "" {
		prefix = "assembly"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisNotifier{client: client, prefix: prefix, log: log}
}

// Channel returns the channel of a meeting
func (n *RedisNotifier) Channel(meetingID uuid.UUID) string {
	return fmt.Sprintf("%s:meeting:%s", n.prefix, meetingID)
}

// Notify publishes the event
func (n *RedisNotifier) Notify(ctx context.Context, meetingID uuid.UUID, kind entities.EventKind, payload any) error {
	data, err := Encode(meetingID, kind, payload, time.Now())
	if err != nil {
		return err
	}
	if err := n.client.Publish(ctx, n.Channel(meetingID), data).Err(); err != nil {
		return fmt.Errorf("failed to publish %s: %w", kind, err)
	}
	return nil
}

// Subscribe forwards every published envelope to hub until ctx is done
func (n *RedisNotifier) Subscribe(ctx context.Context, hub *Hub) error {
	pubsub := n.client.PSubscribe(ctx, n.prefix+":meeting:*")
	defer pubsub.Close()

	// wait for the subscription confirmation so no early publish is lost
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	n.log.Info("realtime.redis.subscribed", zap.String("prefix", n.prefix))

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errSubscriptionClosed
			}
			n.forward(hub, msg)
		}
	}
}

// Run keeps a subscription alive until ctx is done, resubscribing with
// backoff whenever it fails or drops
func (n *RedisNotifier) Run(ctx context.Context, hub *Hub, policy retry.Policy) error {
	err := retry.Do(ctx, policy, func(error) bool { return ctx.Err() == nil }, func() error {
		err := n.Subscribe(ctx, hub)
		if err != nil && ctx.Err() == nil {
			n.log.Warn("realtime.redis.subscribe.retry", zap.Error(err))
		}
		return err
	})
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func (n *RedisNotifier) forward(hub *Hub, msg *redis.Message) {
	env, err := Decode([]byte(msg.Payload))
	if err != nil {
		n.log.Warn("realtime.redis.invalid_message",
			zap.String("channel", msg.Channel),
			zap.Error(err),
		)
		return
	}
	if !strings.HasSuffix(msg.Channel, env.MeetingID.String()) {
		n.log.Warn("realtime.redis.channel_mismatch",
			zap.String("channel", msg.Channel),
			zap.String("meeting_id", env.MeetingID.String()),
		)
		return
	}
	hub.Broadcast(env.MeetingID, []byte(msg.Payload))
}
