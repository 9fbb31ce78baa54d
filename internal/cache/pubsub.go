package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solana-farm-engine/internal/constants"
	"github.com/aman-zulfiqar/solana-farm-engine/internal/models"
	"github.com/aman-zulfiqar/solana-farm-engine/internal/storage"
)

// PubSubManager publishes and subscribes to farm events over Redis Pub/Sub
type PubSubManager struct {
	client *redis.Client
	logger *logrus.Logger
}

func NewPubSubManager(client *redis.Client, logger *logrus.Logger) *PubSubManager {
	if logger == nil {
		logger = logrus.New()
	}
	return &PubSubManager{client: client, logger: logger}
}

// FarmChannel is the per-farm action channel
func FarmChannel(farmID string) string {
	return constants.PubSubChannelFarmPrefix + farmID
}

// PublishAction publishes ev to the global and the per-farm channel
func (p *PubSubManager) PublishAction(ctx context.Context, ev *models.FarmActionEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal action: %w", err)
	}

	pipe := p.client.Pipeline()
	pipe.Publish(ctx, constants.PubSubChannelActions, data)
	pipe.Publish(ctx, FarmChannel(ev.FarmID), data)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish action: %w", err)
	}
	return nil
}

// PublishNotification publishes n to the notifications channel
func (p *PubSubManager) PublishNotification(ctx context.Context, n models.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	return p.client.Publish(ctx, constants.PubSubChannelNotifications, data).Err()
}

// Notify makes the manager a notification sink. Publish failures are logged.
func (p *PubSubManager) Notify(ctx context.Context, n models.Notification) {
	if err := p.PublishNotification(ctx, n); err != nil {
		p.logger.WithError(err).Warn("failed to publish notification")
	}
}

// SubscribeActions blocks delivering events from channel until ctx is done.
// A pattern such as "farm:actions:farm:*" subscribes with PSUBSCRIBE.
func (p *PubSubManager) SubscribeActions(ctx context.Context, channel string, handler storage.ActionHandler) error {
	return p.consume(ctx, channel, func(payload string) error {
		var ev models.FarmActionEvent
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			return err
		}
		handler(&ev)
		return nil
	})
}

// SubscribeNotifications blocks delivering notifications until ctx is done
func (p *PubSubManager) SubscribeNotifications(ctx context.Context, handler storage.NotificationHandler) error {
	return p.consume(ctx, constants.PubSubChannelNotifications, func(payload string) error {
		var n models.Notification
		if err := json.Unmarshal([]byte(payload), &n); err != nil {
			return err
		}
		handler(n)
		return nil
	})
}

func (p *PubSubManager) consume(ctx context.Context, channel string, decode func(string) error) error {
	var sub *redis.PubSub
	if isPattern(channel) {
		sub = p.client.PSubscribe(ctx, channel)
	} else {
		sub = p.client.Subscribe(ctx, channel)
	}
	defer sub.Close()

	// Wait for the subscription confirmation so errors surface here.
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", channel, err)
	}
	p.logger.WithField("channel", channel).Info("subscribed")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if err := decode(msg.Payload); err != nil {
				p.logger.WithError(err).WithField("channel", msg.Channel).Warn("dropping malformed message")
			}
		}
	}
}

func isPattern(channel string) bool {
	for _, c := range channel {
		if c == '*' || c == '?' || c == '[' {
			return true
		}
	}
	return false
}
