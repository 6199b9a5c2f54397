package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

const (
	ChannelModerationEvents = "moderation_events"
)

// ModerationMessage 审核结果消息
type ModerationMessage struct {
	Type      string `json:"type"`
	UserID    int64  `json:"user_id"`
	CommentID int64  `json:"comment_id"`
	ArticleID string `json:"article_id"`
	Status    string `json:"status"`
}

// Publisher Redis 发布者
type Publisher struct {
	client *redis.Client
}

// NewPublisher 创建发布者
func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

// PublishModeration 发布审核结果消息
func (p *Publisher) PublishModeration(ctx context.Context, msg *ModerationMessage) error {
	msg.Type = "moderation_update"

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal moderation message: %w", err)
	}

	return p.client.Publish(ctx, ChannelModerationEvents, data).Err()
}

// Subscriber Redis 订阅者
type Subscriber struct {
	client *redis.Client
}

// NewSubscriber 创建订阅者
func NewSubscriber(client *redis.Client) *Subscriber {
	return &Subscriber{client: client}
}

// Subscribe 订阅审核结果消息
func (s *Subscriber) Subscribe(ctx context.Context, handler func(*ModerationMessage)) error {
	pubsub := s.client.Subscribe(ctx, ChannelModerationEvents)
	defer pubsub.Close()

	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var modMsg ModerationMessage
			if err := json.Unmarshal([]byte(msg.Payload), &modMsg); err != nil {
				continue // 忽略解析错误
			}

			handler(&modMsg)
		}
	}
}
