package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// 通知事件类型
const (
	KindReply            = "reply"
	KindModerationUpdate = "moderation_update"
)

type Queue struct {
	client    *redis.Client
	queueName string
}

// Event 通知事件，由通知进程异步消费
type Event struct {
	Kind        string `json:"kind"`
	CommentID   int64  `json:"comment_id"`
	ArticleID   string `json:"article_id"`
	RecipientID int64  `json:"recipient_id"`
	ParentID    *int64 `json:"parent_id,omitempty"`
	Status      string `json:"status,omitempty"`
}

func NewQueue(client *redis.Client, queueName string) *Queue {
	return &Queue{
		client:    client,
		queueName: queueName,
	}
}

// Push 将事件加入队列
func (q *Queue) Push(ctx context.Context, evt *Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	return q.client.LPush(ctx, q.queueName, data).Err()
}

// Pop 从队列获取事件（阻塞）
func (q *Queue) Pop(ctx context.Context, timeout time.Duration) (*Event, error) {
	result, err := q.client.BRPop(ctx, timeout, q.queueName).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // 超时，无事件
		}
		return nil, fmt.Errorf("failed to pop from queue: %w", err)
	}

	if len(result) < 2 {
		return nil, nil
	}

	var evt Event
	if err := json.Unmarshal([]byte(result[1]), &evt); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}

	return &evt, nil
}

// Length 获取队列长度
func (q *Queue) Length(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.queueName).Result()
}
