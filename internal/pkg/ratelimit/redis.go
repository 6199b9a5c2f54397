package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/mkblog/comment_server/config"
)

const keyPrefix = "ratelimit:"

// 同一身份并发提交导致 WATCH 失效时的重试次数
const maxTxRetries = 3

// RedisLimiter 基于有序集合的滑动窗口限流器，
// 多实例部署时共享同一份计数
type RedisLimiter struct {
	client *redis.Client
	window time.Duration
	max    int
	now    func() time.Time
}

func NewRedisLimiter(client *redis.Client, cfg *config.RateLimitConfig) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		window: cfg.Window,
		max:    cfg.MaxRequests,
		now:    time.Now,
	}
}

// Allow 用 WATCH 事务保证同一身份的检查与写入互斥。
// WATCH 段内只读（对被监视键的任何写入都会使事务失效），
// 清理和写入都放进事务管道一起提交
func (l *RedisLimiter) Allow(ctx context.Context, identity string) (bool, error) {
	key := keyPrefix + identity

	for attempt := 0; attempt < maxTxRetries; attempt++ {
		now := l.now()
		cutoff := strconv.FormatInt(now.Add(-l.window).UnixNano(), 10)

		allowed := false
		err := l.client.Watch(ctx, func(tx *redis.Tx) error {
			count, err := tx.ZCount(ctx, key, "("+cutoff, "+inf").Result()
			if err != nil {
				return err
			}
			if count >= int64(l.max) {
				return nil
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.ZRemRangeByScore(ctx, key, "-inf", cutoff)
				pipe.ZAdd(ctx, key, &redis.Z{
					Score:  float64(now.UnixNano()),
					Member: strconv.FormatInt(now.UnixNano(), 10),
				})
				pipe.Expire(ctx, key, l.window)
				return nil
			})
			if err != nil {
				return err
			}

			allowed = true
			return nil
		}, key)
		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			return false, err
		}
		return allowed, nil
	}

	return false, redis.TxFailedErr
}

// TimeToWait 最早一条窗口内记录滑出窗口还需等待的时长。
// 过期记录要到下一次写入才被清理，计算时跳过
func (l *RedisLimiter) TimeToWait(ctx context.Context, identity string) (time.Duration, error) {
	key := keyPrefix + identity
	now := l.now()
	cutoff := strconv.FormatInt(now.Add(-l.window).UnixNano(), 10)

	oldest, err := l.client.ZRangeByScoreWithScores(ctx, key, &redis.ZRangeBy{
		Min:   "(" + cutoff,
		Max:   "+inf",
		Count: 1,
	}).Result()
	if err != nil {
		return 0, err
	}
	if len(oldest) == 0 {
		return 0, nil
	}

	oldestAt := time.Unix(0, int64(oldest[0].Score))
	wait := l.window - now.Sub(oldestAt)
	if wait < 0 {
		wait = 0
	}
	return wait, nil
}
