package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/mkblog/comment_server/config"
)

// Limiter 滑动窗口限流器。
// 单实例部署用 MemoryLimiter，多实例部署用 RedisLimiter 共享计数。
type Limiter interface {
	// Allow 判断该身份是否允许提交，允许时记录本次提交
	Allow(ctx context.Context, identity string) (bool, error)
	// TimeToWait 返回最早一条记录滑出窗口还需等待的时长，无记录时为 0
	TimeToWait(ctx context.Context, identity string) (time.Duration, error)
}

// MemoryLimiter 进程内限流器，按身份维护窗口内的提交时间序列
type MemoryLimiter struct {
	window time.Duration
	max    int

	mu      sync.Mutex
	entries map[string][]time.Time
	now     func() time.Time
}

func NewMemoryLimiter(cfg *config.RateLimitConfig) *MemoryLimiter {
	return &MemoryLimiter{
		window:  cfg.Window,
		max:     cfg.MaxRequests,
		entries: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// Allow 清理过期记录后检查计数；已达上限时不追加记录直接拒绝。
// 同一身份的并发检查由互斥锁串行化，保证不会超发。
func (l *MemoryLimiter) Allow(_ context.Context, identity string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	valid := l.prune(identity, now)

	if len(valid) >= l.max {
		l.entries[identity] = valid
		return false, nil
	}

	l.entries[identity] = append(valid, now)
	return true, nil
}

func (l *MemoryLimiter) TimeToWait(_ context.Context, identity string) (time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	valid := l.prune(identity, now)
	l.entries[identity] = valid

	if len(valid) == 0 {
		return 0, nil
	}

	wait := l.window - now.Sub(valid[0])
	if wait < 0 {
		wait = 0
	}
	return wait, nil
}

// prune 返回窗口内的有效记录，调用方需持有锁
func (l *MemoryLimiter) prune(identity string, now time.Time) []time.Time {
	cutoff := now.Add(-l.window)

	timestamps := l.entries[identity]
	valid := timestamps[:0]
	for _, ts := range timestamps {
		if ts.After(cutoff) {
			valid = append(valid, ts)
		}
	}
	return valid
}
