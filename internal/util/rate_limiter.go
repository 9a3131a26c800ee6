package util

import (
	"log"
	"sync"
	"time"
)

// LoginRateLimiter 登录速率限制器（防暴力破解）
// - 按客户端标识（通常是IP）计数
// - 连续失败超过上限后锁定一段时间
// - 超过重置间隔未再尝试则计数清零
type LoginRateLimiter struct {
	attempts map[string]*attemptRecord
	mu       sync.RWMutex

	maxAttempts     int
	lockoutDuration time.Duration
	resetInterval   time.Duration

	now    func() time.Time
	stopCh chan struct{}
	once   sync.Once
}

// attemptRecord 尝试记录
type attemptRecord struct {
	count       int
	lastAttempt time.Time
	lockUntil   time.Time
}

// RateLimiterOption 速率限制器选项
type RateLimiterOption func(*LoginRateLimiter)

// WithMaxAttempts 最大连续尝试次数
func WithMaxAttempts(n int) RateLimiterOption {
	return func(rl *LoginRateLimiter) { rl.maxAttempts = n }
}

// WithLockout 锁定时长
func WithLockout(d time.Duration) RateLimiterOption {
	return func(rl *LoginRateLimiter) { rl.lockoutDuration = d }
}

// WithResetInterval 计数重置间隔
func WithResetInterval(d time.Duration) RateLimiterOption {
	return func(rl *LoginRateLimiter) { rl.resetInterval = d }
}

// WithClock 替换时钟（测试使用）
func WithClock(now func() time.Time) RateLimiterOption {
	return func(rl *LoginRateLimiter) { rl.now = now }
}

// NewLoginRateLimiter 创建登录速率限制器
// 默认：5次尝试，锁定15分钟，1小时后重置
func NewLoginRateLimiter(opts ...RateLimiterOption) *LoginRateLimiter {
	rl := &LoginRateLimiter{
		attempts:        make(map[string]*attemptRecord),
		maxAttempts:     5,
		lockoutDuration: 15 * time.Minute,
		resetInterval:   1 * time.Hour,
		now:             time.Now,
		stopCh:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(rl)
	}

	go rl.cleanupLoop()
	return rl
}

// AllowAttempt 检查是否允许尝试登录（同时计入一次尝试）
// 返回值：true=允许，false=拒绝（被锁定）
func (rl *LoginRateLimiter) AllowAttempt(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	record, exists := rl.attempts[key]
	if !exists {
		rl.attempts[key] = &attemptRecord{count: 1, lastAttempt: now}
		return true
	}

	if now.Before(record.lockUntil) {
		return false
	}
	// 锁定期满或超过重置间隔：重新计数
	if !record.lockUntil.IsZero() || now.Sub(record.lastAttempt) > rl.resetInterval {
		record.count = 0
		record.lockUntil = time.Time{}
	}

	record.count++
	record.lastAttempt = now

	if record.count > rl.maxAttempts {
		record.lockUntil = now.Add(rl.lockoutDuration)
		return false
	}
	return true
}

// RecordSuccess 记录成功登录（清除计数）
func (rl *LoginRateLimiter) RecordSuccess(key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.attempts, key)
}

// GetLockoutTime 锁定剩余时间（秒），0 表示未锁定
func (rl *LoginRateLimiter) GetLockoutTime(key string) int {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	record, exists := rl.attempts[key]
	if !exists {
		return 0
	}
	if now := rl.now(); now.Before(record.lockUntil) {
		return int(record.lockUntil.Sub(now).Seconds())
	}
	return 0
}

// GetAttemptCount 当前尝试次数（已过重置间隔时为0）
func (rl *LoginRateLimiter) GetAttemptCount(key string) int {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	record, exists := rl.attempts[key]
	if !exists || rl.now().Sub(record.lastAttempt) > rl.resetInterval {
		return 0
	}
	return record.count
}

// cleanupLoop 定期清理过期记录（后台协程）
func (rl *LoginRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.resetInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

// cleanup 清理超过重置间隔且未锁定的记录
func (rl *LoginRateLimiter) cleanup() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	removed := 0
	for key, record := range rl.attempts {
		if now.Sub(record.lastAttempt) > rl.resetInterval && now.After(record.lockUntil) {
			delete(rl.attempts, key)
			removed++
		}
	}
	if removed > 0 {
		log.Printf("[INFO] 登录速率限制器：清理 %d 条过期记录", removed)
	}
	return removed
}

// Stop 停止后台清理协程（可重复调用）
func (rl *LoginRateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stopCh) })
}
