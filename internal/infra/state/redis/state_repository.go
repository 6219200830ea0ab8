package redisstate

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	// 导入 Redis 客户端库
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"prize-wheel/internal/repository"
)

// RedisStateRepository 是 StateRepository 接口的 Redis 实现
type RedisStateRepository struct {
	client *redis.Client
	// Redis key 与频道的统一前缀
	keyPrefix string
}

// NewRedisStateRepository 创建 RedisStateRepository 实例
func NewRedisStateRepository(client *redis.Client, keyPrefix string) *RedisStateRepository {
	if client == nil {
		panic("redis client cannot be nil for RedisStateRepository")
	}
	if keyPrefix == "" {
		keyPrefix = "pw:" // 默认前缀 "pw:" (prize wheel)
	}
	return &RedisStateRepository{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// --- Key Generation Helpers ---

// RateLimitKey 为限流计数器加上统一前缀
func (r *RedisStateRepository) RateLimitKey(parts ...string) string {
	key := r.keyPrefix + "ratelimit"
	for _, p := range parts {
		key += ":" + p
	}
	return key
}

// WinChannel 返回转盘中奖事件的发布频道
func (r *RedisStateRepository) WinChannel(wheelID uint) string {
	return fmt.Sprintf("%swheel:%d:wins", r.keyPrefix, wheelID)
}

// --- StateRepository Interface Implementation ---

// CheckRateLimit 检查给定 key 的请求频率是否超限，并递增计数。
// key 是逻辑名称（如 "ip:1.2.3.4"、"spin:<conn_id>"），实际计数器为 RateLimitKey(key)。
// 固定窗口：INCR 与 PTTL 在同一个 MULTI 中执行，计数器没有过期时间时（首次创建，
// 或之前设置过期失败）重新设置窗口，避免计数器永久存在。
func (r *RedisStateRepository) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	redisKey := r.RateLimitKey(key)

	var incrCmd *redis.IntCmd
	var ttlCmd *redis.DurationCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incrCmd = pipe.Incr(ctx, redisKey)
		ttlCmd = pipe.PTTL(ctx, redisKey)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("redis: failed to incr rate limit counter on key %s: %w", redisKey, err)
	}

	count := incrCmd.Val()
	// PTTL 对没有过期时间的 key 返回负值
	if ttlCmd.Val() < 0 {
		if err := r.client.PExpire(ctx, redisKey, window).Err(); err != nil {
			logrus.WithField("key", redisKey).WithError(err).Warn("Redis: failed to arm rate limit window, will retry on next request")
		}
	}
	return count > int64(limit), nil
}

// PublishWinEvent 将中奖事件以 JSON 形式发布到转盘频道。
func (r *RedisStateRepository) PublishWinEvent(ctx context.Context, event repository.WinEvent) error {
	channel := r.WinChannel(event.WheelID)
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("redis: failed to marshal win event (record id %d): %w", event.WinRecordID, err)
	}
	if err := r.client.Publish(ctx, channel, payload).Err(); err != nil {
		logrus.WithFields(logrus.Fields{
			"channel":       channel,
			"payload_size":  len(payload),
			"win_record_id": event.WinRecordID,
			"wheel_id":      event.WheelID,
		}).WithError(err).Error("Redis Publish failed")
		return fmt.Errorf("redis: failed to publish win event to channel %s: %w", channel, err)
	}
	return nil
}
