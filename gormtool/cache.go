package gormtool

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/studieren/foodgram_back/logging"
	"github.com/studieren/foodgram_back/metrics"
)

// 常量定义
const (
	CacheTTL     = 5 * time.Minute
	cacheCBName  = "redis-cache"
	scanPageSize = 100
)

// Cache Redis 读穿缓存。client 为 nil 时所有操作都是空操作；
// Redis 连续出错时断路器打开，请求直接回源数据库。
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	cb     *gobreaker.CircuitBreaker[[]byte]
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = CacheTTL
	}
	metrics.CircuitBreakerState.WithLabelValues(cacheCBName).Set(0)
	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        cacheCBName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// 缓存未命中不算失败
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, redis.Nil)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("断路器状态变化")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
		},
	})
	return &Cache{client: client, ttl: ttl, cb: cb}
}

func (c *Cache) Enabled() bool {
	return c != nil && c.client != nil
}

// Client 返回底层 Redis 客户端，未配置时为 nil
func (c *Cache) Client() *redis.Client {
	if c == nil {
		return nil
	}
	return c.client
}

// BreakerState 断路器当前状态
func (c *Cache) BreakerState() string {
	if !c.Enabled() {
		return "disabled"
	}
	return c.cb.State().String()
}

// Get 命中返回 true 并把值解码到 result
func (c *Cache) Get(ctx context.Context, key string, result interface{}) bool {
	if !c.Enabled() {
		return false
	}

	data, err := c.cb.Execute(func() ([]byte, error) {
		return c.client.Get(ctx, key).Bytes()
	})
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logging.Ctx(ctx).Debug().Err(err).Str("key", key).Msg("缓存读取失败")
		}
		metrics.CacheRequests.WithLabelValues("miss").Inc()
		return false
	}

	if err := json.Unmarshal(data, result); err != nil {
		metrics.CacheRequests.WithLabelValues("miss").Inc()
		return false
	}
	metrics.CacheRequests.WithLabelValues("hit").Inc()
	return true
}

func (c *Cache) Set(ctx context.Context, key string, data interface{}) error {
	if !c.Enabled() {
		return nil
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = c.cb.Execute(func() ([]byte, error) {
		return nil, c.client.Set(ctx, key, jsonData, c.ttl).Err()
	})
	return err
}

// DeletePrefix 用 SCAN 找出前缀匹配的键并删除
func (c *Cache) DeletePrefix(ctx context.Context, prefix string) error {
	if !c.Enabled() {
		return nil
	}
	_, err := c.cb.Execute(func() ([]byte, error) {
		var keys []string
		iter := c.client.Scan(ctx, 0, prefix+"*", scanPageSize).Iterator()
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			return nil, err
		}
		if len(keys) == 0 {
			return nil, nil
		}
		return nil, c.client.Del(ctx, keys...).Err()
	})
	return err
}
