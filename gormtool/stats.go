package gormtool

import (
	"context"
	"strings"
	"time"
)

// DatabaseStats 数据库统计信息结构体
type DatabaseStats struct {
	MaxOpenConnections int           `json:"max_open_connections"`
	OpenConnections    int           `json:"open_connections"`
	InUse              int           `json:"in_use"`
	Idle               int           `json:"idle"`
	WaitCount          int64         `json:"wait_count"`
	WaitDuration       time.Duration `json:"wait_duration"`
	MaxIdleClosed      int64         `json:"max_idle_closed"`
	MaxLifetimeClosed  int64         `json:"max_lifetime_closed"`
}

// Stats 汇总数据库连接池、Redis 与断路器状态
func (t *CRUDTool) Stats(ctx context.Context) map[string]interface{} {
	stats := map[string]interface{}{}

	if sqlDB, err := t.DB.DB(); err == nil {
		s := sqlDB.Stats()
		stats["database"] = DatabaseStats{
			MaxOpenConnections: s.MaxOpenConnections,
			OpenConnections:    s.OpenConnections,
			InUse:              s.InUse,
			Idle:               s.Idle,
			WaitCount:          s.WaitCount,
			WaitDuration:       s.WaitDuration,
			MaxIdleClosed:      s.MaxIdleClosed,
			MaxLifetimeClosed:  s.MaxLifetimeClosed,
		}
	} else {
		stats["database"] = "无法获取数据库统计信息: " + err.Error()
	}

	stats["redis"] = t.redisStats(ctx)
	stats["cache_breaker"] = t.Cache.BreakerState()
	return stats
}

// redisStats 获取 Redis 统计信息
func (t *CRUDTool) redisStats(ctx context.Context) interface{} {
	client := t.Cache.Client()
	if client == nil {
		return "Redis 未配置"
	}

	info, err := client.Info(ctx, "server", "memory", "stats").Result()
	if err != nil {
		return "无法获取 Redis 信息: " + err.Error()
	}

	// 解析 Redis 信息为更结构化的格式
	redisStats := make(map[string]string)
	for _, line := range strings.Split(info, "\r\n") {
		if strings.HasPrefix(line, "#") || line == "" {
			continue
		}
		if parts := strings.SplitN(line, ":", 2); len(parts) == 2 {
			redisStats[parts[0]] = parts[1]
		}
	}
	return redisStats
}
