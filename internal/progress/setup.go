package progress

import (
	"context"
	"fmt"

	"github.com/SlpAus/little-learners-backend/internal/platform/logger"
	"github.com/redis/go-redis/v9"
)

// FlushCache 删除所有进度缓存，Redis 恢复后调用，降级期间的失效可能已经丢失
func FlushCache(ctx context.Context, rdb *redis.Client) error {
	var removed int
	iter := rdb.Scan(ctx, 0, cacheKeyPrefix+"*", 200).Iterator()
	for iter.Next(ctx) {
		if err := rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("删除进度缓存失败: %w", err)
		}
		removed++
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("扫描进度缓存失败: %w", err)
	}
	logger.Log.WithField("removed", removed).Info("进度缓存已清空。")
	return nil
}
