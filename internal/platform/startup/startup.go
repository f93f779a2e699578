package startup

import (
	"context"

	"github.com/SlpAus/little-learners-backend/internal/carnival"
	"github.com/SlpAus/little-learners-backend/internal/gamestate"
	"github.com/SlpAus/little-learners-backend/internal/ledger"
	"github.com/SlpAus/little-learners-backend/internal/mathgame"
	"github.com/SlpAus/little-learners-backend/internal/platform/health"
	"github.com/SlpAus/little-learners-backend/internal/platform/logger"
	"github.com/SlpAus/little-learners-backend/internal/progress"
	"github.com/SlpAus/little-learners-backend/internal/quiz"
	"github.com/SlpAus/little-learners-backend/internal/shape"
	"github.com/SlpAus/little-learners-backend/internal/user"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// InitializeApplication 是应用启动时迁移所有表的总入口
func InitializeApplication(db *gorm.DB) error {
	logger.Log.Info("开始应用初始化...")

	primers := []func(*gorm.DB) error{
		user.PrimeDB,
		ledger.PrimeDB,
		gamestate.PrimeDB,
		quiz.PrimeDB,
		shape.PrimeDB,
		mathgame.PrimeDB,
		carnival.PrimeDB,
	}
	for _, prime := range primers {
		if err := prime(db); err != nil {
			return err
		}
	}

	logger.Log.Info("应用初始化完成！")
	return nil
}

// RebuildCache 返回在Redis重启或恢复后执行的缓存热重建。
// 降级期间进度缓存的失效可能已经丢失，所以整体清空；排行榜从数据库重建。
func RebuildCache(rdb *redis.Client, carnivalSvc *carnival.Service) health.RebuildFunc {
	return func(ctx context.Context) error {
		logger.Log.Info("开始缓存热重建...")
		if err := progress.FlushCache(ctx, rdb); err != nil {
			return err
		}
		if err := carnivalSvc.WarmupCache(ctx); err != nil {
			return err
		}
		logger.Log.Info("缓存热重建完成。")
		return nil
	}
}
