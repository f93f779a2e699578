package carnival

import (
	"context"
	"errors"
	"time"

	"github.com/SlpAus/little-learners-backend/internal/platform/health"
	"github.com/SlpAus/little-learners-backend/internal/platform/logger"
	"github.com/SlpAus/little-learners-backend/pkg/lifecycle"
)

// RunReconciler 定期用数据库中的转盘记录重建Redis排行榜。
// 提交后的排行榜累加失败只会记录日志，这里负责把偏差修正回来。
func (s *Service) RunReconciler(handle *lifecycle.Handle, interval time.Duration) {
	defer handle.Close()
	logger.Log.WithField("interval", interval).Info("排行榜校正器已启动。")

	for {
		if err := handle.Sleep(interval); err != nil {
			logger.Log.Info("排行榜校正器: 收到停机信号，正在关闭...")
			return
		}

		if !health.IsRedisHealthy() {
			logger.Log.Debug("排行榜校正器: Redis不可用，跳过本次校正。")
			continue
		}

		if err := s.WarmupCache(handle.Ctx()); err != nil {
			// 停机导致的取消静默退出
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			health.MarkDegraded()
			logger.WithError(err).Error("排行榜校正器: 重建排行榜失败")
		}
	}
}
