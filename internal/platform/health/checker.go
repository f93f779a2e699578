package health

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/SlpAus/little-learners-backend/internal/platform/logger"
	"github.com/SlpAus/little-learners-backend/pkg/lifecycle"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	checkInterval = 5 * time.Second
	pingTimeout   = 2 * time.Second
)

var runIDPattern = regexp.MustCompile(`run_id:([a-f0-9]+)`)

// RebuildFunc 在Redis重启或恢复后重新预热缓存
type RebuildFunc func(ctx context.Context) error

// Checker 定期检查Redis，并在需要时触发缓存重建
type Checker struct {
	rdb     *redis.Client
	rebuild RebuildFunc
}

// NewChecker 创建一个新的健康检查器
func NewChecker(rdb *redis.Client, rebuild RebuildFunc) *Checker {
	return &Checker{rdb: rdb, rebuild: rebuild}
}

// getRedisRunID 从Redis服务器信息中提取run_id
func (c *Checker) getRedisRunID(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	info, err := c.rdb.Info(ctx, "server").Result()
	if err != nil {
		return "", err
	}
	matches := runIDPattern.FindStringSubmatch(info)
	if len(matches) < 2 {
		return "", fmt.Errorf("无法在Redis INFO中找到run_id")
	}
	return matches[1], nil
}

// InitializeRunID 在应用启动时执行一次，获取并设置初始的run_id。
func (c *Checker) InitializeRunID(ctx context.Context) error {
	runID, err := c.getRedisRunID(ctx)
	if err != nil {
		return fmt.Errorf("无法在启动时获取Redis Run ID: %w", err)
	}
	SetInitialRunID(runID)
	logger.Log.WithField("run_id", runID).Info("获取初始Redis Run ID成功")
	return nil
}

// PerformCheck 执行一次完整的健康检查和可能的修复操作。
func (c *Checker) PerformCheck(ctx context.Context) {
	runID, err := c.getRedisRunID(ctx)
	if !globalStatus.assess(err == nil, runID) {
		return
	}

	rebuildErr := c.rebuild(ctx)
	if rebuildErr != nil {
		logger.WithError(rebuildErr).Error("健康检查: 缓存热重建失败")
	}

	// 重建后再次检查run_id以确认重建期间Redis没有再次重启
	idAfter, err := c.getRedisRunID(ctx)
	if err != nil {
		globalStatus.markRebuildComplete(false, "")
		return
	}
	globalStatus.markRebuildComplete(rebuildErr == nil, idAfter)
}

// Run 是后台检查循环，收到停机信号后退出。
func (c *Checker) Run(handle *lifecycle.Handle) {
	defer handle.Close()
	logger.Log.Info("Redis健康检查器已启动。")

	for {
		if err := handle.Sleep(checkInterval); err != nil {
			logger.Log.Info("Redis健康检查器: 收到停机信号，正在关闭...")
			return
		}
		c.PerformCheck(handle.Ctx())
	}
}

// Handler 暴露 /healthz
func Handler(c *gin.Context) {
	state := GetState()
	status := http.StatusOK
	if state != StateHealthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"redis": state.String()})
}
