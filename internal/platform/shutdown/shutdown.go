package shutdown

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SlpAus/little-learners-backend/internal/platform/logger"
	"github.com/SlpAus/little-learners-backend/pkg/lifecycle"
)

const (
	httpTimeout     = 15 * time.Second
	gracefulTimeout = 30 * time.Second
	forcefulTimeout = 1 * time.Second
)

// Coordinator 负责编排应用程序的优雅停机流程。
// 它接收外部创建的生命周期管理器，并使用它们来协调停机。
type Coordinator struct {
	GracefulManager *lifecycle.Manager
	ForcefulManager *lifecycle.Manager

	// Finalizers 在所有后台服务退出后依次执行，例如关闭数据库连接
	Finalizers []func() error
}

// NewCoordinator 创建一个新的停机协调器。
func NewCoordinator(gracefulMgr, forcefulMgr *lifecycle.Manager, finalizers ...func() error) *Coordinator {
	return &Coordinator{
		GracefulManager: gracefulMgr,
		ForcefulManager: forcefulMgr,
		Finalizers:      finalizers,
	}
}

// ListenForSignalsAndShutdown 启动信号监听并阻塞，直到停机流程完成。
func (c *Coordinator) ListenForSignalsAndShutdown(server *http.Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	sig := <-sigChan
	logger.Log.WithField("signal", sig.String()).Info("收到关闭信号，开始优雅停机...")
	c.Shutdown(server)
}

// Shutdown 执行停机流程：先关闭HTTP服务器，再分两阶段停止后台服务。
func (c *Coordinator) Shutdown(server *http.Server) {
	if server != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), httpTimeout)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("HTTP服务器关闭错误")
		} else {
			logger.Log.Info("HTTP服务器已关闭。")
		}
	}

	// --- 阶段一: 优雅停机 ---
	logger.Log.WithField("timeout", gracefulTimeout).Info("第一阶段停机：等待后台服务完成...")
	c.GracefulManager.Shutdown()

	remaining := c.GracefulManager.WaitWithTimeout(gracefulTimeout)
	if len(remaining) == 0 {
		logger.Log.Info("所有服务已在第一阶段优雅关闭。")
	} else {
		// --- 阶段二: 强制停机 ---
		logger.Log.WithField("remaining", remaining).Warn("第一阶段超时，发送第二停机信号")
		c.ForcefulManager.Shutdown()
		if left := c.ForcefulManager.WaitWithTimeout(forcefulTimeout); len(left) > 0 {
			logger.Log.WithField("remaining", left).Error("强制停机后仍有服务未退出")
		}
	}

	for _, fn := range c.Finalizers {
		if err := fn(); err != nil {
			logger.WithError(err).Warn("停机清理失败")
		}
	}
	logger.Log.Info("优雅停机完成。")
}
