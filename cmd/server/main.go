package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/SlpAus/little-learners-backend/api"
	"github.com/SlpAus/little-learners-backend/internal/platform/config"
	"github.com/SlpAus/little-learners-backend/internal/platform/database"
	"github.com/SlpAus/little-learners-backend/internal/platform/health"
	"github.com/SlpAus/little-learners-backend/internal/platform/logger"
	"github.com/SlpAus/little-learners-backend/internal/platform/metrics"
	"github.com/SlpAus/little-learners-backend/internal/platform/shutdown"
	"github.com/SlpAus/little-learners-backend/internal/platform/startup"
	"github.com/SlpAus/little-learners-backend/internal/web"
	"github.com/SlpAus/little-learners-backend/pkg/lifecycle"
	"github.com/SlpAus/little-learners-backend/pkg/token"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// .env 只在本地开发时存在
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("无法加载配置")
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)

	if cfg.Server.Secret == "" {
		logger.Log.Warn("未配置 server.secret，使用随机密钥，重启后所有会话失效")
	}
	token.SetSecret(cfg.Server.Secret)

	if err := database.InitDB(cfg.Database); err != nil {
		logger.WithError(err).Fatal("数据库初始化失败")
	}
	startCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := database.InitRedis(startCtx, cfg.Database.Redis); err != nil {
		logger.WithError(err).Fatal("Redis初始化失败")
	}

	// 1. 应用首次启动初始化流程
	if err := startup.InitializeApplication(database.DB); err != nil {
		logger.WithError(err).Fatal("应用初始化失败，无法启动")
	}

	services, err := api.NewServices(database.DB, database.RDB, cfg)
	if err != nil {
		logger.WithError(err).Fatal("服务初始化失败")
	}

	// 2. 阻塞式获取初始Run ID，并预热缓存
	checker := health.NewChecker(database.RDB, startup.RebuildCache(database.RDB, services.Carnival))
	if err := checker.InitializeRunID(startCtx); err != nil {
		logger.WithError(err).Fatal("Redis健康检查初始化失败")
	}
	if err := startup.RebuildCache(database.RDB, services.Carnival)(startCtx); err != nil {
		logger.WithError(err).Fatal("启动时缓存预热失败")
	}

	// 3. 后台服务
	gracefulMgr := lifecycle.NewManager(logger.Log)
	forcefulMgr := lifecycle.NewManager(logger.Log)
	if err := gracefulMgr.Go("redis-health-checker", checker.Run); err != nil {
		logger.WithError(err).Fatal("无法启动健康检查器")
	}
	if interval := cfg.Games.Carnival.ReconcileInterval; interval > 0 {
		err := gracefulMgr.Go("leaderboard-reconciler", func(h *lifecycle.Handle) {
			services.Carnival.RunReconciler(h, interval)
		})
		if err != nil {
			logger.WithError(err).Fatal("无法启动排行榜校正器")
		}
	}

	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(gin.Recovery(), logger.GinMiddleware(), metrics.Middleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.Cors.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	if err := web.Load(r); err != nil {
		logger.WithError(err).Fatal("页面模板加载失败")
	}
	api.SetupRoutes(r, services, cfg)

	server := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Log.WithField("address", cfg.Server.Address).Info("服务器已准备就绪，开始监听")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("服务器启动失败")
		}
	}()

	shutdown.NewCoordinator(gracefulMgr, forcefulMgr, database.Close).ListenForSignalsAndShutdown(server)
}
