package api

import (
	"database/sql"
	"fmt"

	"github.com/SlpAus/little-learners-backend/internal/carnival"
	"github.com/SlpAus/little-learners-backend/internal/ledger"
	"github.com/SlpAus/little-learners-backend/internal/mathgame"
	"github.com/SlpAus/little-learners-backend/internal/platform/config"
	"github.com/SlpAus/little-learners-backend/internal/platform/health"
	"github.com/SlpAus/little-learners-backend/internal/platform/metrics"
	"github.com/SlpAus/little-learners-backend/internal/progress"
	"github.com/SlpAus/little-learners-backend/internal/quiz"
	"github.com/SlpAus/little-learners-backend/internal/shape"
	"github.com/SlpAus/little-learners-backend/internal/user"
	"github.com/SlpAus/little-learners-backend/internal/videos"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Services 持有所有业务服务，由 main 创建一次
type Services struct {
	DB       *gorm.DB
	Ledger   *ledger.Service
	User     *user.Service
	Sessions *user.SessionStore
	Limiter  *user.LoginLimiter
	Quiz     *quiz.Service
	Shape    *shape.Service
	Math     *mathgame.Service
	Carnival *carnival.Service
	Progress *progress.Service
	Videos   *videos.Service
}

// NewServices 加载内嵌的题库与任务并组装所有服务
func NewServices(db *gorm.DB, rdb *redis.Client, cfg *config.Config) (*Services, error) {
	perRound := cfg.Games.Quiz.QuestionsPerRound
	bank, err := quiz.DefaultBank(perRound)
	if err != nil {
		return nil, fmt.Errorf("加载题库失败: %w", err)
	}
	catalogue, err := shape.DefaultCatalogue()
	if err != nil {
		return nil, fmt.Errorf("加载拼图任务失败: %w", err)
	}
	wheel, err := carnival.NewWheel(carnival.DefaultSegments)
	if err != nil {
		return nil, fmt.Errorf("初始化转盘失败: %w", err)
	}

	l := ledger.NewService(db)
	return &Services{
		DB:       db,
		Ledger:   l,
		User:     user.NewService(db),
		Sessions: user.NewSessionStore(rdb, cfg.Session.TTL),
		Limiter:  user.NewLoginLimiter(rdb, cfg.Session.LoginAttempts, cfg.Session.LoginWindow),
		Quiz:     quiz.NewService(db, l, bank, perRound),
		Shape:    shape.NewService(db, l, catalogue, cfg.Games.Shape),
		Math:     mathgame.NewService(db, l, cfg.Games.Math.CoinsPerLevel),
		Carnival: carnival.NewService(db, rdb, l, wheel),
		Progress: progress.NewService(db, rdb, l, cfg.Progress),
		Videos:   videos.NewService(videos.NewSearcher(cfg.Videos)),
	}, nil
}

// SetupRoutes 注册项目的所有路由
func SetupRoutes(router *gin.Engine, s *Services, cfg *config.Config) {
	var sqlDB *sql.DB
	if s.DB != nil {
		sqlDB, _ = s.DB.DB()
	}
	router.GET("/healthz", health.Handler)
	router.GET("/metrics", metrics.Handler(sqlDB))

	userHandler := user.NewHandler(s.User, s.Sessions, s.Limiter, cfg.Session.CookieName)
	carnivalHandler := carnival.NewHandler(s.Carnival, cfg.Games.Carnival.LeaderboardLimit)

	// 无需登录
	userHandler.RegisterPublicRoutes(router)
	carnivalHandler.RegisterPublicRoutes(router)

	// 需要登录，用户在每个请求中从数据库重新读取
	protected := router.Group("/", userHandler.RequireUser())
	{
		userHandler.RegisterProtectedRoutes(protected)
		quiz.NewHandler(s.Quiz).RegisterRoutes(protected)
		shape.NewHandler(s.Shape).RegisterRoutes(protected)
		mathgame.NewHandler(s.Math).RegisterRoutes(protected)
		carnivalHandler.RegisterRoutes(protected)
		progress.NewHandler(s.Progress).RegisterRoutes(protected)
		videos.NewHandler(s.Videos).RegisterRoutes(protected)
	}
}
