package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/SlpAus/little-learners-backend/internal/carnival"
	"github.com/SlpAus/little-learners-backend/internal/ledger"
	"github.com/SlpAus/little-learners-backend/internal/mathgame"
	"github.com/SlpAus/little-learners-backend/internal/platform/config"
	"github.com/SlpAus/little-learners-backend/internal/platform/health"
	"github.com/SlpAus/little-learners-backend/internal/platform/logger"
	"github.com/SlpAus/little-learners-backend/internal/quiz"
	"github.com/SlpAus/little-learners-backend/internal/shape"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	cacheKeyPrefix  = "progress:"
	DefaultCacheTTL = time.Minute
)

// CacheKey 返回用户进度缓存的键
func CacheKey(userID uint) string {
	return fmt.Sprintf("%s%d", cacheKeyPrefix, userID)
}

// Service 汇总各小游戏的记录得到学习进度
type Service struct {
	db     *gorm.DB
	rdb    *redis.Client
	ledger *ledger.Service
	ttl    time.Duration
	loc    *time.Location
	now    func() time.Time
}

// NewService 创建进度服务，并订阅金币发放以便失效缓存
func NewService(db *gorm.DB, rdb *redis.Client, l *ledger.Service, cfg config.ProgressConfig) *Service {
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	s := &Service{db: db, rdb: rdb, ledger: l, ttl: ttl, loc: cfg.Location(), now: time.Now}
	if l != nil {
		l.OnCredited(s.Invalidate)
	}
	return s
}

// Compute 返回用户的进度快照，优先读取缓存
func (s *Service) Compute(ctx context.Context, userID uint) (*Snapshot, error) {
	if s.cacheUsable() {
		snap, err := s.getCache(ctx, userID)
		if err == nil && snap != nil {
			return snap, nil
		}
		if err != nil {
			health.MarkDegraded()
			logger.WithUser(userID).WithError(err).Warn("读取进度缓存失败，直接查询数据库")
		}
	}

	snap, err := s.Build(ctx, userID)
	if err != nil {
		return nil, err
	}

	if s.cacheUsable() {
		if err := s.setCache(ctx, snap); err != nil {
			health.MarkDegraded()
			logger.WithUser(userID).WithError(err).Warn("写入进度缓存失败")
		}
	}
	return snap, nil
}

// Invalidate 删除用户的进度缓存。Redis 不可用时什么也不做，恢复后会整体清空。
func (s *Service) Invalidate(ctx context.Context, userID uint) {
	if !s.cacheUsable() {
		return
	}
	if err := s.rdb.Del(ctx, CacheKey(userID)).Err(); err != nil {
		health.MarkDegraded()
		logger.WithUser(userID).WithError(err).Warn("删除进度缓存失败")
	}
}

// Balance 返回当前金币余额，不经过缓存
func (s *Service) Balance(ctx context.Context, userID uint) (int64, error) {
	return s.ledger.GetBalance(ctx, userID)
}

func (s *Service) cacheUsable() bool {
	return s.rdb != nil && health.IsRedisHealthy()
}

func (s *Service) getCache(ctx context.Context, userID uint) (*Snapshot, error) {
	data, err := s.rdb.Get(ctx, CacheKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil // 缓存未命中
	}
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *Service) setCache(ctx context.Context, snap *Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, CacheKey(snap.UserID), data, s.ttl).Err()
}

// --- 数据库汇总 ---

// aggregate 是对一张记录表的 COUNT/AVG/SUM
type aggregate struct {
	Attempts int64
	Average  float64
	Coins    int64
}

// resultTable 描述一张小游戏记录表中分数列和金币列的位置
type resultTable struct {
	model     any
	scoreCol  string
	coinsCol  string
	normalize func(float64) float64
}

var (
	quizTable  = resultTable{&quiz.QuizResult{}, "score", "score", NormalizeQuiz}
	shapeTable = resultTable{&shape.ShapeResult{}, "similarity_score", "coins_awarded", NormalizeShape}
	mathTable  = resultTable{&mathgame.MathResult{}, "score", "coins_awarded", NormalizeMath}
	spinTable  = resultTable{&carnival.ColorSpin{}, "coins_earned", "coins_earned", nil}
)

func (t resultTable) aggregate(tx *gorm.DB, userID uint) (aggregate, error) {
	var a aggregate
	err := tx.Model(t.model).
		Select(fmt.Sprintf("COUNT(*) AS attempts, COALESCE(AVG(%s), 0) AS average, COALESCE(SUM(%s), 0) AS coins", t.scoreCol, t.coinsCol)).
		Where("user_id = ?", userID).
		Scan(&a).Error
	return a, err
}

func (t resultTable) stats(tx *gorm.DB, userID uint) (ActivityStats, error) {
	a, err := t.aggregate(tx, userID)
	if err != nil {
		return ActivityStats{}, err
	}
	return ActivityStats{
		Attempts:    a.Attempts,
		Average:     a.Average,
		Normalized:  t.normalize(a.Average),
		CoinsEarned: a.Coins,
	}, nil
}

// events 读取 [from, to) 内的金币记录
func (t resultTable) events(tx *gorm.DB, userID uint, from, to time.Time) ([]coinEvent, error) {
	var rows []coinEvent
	err := tx.Model(t.model).
		Select(fmt.Sprintf("created_at, %s AS coins", t.coinsCol)).
		Where("user_id = ? AND created_at >= ? AND created_at < ?", userID, from.UTC(), to.UTC()).
		Scan(&rows).Error
	return rows, err
}

// Build 直接从数据库计算进度快照。所有查询在同一个事务里，保证快照一致。
func (s *Service) Build(ctx context.Context, userID uint) (*Snapshot, error) {
	snap := &Snapshot{UserID: userID}
	weekStart := WeekStart(s.now(), s.loc)
	weekEnd := weekStart.AddDate(0, 0, 7)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if snap.Quiz, err = quizTable.stats(tx, userID); err != nil {
			return fmt.Errorf("汇总测验记录失败: %w", err)
		}
		if snap.Shape, err = shapeTable.stats(tx, userID); err != nil {
			return fmt.Errorf("汇总拼图记录失败: %w", err)
		}
		if snap.Math, err = mathTable.stats(tx, userID); err != nil {
			return fmt.Errorf("汇总数学记录失败: %w", err)
		}

		spins, err := spinTable.aggregate(tx, userID)
		if err != nil {
			return fmt.Errorf("汇总转盘记录失败: %w", err)
		}
		snap.ColorWheel = ColorWheelSummary{Spins: spins.Attempts, CoinsEarned: spins.Coins}

		var stats carnival.ColorWheelStats
		err = tx.Where("user_id = ?", userID).Limit(1).Find(&stats).Error
		if err != nil {
			return fmt.Errorf("读取转盘统计失败: %w", err)
		}
		snap.ColorWheel.FavoriteColor = stats.FavoriteColor

		if snap.TotalCoins, err = ledger.BalanceTx(tx, userID); err != nil {
			return err
		}

		var events []coinEvent
		for _, t := range []resultTable{quizTable, shapeTable, mathTable, spinTable} {
			rows, err := t.events(tx, userID, weekStart, weekEnd)
			if err != nil {
				return fmt.Errorf("读取本周记录失败: %w", err)
			}
			events = append(events, rows...)
		}
		snap.Weekly = WeeklySeries(weekStart, events)
		return nil
	})
	if err != nil {
		return nil, err
	}

	snap.TotalEarned = snap.Quiz.CoinsEarned + snap.Shape.CoinsEarned + snap.Math.CoinsEarned + snap.ColorWheel.CoinsEarned
	combined := CombinedScore(snap.Quiz, snap.Shape, snap.Math)
	snap.PerformanceLevel = Tier(combined)
	snap.CombinedScore = round2(combined)
	snap.Quiz, snap.Shape, snap.Math = snap.Quiz.rounded(), snap.Shape.rounded(), snap.Math.rounded()
	snap.WeekStart = weekStart.Format("2006-01-02")
	return snap, nil
}
