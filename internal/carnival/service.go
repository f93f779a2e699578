package carnival

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/SlpAus/little-learners-backend/internal/ledger"
	"github.com/SlpAus/little-learners-backend/internal/platform/health"
	"github.com/SlpAus/little-learners-backend/internal/platform/logger"
	"github.com/SlpAus/little-learners-backend/internal/platform/metrics"
	"github.com/SlpAus/little-learners-backend/internal/user"
	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 100
	DefaultHistoryLimit     = 20
)

var ErrUnknownColor = errors.New("unknown wheel color")

// SpinOutcome 是记录一次转动之后返回给调用方的内容
type SpinOutcome struct {
	SpinResult
	TotalCoins int64           `json:"total_coins"`
	Stats      ColorWheelStats `json:"stats"`
}

// LeaderboardEntry 是排行榜中的一行
type LeaderboardEntry struct {
	Rank       int    `json:"rank"`
	UserID     uint   `json:"user_id"`
	Username   string `json:"username"`
	TotalCoins int64  `json:"total_coins"`
}

type Service struct {
	db     *gorm.DB
	rdb    *redis.Client
	ledger *ledger.Service
	wheel  *Wheel
	rng    *rand.Rand
}

func NewService(db *gorm.DB, rdb *redis.Client, l *ledger.Service, wheel *Wheel) *Service {
	return &Service{db: db, rdb: rdb, ledger: l, wheel: wheel}
}

// Wheel 返回转盘配置
func (s *Service) Wheel() *Wheel { return s.wheel }

// Spin 转动转盘，不产生任何写入
func (s *Service) Spin() SpinResult {
	return s.wheel.Spin(s.rng)
}

// RecordSpin 在一个事务中写入转动记录、发放金币并更新统计。
// payload 为空时保存转动结果本身作为动画数据。
func (s *Service) RecordSpin(ctx context.Context, userID uint, result SpinResult, payload json.RawMessage) (*SpinOutcome, error) {
	seg, ok := s.wheel.Lookup(result.Color)
	if !ok {
		return nil, ErrUnknownColor
	}
	// 金币以服务端的色块配置为准
	result.Code, result.Coins = seg.Code, seg.Coins

	if len(payload) == 0 || string(payload) == "null" {
		raw, err := json.Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("无法序列化转盘数据: %w", err)
		}
		payload = raw
	}

	var stats ColorWheelStats
	total, err := s.ledger.RecordAndCredit(ctx, userID, ledger.ActivityCarnival, int64(seg.Coins), func(tx *gorm.DB) error {
		spin := ColorSpin{
			UserID:      userID,
			ColorName:   seg.Name,
			ColorCode:   seg.Code,
			CoinsEarned: seg.Coins,
			SpinData:    datatypes.JSON(payload),
		}
		if err := tx.Create(&spin).Error; err != nil {
			return fmt.Errorf("写入转盘记录失败: %w", err)
		}
		var err error
		stats, err = upsertStats(tx, userID, seg.Coins, spin.CreatedAt)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.SpinsByColor.WithLabelValues(seg.Name).Inc()
	metrics.ResultsRecorded.WithLabelValues(ledger.ActivityCarnival, metrics.Outcome(true)).Inc()
	s.bumpLeaderboard(ctx, userID, seg.Coins)

	return &SpinOutcome{SpinResult: result, TotalCoins: total, Stats: stats}, nil
}

// favoriteColor 返回用户转到次数最多的颜色，次数相同时取名字靠前的
func favoriteColor(tx *gorm.DB, userID uint) (string, error) {
	var row struct {
		ColorName string
		Hits      int64
	}
	err := tx.Model(&ColorSpin{}).
		Select("color_name, COUNT(*) AS hits").
		Where("user_id = ?", userID).
		Group("color_name").
		Order("hits DESC, color_name ASC").
		Limit(1).
		Scan(&row).Error
	if err != nil {
		return "", fmt.Errorf("统计最喜欢的颜色失败: %w", err)
	}
	return row.ColorName, nil
}

// upsertStats 先累加次数和金币拿到统计行的行锁，再计算最喜欢的颜色。
// 同一用户的并发转动在这里排队，后提交的一方能看到先提交的转动记录。
func upsertStats(tx *gorm.DB, userID uint, coins int, at time.Time) (ColorWheelStats, error) {
	now := time.Now().UTC()
	if at.IsZero() {
		at = now
	}
	row := ColorWheelStats{
		UserID:           userID,
		TotalSpins:       1,
		TotalCoinsEarned: int64(coins),
		LastSpinAt:       &at,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"total_spins":        gorm.Expr("color_wheel_stats.total_spins + 1"),
			"total_coins_earned": gorm.Expr("color_wheel_stats.total_coins_earned + ?", coins),
			"last_spin_at":       at,
			"updated_at":         now,
		}),
	}).Create(&row).Error
	if err != nil {
		return ColorWheelStats{}, fmt.Errorf("更新转盘统计失败: %w", err)
	}

	fav, err := favoriteColor(tx, userID)
	if err != nil {
		return ColorWheelStats{}, err
	}
	err = tx.Model(&ColorWheelStats{}).
		Where("user_id = ?", userID).
		Update("favorite_color", fav).Error
	if err != nil {
		return ColorWheelStats{}, fmt.Errorf("更新最喜欢的颜色失败: %w", err)
	}

	var stats ColorWheelStats
	if err := tx.Where("user_id = ?", userID).First(&stats).Error; err != nil {
		return ColorWheelStats{}, fmt.Errorf("读取转盘统计失败: %w", err)
	}
	return stats, nil
}

// bumpLeaderboard 在事务提交之后更新Redis排行榜。
// 失败只会降级，排行榜会在Redis恢复后从数据库重建。
func (s *Service) bumpLeaderboard(ctx context.Context, userID uint, coins int) {
	if s.rdb == nil || !health.IsRedisHealthy() {
		return
	}
	member := strconv.FormatUint(uint64(userID), 10)
	if err := s.rdb.ZIncrBy(ctx, LeaderboardKey, float64(coins), member).Err(); err != nil {
		health.MarkDegraded()
		logger.WithUser(userID).WithError(err).Warn("更新转盘排行榜失败")
	}
}

// Stats 返回用户的转盘统计，没有转动过时返回零值
func (s *Service) Stats(ctx context.Context, userID uint) (ColorWheelStats, error) {
	var rows []ColorWheelStats
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Limit(1).Find(&rows).Error; err != nil {
		return ColorWheelStats{}, fmt.Errorf("读取转盘统计失败: %w", err)
	}
	if len(rows) == 0 {
		return ColorWheelStats{UserID: userID}, nil
	}
	return rows[0], nil
}

// History 返回最近的转动记录，最新的在前
func (s *Service) History(ctx context.Context, userID uint, limit int) ([]ColorSpin, error) {
	if limit <= 0 || limit > MaxLeaderboardLimit {
		limit = DefaultHistoryLimit
	}
	spins := make([]ColorSpin, 0, limit)
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&spins).Error
	if err != nil {
		return nil, fmt.Errorf("读取转盘历史失败: %w", err)
	}
	return spins, nil
}

// ClampLimit 把排行榜条数限制在 [1, MaxLeaderboardLimit]
func ClampLimit(limit, fallback int) int {
	if limit <= 0 {
		limit = fallback
	}
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	if limit > MaxLeaderboardLimit {
		limit = MaxLeaderboardLimit
	}
	return limit
}

// Leaderboard 按累计转盘金币降序返回前 limit 名。
// Redis健康时读取有序集合，否则直接从数据库汇总。
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	limit = ClampLimit(limit, DefaultLeaderboardLimit)

	var entries []LeaderboardEntry
	var err error
	if s.rdb != nil && health.IsRedisHealthy() {
		entries, err = s.leaderboardFromRedis(ctx, limit)
		if err != nil {
			health.MarkDegraded()
			logger.WithError(err).Warn("从Redis读取排行榜失败，改用数据库")
			entries, err = s.leaderboardFromDB(ctx, limit)
		}
	} else {
		entries, err = s.leaderboardFromDB(ctx, limit)
	}
	if err != nil {
		return nil, err
	}
	if err := s.fillUsernames(ctx, entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *Service) leaderboardFromRedis(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	zs, err := s.rdb.ZRevRangeWithScores(ctx, LeaderboardKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	entries := make([]LeaderboardEntry, 0, len(zs))
	for i, z := range zs {
		member, _ := z.Member.(string)
		id, err := strconv.ParseUint(member, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("排行榜成员 %q 无效: %w", member, err)
		}
		entries = append(entries, LeaderboardEntry{
			Rank:       i + 1,
			UserID:     uint(id),
			TotalCoins: int64(z.Score),
		})
	}
	return entries, nil
}

type coinSum struct {
	UserID uint
	Total  int64
}

func sumByUser(db *gorm.DB, limit int) ([]coinSum, error) {
	var sums []coinSum
	q := db.Model(&ColorSpin{}).
		Select("user_id, SUM(coins_earned) AS total").
		Group("user_id").
		Order("total DESC, user_id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(&sums).Error; err != nil {
		return nil, fmt.Errorf("汇总转盘金币失败: %w", err)
	}
	return sums, nil
}

func (s *Service) leaderboardFromDB(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	sums, err := sumByUser(s.db.WithContext(ctx), limit)
	if err != nil {
		return nil, err
	}
	entries := make([]LeaderboardEntry, len(sums))
	for i, r := range sums {
		entries[i] = LeaderboardEntry{Rank: i + 1, UserID: r.UserID, TotalCoins: r.Total}
	}
	return entries, nil
}

func (s *Service) fillUsernames(ctx context.Context, entries []LeaderboardEntry) error {
	if len(entries) == 0 {
		return nil
	}
	ids := make([]uint, len(entries))
	for i, e := range entries {
		ids[i] = e.UserID
	}
	var users []user.User
	if err := s.db.WithContext(ctx).Select("id", "username", "display_name").Where("id IN ?", ids).Find(&users).Error; err != nil {
		return fmt.Errorf("读取排行榜用户名失败: %w", err)
	}
	names := make(map[uint]string, len(users))
	for i := range users {
		names[users[i].ID] = users[i].Name()
	}
	for i := range entries {
		entries[i].Username = names[entries[i].UserID]
	}
	return nil
}

// WarmupCache 从数据库重建Redis排行榜
func (s *Service) WarmupCache(ctx context.Context) error {
	if s.rdb == nil {
		return nil
	}
	sums, err := sumByUser(s.db.WithContext(ctx), 0)
	if err != nil {
		return err
	}

	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, LeaderboardKey)
	if len(sums) > 0 {
		members := make([]redis.Z, len(sums))
		for i, r := range sums {
			members[i] = redis.Z{Score: float64(r.Total), Member: strconv.FormatUint(uint64(r.UserID), 10)}
		}
		pipe.ZAdd(ctx, LeaderboardKey, members...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("预热转盘排行榜失败: %w", err)
	}
	logger.Log.WithField("users", len(sums)).Info("转盘排行榜预热完成")
	return nil
}
