package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/SlpAus/little-learners-backend/internal/platform/logger"
	"github.com/SlpAus/little-learners-backend/internal/platform/metrics"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrInvalidAmount 表示试图发放负数金币
var ErrInvalidAmount = errors.New("credit amount must not be negative")

// AppendFunc 在发放金币的同一个事务中写入小游戏记录
type AppendFunc func(tx *gorm.DB) error

// CreditedFunc 在事务提交之后被调用
type CreditedFunc func(ctx context.Context, userID uint)

// Service 管理金币余额。只有发放，没有扣除。
type Service struct {
	db *gorm.DB

	mu          sync.RWMutex
	subscribers []CreditedFunc
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// OnCredited 注册一个在每次成功发放之后调用的回调
func (s *Service) OnCredited(fn CreditedFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// Credit 在独立事务中给用户发放金币，返回新的余额
func (s *Service) Credit(ctx context.Context, userID uint, amount int64) (int64, error) {
	return s.RecordAndCredit(ctx, userID, ActivityDirect, amount, nil)
}

// CreditTx 在调用方的事务中发放金币。
// 余额行不存在时以0创建；累加通过一条 upsert 语句在数据库内完成，并发发放不会丢失更新。
func CreditTx(tx *gorm.DB, userID uint, amount int64) (int64, error) {
	if amount < 0 {
		return 0, ErrInvalidAmount
	}

	now := time.Now().UTC()
	row := CoinBalance{UserID: userID, Coins: amount, CreatedAt: now, UpdatedAt: now}
	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"coins":      gorm.Expr("coin_balances.coins + ?", amount),
			"updated_at": now,
		}),
	}).Create(&row).Error
	if err != nil {
		return 0, fmt.Errorf("更新用户 %d 的金币余额失败: %w", userID, err)
	}

	var total int64
	if err := tx.Model(&CoinBalance{}).
		Where("user_id = ?", userID).
		Select("coins").
		Scan(&total).Error; err != nil {
		return 0, fmt.Errorf("读取用户 %d 的金币余额失败: %w", userID, err)
	}
	return total, nil
}

// RecordAndCredit 是所有小游戏共用的“写记录并发金币”单元。
// appendFn 与金币更新处于同一个事务，任一失败都会整体回滚。
func (s *Service) RecordAndCredit(ctx context.Context, userID uint, activity string, amount int64, appendFn AppendFunc) (int64, error) {
	if amount < 0 {
		return 0, ErrInvalidAmount
	}

	var total int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if appendFn != nil {
			if err := appendFn(tx); err != nil {
				return err
			}
		}
		var err error
		total, err = CreditTx(tx, userID, amount)
		return err
	})
	if err != nil {
		logger.WithUser(userID).WithError(err).WithField("activity", activity).Error("写入记录并发放金币失败，事务已回滚")
		return 0, err
	}

	metrics.CoinsCredited.WithLabelValues(activity).Add(float64(amount))
	s.notify(ctx, userID)
	return total, nil
}

func (s *Service) notify(ctx context.Context, userID uint) {
	s.mu.RLock()
	subs := make([]CreditedFunc, len(s.subscribers))
	copy(subs, s.subscribers)
	s.mu.RUnlock()

	for _, fn := range subs {
		fn(ctx, userID)
	}
}

// GetBalance 返回用户当前余额，没有余额行时返回0
func (s *Service) GetBalance(ctx context.Context, userID uint) (int64, error) {
	return BalanceTx(s.db.WithContext(ctx), userID)
}

// BalanceTx 在给定连接或事务上读取余额
func BalanceTx(db *gorm.DB, userID uint) (int64, error) {
	var rows []CoinBalance
	if err := db.Where("user_id = ?", userID).Limit(1).Find(&rows).Error; err != nil {
		return 0, fmt.Errorf("读取用户 %d 的金币余额失败: %w", userID, err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Coins, nil
}
