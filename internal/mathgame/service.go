package mathgame

import (
	"context"
	"errors"
	"fmt"

	"github.com/SlpAus/little-learners-backend/internal/ledger"
	"github.com/SlpAus/little-learners-backend/internal/platform/metrics"
	"gorm.io/gorm"
)

// MaxScore 是一关的满分
const MaxScore = 10

var ErrInvalidSubmission = errors.New("level must be at least 1 and score between 0 and 10")

// Outcome 是完成一关之后的结果
type Outcome struct {
	CoinsEarned int64
	TotalCoins  int64
	Message     string
}

type Service struct {
	db            *gorm.DB
	ledger        *ledger.Service
	coinsPerLevel int
}

func NewService(db *gorm.DB, l *ledger.Service, coinsPerLevel int) *Service {
	if coinsPerLevel < 0 {
		coinsPerLevel = 0
	}
	return &Service{db: db, ledger: l, coinsPerLevel: coinsPerLevel}
}

// Complete 记录完成的一关并发放固定金币
func (s *Service) Complete(ctx context.Context, userID uint, level, score int) (*Outcome, error) {
	if level < 1 || score < 0 || score > MaxScore {
		return nil, ErrInvalidSubmission
	}

	coins := int64(s.coinsPerLevel)
	row := MathResult{
		UserID:       userID,
		Level:        level,
		Score:        score,
		CoinsAwarded: s.coinsPerLevel,
	}
	total, err := s.ledger.RecordAndCredit(ctx, userID, ledger.ActivityMath, coins, func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("写入数学关卡记录失败: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.ResultsRecorded.WithLabelValues(ledger.ActivityMath, metrics.Outcome(true)).Inc()

	return &Outcome{
		CoinsEarned: coins,
		TotalCoins:  total,
		Message:     fmt.Sprintf("Level %d complete! You earned %d coins.", level, coins),
	}, nil
}
