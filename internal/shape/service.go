package shape

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/SlpAus/little-learners-backend/internal/gamestate"
	"github.com/SlpAus/little-learners-backend/internal/ledger"
	"github.com/SlpAus/little-learners-backend/internal/platform/config"
	"github.com/SlpAus/little-learners-backend/internal/platform/metrics"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound    = errors.New("task not found")
	ErrNotEnoughShapes = errors.New("not enough shapes")
)

const (
	similaritySuccess = 100
	similarityFailure = 0
)

// Result 是一次校验的结果
type Result struct {
	Valid   bool
	Message string
	Award   int64 // 本次获得的金币
	Coins   int64 // 校验后的余额
}

type Service struct {
	db     *gorm.DB
	ledger *ledger.Service
	cat    *Catalogue
	cfg    config.ShapeConfig
	rng    *rand.Rand
}

func NewService(db *gorm.DB, l *ledger.Service, cat *Catalogue, cfg config.ShapeConfig) *Service {
	if cfg.MinShapes < 1 {
		cfg.MinShapes = 1
	}
	if cfg.CoinsPerSuccess < 0 {
		cfg.CoinsPerSuccess = 0
	}
	return &Service{db: db, ledger: l, cat: cat, cfg: cfg}
}

func (s *Service) loadState(ctx context.Context, db *gorm.DB, userID uint) (progressState, error) {
	var st progressState
	if _, err := gamestate.Load(ctx, db, gamestate.ShapeKey(userID), &st); err != nil {
		return progressState{}, err
	}
	return st, nil
}

func (s *Service) intn(n int) int {
	if s.rng != nil {
		return s.rng.IntN(n)
	}
	return rand.IntN(n)
}

// NextTask 随机选择一个用户尚未完成的任务作为当前任务。
// 全部完成后清空已完成集合，重新开始。
func (s *Service) NextTask(ctx context.Context, userID uint) (Task, error) {
	st, err := s.loadState(ctx, s.db, userID)
	if err != nil {
		return Task{}, err
	}

	var candidates []string
	for _, id := range s.cat.IDs() {
		if !st.isCompleted(id) {
			candidates = append(candidates, id)
		}
	}
	if len(candidates) == 0 {
		st.Completed = nil
		candidates = s.cat.IDs()
	}

	id := candidates[s.intn(len(candidates))]
	st.CurrentTaskID = id
	if err := gamestate.Save(ctx, s.db, gamestate.ShapeKey(userID), st); err != nil {
		return Task{}, err
	}
	task, _ := s.cat.Get(id)
	return task, nil
}

// Validate 校验提交的图形。成功与失败都会写入记录，成功时发放金币并把任务标记为完成。
// taskID 为空时使用用户当前的任务。
func (s *Service) Validate(ctx context.Context, userID uint, taskID string, shapes []Submitted) (*Result, error) {
	if taskID == "" {
		st, err := s.loadState(ctx, s.db, userID)
		if err != nil {
			return nil, err
		}
		taskID = st.CurrentTaskID
	}
	task, ok := s.cat.Get(taskID)
	if !ok {
		return nil, ErrTaskNotFound
	}
	if len(shapes) < s.cfg.MinShapes {
		return nil, ErrNotEnoughShapes
	}

	valid := HasRequiredTypes(task.RequiredShapes, shapes)
	message := fmt.Sprintf("Great job! You built the %s!", task.Name)
	if !valid {
		message = "Some shapes are missing."
	} else if s.cfg.EnforcePositions && !WithinTolerance(task.TargetShapes, shapes, s.cfg.PositionTolerance) {
		valid = false
		message = "Almost there! Move your shapes closer to the picture."
	}

	award := int64(0)
	similarity := similarityFailure
	if valid {
		award = int64(s.cfg.CoinsPerSuccess)
		similarity = similaritySuccess
	}

	row := ShapeResult{
		UserID:          userID,
		TaskID:          task.ID,
		SimilarityScore: similarity,
		CoinsAwarded:    int(award),
	}
	total, err := s.ledger.RecordAndCredit(ctx, userID, ledger.ActivityShape, award, func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("写入拼图记录失败: %w", err)
		}
		if !valid {
			return nil
		}
		st, err := s.loadState(ctx, tx, userID)
		if err != nil {
			return err
		}
		st.markCompleted(task.ID)
		return gamestate.Save(ctx, tx, gamestate.ShapeKey(userID), st)
	})
	if err != nil {
		return nil, err
	}
	metrics.ResultsRecorded.WithLabelValues(ledger.ActivityShape, metrics.Outcome(valid)).Inc()

	return &Result{Valid: valid, Message: message, Award: award, Coins: total}, nil
}

// Completed 返回用户已完成的任务ID
func (s *Service) Completed(ctx context.Context, userID uint) ([]string, error) {
	st, err := s.loadState(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	return st.Completed, nil
}
