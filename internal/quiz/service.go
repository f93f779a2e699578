package quiz

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/SlpAus/little-learners-backend/internal/gamestate"
	"github.com/SlpAus/little-learners-backend/internal/ledger"
	"github.com/SlpAus/little-learners-backend/internal/platform/metrics"
	"gorm.io/gorm"
)

var (
	ErrUnknownCategory = errors.New("unknown quiz category")
	ErrNoActiveQuiz    = errors.New("no active quiz, please start a new one")
)

// Outcome 是提交测验后的结果
type Outcome struct {
	Score       int    `json:"score"`
	Total       int    `json:"total"`
	CoinsEarned int64  `json:"coins_earned"`
	TotalCoins  int64  `json:"total_coins"`
	Message     string `json:"message"`
	Category    string `json:"category"`
}

type Service struct {
	db       *gorm.DB
	ledger   *ledger.Service
	bank     *Bank
	perRound int
	rng      *rand.Rand
}

func NewService(db *gorm.DB, l *ledger.Service, bank *Bank, perRound int) *Service {
	if perRound <= 0 {
		perRound = 5
	}
	return &Service{db: db, ledger: l, bank: bank, perRound: perRound}
}

// Bank 返回题库
func (s *Service) Bank() *Bank { return s.bank }

// Start 开始一轮新测验，覆盖用户之前未完成的测验
func (s *Service) Start(ctx context.Context, userID uint, category string) ([]Question, error) {
	questions, err := s.bank.Pick(category, s.perRound, s.rng)
	if err != nil {
		return nil, err
	}

	state := activeQuiz{Category: category, StartedAt: time.Now()}
	for _, q := range questions {
		state.QuestionIDs = append(state.QuestionIDs, q.ID)
	}
	if err := gamestate.Save(ctx, s.db, gamestate.QuizKey(userID), state); err != nil {
		return nil, err
	}
	return questions, nil
}

// Active 返回用户进行中的测验题目
func (s *Service) Active(ctx context.Context, userID uint) (string, []Question, error) {
	var state activeQuiz
	found, err := gamestate.Load(ctx, s.db, gamestate.QuizKey(userID), &state)
	if err != nil {
		return "", nil, err
	}
	if !found || len(state.QuestionIDs) == 0 {
		return "", nil, ErrNoActiveQuiz
	}
	questions := make([]Question, 0, len(state.QuestionIDs))
	for _, id := range state.QuestionIDs {
		q, ok := s.bank.Lookup(id)
		if !ok {
			// 题库更新后旧题目可能已不存在
			continue
		}
		questions = append(questions, q)
	}
	if len(questions) == 0 {
		return "", nil, ErrNoActiveQuiz
	}
	return state.Category, questions, nil
}

// Submit 评分、写入记录、按得分发放金币，并结束这一轮测验
func (s *Service) Submit(ctx context.Context, userID uint, answers map[string]string) (*Outcome, error) {
	category, questions, err := s.Active(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.settle(ctx, userID, category, questions, answers)
}

// settle 在发放金币的事务里先删除进行中的测验，删不到说明这一轮已被结算
func (s *Service) settle(ctx context.Context, userID uint, category string, questions []Question, answers map[string]string) (*Outcome, error) {
	score := Score(questions, answers)
	result := QuizResult{
		UserID:   userID,
		Category: category,
		Score:    score,
		Total:    len(questions),
	}
	total, err := s.ledger.RecordAndCredit(ctx, userID, ledger.ActivityQuiz, int64(score), func(tx *gorm.DB) error {
		consumed, err := gamestate.Consume(ctx, tx, gamestate.QuizKey(userID))
		if err != nil {
			return err
		}
		if !consumed {
			return ErrNoActiveQuiz
		}
		if err := tx.Create(&result).Error; err != nil {
			return fmt.Errorf("写入测验记录失败: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.ResultsRecorded.WithLabelValues(ledger.ActivityQuiz, metrics.Outcome(score == len(questions))).Inc()

	return &Outcome{
		Score:       score,
		Total:       len(questions),
		CoinsEarned: int64(score),
		TotalCoins:  total,
		Message:     resultMessage(score, len(questions)),
		Category:    category,
	}, nil
}

func resultMessage(score, total int) string {
	switch {
	case total > 0 && score == total:
		return fmt.Sprintf("Perfect! You got all %d right!", total)
	case score*2 >= total:
		return fmt.Sprintf("Great job! You got %d out of %d.", score, total)
	default:
		return fmt.Sprintf("You got %d out of %d. Keep practicing!", score, total)
	}
}
