package quiz

import (
	"context"
	"sync"
	"testing"

	"github.com/SlpAus/little-learners-backend/internal/gamestate"
	"github.com/SlpAus/little-learners-backend/internal/ledger"
	"github.com/SlpAus/little-learners-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*Service, *ledger.Service, *gorm.DB) {
	db := testutil.NewDB(t, &QuizResult{}, &ledger.CoinBalance{}, &gamestate.GameState{})
	bank, err := DefaultBank(5)
	require.NoError(t, err)
	l := ledger.NewService(db)
	return NewService(db, l, bank, 5), l, db
}

func correctAnswers(qs []Question) map[string]string {
	answers := make(map[string]string, len(qs))
	for _, q := range qs {
		answers[q.ID] = " " + q.Answer + " "
	}
	return answers
}

func TestSubmit_WithoutStart(t *testing.T) {
	s, _, _ := newTestService(t)
	_, err := s.Submit(context.Background(), 1, map[string]string{})
	assert.ErrorIs(t, err, ErrNoActiveQuiz)
}

func TestStart_UnknownCategory(t *testing.T) {
	s, _, _ := newTestService(t)
	_, err := s.Start(context.Background(), 1, "dinosaurs")
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestSubmit_ScoresRecordsAndCredits(t *testing.T) {
	s, l, db := newTestService(t)
	ctx := context.Background()

	qs, err := s.Start(ctx, 1, "general")
	require.NoError(t, err)
	require.Len(t, qs, 5)

	answers := correctAnswers(qs)
	answers[qs[0].ID] = "definitely wrong"

	out, err := s.Submit(ctx, 1, answers)
	require.NoError(t, err)
	assert.Equal(t, 4, out.Score)
	assert.Equal(t, 5, out.Total)
	assert.Equal(t, int64(4), out.CoinsEarned)
	assert.Equal(t, int64(4), out.TotalCoins)

	var rows []QuizResult
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, 4, rows[0].Score)
	assert.Equal(t, "general", rows[0].Category)

	bal, err := l.GetBalance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(4), bal)

	// 一轮测验只能提交一次
	_, err = s.Submit(ctx, 1, answers)
	assert.ErrorIs(t, err, ErrNoActiveQuiz)
}

func TestSubmit_IgnoresAnswersForOtherQuestions(t *testing.T) {
	s, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := s.Start(ctx, 2, "numbers")
	require.NoError(t, err)
	out, err := s.Submit(ctx, 2, map[string]string{"gen-capital": "Delhi"})
	require.NoError(t, err)
	assert.Zero(t, out.Score)
	assert.Zero(t, out.TotalCoins)
}

func TestStart_ReplacesActiveQuiz(t *testing.T) {
	s, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := s.Start(ctx, 3, "animals")
	require.NoError(t, err)
	second, err := s.Start(ctx, 3, "science")
	require.NoError(t, err)

	category, active, err := s.Active(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "science", category)
	assert.Equal(t, second, active)
}

func TestSettle_RoundAlreadyClosed(t *testing.T) {
	s, l, db := newTestService(t)
	ctx := context.Background()

	_, err := s.Start(ctx, 5, "general")
	require.NoError(t, err)
	category, qs, err := s.Active(ctx, 5)
	require.NoError(t, err)

	// 另一个请求在读取之后抢先结算了这一轮
	require.NoError(t, gamestate.Delete(ctx, db, gamestate.QuizKey(5)))

	_, err = s.settle(ctx, 5, category, qs, correctAnswers(qs))
	assert.ErrorIs(t, err, ErrNoActiveQuiz)

	var count int64
	require.NoError(t, db.Model(&QuizResult{}).Count(&count).Error)
	assert.Zero(t, count)
	bal, err := l.GetBalance(ctx, 5)
	require.NoError(t, err)
	assert.Zero(t, bal)
}

func TestSubmit_ConcurrentPaysOnce(t *testing.T) {
	s, l, db := newTestService(t)
	concurrentSubmitPaysOnce(t, s, l, db)
}

// Postgres 的并发事务会同时通过读取检查，只能靠事务内的删除保证只结算一次
func TestSubmit_ConcurrentPaysOncePostgres(t *testing.T) {
	db := testutil.NewPostgresDB(t, &QuizResult{}, &ledger.CoinBalance{}, &gamestate.GameState{})
	bank, err := DefaultBank(5)
	require.NoError(t, err)
	l := ledger.NewService(db)
	concurrentSubmitPaysOnce(t, NewService(db, l, bank, 5), l, db)
}

func concurrentSubmitPaysOnce(t *testing.T, s *Service, l *ledger.Service, db *gorm.DB) {
	t.Helper()
	ctx := context.Background()

	qs, err := s.Start(ctx, 6, "animals")
	require.NoError(t, err)
	answers := correctAnswers(qs)

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.Submit(ctx, 6, answers)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrNoActiveQuiz)
	}
	assert.Equal(t, 1, succeeded)

	var count int64
	require.NoError(t, db.Model(&QuizResult{}).Where("user_id = ?", 6).Count(&count).Error)
	assert.Equal(t, int64(1), count)
	bal, err := l.GetBalance(ctx, 6)
	require.NoError(t, err)
	assert.Equal(t, int64(len(qs)), bal)
}
