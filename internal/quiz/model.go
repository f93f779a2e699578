package quiz

import "time"

// QuizResult 是一次测验的记录，只追加不修改。得到的金币数等于 Score。
type QuizResult struct {
	ID        uint      `gorm:"primarykey"`
	UserID    uint      `gorm:"index;not null"`
	Category  string    `gorm:"type:varchar(32)"`
	Score     int       `gorm:"not null"`
	Total     int       `gorm:"not null"`
	CreatedAt time.Time `gorm:"index"`
}

// activeQuiz 是保存在 gamestate 中的进行中测验
type activeQuiz struct {
	Category    string    `json:"category"`
	QuestionIDs []string  `json:"question_ids"`
	StartedAt   time.Time `json:"started_at"`
}
