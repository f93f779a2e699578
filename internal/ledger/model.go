package ledger

import "time"

// CoinBalance 是每个用户唯一的一条金币余额记录
type CoinBalance struct {
	ID        uint  `gorm:"primarykey"`
	UserID    uint  `gorm:"uniqueIndex;not null"`
	Coins     int64 `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// 活动名称，同时作为指标标签
const (
	ActivityQuiz     = "quiz"
	ActivityShape    = "shape"
	ActivityMath     = "math"
	ActivityCarnival = "carnival"
	ActivityDirect   = "direct"
)
