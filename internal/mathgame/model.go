package mathgame

import "time"

// MathResult 记录完成的一关
type MathResult struct {
	ID           uint      `gorm:"primarykey"`
	UserID       uint      `gorm:"index;not null"`
	Level        int       `gorm:"not null"`
	Score        int       `gorm:"not null"`
	CoinsAwarded int       `gorm:"not null;default:0"`
	CreatedAt    time.Time `gorm:"index"`
}
