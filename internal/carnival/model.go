package carnival

import (
	"time"

	"gorm.io/datatypes"
)

// ColorSpin 是一次转动的记录，SpinData 原样保存前端的动画数据
type ColorSpin struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	UserID      uint           `gorm:"index;not null" json:"-"`
	ColorName   string         `gorm:"type:varchar(32);not null" json:"color_name"`
	ColorCode   string         `gorm:"type:varchar(7)" json:"color_code"`
	CoinsEarned int            `gorm:"not null" json:"coins_earned"`
	SpinData    datatypes.JSON `json:"spin_data"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
}

// ColorWheelStats 每个用户一条，每次转动后更新
type ColorWheelStats struct {
	ID               uint       `gorm:"primarykey" json:"-"`
	UserID           uint       `gorm:"uniqueIndex;not null" json:"user_id"`
	TotalSpins       int        `gorm:"not null;default:0" json:"total_spins"`
	TotalCoinsEarned int64      `gorm:"not null;default:0" json:"total_coins_earned"`
	FavoriteColor    string     `gorm:"type:varchar(32)" json:"favorite_color"`
	LastSpinAt       *time.Time `json:"last_spin_at"`
	CreatedAt        time.Time  `json:"-"`
	UpdatedAt        time.Time  `json:"-"`
}

// TableName 固定表名
func (ColorWheelStats) TableName() string { return "color_wheel_stats" }
