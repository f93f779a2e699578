package gamestate

import "time"

// GameState 定义了按用户持久化小游戏进度的键值对表结构
type GameState struct {
	ID uint `gorm:"primarykey"`

	// Key 是带命名空间的唯一键，例如 "shape:42"
	Key string `gorm:"uniqueIndex;not null;type:varchar(255)"`

	// Value 是序列化后的JSON
	Value string `gorm:"type:text;not null"`

	UpdatedAt time.Time
}
