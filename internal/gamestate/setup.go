package gamestate

import (
	"fmt"

	"github.com/SlpAus/little-learners-backend/internal/platform/logger"
	"gorm.io/gorm"
)

// PrimeDB 负责初始化gamestate模块的数据库部分
func PrimeDB(db *gorm.DB) error {
	if err := db.AutoMigrate(&GameState{}); err != nil {
		return fmt.Errorf("无法迁移game_states表: %w", err)
	}
	logger.Log.Info("GameState数据库表迁移成功。")
	return nil
}
