package quiz

import (
	"fmt"

	"github.com/SlpAus/little-learners-backend/internal/platform/logger"
	"gorm.io/gorm"
)

// PrimeDB 迁移测验记录表
func PrimeDB(db *gorm.DB) error {
	if err := db.AutoMigrate(&QuizResult{}); err != nil {
		return fmt.Errorf("无法迁移quiz_results表: %w", err)
	}
	logger.Log.Info("QuizResult数据库表迁移成功。")
	return nil
}
