package mathgame

import (
	"fmt"

	"github.com/SlpAus/little-learners-backend/internal/platform/logger"
	"gorm.io/gorm"
)

// PrimeDB 迁移数学关卡记录表
func PrimeDB(db *gorm.DB) error {
	if err := db.AutoMigrate(&MathResult{}); err != nil {
		return fmt.Errorf("无法迁移math_results表: %w", err)
	}
	logger.Log.Info("MathResult数据库表迁移成功。")
	return nil
}
