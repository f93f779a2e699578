package shape

import (
	"fmt"

	"github.com/SlpAus/little-learners-backend/internal/platform/logger"
	"gorm.io/gorm"
)

// PrimeDB 迁移拼图记录表
func PrimeDB(db *gorm.DB) error {
	if err := db.AutoMigrate(&ShapeResult{}); err != nil {
		return fmt.Errorf("无法迁移shape_results表: %w", err)
	}
	logger.Log.Info("ShapeResult数据库表迁移成功。")
	return nil
}
