package carnival

import (
	"fmt"

	"github.com/SlpAus/little-learners-backend/internal/platform/logger"
	"gorm.io/gorm"
)

// PrimeDB 迁移转盘相关的表
func PrimeDB(db *gorm.DB) error {
	if err := db.AutoMigrate(&ColorSpin{}, &ColorWheelStats{}); err != nil {
		return fmt.Errorf("无法迁移转盘表: %w", err)
	}
	logger.Log.Info("ColorSpin/ColorWheelStats数据库表迁移成功。")
	return nil
}
