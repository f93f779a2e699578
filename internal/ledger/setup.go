package ledger

import (
	"fmt"

	"github.com/SlpAus/little-learners-backend/internal/platform/logger"
	"gorm.io/gorm"
)

// PrimeDB 迁移金币余额表
func PrimeDB(db *gorm.DB) error {
	if err := db.AutoMigrate(&CoinBalance{}); err != nil {
		return fmt.Errorf("无法迁移coin_balances表: %w", err)
	}
	logger.Log.Info("CoinBalance数据库表迁移成功。")
	return nil
}
