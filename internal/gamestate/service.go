package gamestate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Load 读取 key 对应的状态并反序列化到 dst。
// 键不存在时返回 false 且不修改 dst。
func Load(ctx context.Context, db *gorm.DB, key string, dst any) (bool, error) {
	var row GameState
	err := db.WithContext(ctx).Where("key = ?", key).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("读取游戏状态 '%s' 失败: %w", key, err)
	}
	if err := json.Unmarshal([]byte(row.Value), dst); err != nil {
		return false, fmt.Errorf("无法解析游戏状态 '%s': %w", key, err)
	}
	return true, nil
}

// Save 以 upsert 的方式写入 key 对应的状态
func Save(ctx context.Context, db *gorm.DB, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("无法序列化游戏状态 '%s': %w", key, err)
	}
	row := GameState{
		Key:       key,
		Value:     string(raw),
		UpdatedAt: time.Now().UTC(),
	}
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
}

// Delete 删除 key 对应的状态，键不存在不视为错误
func Delete(ctx context.Context, db *gorm.DB, key string) error {
	return db.WithContext(ctx).Where("key = ?", key).Delete(&GameState{}).Error
}

// Consume 删除 key 对应的状态，并报告这次调用是否真的删掉了一行。
// 并发的两个事务中只有一个会得到 true，用它来保证一份状态只被结算一次。
func Consume(ctx context.Context, db *gorm.DB, key string) (bool, error) {
	res := db.WithContext(ctx).Where("key = ?", key).Delete(&GameState{})
	if res.Error != nil {
		return false, fmt.Errorf("删除游戏状态 '%s' 失败: %w", key, res.Error)
	}
	return res.RowsAffected == 1, nil
}
