package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/SlpAus/little-learners-backend/internal/platform/config"
	"github.com/SlpAus/little-learners-backend/internal/platform/logger"
	"github.com/redis/go-redis/v9"
)

// RDB 是一个全局的Redis客户端实例，供项目其他部分使用
var RDB *redis.Client

// InitRedis 初始化与Redis数据库的连接
func InitRedis(ctx context.Context, cfg config.RedisConfig) error {
	RDB = redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// 使用Ping命令来测试连接是否成功
	if err := RDB.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("无法连接到Redis: %w", err)
	}

	logger.Log.WithField("address", cfg.Address).Info("Redis 连接成功！")
	return nil
}

// Close 关闭全局的数据库和Redis连接，在停机的最后一步调用
func Close() error {
	var errs []error
	if RDB != nil {
		errs = append(errs, RDB.Close())
	}
	if DB != nil {
		if sqlDB, err := DB.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	return errors.Join(errs...)
}
