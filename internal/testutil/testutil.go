// Package testutil 提供测试用的内存数据库与Redis。
package testutil

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/SlpAus/little-learners-backend/internal/platform/config"
	"github.com/SlpAus/little-learners-backend/internal/platform/database"
	"github.com/SlpAus/little-learners-backend/internal/platform/logger"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

var dbSeq atomic.Int64

// QuietLogs 屏蔽测试期间的日志输出
func QuietLogs() {
	logger.SetOutput(io.Discard)
}

// NewDB 为每个测试打开一个独立的内存SQLite库并迁移给定模型
func NewDB(t testing.TB, models ...any) *gorm.DB {
	t.Helper()
	QuietLogs()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	path := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, dbSeq.Add(1))
	db, err := database.Open(config.DatabaseConfig{
		Driver: "sqlite",
		Sqlite: config.SqliteConfig{Path: path},
	})
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}
	if len(models) > 0 {
		if err := db.AutoMigrate(models...); err != nil {
			t.Fatalf("迁移测试数据库失败: %v", err)
		}
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// NewPostgresDB 连接 TEST_DATABASE_URL 指向的Postgres，未设置时跳过测试。
// SQLite 只有一个连接，行锁相关的并发行为只能在这里验证。
func NewPostgresDB(t testing.TB, models ...any) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping postgres tests")
	}
	QuietLogs()

	db, err := database.Open(config.DatabaseConfig{
		Driver:   "postgres",
		Postgres: config.PostgresConfig{DSN: dsn},
	})
	if err != nil {
		t.Fatalf("连接测试Postgres失败: %v", err)
	}
	drop := func() {
		if len(models) > 0 {
			_ = db.Migrator().DropTable(models...)
		}
	}
	drop()
	if len(models) > 0 {
		if err := db.AutoMigrate(models...); err != nil {
			t.Fatalf("迁移测试数据库失败: %v", err)
		}
	}
	t.Cleanup(func() {
		drop()
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// NewRedis 启动一个 miniredis 实例并返回连接到它的客户端
func NewRedis(t testing.TB) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}
