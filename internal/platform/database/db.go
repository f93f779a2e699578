package database

import (
	"fmt"
	"time"

	"github.com/SlpAus/little-learners-backend/internal/platform/config"
	"github.com/SlpAus/little-learners-backend/internal/platform/logger"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DB 是全局的数据库连接，由 main 初始化
var DB *gorm.DB

// sqliteDSNOptions 让并发写入排队等待，而不是立刻返回 SQLITE_BUSY
const sqliteDSNOptions = "_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on"

// InitDB 根据配置初始化数据库连接并赋值给全局 DB
func InitDB(cfg config.DatabaseConfig) error {
	db, err := Open(cfg)
	if err != nil {
		return err
	}
	DB = db
	logger.Log.WithField("driver", cfg.Driver).Info("数据库连接成功！")
	return nil
}

// Open 打开一个新的 gorm 连接，不修改全局变量，测试中也使用它
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	// GORM日志统一走 logrus
	newLogger := gormlogger.New(
		logger.Log,
		gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	gormCfg := &gorm.Config{
		Logger:         newLogger,
		TranslateError: true,
		// SQLite 以文本保存时间，统一使用UTC才能按时间范围比较
		NowFunc: func() time.Time { return time.Now().UTC() },
	}

	switch cfg.Driver {
	case "", "sqlite":
		db, err := gorm.Open(sqlite.Open(SqliteDSN(cfg.Sqlite.Path)), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("连接SQLite失败: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("获取底层连接失败: %w", err)
		}
		// SQLite 同一时刻只允许一个写者，单连接让写事务在连接池中排队
		sqlDB.SetMaxOpenConns(1)
		return db, nil
	case "postgres":
		db, err := gorm.Open(postgres.Open(cfg.Postgres.DSN), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("连接Postgres失败: %w", err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("不支持的数据库驱动: %s", cfg.Driver)
	}
}

// SqliteDSN 为数据库文件路径加上连接参数
func SqliteDSN(path string) string {
	sep := "?"
	for _, r := range path {
		if r == '?' {
			sep = "&"
			break
		}
	}
	return path + sep + sqliteDSNOptions
}
