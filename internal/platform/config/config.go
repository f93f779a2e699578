package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Cfg 是一个全局变量，用于存储所有应用程序的配置
var Cfg *Config

// Config 结构体定义了应用程序的所有配置项
// 它与 config.yaml 文件的结构完全对应
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Session  SessionConfig  `mapstructure:"session"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	Games    GamesConfig    `mapstructure:"games"`
	Progress ProgressConfig `mapstructure:"progress"`
	Videos   VideosConfig   `mapstructure:"videos"`
}

// ServerConfig 定义了服务器相关的配置
type ServerConfig struct {
	Mode    string     `mapstructure:"mode"`
	Address string     `mapstructure:"address"`
	Secret  string     `mapstructure:"secret"` // 会话Cookie签名密钥，为空时启动时随机生成
	Cors    CorsConfig `mapstructure:"cors"`
}

// CorsConfig 定义了CORS相关的配置
type CorsConfig struct {
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
}

// SessionConfig 定义了服务端会话的配置
type SessionConfig struct {
	CookieName    string        `mapstructure:"cookieName"`
	TTL           time.Duration `mapstructure:"ttl"`
	LoginAttempts int           `mapstructure:"loginAttempts"` // 窗口内允许的登录尝试次数，0表示不限制
	LoginWindow   time.Duration `mapstructure:"loginWindow"`
}

// DatabaseConfig 定义了数据库和缓存相关的配置
type DatabaseConfig struct {
	Driver   string         `mapstructure:"driver"` // sqlite 或 postgres
	Sqlite   SqliteConfig   `mapstructure:"sqlite"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// SqliteConfig 定义了SQLite的配置
type SqliteConfig struct {
	Path string `mapstructure:"path"`
}

// PostgresConfig 定义了Postgres的配置
type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig 定义了Redis的配置
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LogConfig 定义了日志输出
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text 或 json
}

// GamesConfig 汇总了各个小游戏的奖励参数
type GamesConfig struct {
	Quiz     QuizConfig     `mapstructure:"quiz"`
	Shape    ShapeConfig    `mapstructure:"shape"`
	Math     MathConfig     `mapstructure:"math"`
	Carnival CarnivalConfig `mapstructure:"carnival"`
}

type QuizConfig struct {
	QuestionsPerRound int `mapstructure:"questionsPerRound"`
}

type ShapeConfig struct {
	CoinsPerSuccess   int     `mapstructure:"coinsPerSuccess"`
	MinShapes         int     `mapstructure:"minShapes"`
	EnforcePositions  bool    `mapstructure:"enforcePositions"`
	PositionTolerance float64 `mapstructure:"positionTolerance"` // 百分比坐标的允许误差
}

type MathConfig struct {
	CoinsPerLevel int `mapstructure:"coinsPerLevel"`
}

type CarnivalConfig struct {
	LeaderboardLimit  int           `mapstructure:"leaderboardLimit"`
	ReconcileInterval time.Duration `mapstructure:"reconcileInterval"` // 定期用数据库校正Redis排行榜，0表示关闭
}

// ProgressConfig 定义了进度统计的缓存和时区
type ProgressConfig struct {
	CacheTTL time.Duration `mapstructure:"cacheTTL"`
	Timezone string        `mapstructure:"timezone"`
}

// VideosConfig 定义了儿童视频搜索的外部服务
type VideosConfig struct {
	APIKey     string `mapstructure:"apiKey"`
	ChannelID  string `mapstructure:"channelId"`
	MaxResults int    `mapstructure:"maxResults"`
}

// setDefaults 注册所有默认值。
// 只有注册过的键才能被 AutomaticEnv 覆盖，所以每个配置项都必须在这里出现。
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.secret", "")
	v.SetDefault("server.cors.allowedOrigins", []string{"http://localhost:3000"})

	v.SetDefault("session.cookieName", "session")
	v.SetDefault("session.ttl", 7*24*time.Hour)
	v.SetDefault("session.loginAttempts", 10)
	v.SetDefault("session.loginWindow", 15*time.Minute)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.sqlite.path", "users.db")
	v.SetDefault("database.postgres.dsn", "")
	v.SetDefault("database.redis.address", "localhost:6379")
	v.SetDefault("database.redis.password", "")
	v.SetDefault("database.redis.db", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("games.quiz.questionsPerRound", 5)
	v.SetDefault("games.shape.coinsPerSuccess", 10)
	v.SetDefault("games.shape.minShapes", 1)
	v.SetDefault("games.shape.enforcePositions", false)
	v.SetDefault("games.shape.positionTolerance", 15.0)
	v.SetDefault("games.math.coinsPerLevel", 5)
	v.SetDefault("games.carnival.leaderboardLimit", 10)
	v.SetDefault("games.carnival.reconcileInterval", 10*time.Minute)

	v.SetDefault("progress.cacheTTL", time.Minute)
	v.SetDefault("progress.timezone", "Local")

	v.SetDefault("videos.apiKey", "")
	v.SetDefault("videos.channelId", "")
	v.SetDefault("videos.maxResults", 20)
}

// LoadConfig 函数负责查找、加载和解析配置文件
// 它会在指定的路径中查找名为 config.yaml 的文件，找不到时只使用默认值和环境变量
func LoadConfig() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config") // `config/config.yaml`
	v.AddConfigPath(".")        // `./config.yaml`

	// 允许通过环境变量覆盖配置，例如 SERVER_ADDRESS=:9090
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	Cfg = &cfg
	return Cfg, nil
}

// Location 解析进度统计使用的时区，无法解析时退回本地时区
func (p ProgressConfig) Location() *time.Location {
	if p.Timezone == "" || p.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
