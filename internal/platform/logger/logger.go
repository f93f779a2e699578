package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Log 是全局日志实例，在 Init 之前也可以安全使用（默认 info 级别的文本输出）
var Log = logrus.New()

// Init 根据配置初始化全局日志
func Init(level, format string) {
	Log.SetOutput(os.Stdout)

	if strings.EqualFold(format, "json") {
		Log.SetFormatter(&logrus.JSONFormatter{
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	} else {
		Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)
}

// SetOutput 主要供测试使用，把日志重定向到其他 writer
func SetOutput(w io.Writer) {
	Log.SetOutput(w)
}

// WithUser 返回带有用户ID字段的日志条目
func WithUser(userID uint) *logrus.Entry {
	return Log.WithField("user_id", userID)
}

// WithError 返回带有错误字段的日志条目
func WithError(err error) *logrus.Entry {
	return Log.WithError(err)
}

// GinMiddleware 用结构化日志替代 gin 默认的访问日志
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := Log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
			"ip":      c.ClientIP(),
		})
		if len(c.Errors) > 0 {
			entry.Warn(c.Errors.String())
			return
		}
		if c.Writer.Status() >= 500 {
			entry.Error("请求处理失败")
			return
		}
		entry.Debug("请求完成")
	}
}
