package user

import (
	"errors"
	"net/http"
	"strings"

	"github.com/SlpAus/little-learners-backend/internal/platform/health"
	"github.com/SlpAus/little-learners-backend/internal/platform/logger"
	"github.com/gin-gonic/gin"
)

// contextUserKey 是当前用户在gin上下文中的键
const contextUserKey = "currentUser"

// CurrentUser 返回经过中间件加载的用户，未登录时返回nil
func CurrentUser(c *gin.Context) *User {
	v, ok := c.Get(contextUserKey)
	if !ok {
		return nil
	}
	u, _ := v.(*User)
	return u
}

// SetCurrentUser 主要供测试和其他中间件使用
func SetCurrentUser(c *gin.Context, u *User) {
	c.Set(contextUserKey, u)
}

func isAPIRequest(c *gin.Context) bool {
	return strings.HasPrefix(c.Request.URL.Path, "/api/") ||
		strings.Contains(c.GetHeader("Accept"), "application/json") ||
		c.ContentType() == "application/json"
}

func rejectUnauthenticated(c *gin.Context) {
	if isAPIRequest(c) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Redirect(http.StatusFound, "/login")
	c.Abort()
}

// RequireUser 加载会话，并在每个请求中从用户表重新读取用户。
// 会话只提供用户ID，年龄段等字段以数据库为准。
func (h *Handler) RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, err := c.Cookie(h.cookieName)
		if err != nil || cookie == "" {
			rejectUnauthenticated(c)
			return
		}

		sess, err := h.sessions.Load(c.Request.Context(), cookie)
		if err != nil {
			if errors.Is(err, ErrNoSession) {
				rejectUnauthenticated(c)
				return
			}
			health.MarkDegraded()
			logger.WithError(err).Warn("会话存储不可用")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "service temporarily unavailable"})
			return
		}

		u, err := h.svc.GetByID(c.Request.Context(), sess.UserID)
		if err != nil {
			if errors.Is(err, ErrUserNotFound) {
				rejectUnauthenticated(c)
				return
			}
			logger.WithError(err).Error("加载会话用户失败")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		SetCurrentUser(c, u)
		c.Next()
	}
}
