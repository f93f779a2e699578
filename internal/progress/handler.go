package progress

import (
	"net/http"

	"github.com/SlpAus/little-learners-backend/internal/platform/logger"
	"github.com/SlpAus/little-learners-backend/internal/user"
	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes 注册需要登录的进度路由
func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/progress", h.Page)
	r.GET("/progress-data", h.Data)
	r.GET("/api/user_stats", h.UserStats)
}

// Page 渲染进度页面
func (h *Handler) Page(c *gin.Context) {
	u := user.CurrentUser(c)
	snap, err := h.svc.Compute(c.Request.Context(), u.ID)
	if err != nil {
		logger.WithUser(u.ID).WithError(err).Error("计算学习进度失败")
		c.HTML(http.StatusInternalServerError, "progress.html", gin.H{"user": u, "error": "Could not load your progress."})
		return
	}
	c.HTML(http.StatusOK, "progress.html", gin.H{"user": u, "progress": snap})
}

// Data 返回进度快照 JSON
func (h *Handler) Data(c *gin.Context) {
	u := user.CurrentUser(c)
	snap, err := h.svc.Compute(c.Request.Context(), u.ID)
	if err != nil {
		logger.WithUser(u.ID).WithError(err).Error("计算学习进度失败")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load progress"})
		return
	}
	c.JSON(http.StatusOK, snap)
}

// UserStats 是页面顶部金币计数使用的轻量接口
func (h *Handler) UserStats(c *gin.Context) {
	u := user.CurrentUser(c)
	coins, err := h.svc.Balance(c.Request.Context(), u.ID)
	if err != nil {
		logger.WithUser(u.ID).WithError(err).Error("读取金币余额失败")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load coins"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"coins":       coins,
		"username":    u.Name(),
		"days_active": u.DaysActive,
	})
}
