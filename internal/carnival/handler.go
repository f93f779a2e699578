package carnival

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/SlpAus/little-learners-backend/internal/platform/logger"
	"github.com/SlpAus/little-learners-backend/internal/user"
	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc          *Service
	defaultLimit int
}

func NewHandler(svc *Service, defaultLimit int) *Handler {
	return &Handler{svc: svc, defaultLimit: ClampLimit(defaultLimit, DefaultLeaderboardLimit)}
}

// spinRequest 的动画数据可选，原样保存
type spinRequest struct {
	SpinData json.RawMessage `json:"spin_data"`
}

// RegisterRoutes 注册需要登录的转盘接口
func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.POST("/api/color-wheel/spin", h.Spin)
	r.POST("/api/colour_carnival/spin", h.Spin)
	r.GET("/api/color-wheel/stats", h.Stats)
	r.GET("/api/color-wheel/history", h.History)
	r.GET("/api/color-wheel/leaderboard", h.Leaderboard)
}

// RegisterPublicRoutes 注册颜色列表，颜色学习页面未登录也能加载
func (h *Handler) RegisterPublicRoutes(r gin.IRoutes) {
	r.GET("/api/colors", h.Colors)
}

func queryInt(c *gin.Context, key string) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return v
}

// Spin 转动转盘并记录结果
func (h *Handler) Spin(c *gin.Context) {
	u := user.CurrentUser(c)
	var req spinRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid spin data."})
			return
		}
	}

	result := h.svc.Spin()
	out, err := h.svc.RecordSpin(c.Request.Context(), u.ID, result, req.SpinData)
	if err != nil {
		logger.WithUser(u.ID).WithError(err).Error("记录转盘结果失败")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Something went wrong, please try again."})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"color":       out.Color,
		"code":        out.Code,
		"coins":       out.Coins,
		"spin_angle":  out.SpinAngle,
		"rotations":   out.Rotations,
		"duration":    out.Duration,
		"total_coins": out.TotalCoins,
		"stats":       out.Stats,
		"message":     fmt.Sprintf("You landed on %s! +%d coins", out.Color, out.Coins),
	})
}

func (h *Handler) Stats(c *gin.Context) {
	u := user.CurrentUser(c)
	stats, err := h.svc.Stats(c.Request.Context(), u.ID)
	if err != nil {
		logger.WithUser(u.ID).WithError(err).Error("读取转盘统计失败")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) History(c *gin.Context) {
	u := user.CurrentUser(c)
	spins, err := h.svc.History(c.Request.Context(), u.ID, queryInt(c, "limit"))
	if err != nil {
		logger.WithUser(u.ID).WithError(err).Error("读取转盘历史失败")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": spins})
}

// Leaderboard 返回排行榜，limit 取值 [1, 100]
func (h *Handler) Leaderboard(c *gin.Context) {
	limit := ClampLimit(queryInt(c, "limit"), h.defaultLimit)
	entries, err := h.svc.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		logger.WithError(err).Error("读取转盘排行榜失败")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load leaderboard"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": entries, "limit": limit})
}

// Colors 返回转盘上的全部颜色
func (h *Handler) Colors(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Wheel().Segments())
}
