package videos

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

func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/kids_videos", h.Page)
	r.GET("/api/videos", h.Search)
}

// Page 渲染视频页，搜索失败时页面仍然可用
func (h *Handler) Page(c *gin.Context) {
	u := user.CurrentUser(c)
	query := c.Query("q")
	res, err := h.svc.Find(c.Request.Context(), query)
	if err != nil {
		logger.Log.WithError(err).WithField("query", query).Warn("视频搜索失败")
		c.HTML(http.StatusBadGateway, "videos.html", gin.H{
			"user":  u,
			"query": query,
			"error": "Videos are not available right now.",
		})
		return
	}
	c.HTML(http.StatusOK, "videos.html", gin.H{
		"user":             u,
		"query":            res.Query,
		"main_video":       res.Main,
		"reference_videos": res.References,
	})
}

func (h *Handler) Search(c *gin.Context) {
	res, err := h.svc.Find(c.Request.Context(), c.Query("q"))
	if err != nil {
		logger.Log.WithError(err).WithField("query", c.Query("q")).Warn("视频搜索失败")
		c.JSON(http.StatusBadGateway, gin.H{"error": "video search is unavailable"})
		return
	}
	c.JSON(http.StatusOK, res)
}
