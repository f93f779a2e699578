package mathgame

import (
	"errors"
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

// completeRequest 使用指针区分“缺失”和“零值”
type completeRequest struct {
	Level *int `json:"level" form:"level" binding:"required"`
	Score *int `json:"score" form:"score" binding:"required"`
}

func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.POST("/api/math/complete", h.Complete)
}

func (h *Handler) Complete(c *gin.Context) {
	u := user.CurrentUser(c)
	var req completeRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "level and score are required"})
		return
	}

	out, err := h.svc.Complete(c.Request.Context(), u.ID, *req.Level, *req.Score)
	if err != nil {
		if errors.Is(err, ErrInvalidSubmission) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
			return
		}
		logger.WithUser(u.ID).WithError(err).Error("记录数学关卡失败")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Something went wrong, please try again."})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"total_coins": out.TotalCoins,
		"message":     out.Message,
	})
}
