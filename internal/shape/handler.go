package shape

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

type validateRequest struct {
	TaskID string      `json:"task_id"`
	Shapes []Submitted `json:"shapes"`
}

func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/api/get_task", h.GetTask)
	r.POST("/api/validate_shape", h.ValidateShape)
}

// GetTask 返回一个新的拼图任务
func (h *Handler) GetTask(c *gin.Context) {
	u := user.CurrentUser(c)
	task, err := h.svc.NextTask(c.Request.Context(), u.ID)
	if err != nil {
		logger.WithUser(u.ID).WithError(err).Error("获取拼图任务失败")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load a task"})
		return
	}
	c.JSON(http.StatusOK, task)
}

// ValidateShape 校验提交的图形并发放奖励
func (h *Handler) ValidateShape(c *gin.Context) {
	u := user.CurrentUser(c)
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"valid": false, "success": false, "message": "Invalid submission."})
		return
	}

	res, err := h.svc.Validate(c.Request.Context(), u.ID, req.TaskID, req.Shapes)
	if err != nil {
		switch {
		case errors.Is(err, ErrTaskNotFound):
			c.JSON(http.StatusNotFound, gin.H{"valid": false, "success": false, "message": "Task not found."})
		case errors.Is(err, ErrNotEnoughShapes):
			c.JSON(http.StatusBadRequest, gin.H{"valid": false, "success": false, "message": "Please add at least one shape!"})
		default:
			logger.WithUser(u.ID).WithError(err).Error("校验拼图失败")
			c.JSON(http.StatusInternalServerError, gin.H{"valid": false, "success": false, "message": "Something went wrong, please try again."})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid":   res.Valid,
		"success": res.Valid,
		"message": res.Message,
		"award":   res.Award,
		"coins":   res.Coins,
	})
}
