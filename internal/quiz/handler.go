package quiz

import (
	"errors"
	"net/http"
	"strings"

	"github.com/SlpAus/little-learners-backend/internal/platform/logger"
	"github.com/SlpAus/little-learners-backend/internal/user"
	"github.com/gin-gonic/gin"
)

const defaultCategory = "general"

// 发生存储错误时返回给客户端的通用提示
const genericFailure = "Something went wrong, please try again."

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// submitRequest 是JSON提交格式，answers 的键为题目ID
type submitRequest struct {
	Answers map[string]string `json:"answers" binding:"required"`
}

func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/quiz", h.Page)
	r.POST("/quiz", h.Submit)
	r.GET("/api/quiz/start", h.StartAPI)
	r.GET("/api/quiz/categories", h.Categories)
}

func categoryOf(c *gin.Context) string {
	return strings.ToLower(strings.TrimSpace(c.DefaultQuery("category", defaultCategory)))
}

// Page 开始一轮新测验并渲染题目
func (h *Handler) Page(c *gin.Context) {
	u := user.CurrentUser(c)
	category := categoryOf(c)
	questions, err := h.svc.Start(c.Request.Context(), u.ID, category)
	if err != nil {
		if errors.Is(err, ErrUnknownCategory) {
			c.HTML(http.StatusNotFound, "quiz.html", gin.H{
				"user":       u,
				"error":      "That quiz category does not exist.",
				"categories": h.svc.Bank().Categories(),
			})
			return
		}
		logger.WithUser(u.ID).WithError(err).Error("开始测验失败")
		c.HTML(http.StatusInternalServerError, "quiz.html", gin.H{"user": u, "error": genericFailure})
		return
	}
	c.HTML(http.StatusOK, "quiz.html", gin.H{
		"user":       u,
		"category":   category,
		"questions":  questions,
		"categories": h.svc.Bank().Categories(),
	})
}

// StartAPI 以JSON形式返回一轮新题目，不包含答案
func (h *Handler) StartAPI(c *gin.Context) {
	u := user.CurrentUser(c)
	category := categoryOf(c)
	questions, err := h.svc.Start(c.Request.Context(), u.ID, category)
	if err != nil {
		if errors.Is(err, ErrUnknownCategory) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": err.Error()})
			return
		}
		logger.WithUser(u.ID).WithError(err).Error("开始测验失败")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": genericFailure})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "category": category, "questions": questions})
}

func (h *Handler) Categories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": h.svc.Bank().Categories()})
}

// Submit 同时支持表单和JSON。表单提交渲染结果页，JSON提交返回JSON。
func (h *Handler) Submit(c *gin.Context) {
	u := user.CurrentUser(c)
	asJSON := c.ContentType() == "application/json"

	var answers map[string]string
	if asJSON {
		var req submitRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "answers are required"})
			return
		}
		answers = req.Answers
	} else {
		if err := c.Request.ParseForm(); err != nil {
			c.HTML(http.StatusBadRequest, "quiz_result.html", gin.H{"user": u, "error": "Could not read your answers."})
			return
		}
		answers = make(map[string]string, len(c.Request.PostForm))
		for k, v := range c.Request.PostForm {
			if len(v) > 0 {
				answers[k] = v[0]
			}
		}
	}

	outcome, err := h.svc.Submit(c.Request.Context(), u.ID, answers)
	if err != nil {
		status, msg := http.StatusInternalServerError, genericFailure
		if errors.Is(err, ErrNoActiveQuiz) {
			status, msg = http.StatusBadRequest, err.Error()
		} else {
			logger.WithUser(u.ID).WithError(err).Error("提交测验失败")
		}
		if asJSON {
			c.JSON(status, gin.H{"success": false, "message": msg})
		} else {
			c.HTML(status, "quiz_result.html", gin.H{"user": u, "error": msg})
		}
		return
	}

	if asJSON {
		c.JSON(http.StatusOK, gin.H{
			"success":      true,
			"score":        outcome.Score,
			"total":        outcome.Total,
			"coins_earned": outcome.CoinsEarned,
			"total_coins":  outcome.TotalCoins,
			"message":      outcome.Message,
		})
		return
	}
	c.HTML(http.StatusOK, "quiz_result.html", gin.H{"user": u, "result": outcome})
}
