package user

import (
	"errors"
	"net/http"
	"strings"

	"github.com/SlpAus/little-learners-backend/internal/platform/logger"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// learningPages 是只需要登录即可访问的静态学习页面，键为路径，值为模板名
var learningPages = map[string]string{
	"/alphabet":       "alphabet.html",
	"/numbers":        "numbers.html",
	"/drawing":        "drawing.html",
	"/colors":         "colors.html",
	"/shape-builder":  "shape_builder.html",
	"/math-game":      "math_game.html",
	"/color-carnival": "color_carnival.html",
}

// Handler 负责账户相关的页面
type Handler struct {
	svc        *Service
	sessions   *SessionStore
	limiter    *LoginLimiter
	cookieName string
}

// NewHandler 创建账户处理器，limiter 为 nil 时不限制登录尝试
func NewHandler(svc *Service, sessions *SessionStore, limiter *LoginLimiter, cookieName string) *Handler {
	RegisterValidators()
	return &Handler{svc: svc, sessions: sessions, limiter: limiter, cookieName: cookieName}
}

// RegisterPublicRoutes 注册无需登录的路由
func (h *Handler) RegisterPublicRoutes(r gin.IRoutes) {
	r.GET("/", func(c *gin.Context) { c.Redirect(http.StatusFound, "/login") })
	r.GET("/login", h.LoginPage)
	r.POST("/login", h.Login)
	r.GET("/signin", h.SignupPage)
	r.POST("/signin", h.Signup)
	r.GET("/logout", h.Logout)
}

// RegisterProtectedRoutes 注册需要登录的页面
func (h *Handler) RegisterProtectedRoutes(r gin.IRoutes) {
	r.GET("/dashboard", h.Dashboard)
	r.GET("/kids-dashboard", h.ageDashboard(AgeToddler, "kids_dashboard.html"))
	r.GET("/junior-dashboard", h.ageDashboard(AgeJunior, "junior_dashboard.html"))
	r.GET("/profile", h.ProfilePage)
	r.POST("/profile", h.UpdateProfile)
	for path, tmpl := range learningPages {
		r.GET(path, staticPage(tmpl))
	}
}

func (h *Handler) LoginPage(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", gin.H{})
}

// Login 校验手机号和密码，按年龄段跳转
func (h *Handler) Login(c *gin.Context) {
	phone := strings.TrimSpace(c.PostForm("phone"))
	password := c.PostForm("password")

	allowed, err := h.limiter.Allow(c.Request.Context(), phone)
	if err != nil {
		logger.WithError(err).Warn("登录频率检查失败")
	} else if !allowed {
		c.HTML(http.StatusTooManyRequests, "login.html", gin.H{"error": "Too many login attempts, please try again later.", "phone": phone})
		return
	}

	u, err := h.svc.Authenticate(c.Request.Context(), phone, password)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrWrongPassword) {
			c.HTML(http.StatusOK, "login.html", gin.H{"error": err.Error(), "phone": phone})
			return
		}
		logger.WithError(err).Error("登录失败")
		c.HTML(http.StatusInternalServerError, "login.html", gin.H{"error": "Login failed, please try again."})
		return
	}

	if err := h.limiter.Reset(c.Request.Context(), phone); err != nil {
		logger.WithUser(u.ID).WithError(err).Warn("清空登录尝试记录失败")
	}

	value, err := h.sessions.Create(c.Request.Context(), u)
	if err != nil {
		logger.WithUser(u.ID).WithError(err).Error("创建会话失败")
		c.HTML(http.StatusServiceUnavailable, "login.html", gin.H{"error": "Login failed, please try again."})
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName, value, int(h.sessions.TTL().Seconds()), "/", "", false, true)
	c.Redirect(http.StatusFound, u.DashboardPath())
}

func (h *Handler) SignupPage(c *gin.Context) {
	c.HTML(http.StatusOK, "signin.html", gin.H{})
}

// Signup 注册成功后跳转到登录页
func (h *Handler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBind(&req); err != nil {
		c.HTML(http.StatusBadRequest, "signin.html", gin.H{"error": signupErrorMessage(err)})
		return
	}

	if _, err := h.svc.Register(c.Request.Context(), req); err != nil {
		switch {
		case errors.Is(err, ErrUserExists), errors.Is(err, ErrInvalidPhone), errors.Is(err, ErrInvalidAge):
			c.HTML(http.StatusOK, "signin.html", gin.H{"error": err.Error()})
		default:
			logger.WithError(err).Error("注册失败")
			c.HTML(http.StatusInternalServerError, "signin.html", gin.H{"error": "Registration failed"})
		}
		return
	}
	c.Redirect(http.StatusFound, "/login")
}

// signupErrorMessage 把校验错误转换为表单提示
func signupErrorMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			switch fe.Field() {
			case "Phone":
				return ErrInvalidPhone.Error()
			case "Age":
				return ErrInvalidAge.Error()
			case "Email":
				return "Invalid email address"
			}
		}
	}
	return "Please fill in all required fields."
}

func (h *Handler) Logout(c *gin.Context) {
	if cookie, err := c.Cookie(h.cookieName); err == nil {
		if err := h.sessions.Destroy(c.Request.Context(), cookie); err != nil {
			logger.WithError(err).Warn("删除会话失败")
		}
	}
	c.SetCookie(h.cookieName, "", -1, "/", "", false, true)
	c.Redirect(http.StatusFound, "/login")
}

// Dashboard 兼容旧链接，按年龄段跳转
func (h *Handler) Dashboard(c *gin.Context) {
	c.Redirect(http.StatusFound, CurrentUser(c).DashboardPath())
}

func (h *Handler) ageDashboard(age, tmpl string) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := CurrentUser(c)
		if u.Age != age {
			c.Redirect(http.StatusFound, u.DashboardPath())
			return
		}
		c.HTML(http.StatusOK, tmpl, gin.H{"user": u, "username": u.Name()})
	}
}

func (h *Handler) ProfilePage(c *gin.Context) {
	c.HTML(http.StatusOK, "profile.html", gin.H{"user": CurrentUser(c)})
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	u := CurrentUser(c)
	var req ProfileUpdate
	if err := c.ShouldBind(&req); err != nil {
		c.HTML(http.StatusBadRequest, "profile.html", gin.H{"user": u, "error": "Please check your profile details."})
		return
	}
	updated, err := h.svc.UpdateProfile(c.Request.Context(), u.ID, req)
	if err != nil {
		logger.WithUser(u.ID).WithError(err).Error("更新资料失败")
		c.HTML(http.StatusInternalServerError, "profile.html", gin.H{"user": u, "error": "Could not save your profile."})
		return
	}
	c.HTML(http.StatusOK, "profile.html", gin.H{"user": updated, "message": "Profile updated!"})
}

func staticPage(tmpl string) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := CurrentUser(c)
		c.HTML(http.StatusOK, tmpl, gin.H{"user": u, "username": u.Name()})
	}
}
