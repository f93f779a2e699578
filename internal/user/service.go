package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/SlpAus/little-learners-backend/internal/platform/logger"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUserExists    = errors.New("User with same phone, email, or username already exists")
	ErrUserNotFound  = errors.New("User does not exist.")
	ErrWrongPassword = errors.New("Incorrect password.")
	ErrInvalidPhone  = errors.New("Invalid phone number")
	ErrInvalidAge    = errors.New("Invalid age group")
)

// SignupRequest 是注册表单
type SignupRequest struct {
	Username string `form:"username" json:"username" binding:"required,min=2,max=80"`
	Email    string `form:"email" json:"email" binding:"required,email,max=120"`
	Phone    string `form:"phone" json:"phone" binding:"required,phone"`
	Password string `form:"password" json:"password" binding:"required,min=4,max=72"`
	Gender   string `form:"gender" json:"gender" binding:"omitempty,max=10"`
	Age      string `form:"age" json:"age" binding:"required,agebracket"`
}

// ProfileUpdate 是资料编辑表单，空字段保持不变
type ProfileUpdate struct {
	DisplayName string `form:"display_name" json:"display_name" binding:"omitempty,max=50"`
	Avatar      string `form:"avatar" json:"avatar" binding:"omitempty,max=32"`
	AvatarColor string `form:"avatar_color" json:"avatar_color" binding:"omitempty,hexcolor"`
}

type Service struct {
	db  *gorm.DB
	now func() time.Time
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Register 创建新用户，手机号、邮箱、用户名必须唯一
func (s *Service) Register(ctx context.Context, req SignupRequest) (*User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Phone = strings.TrimSpace(req.Phone)

	if !ValidPhone(req.Phone) {
		return nil, ErrInvalidPhone
	}
	if !ValidAge(req.Age) {
		return nil, ErrInvalidAge
	}

	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Model(&User{}).
		Where("phone = ? OR email = ? OR username = ?", req.Phone, req.Email, req.Username).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("检查用户是否存在失败: %w", err)
	}
	if count > 0 {
		return nil, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("密码哈希失败: %w", err)
	}

	u := &User{
		Username:     req.Username,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: string(hash),
		Gender:       req.Gender,
		Age:          req.Age,
	}
	if err := db.Create(u).Error; err != nil {
		// 并发注册时唯一索引兜底
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("创建用户失败: %w", err)
	}
	logger.WithUser(u.ID).Info("新用户注册成功")
	return u, nil
}

// Authenticate 校验手机号和密码，成功后刷新活跃信息
func (s *Service) Authenticate(ctx context.Context, phone, password string) (*User, error) {
	db := s.db.WithContext(ctx)
	var u User
	if err := db.Where("phone = ?", strings.TrimSpace(phone)).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrWrongPassword
	}

	now := s.now()
	updates := map[string]any{"last_active_at": now}
	if u.LastActiveAt == nil || !sameDay(*u.LastActiveAt, now) {
		updates["days_active"] = gorm.Expr("days_active + 1")
	}
	if err := db.Model(&User{}).Where("id = ?", u.ID).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("更新用户活跃信息失败: %w", err)
	}
	return s.GetByID(ctx, u.ID)
}

func sameDay(a, b time.Time) bool {
	a = a.In(b.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// GetByID 按ID读取用户
func (s *Service) GetByID(ctx context.Context, id uint) (*User, error) {
	var u User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}
	return &u, nil
}

// UpdateProfile 更新展示名、头像和头像颜色
func (s *Service) UpdateProfile(ctx context.Context, id uint, p ProfileUpdate) (*User, error) {
	updates := map[string]any{}
	if v := strings.TrimSpace(p.DisplayName); v != "" {
		updates["display_name"] = v
	}
	if p.Avatar != "" {
		updates["avatar"] = p.Avatar
	}
	if p.AvatarColor != "" {
		updates["avatar_color"] = p.AvatarColor
	}
	if len(updates) > 0 {
		res := s.db.WithContext(ctx).Model(&User{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return nil, fmt.Errorf("更新用户资料失败: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, ErrUserNotFound
		}
	}
	return s.GetByID(ctx, id)
}
