package user

import "time"

// 年龄段决定用户进入哪个仪表盘
const (
	AgeToddler = "1-4"
	AgeJunior  = "5+"
)

// User 定义了用户的持久化模型
type User struct {
	ID           uint   `gorm:"primarykey"`
	Username     string `gorm:"uniqueIndex;not null;type:varchar(80)"`
	Email        string `gorm:"uniqueIndex;not null;type:varchar(120)"`
	Phone        string `gorm:"uniqueIndex;not null;type:varchar(10)"`
	PasswordHash string `gorm:"not null;type:varchar(128)"`
	Gender       string `gorm:"type:varchar(10)"`
	Age          string `gorm:"type:varchar(10)"`

	// 个人资料
	DisplayName string `gorm:"type:varchar(50)"`
	Avatar      string `gorm:"type:varchar(32)"`
	AvatarColor string `gorm:"type:varchar(7)"`

	// 活跃度
	LastActiveAt *time.Time
	DaysActive   int `gorm:"not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Name 返回用于展示的名字
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}

// DashboardPath 返回该用户年龄段对应的仪表盘
func (u *User) DashboardPath() string {
	if u.Age == AgeToddler {
		return "/kids-dashboard"
	}
	return "/junior-dashboard"
}
