package shape

import "time"

// ShapeResult 记录一次拼图提交，失败的提交同样会被记录
type ShapeResult struct {
	ID              uint      `gorm:"primarykey"`
	UserID          uint      `gorm:"index;not null"`
	TaskID          string    `gorm:"type:varchar(64)"`
	SimilarityScore int       `gorm:"not null"`
	CoinsAwarded    int       `gorm:"not null;default:0"`
	CreatedAt       time.Time `gorm:"index"`
}

// progressState 是保存在 gamestate 中的用户拼图进度
type progressState struct {
	CurrentTaskID string   `json:"current_task_id"`
	Completed     []string `json:"completed"`
}

func (p *progressState) isCompleted(id string) bool {
	for _, c := range p.Completed {
		if c == id {
			return true
		}
	}
	return false
}

func (p *progressState) markCompleted(id string) {
	if !p.isCompleted(id) {
		p.Completed = append(p.Completed, id)
	}
}
