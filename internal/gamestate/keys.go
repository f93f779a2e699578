package gamestate

import "fmt"

// 这些键用于 game_states 表的 key 列，每个用户每种游戏一条记录。
const (
	shapePrefix = "shape"
	quizPrefix  = "quiz"
)

// ShapeKey 存储用户当前的拼图任务与已完成任务集合
func ShapeKey(userID uint) string {
	return fmt.Sprintf("%s:%d", shapePrefix, userID)
}

// QuizKey 存储用户正在进行的一轮测验
func QuizKey(userID uint) string {
	return fmt.Sprintf("%s:%d", quizPrefix, userID)
}
