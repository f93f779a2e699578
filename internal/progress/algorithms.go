package progress

import (
	"math"
	"time"
)

// --- 分数标准化与等级 ---

// 各项活动折算到 0-5 分制的除数
const (
	quizScale  = 1.0
	shapeScale = 20.0
	mathScale  = 2.0

	maxNormalized = 5.0
)

// 表现等级
const (
	TierBeginner  = "Beginner"
	TierGood      = "Good"
	TierVeryGood  = "Very Good"
	TierExcellent = "Excellent"
)

func normalize(average, scale float64) float64 {
	v := average / scale
	if v < 0 {
		return 0
	}
	if v > maxNormalized {
		return maxNormalized
	}
	return v
}

// NormalizeQuiz 测验平均分本身就是 0-5
func NormalizeQuiz(average float64) float64 { return normalize(average, quizScale) }

// NormalizeShape 把 0-100 的相似度折算到 0-5
func NormalizeShape(average float64) float64 { return normalize(average, shapeScale) }

// NormalizeMath 把 0-10 的关卡分数折算到 0-5
func NormalizeMath(average float64) float64 { return normalize(average, mathScale) }

// CombinedScore 只对玩过的活动求平均，一个都没玩过时为 0。
// 返回未取整的值，等级按它判定，展示时再取整。
func CombinedScore(activities ...ActivityStats) float64 {
	var sum float64
	var n int
	for _, a := range activities {
		if a.Attempts == 0 {
			continue
		}
		sum += a.Normalized
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Tier 把未取整的综合分映射到等级，恰好 4 分仍是 Very Good
func Tier(score float64) string {
	switch {
	case score < 2:
		return TierBeginner
	case score < 3:
		return TierGood
	case score <= 4:
		return TierVeryGood
	default:
		return TierExcellent
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// --- 每周金币 ---

// WeekStart 返回 t 所在周的周一零点（loc 时区）
func WeekStart(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	offset := (int(t.Weekday()) + 6) % 7 // 周一为 0
	y, m, d := t.Date()
	return time.Date(y, m, d-offset, 0, 0, 0, 0, loc)
}

// coinEvent 是一条带时间的金币记录
type coinEvent struct {
	CreatedAt time.Time
	Coins     int64
}

// WeeklySeries 把金币记录按自然日累加到从 start 开始的 7 天里，范围外的记录忽略
func WeeklySeries(start time.Time, events []coinEvent) []DayCoins {
	loc := start.Location()
	days := make([]DayCoins, 7)
	for i := range days {
		d := start.AddDate(0, 0, i)
		days[i] = DayCoins{Date: d.Format("2006-01-02"), Day: d.Format("Mon")}
	}
	for _, e := range events {
		at := e.CreatedAt.In(loc)
		y, m, d := at.Date()
		day := time.Date(y, m, d, 0, 0, 0, 0, loc)
		// 按日历日计算，夏令时切换日不是24小时
		for i := range days {
			if start.AddDate(0, 0, i).Equal(day) {
				days[i].Coins += e.Coins
				break
			}
		}
	}
	return days
}
