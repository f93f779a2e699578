package progress

// ActivityStats 是单项活动的汇总
type ActivityStats struct {
	Attempts    int64   `json:"attempts"`
	Average     float64 `json:"average"`
	Normalized  float64 `json:"normalized"`
	CoinsEarned int64   `json:"coins_earned"`
}

// rounded 返回保留两位小数的展示值
func (a ActivityStats) rounded() ActivityStats {
	a.Average = round2(a.Average)
	a.Normalized = round2(a.Normalized)
	return a
}

// ColorWheelSummary 是颜色转盘的汇总
type ColorWheelSummary struct {
	Spins         int64  `json:"spins"`
	CoinsEarned   int64  `json:"coins_earned"`
	FavoriteColor string `json:"favorite_color"`
}

// DayCoins 是周报中的一天
type DayCoins struct {
	Date  string `json:"date"`
	Day   string `json:"day"`
	Coins int64  `json:"coins"`
}

// Snapshot 是一个用户在某一时刻的学习进度。
// 不带生成时间，没有新活动时重复计算得到的结果完全相同。
type Snapshot struct {
	UserID           uint              `json:"user_id"`
	Quiz             ActivityStats     `json:"quiz"`
	Shape            ActivityStats     `json:"shape"`
	Math             ActivityStats     `json:"math"`
	ColorWheel       ColorWheelSummary `json:"color_wheel"`
	TotalCoins       int64             `json:"total_coins"`
	TotalEarned      int64             `json:"total_earned"`
	CombinedScore    float64           `json:"combined_score"`
	PerformanceLevel string            `json:"performance_level"`
	WeekStart        string            `json:"week_start"`
	Weekly           []DayCoins        `json:"weekly"`
}
