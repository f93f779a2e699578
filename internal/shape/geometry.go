package shape

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Submitted 是客户端提交的一个图形。
// 位置为 "x% y%"，大小为 "60px"，旋转为 "30deg"，都只在开启位置校验时使用。
type Submitted struct {
	Type     string `json:"type"`
	Color    string `json:"color"`
	Position string `json:"position"`
	Size     string `json:"size"`
	Rotation string `json:"rotation"`
}

// HasRequiredTypes 判断每种所需图形类型是否至少出现一次，多余的图形被忽略
func HasRequiredTypes(required []string, shapes []Submitted) bool {
	present := make(map[string]bool, len(shapes))
	for _, s := range shapes {
		present[strings.ToLower(strings.TrimSpace(s.Type))] = true
	}
	for _, r := range required {
		if !present[strings.ToLower(r)] {
			return false
		}
	}
	return true
}

// ParsePosition 解析 "x% y%" 形式的百分比坐标
func ParsePosition(pos string) (x, y float64, err error) {
	parts := strings.Fields(pos)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("无效的位置 %q", pos)
	}
	if x, err = parsePercent(parts[0]); err != nil {
		return 0, 0, err
	}
	if y, err = parsePercent(parts[1]); err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

func parsePercent(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return 0, fmt.Errorf("无效的百分比 %q", s)
	}
	return v, nil
}

// WithinTolerance 要求每个目标图形都能匹配到一个同类型、且距离不超过 tolerance 的提交图形。
// 每个提交的图形最多匹配一个目标。
func WithinTolerance(targets []Target, shapes []Submitted, tolerance float64) bool {
	used := make([]bool, len(shapes))
	for _, t := range targets {
		tx, ty, err := ParsePosition(t.Position)
		if err != nil {
			// 没有坐标的目标不参与位置校验
			continue
		}
		matched := false
		for i, s := range shapes {
			if used[i] || !strings.EqualFold(s.Type, t.Type) {
				continue
			}
			sx, sy, err := ParsePosition(s.Position)
			if err != nil {
				continue
			}
			if math.Hypot(sx-tx, sy-ty) <= tolerance {
				used[i] = true
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}
