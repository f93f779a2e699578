package carnival

import (
	"fmt"
	"math/rand/v2"

	"github.com/SlpAus/little-learners-backend/pkg/tree"
)

const (
	minPayout = 2
	maxPayout = 7
)

// Segment 是转盘上的一个色块
type Segment struct {
	Name   string  `json:"name"`
	Code   string  `json:"code"`
	Coins  int     `json:"coins"`
	Weight float64 `json:"-"`
}

// DefaultSegments 是固定的12色转盘，权重相同即均匀抽取
var DefaultSegments = []Segment{
	{Name: "Red", Code: "#FF0000", Coins: 5, Weight: 1},
	{Name: "Blue", Code: "#0000FF", Coins: 4, Weight: 1},
	{Name: "Green", Code: "#00FF00", Coins: 3, Weight: 1},
	{Name: "Yellow", Code: "#FFFF00", Coins: 6, Weight: 1},
	{Name: "Purple", Code: "#800080", Coins: 7, Weight: 1},
	{Name: "Orange", Code: "#FFA500", Coins: 2, Weight: 1},
	{Name: "Pink", Code: "#FFC0CB", Coins: 3, Weight: 1},
	{Name: "Brown", Code: "#A52A2A", Coins: 2, Weight: 1},
	{Name: "Cyan", Code: "#00FFFF", Coins: 4, Weight: 1},
	{Name: "Magenta", Code: "#FF00FF", Coins: 6, Weight: 1},
	{Name: "Teal", Code: "#008080", Coins: 5, Weight: 1},
	{Name: "Gold", Code: "#FFD700", Coins: 7, Weight: 1},
}

// SpinResult 是一次转动的结果。角度、圈数、时长只用于前端动画。
type SpinResult struct {
	Color     string  `json:"color"`
	Code      string  `json:"code"`
	Coins     int     `json:"coins"`
	SpinAngle float64 `json:"spin_angle"`
	Rotations int     `json:"rotations"`
	Duration  float64 `json:"duration"`
}

// Wheel 按权重抽取色块
type Wheel struct {
	segments []Segment
	weights  *tree.Weighted
}

// NewWheel 校验色块并构建抽样树
func NewWheel(segments []Segment) (*Wheel, error) {
	weights := make([]float64, len(segments))
	seen := make(map[string]bool, len(segments))
	for i, s := range segments {
		if s.Coins < minPayout || s.Coins > maxPayout {
			return nil, fmt.Errorf("色块 %s 的金币 %d 超出范围 [%d, %d]", s.Name, s.Coins, minPayout, maxPayout)
		}
		if seen[s.Name] {
			return nil, fmt.Errorf("色块 %s 重复", s.Name)
		}
		seen[s.Name] = true
		weights[i] = s.Weight
	}
	w, err := tree.NewWeighted(weights)
	if err != nil {
		return nil, fmt.Errorf("无法构建转盘: %w", err)
	}
	return &Wheel{segments: segments, weights: w}, nil
}

// Segments 返回色块列表的副本
func (w *Wheel) Segments() []Segment {
	out := make([]Segment, len(w.segments))
	copy(out, w.segments)
	return out
}

// Lookup 按颜色名查找色块
func (w *Wheel) Lookup(name string) (Segment, bool) {
	for _, s := range w.segments {
		if s.Name == name {
			return s, true
		}
	}
	return Segment{}, false
}

// Probability 返回色块被抽中的概率
func (w *Wheel) Probability(index int) float64 {
	v, err := w.weights.Weight(index)
	if err != nil {
		return 0
	}
	return v / w.weights.Total()
}

// Spin 转动一次，每次调用相互独立。rng 为 nil 时使用全局随机源。
func (w *Wheel) Spin(rng *rand.Rand) SpinResult {
	randFloat, randIntN := rand.Float64, rand.IntN
	if rng != nil {
		randFloat, randIntN = rng.Float64, rng.IntN
	}

	idx := w.weights.Draw(rng)
	seg := w.segments[idx]
	arc := 360.0 / float64(len(w.segments))

	// 指针停在抽中色块的扇区内
	angle := (float64(idx) + randFloat()) * arc
	if angle >= 360 {
		angle = 0
	}
	duration := 2.5 + randFloat()*1.5
	if duration >= 4.0 {
		duration = 2.5
	}
	return SpinResult{
		Color:     seg.Name,
		Code:      seg.Code,
		Coins:     seg.Coins,
		SpinAngle: angle,
		Rotations: 3 + randIntN(4),
		Duration:  duration,
	}
}
