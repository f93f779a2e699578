package tree

import (
	"fmt"
	"math/bits"
	"math/rand/v2"
)

// Weighted 是为加权随机抽样优化的线段树。
// 叶子存储每个下标的权重，内部节点存储子树权重之和。
type Weighted struct {
	tree        []float64
	size        int
	alignedSize int
}

// NewWeighted 由一组严格为正的权重构建抽样树。
func NewWeighted(weights []float64) (*Weighted, error) {
	if len(weights) == 0 {
		return nil, fmt.Errorf("权重数组不能为空")
	}
	alignedSize := 1 << bits.Len(uint(len(weights)))
	w := &Weighted{
		tree:        make([]float64, 2*alignedSize),
		size:        len(weights),
		alignedSize: alignedSize,
	}
	for i, v := range weights {
		if !(v > 0) {
			return nil, fmt.Errorf("下标 %d 的权重必须为正数，实际为 %f", i, v)
		}
		w.tree[alignedSize+i] = v
	}
	for i := alignedSize - 1; i > 0; i-- {
		w.tree[i] = w.tree[2*i] + w.tree[2*i+1]
	}
	return w, nil
}

// Len 返回权重个数
func (w *Weighted) Len() int { return w.size }

// Total 返回所有权重的总和。
func (w *Weighted) Total() float64 { return w.tree[1] }

// Weight 返回指定下标的权重
func (w *Weighted) Weight(index int) (float64, error) {
	if index < 0 || index >= w.size {
		return 0, fmt.Errorf("索引 %d 超出范围 [0, %d)", index, w.size)
	}
	return w.tree[w.alignedSize+index], nil
}

// Find 查找第一个前缀和大于等于 value 的下标，value 取值于 (0, Total]。
// 值为0会落入补齐用的零权重叶子之前的第一个下标，因此这里拒绝它。
func (w *Weighted) Find(value float64) (int, error) {
	total := w.tree[1]
	if !(value > 0) || value > total {
		return -1, fmt.Errorf("查找值 %f 超出总权重范围 (0, %f]", value, total)
	}

	pos := 1
	for pos < w.alignedSize {
		left := 2 * pos
		if value <= w.tree[left] {
			pos = left
		} else {
			value -= w.tree[left]
			pos = left + 1
		}
	}
	idx := pos - w.alignedSize
	// 浮点误差可能把值推到补齐叶子上
	if idx >= w.size {
		idx = w.size - 1
	}
	return idx, nil
}

// Draw 按权重随机抽取一个下标，rng 为 nil 时使用全局随机源。
func (w *Weighted) Draw(rng *rand.Rand) int {
	var u float64
	if rng == nil {
		u = rand.Float64()
	} else {
		u = rng.Float64()
	}
	// 1-u 落在 (0, 1]
	idx, err := w.Find(w.tree[1] * (1 - u))
	if err != nil {
		return w.size - 1
	}
	return idx
}
