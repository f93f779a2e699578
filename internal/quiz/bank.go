package quiz

import (
	_ "embed"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed questions.yaml
var defaultQuestions []byte

// Question 是题库中的一道题。Answer 不会返回给客户端。
type Question struct {
	ID       string   `yaml:"id" json:"id"`
	Question string   `yaml:"question" json:"question"`
	Options  []string `yaml:"options" json:"options"`
	Answer   string   `yaml:"answer" json:"-"`
}

type bankFile struct {
	Categories map[string][]Question `yaml:"categories"`
}

// Bank 是只读题库，按分类组织
type Bank struct {
	categories map[string][]Question
	byID       map[string]Question
	names      []string
}

// LoadBank 解析并校验YAML题库，每个分类至少需要 minPerCategory 道题
func LoadBank(data []byte, minPerCategory int) (*Bank, error) {
	var f bankFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("无法解析题库: %w", err)
	}
	if len(f.Categories) == 0 {
		return nil, fmt.Errorf("题库中没有任何分类")
	}

	b := &Bank{
		categories: f.Categories,
		byID:       make(map[string]Question),
	}
	for name, qs := range f.Categories {
		if len(qs) < minPerCategory {
			return nil, fmt.Errorf("分类 '%s' 只有 %d 道题，至少需要 %d 道", name, len(qs), minPerCategory)
		}
		for _, q := range qs {
			if q.ID == "" || q.Answer == "" {
				return nil, fmt.Errorf("分类 '%s' 中存在缺少ID或答案的题目", name)
			}
			if _, dup := b.byID[q.ID]; dup {
				return nil, fmt.Errorf("题目ID '%s' 重复", q.ID)
			}
			if !containsAnswer(q.Options, q.Answer) {
				return nil, fmt.Errorf("题目 '%s' 的答案不在选项中", q.ID)
			}
			b.byID[q.ID] = q
		}
		b.names = append(b.names, name)
	}
	sort.Strings(b.names)
	return b, nil
}

// DefaultBank 加载内置题库
func DefaultBank(minPerCategory int) (*Bank, error) {
	return LoadBank(defaultQuestions, minPerCategory)
}

func containsAnswer(options []string, answer string) bool {
	if len(options) == 0 {
		return true
	}
	for _, o := range options {
		if Normalize(o) == Normalize(answer) {
			return true
		}
	}
	return false
}

// Categories 返回排序后的分类名
func (b *Bank) Categories() []string {
	out := make([]string, len(b.names))
	copy(out, b.names)
	return out
}

// Has 判断分类是否存在
func (b *Bank) Has(category string) bool {
	_, ok := b.categories[category]
	return ok
}

// Lookup 按ID查找题目
func (b *Bank) Lookup(id string) (Question, bool) {
	q, ok := b.byID[id]
	return q, ok
}

// Pick 从分类中无放回地均匀抽取 n 道题
func (b *Bank) Pick(category string, n int, rng *rand.Rand) ([]Question, error) {
	pool, ok := b.categories[category]
	if !ok {
		return nil, ErrUnknownCategory
	}
	if n > len(pool) {
		n = len(pool)
	}
	var perm []int
	if rng == nil {
		perm = rand.Perm(len(pool))
	} else {
		perm = rng.Perm(len(pool))
	}
	picked := make([]Question, n)
	for i := 0; i < n; i++ {
		picked[i] = pool[perm[i]]
	}
	return picked, nil
}

// Normalize 转为小写并压缩空白，用于答案比较
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Score 统计规范化后与标准答案完全相同的回答数，没有部分得分
func Score(questions []Question, answers map[string]string) int {
	score := 0
	for _, q := range questions {
		given, ok := answers[q.ID]
		if !ok {
			continue
		}
		if Normalize(given) == Normalize(q.Answer) {
			score++
		}
	}
	return score
}
