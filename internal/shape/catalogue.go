package shape

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed tasks.yaml
var defaultTasks []byte

// Target 描述目标图案中的一个图形
type Target struct {
	Type     string `yaml:"type" json:"type"`
	Color    string `yaml:"color" json:"color"`
	Position string `yaml:"position" json:"position"`
	Size     string `yaml:"size" json:"size"`
}

// Task 是一个拼图任务
type Task struct {
	ID             string   `yaml:"id" json:"id"`
	Name           string   `yaml:"name" json:"name"`
	Description    string   `yaml:"description" json:"description"`
	RequiredShapes []string `yaml:"required_shapes" json:"required_shapes"`
	TargetShapes   []Target `yaml:"target_shapes" json:"target_shapes"`
}

// Catalogue 是只读的任务目录，保持文件中的顺序
type Catalogue struct {
	tasks []Task
	byID  map[string]int
}

// LoadCatalogue 解析并校验YAML任务目录
func LoadCatalogue(data []byte) (*Catalogue, error) {
	var f struct {
		Tasks []Task `yaml:"tasks"`
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("无法解析拼图任务: %w", err)
	}
	if len(f.Tasks) == 0 {
		return nil, fmt.Errorf("拼图任务目录为空")
	}
	c := &Catalogue{tasks: f.Tasks, byID: make(map[string]int, len(f.Tasks))}
	for i, t := range f.Tasks {
		if t.ID == "" || len(t.RequiredShapes) == 0 {
			return nil, fmt.Errorf("第 %d 个任务缺少ID或所需图形", i+1)
		}
		if _, dup := c.byID[t.ID]; dup {
			return nil, fmt.Errorf("任务ID '%s' 重复", t.ID)
		}
		c.byID[t.ID] = i
	}
	return c, nil
}

// DefaultCatalogue 加载内置任务目录
func DefaultCatalogue() (*Catalogue, error) {
	return LoadCatalogue(defaultTasks)
}

// Get 按ID查找任务
func (c *Catalogue) Get(id string) (Task, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Task{}, false
	}
	return c.tasks[i], true
}

// Len 返回任务数量
func (c *Catalogue) Len() int { return len(c.tasks) }

// IDs 返回所有任务ID
func (c *Catalogue) IDs() []string {
	ids := make([]string, len(c.tasks))
	for i, t := range c.tasks {
		ids[i] = t.ID
	}
	return ids
}
