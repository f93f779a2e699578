package videos

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalogue.yaml
var defaultCatalogue []byte

// StaticSearcher 在没有外部搜索服务时提供固定的视频列表
type StaticSearcher struct {
	videos []Video
}

// LoadStatic 从 YAML 解析视频列表
func LoadStatic(data []byte) (*StaticSearcher, error) {
	var doc struct {
		Videos []Video `yaml:"videos"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("解析视频列表失败: %w", err)
	}
	for i, v := range doc.Videos {
		if v.ID == "" || v.Title == "" {
			return nil, fmt.Errorf("第 %d 个视频缺少 id 或 title", i+1)
		}
	}
	return &StaticSearcher{videos: doc.Videos}, nil
}

// DefaultStaticSearcher 使用内置的列表，内置数据有误时直接 panic
func DefaultStaticSearcher() *StaticSearcher {
	s, err := LoadStatic(defaultCatalogue)
	if err != nil {
		panic(err)
	}
	return s
}

// Search 返回标题或描述中包含任一查询词的视频
func (s *StaticSearcher) Search(_ context.Context, query string) ([]Video, error) {
	words := strings.Fields(strings.ToLower(query))
	var out []Video
	for _, v := range s.videos {
		text := strings.ToLower(v.Title + " " + v.Description)
		for _, w := range words {
			if strings.Contains(text, w) {
				out = append(out, v)
				break
			}
		}
	}
	return out, nil
}
