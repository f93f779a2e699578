package videos

import (
	"context"
	"strings"
)

// Result 是一次查找的结果，第一条作为主视频
type Result struct {
	Query      string  `json:"query"`
	Main       *Video  `json:"main_video"`
	References []Video `json:"reference_videos"`
}

type Service struct {
	searcher Searcher
}

func NewService(searcher Searcher) *Service {
	return &Service{searcher: searcher}
}

// Find 搜索视频并优先选择标题包含查询词的结果，没有匹配时退回原始结果
func (s *Service) Find(ctx context.Context, query string) (*Result, error) {
	query = strings.TrimSpace(query)
	res := &Result{Query: query, References: []Video{}}
	if query == "" {
		return res, nil
	}

	items, err := s.searcher.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	picked := filterByTitle(items, query)
	if len(picked) == 0 {
		picked = items
	}
	if len(picked) > 0 {
		main := picked[0]
		res.Main = &main
		res.References = append(res.References, picked[1:]...)
	}
	return res, nil
}

func filterByTitle(items []Video, query string) []Video {
	q := strings.ToLower(query)
	var out []Video
	for _, v := range items {
		if strings.Contains(strings.ToLower(v.Title), q) {
			out = append(out, v)
		}
	}
	return out
}
