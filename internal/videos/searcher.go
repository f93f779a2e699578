package videos

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/SlpAus/little-learners-backend/internal/platform/config"
)

const (
	youtubeSearchURL  = "https://www.googleapis.com/youtube/v3/search"
	DefaultMaxResults = 20
)

// Video 是一条搜索结果
type Video struct {
	ID           string `json:"id" yaml:"id"`
	Title        string `json:"title" yaml:"title"`
	Description  string `json:"description" yaml:"description"`
	Thumbnail    string `json:"thumbnail" yaml:"thumbnail"`
	ChannelTitle string `json:"channel_title" yaml:"channel_title"`
}

// Searcher 是外部视频搜索服务
type Searcher interface {
	Search(ctx context.Context, query string) ([]Video, error)
}

// NewSearcher 配置了 API Key 时使用 YouTube，否则使用内置的视频列表
func NewSearcher(cfg config.VideosConfig) Searcher {
	if cfg.APIKey == "" {
		return DefaultStaticSearcher()
	}
	return NewYouTubeSearcher(cfg)
}

// YouTubeSearcher 调用 YouTube Data API v3 的 search 接口，只搜索指定频道
type YouTubeSearcher struct {
	baseURL    string
	apiKey     string
	channelID  string
	maxResults int
	httpClient *http.Client
}

func NewYouTubeSearcher(cfg config.VideosConfig) *YouTubeSearcher {
	limit := cfg.MaxResults
	if limit <= 0 {
		limit = DefaultMaxResults
	}
	return &YouTubeSearcher{
		baseURL:    youtubeSearchURL,
		apiKey:     cfg.APIKey,
		channelID:  cfg.ChannelID,
		maxResults: limit,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// searchResponse 只解析需要的字段
type searchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title        string `json:"title"`
			Description  string `json:"description"`
			ChannelTitle string `json:"channelTitle"`
			Thumbnails   struct {
				Medium struct {
					URL string `json:"url"`
				} `json:"medium"`
			} `json:"thumbnails"`
		} `json:"snippet"`
	} `json:"items"`
}

func (s *YouTubeSearcher) Search(ctx context.Context, query string) ([]Video, error) {
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("q", query)
	params.Set("type", "video")
	params.Set("safeSearch", "strict")
	params.Set("maxResults", strconv.Itoa(s.maxResults))
	params.Set("key", s.apiKey)
	if s.channelID != "" {
		params.Set("channelId", s.channelID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求YouTube失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("YouTube API错误: %s - %s", resp.Status, string(body))
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("解析YouTube响应失败: %w", err)
	}

	out := make([]Video, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item.ID.VideoID == "" {
			continue
		}
		out = append(out, Video{
			ID:           item.ID.VideoID,
			Title:        item.Snippet.Title,
			Description:  item.Snippet.Description,
			Thumbnail:    item.Snippet.Thumbnails.Medium.URL,
			ChannelTitle: item.Snippet.ChannelTitle,
		})
	}
	return out, nil
}
