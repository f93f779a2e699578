package videos

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/SlpAus/little-learners-backend/internal/platform/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchFixture = `{
  "items": [
    {"id": {"videoId": "v1"}, "snippet": {"title": "Animal Sounds", "description": "d1", "channelTitle": "Kids", "thumbnails": {"medium": {"url": "https://img/v1.jpg"}}}},
    {"id": {"channelId": "c1"}, "snippet": {"title": "A channel"}},
    {"id": {"videoId": "v2"}, "snippet": {"title": "Farm Song", "channelTitle": "Kids"}}
  ]
}`

func TestYouTubeSearcher_Search(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		got = map[string]string{
			"q":          q.Get("q"),
			"channelId":  q.Get("channelId"),
			"safeSearch": q.Get("safeSearch"),
			"maxResults": q.Get("maxResults"),
			"key":        q.Get("key"),
			"type":       q.Get("type"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(searchFixture))
	}))
	defer srv.Close()

	s := NewYouTubeSearcher(config.VideosConfig{APIKey: "k", ChannelID: "chan"})
	s.baseURL = srv.URL

	items, err := s.Search(context.Background(), "animals")
	require.NoError(t, err)
	require.Len(t, items, 2, "非视频结果被忽略")
	assert.Equal(t, "v1", items[0].ID)
	assert.Equal(t, "https://img/v1.jpg", items[0].Thumbnail)
	assert.Equal(t, "Farm Song", items[1].Title)

	assert.Equal(t, map[string]string{
		"q":          "animals",
		"channelId":  "chan",
		"safeSearch": "strict",
		"maxResults": "20",
		"key":        "k",
		"type":       "video",
	}, got)
}

func TestYouTubeSearcher_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusForbidden)
	}))
	defer srv.Close()

	s := NewYouTubeSearcher(config.VideosConfig{APIKey: "k"})
	s.baseURL = srv.URL

	_, err := s.Search(context.Background(), "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestNewSearcher_FallsBackToStatic(t *testing.T) {
	_, ok := NewSearcher(config.VideosConfig{}).(*StaticSearcher)
	assert.True(t, ok)

	_, ok = NewSearcher(config.VideosConfig{APIKey: "k"}).(*YouTubeSearcher)
	assert.True(t, ok)
}

func TestStaticSearcher(t *testing.T) {
	s := DefaultStaticSearcher()
	items, err := s.Search(context.Background(), "Colors")
	require.NoError(t, err)
	require.NotEmpty(t, items)
	for _, v := range items {
		assert.NotEmpty(t, v.ID)
	}

	_, err = LoadStatic([]byte("videos:\n  - title: no id\n"))
	assert.Error(t, err)
}
