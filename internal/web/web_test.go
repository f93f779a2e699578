package web

import (
	"bytes"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/SlpAus/little-learners-backend/internal/progress"
	"github.com/SlpAus/little-learners-backend/internal/quiz"
	"github.com/SlpAus/little-learners-backend/internal/user"
	"github.com/SlpAus/little-learners-backend/internal/videos"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, name string, data gin.H) *goquery.Document {
	t.Helper()
	tmpl, err := Templates()
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, tmpl.ExecuteTemplate(&buf, name, data))
	doc, err := goquery.NewDocumentFromReader(&buf)
	require.NoError(t, err)
	return doc
}

func TestAllPagesRender(t *testing.T) {
	u := &user.User{ID: 1, Username: "asha", Age: user.AgeJunior}
	pages := []string{
		"login.html", "signin.html", "kids_dashboard.html", "junior_dashboard.html", "profile.html",
		"alphabet.html", "numbers.html", "drawing.html", "colors.html", "shape_builder.html",
		"math_game.html", "color_carnival.html", "quiz.html", "quiz_result.html", "progress.html", "videos.html",
	}
	for _, name := range pages {
		t.Run(name, func(t *testing.T) {
			doc := render(t, name, gin.H{"user": u, "username": u.Name()})
			assert.Equal(t, 1, doc.Find("main").Length())
			assert.Equal(t, 1, doc.Find("#main-nav").Length())
		})
	}
}

func TestLoginPage_ShowsErrorWithoutNav(t *testing.T) {
	doc := render(t, "login.html", gin.H{"error": "Incorrect password.", "phone": "9876543210"})
	assert.Equal(t, 0, doc.Find("#main-nav").Length())
	assert.Equal(t, "Incorrect password.", doc.Find("#error").Text())
	val, _ := doc.Find(`input[name="phone"]`).Attr("value")
	assert.Equal(t, "9876543210", val)
}

func TestQuizPage_ListsQuestionsWithoutAnswers(t *testing.T) {
	qs := []quiz.Question{
		{ID: "q1", Question: "2 + 2?", Options: []string{"3", "4"}, Answer: "4"},
		{ID: "q2", Question: "Sky colour?", Options: []string{"Blue", "Green", "Red"}, Answer: "Blue"},
	}
	doc := render(t, "quiz.html", gin.H{
		"user":       &user.User{Username: "asha"},
		"category":   "general",
		"questions":  qs,
		"categories": []string{"animals", "general"},
	})
	assert.Equal(t, 2, doc.Find("fieldset.question").Length())
	assert.Equal(t, 2, doc.Find(`input[name="q1"]`).Length())
	assert.Equal(t, 3, doc.Find(`input[name="q2"]`).Length())
	assert.Equal(t, 2, doc.Find("#categories li").Length())
	assert.Contains(t, doc.Find("legend").First().Text(), "1. 2 + 2?")
}

func TestProgressPage(t *testing.T) {
	snap := &progress.Snapshot{
		CombinedScore:    4,
		PerformanceLevel: progress.TierVeryGood,
		TotalCoins:       12,
		Weekly: []progress.DayCoins{
			{Day: "Mon", Coins: 4}, {Day: "Tue"}, {Day: "Wed", Coins: 8}, {Day: "Thu"}, {Day: "Fri"}, {Day: "Sat"}, {Day: "Sun"},
		},
	}
	doc := render(t, "progress.html", gin.H{"user": &user.User{Username: "asha"}, "progress": snap})
	assert.Equal(t, "Very Good", doc.Find("#performance-level").Text())
	assert.Equal(t, "4.00 / 5", doc.Find("#combined-score").Text())
	assert.Equal(t, 7, doc.Find("#weekly th").Length())
}

func TestVideosPage(t *testing.T) {
	mainVideo := videos.Video{ID: "abc123", Title: "ABC Song"}
	doc := render(t, "videos.html", gin.H{
		"user":             &user.User{Username: "asha"},
		"query":            "abc",
		"main_video":       &mainVideo,
		"reference_videos": []videos.Video{{ID: "x", Title: "Phonics"}},
	})
	assert.Equal(t, "ABC Song", doc.Find("#main-video h2").Text())
	src, _ := doc.Find("#main-video iframe").Attr("src")
	assert.Contains(t, src, "abc123")
	assert.Equal(t, 1, doc.Find("#reference-videos .card").Length())

	empty := render(t, "videos.html", gin.H{"user": &user.User{Username: "asha"}, "query": "zzz"})
	assert.Equal(t, 1, empty.Find("#no-results").Length())
}
