package database

import (
	"errors"
	"time"

	"github.com/lysyi3m/newsreader/app/news"
)

var ErrNotFound = errors.New("not found")

const (
	DefaultArticleLimit  = 5000
	DefaultHistoryLimit  = 500
	DefaultFavoriteLimit = 1000
	DefaultSummaryLimit  = 1000
)

type HistoryEntry struct {
	Article  news.Article `json:"article"`
	ViewedAt time.Time    `json:"viewed_at"`
}

type Favorite struct {
	Article   news.Article `json:"article"`
	CreatedAt time.Time    `json:"created_at"`
}

type Summary struct {
	ArticleID        string    `json:"article_id"`
	Content          string    `json:"content"`
	Model            string    `json:"model"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	TotalTokens      int       `json:"total_tokens"`
	CreatedAt        time.Time `json:"created_at"`
}

type Profile struct {
	Nickname  string  `json:"nickname"`
	Gender    string  `json:"gender"`
	Birthday  string  `json:"birthday"`
	Signature string  `json:"signature"`
	DarkTheme bool    `json:"dark_theme"`
	FontScale float64 `json:"font_scale"`
}

func DefaultProfile() Profile {
	return Profile{FontScale: 1.0}
}

// ArticleQuery filters the local article cache. Zero values disable a filter.
// Since and Until compare against publish_time in news.PublishLayout.
type ArticleQuery struct {
	Keyword  string
	Category news.Category
	Since    string
	Until    string
	Limit    int
	Offset   int
}

func unixMilli(t time.Time) int64 {
	return t.UnixMilli()
}

func fromUnixMilli(ms int64) time.Time {
	return time.UnixMilli(ms)
}
