package api

import (
	"context"
	"time"

	"github.com/lysyi3m/newsreader/app/database"
	"github.com/lysyi3m/newsreader/app/feed"
	"github.com/lysyi3m/newsreader/app/news"
	"github.com/lysyi3m/newsreader/app/newsroom"
)

type GeneratorInterface interface {
	Run(favorites []database.Favorite) (string, error)
}

var _ GeneratorInterface = (*feed.Generator)(nil)

// Newsroom is the data layer the handlers serve.
type Newsroom interface {
	List(ctx context.Context, category news.Category, page int) (newsroom.Listing, error)
	Search(ctx context.Context, req newsroom.SearchRequest) (newsroom.SearchResult, error)
	Article(ctx context.Context, id string) (news.Article, error)
	View(ctx context.Context, id string) (news.Article, error)
	History(ctx context.Context, limit, offset int) ([]database.HistoryEntry, error)
	DeleteHistory(ctx context.Context, id string) error
	ClearHistory(ctx context.Context) error
	ToggleFavorite(ctx context.Context, id string) (bool, error)
	IsFavorite(ctx context.Context, id string) (bool, error)
	Favorites(ctx context.Context, limit, offset int) ([]database.Favorite, error)
	Summarize(ctx context.Context, id string) (database.Summary, error)
	StoredSummary(ctx context.Context, id string) (database.Summary, error)
	DeleteSummary(ctx context.Context, id string) error
	Categories(ctx context.Context) ([]news.Category, error)
	SetCategories(ctx context.Context, categories []news.Category) error
	Profile(ctx context.Context) (database.Profile, error)
	UpdateProfile(ctx context.Context, p database.Profile) error
}

var _ Newsroom = (*newsroom.Service)(nil)

type Handler struct {
	newsroom    Newsroom
	articles    database.ArticleRepository
	generator   GeneratorInterface
	configCache *feed.ConfigCache
	startedAt   time.Time
}

type articleResponse struct {
	news.Article
	Favorite bool   `json:"favorite"`
	Date     string `json:"date"`
	Relative string `json:"relative"`
}

type searchResponse struct {
	Keyword string         `json:"keyword"`
	Kind    string         `json:"kind"`
	Date    string         `json:"date,omitempty"`
	Offline bool           `json:"offline"`
	Results []scoredResult `json:"results"`
}

type scoredResult struct {
	Article news.Article `json:"article"`
	Score   float64      `json:"score"`
}

type categoriesRequest struct {
	Categories []string `json:"categories" binding:"required"`
}
