package database

import (
	"time"

	"github.com/lysyi3m/newsreader/app/news"
)

type ArticleRepository interface {
	UpsertArticles(articles []news.Article) error
	GetArticle(id string) (news.Article, error)
	SearchArticles(q ArticleQuery) ([]news.Article, error)
	CountArticles() (int, error)
}

type HistoryRepository interface {
	RecordView(article news.Article, viewedAt time.Time) error
	ListHistory(limit, offset int) ([]HistoryEntry, error)
	DeleteHistory(articleID string) error
	ClearHistory() error
}

type FavoriteRepository interface {
	AddFavorite(article news.Article, createdAt time.Time) error
	RemoveFavorite(articleID string) error
	ToggleFavorite(article news.Article, at time.Time) (bool, error)
	IsFavorite(articleID string) (bool, error)
	ListFavorites(limit, offset int) ([]Favorite, error)
}

type SummaryRepository interface {
	GetSummary(articleID string) (Summary, error)
	SaveSummary(s Summary) error
	DeleteSummary(articleID string) error
	PurgeOlderThan(cutoff time.Time) (int64, error)
}

type CategoryRepository interface {
	GetCategories() ([]news.Category, error)
	SetCategories(categories []news.Category) error
}

type ProfileRepository interface {
	GetProfile() (Profile, error)
	UpdateProfile(p Profile) error
}
