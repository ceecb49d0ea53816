package database

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lysyi3m/newsreader/app/news"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "news.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	version, dirty, err := RunMigrations(db)
	require.NoError(t, err)
	require.False(t, dirty)
	require.Equal(t, uint(1), version)

	return db
}

func testArticle(id, title, publishTime string) news.Article {
	return news.Article{
		ID:          id,
		Title:       title,
		Body:        "正文 " + title,
		PublishTime: publishTime,
		Category:    news.Technology,
		Publisher:   "新华网",
		Keywords:    []news.KeywordWeight{{Word: "芯片", Weight: 0.8}},
	}
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	db := openTestDB(t)

	version, dirty, err := RunMigrations(db)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)
}

func TestArticleRepository(t *testing.T) {
	repo := NewArticleRepository(openTestDB(t), 0)

	err := repo.UpsertArticles([]news.Article{
		testArticle("a1", "芯片产业新进展", "2024-06-15 09:00:00"),
		testArticle("a2", "体育新闻", "2024-06-16 10:00:00"),
		{Title: "no id is skipped"},
	})
	require.NoError(t, err)

	got, err := repo.GetArticle("a1")
	require.NoError(t, err)
	assert.Equal(t, "芯片产业新进展", got.Title)
	assert.Equal(t, news.Technology, got.Category)
	require.Len(t, got.Keywords, 1)
	assert.Equal(t, "芯片", got.Keywords[0].Word)

	_, err = repo.GetArticle("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	count, err := repo.CountArticles()
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	all, err := repo.SearchArticles(ArticleQuery{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a2", all[0].ID, "newest publish time first")

	byKeyword, err := repo.SearchArticles(ArticleQuery{Keyword: "芯片产业"})
	require.NoError(t, err)
	require.Len(t, byKeyword, 1)
	assert.Equal(t, "a1", byKeyword[0].ID)

	byDate, err := repo.SearchArticles(ArticleQuery{Since: "2024-06-16 00:00:00", Until: "2024-06-16 23:59:59"})
	require.NoError(t, err)
	require.Len(t, byDate, 1)
	assert.Equal(t, "a2", byDate[0].ID)

	none, err := repo.SearchArticles(ArticleQuery{Category: news.Sports})
	require.NoError(t, err)
	assert.Empty(t, none)

	literal, err := repo.SearchArticles(ArticleQuery{Keyword: "100%"})
	require.NoError(t, err)
	assert.Empty(t, literal)
}

func TestArticleRepositoryEvictsOldestFetched(t *testing.T) {
	repo := NewArticleRepository(openTestDB(t), 2)
	clock := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	repo.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	for i := 1; i <= 3; i++ {
		id := fmt.Sprintf("a%d", i)
		require.NoError(t, repo.UpsertArticles([]news.Article{testArticle(id, id, "2024-06-15 09:00:00")}))
	}

	_, err := repo.GetArticle("a1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.GetArticle("a3")
	assert.NoError(t, err)
}

func TestHistoryRepository(t *testing.T) {
	repo := NewHistoryRepository(openTestDB(t), 3)
	base := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

	for i := 1; i <= 4; i++ {
		a := testArticle(fmt.Sprintf("h%d", i), "title", "2024-06-15 09:00:00")
		require.NoError(t, repo.RecordView(a, base.Add(time.Duration(i)*time.Minute)))
	}

	entries, err := repo.ListHistory(0, 0)
	require.NoError(t, err)
	require.Len(t, entries, 3, "oldest entry truncated")
	assert.Equal(t, "h4", entries[0].Article.ID)
	assert.Equal(t, "h2", entries[2].Article.ID)

	// re-view moves the entry to the top without duplicating it
	require.NoError(t, repo.RecordView(testArticle("h2", "title", ""), base.Add(time.Hour)))
	entries, err = repo.ListHistory(0, 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "h2", entries[0].Article.ID)
	assert.True(t, entries[0].ViewedAt.Equal(base.Add(time.Hour)))

	page, err := repo.ListHistory(1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "h4", page[0].Article.ID)

	require.NoError(t, repo.DeleteHistory("h4"))
	assert.ErrorIs(t, repo.DeleteHistory("h4"), ErrNotFound)

	require.NoError(t, repo.ClearHistory())
	entries, err = repo.ListHistory(0, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFavoriteRepository(t *testing.T) {
	repo := NewFavoriteRepository(openTestDB(t), 2)
	now := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	a := testArticle("f1", "收藏", "2024-06-15 09:00:00")

	on, err := repo.ToggleFavorite(a, now)
	require.NoError(t, err)
	assert.True(t, on)

	fav, err := repo.IsFavorite("f1")
	require.NoError(t, err)
	assert.True(t, fav)

	off, err := repo.ToggleFavorite(a, now)
	require.NoError(t, err)
	assert.False(t, off)

	fav, err = repo.IsFavorite("f1")
	require.NoError(t, err)
	assert.False(t, fav)

	for i := 1; i <= 3; i++ {
		require.NoError(t, repo.AddFavorite(testArticle(fmt.Sprintf("f%d", i), "t", ""), now.Add(time.Duration(i)*time.Minute)))
	}
	list, err := repo.ListFavorites(0, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "f3", list[0].Article.ID)
	assert.Equal(t, "f2", list[1].Article.ID)

	require.NoError(t, repo.RemoveFavorite("f3"))
	require.NoError(t, repo.RemoveFavorite("f3"))
}

func TestSummaryRepository(t *testing.T) {
	repo := NewSummaryRepository(openTestDB(t), 2)
	old := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := old.AddDate(0, 3, 0)

	_, err := repo.GetSummary("s1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.SaveSummary(Summary{ArticleID: "s1", Content: "旧摘要", Model: "m", TotalTokens: 10, CreatedAt: old}))
	require.NoError(t, repo.SaveSummary(Summary{ArticleID: "s2", Content: "新摘要", CreatedAt: recent}))

	s, err := repo.GetSummary("s1")
	require.NoError(t, err)
	assert.Equal(t, "旧摘要", s.Content)
	assert.Equal(t, 10, s.TotalTokens)
	assert.True(t, s.CreatedAt.Equal(old))

	n, err := repo.PurgeOlderThan(old.AddDate(0, 1, 0))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = repo.GetSummary("s1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.SaveSummary(Summary{ArticleID: "s3", Content: "c", CreatedAt: recent.Add(time.Minute)}))
	require.NoError(t, repo.SaveSummary(Summary{ArticleID: "s4", Content: "c", CreatedAt: recent.Add(2 * time.Minute)}))
	_, err = repo.GetSummary("s2")
	assert.ErrorIs(t, err, ErrNotFound, "cap evicts oldest")

	require.NoError(t, repo.DeleteSummary("s4"))
	assert.ErrorIs(t, repo.DeleteSummary("s4"), ErrNotFound)
}

func TestCategoryRepository(t *testing.T) {
	repo := NewCategoryRepository(openTestDB(t))

	got, err := repo.GetCategories()
	require.NoError(t, err)
	assert.Equal(t, news.AllCategories(), got)

	want := []news.Category{news.Sports, news.Technology}
	require.NoError(t, repo.SetCategories(want))
	got, err = repo.GetCategories()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	assert.ErrorIs(t, repo.SetCategories(nil), ErrInvalidCategories)
	assert.ErrorIs(t, repo.SetCategories([]news.Category{"天气"}), ErrInvalidCategories)
	assert.ErrorIs(t, repo.SetCategories([]news.Category{news.Sports, news.Sports}), ErrInvalidCategories)

	got, err = repo.GetCategories()
	require.NoError(t, err)
	assert.Equal(t, want, got, "rejected updates leave selection unchanged")
}

func TestProfileRepository(t *testing.T) {
	repo := NewProfileRepository(openTestDB(t))

	p, err := repo.GetProfile()
	require.NoError(t, err)
	assert.Equal(t, DefaultProfile(), p)

	p.Nickname = "读者"
	p.DarkTheme = true
	p.FontScale = 1.25
	require.NoError(t, repo.UpdateProfile(p))

	got, err := repo.GetProfile()
	require.NoError(t, err)
	assert.Equal(t, p, got)

	require.NoError(t, repo.UpdateProfile(Profile{Nickname: "x"}))
	got, err = repo.GetProfile()
	require.NoError(t, err)
	assert.Equal(t, 1.0, got.FontScale)
}
