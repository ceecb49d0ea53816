package newsroom

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lysyi3m/newsreader/app/articlecache"
	"github.com/lysyi3m/newsreader/app/client"
	"github.com/lysyi3m/newsreader/app/database"
	"github.com/lysyi3m/newsreader/app/news"
	"github.com/lysyi3m/newsreader/app/search"
	"github.com/lysyi3m/newsreader/app/summary"
)

type fakeSource struct {
	mu    sync.Mutex
	calls []client.Params
	page  news.Page
	err   error
}

func (f *fakeSource) Query(ctx context.Context, p client.Params) (news.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, p)
	if f.err != nil {
		return news.Page{}, f.err
	}
	return f.page, nil
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeSummarizer struct {
	calls   atomic.Int32
	release chan struct{}
	err     error
}

func (f *fakeSummarizer) Complete(ctx context.Context, r summary.Request) (summary.Completion, error) {
	f.calls.Add(1)
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return summary.Completion{}, f.err
	}
	return summary.Completion{
		Text:  "摘要",
		Model: r.Model,
		Usage: summary.Usage{PromptTokens: 100, CompletionTokens: 20, TotalTokens: 120},
	}, nil
}

func newTestService(t *testing.T, source *fakeSource, summarizer *fakeSummarizer) *Service {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "news.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	_, _, err = database.RunMigrations(db)
	require.NoError(t, err)

	handoff, err := articlecache.New(16)
	require.NoError(t, err)

	repos := Repositories{
		Articles:   database.NewArticleRepository(db, 0),
		History:    database.NewHistoryRepository(db, 0),
		Favorites:  database.NewFavoriteRepository(db, 0),
		Summaries:  database.NewSummaryRepository(db, 0),
		Categories: database.NewCategoryRepository(db),
		Profile:    database.NewProfileRepository(db),
	}

	return NewService(source, summarizer, repos, handoff, Options{PageSize: 10, SummaryModel: "glm-4-flash", MaxTokens: 256})
}

func sampleArticles() []news.Article {
	return []news.Article{
		{ID: "1", Title: "人工智能大会开幕", Body: "会议讨论芯片", PublishTime: "2024-06-15 09:00:00", Category: news.Technology},
		{ID: "2", Title: "芯片出口数据", Body: "芯片", PublishTime: "2024-06-14 09:00:00", Category: news.Technology,
			Keywords: []news.KeywordWeight{{Word: "芯片", Weight: 0.9}}},
		{ID: "3", Title: "篮球联赛", Body: "体育", PublishTime: "2024-06-16 09:00:00", Category: news.Sports},
	}
}

func TestListCachesAndFallsBackOnNetworkError(t *testing.T) {
	source := &fakeSource{page: news.Page{Total: 3, PageSize: 10, Articles: sampleArticles()}}
	svc := newTestService(t, source, &fakeSummarizer{})
	ctx := context.Background()

	listing, err := svc.List(ctx, news.Technology, 1)
	require.NoError(t, err)
	assert.False(t, listing.Offline)
	assert.Len(t, listing.Page.Articles, 3)
	assert.Equal(t, news.Technology, source.calls[0].Category)

	source.err = fmt.Errorf("%w: dial tcp: refused", client.ErrNetwork)

	listing, err = svc.List(ctx, news.Technology, 1)
	require.NoError(t, err)
	assert.True(t, listing.Offline)
	require.Len(t, listing.Page.Articles, 2)
	assert.Equal(t, "1", listing.Page.Articles[0].ID, "cache lists newest first")
	assert.Equal(t, 2, source.callCount(), "fallback does not retry the source")
}

func TestListSurfacesNonNetworkErrors(t *testing.T) {
	source := &fakeSource{err: &client.StatusError{Code: 500, Status: "500 Internal Server Error"}}
	svc := newTestService(t, source, &fakeSummarizer{})

	_, err := svc.List(context.Background(), "", 1)
	var statusErr *client.StatusError
	assert.ErrorAs(t, err, &statusErr)
}

func TestSearchRanksAndSendsDateBounds(t *testing.T) {
	source := &fakeSource{page: news.Page{Articles: sampleArticles()}}
	svc := newTestService(t, source, &fakeSummarizer{})

	result, err := svc.Search(context.Background(), SearchRequest{Text: "芯片 2024-06-14"})
	require.NoError(t, err)

	assert.Equal(t, search.Combined, result.Query.Kind)
	require.Len(t, source.calls, 1)
	assert.Equal(t, "芯片", source.calls[0].Keyword)
	assert.Equal(t, "2024-06-14", source.calls[0].StartDate)
	assert.Equal(t, "2024-06-14 23:59:59", source.calls[0].EndDate)

	require.Len(t, result.Results, 3)
	assert.Equal(t, "2", result.Results[0].Article.ID, "title and keyword match ranks first")
	assert.Equal(t, "3", result.Results[2].Article.ID)
}

func TestSearchEmptyQueryMakesNoCall(t *testing.T) {
	source := &fakeSource{}
	svc := newTestService(t, source, &fakeSummarizer{})

	_, err := svc.Search(context.Background(), SearchRequest{Text: "   "})
	assert.ErrorIs(t, err, ErrEmptyQuery)
	assert.Zero(t, source.callCount())
}

func TestSearchFallsBackToCache(t *testing.T) {
	source := &fakeSource{page: news.Page{Articles: sampleArticles()}}
	svc := newTestService(t, source, &fakeSummarizer{})
	ctx := context.Background()

	_, err := svc.List(ctx, "", 1)
	require.NoError(t, err)

	source.err = client.ErrNetwork
	result, err := svc.Search(ctx, SearchRequest{Text: "2024-06-16"})
	require.NoError(t, err)
	assert.True(t, result.Offline)
	require.Len(t, result.Results, 1)
	assert.Equal(t, "3", result.Results[0].Article.ID)
}

func TestSearcherDrivesMachine(t *testing.T) {
	source := &fakeSource{page: news.Page{Articles: sampleArticles()}}
	svc := newTestService(t, source, &fakeSummarizer{})

	m := search.NewMachine(svc.Searcher(news.Technology))
	m.Submit(context.Background(), search.Request{Text: "芯片"})
	m.Wait()

	state, ok := m.State().(search.Success)
	require.True(t, ok, "got %s", search.Describe(m.State()))
	assert.Equal(t, "2", state.Articles[0].ID)
	assert.Equal(t, news.Technology, source.calls[0].Category)
}

func TestArticleViewAndHistory(t *testing.T) {
	source := &fakeSource{page: news.Page{Articles: sampleArticles()}}
	svc := newTestService(t, source, &fakeSummarizer{})
	ctx := context.Background()

	_, err := svc.Article(ctx, "1")
	assert.ErrorIs(t, err, database.ErrNotFound)

	_, err = svc.List(ctx, "", 1)
	require.NoError(t, err)

	a, err := svc.View(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "人工智能大会开幕", a.Title)

	history, err := svc.History(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "1", history[0].Article.ID)

	require.NoError(t, svc.DeleteHistory(ctx, "1"))
	require.NoError(t, svc.ClearHistory(ctx))
}

func TestToggleFavoriteRoundTrip(t *testing.T) {
	source := &fakeSource{page: news.Page{Articles: sampleArticles()}}
	svc := newTestService(t, source, &fakeSummarizer{})
	ctx := context.Background()

	_, err := svc.ToggleFavorite(ctx, "missing")
	assert.ErrorIs(t, err, database.ErrNotFound)

	_, err = svc.List(ctx, "", 1)
	require.NoError(t, err)

	on, err := svc.ToggleFavorite(ctx, "2")
	require.NoError(t, err)
	assert.True(t, on)

	favorites, err := svc.Favorites(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, favorites, 1)

	off, err := svc.ToggleFavorite(ctx, "2")
	require.NoError(t, err)
	assert.False(t, off)

	fav, err := svc.IsFavorite(ctx, "2")
	require.NoError(t, err)
	assert.False(t, fav)
}

func TestSummarizeUsesCacheAndSingleFlight(t *testing.T) {
	source := &fakeSource{page: news.Page{Articles: sampleArticles()}}
	summarizer := &fakeSummarizer{release: make(chan struct{})}
	svc := newTestService(t, source, summarizer)
	ctx := context.Background()

	_, err := svc.List(ctx, "", 1)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]database.Summary, 4)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := svc.Summarize(ctx, "1")
			assert.NoError(t, err)
			results[i] = s
		}()
	}

	require.Eventually(t, func() bool { return summarizer.calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(summarizer.release)
	wg.Wait()

	for _, s := range results {
		assert.Equal(t, "摘要", s.Content)
	}

	s, err := svc.Summarize(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, 120, s.TotalTokens)
	assert.Equal(t, "glm-4-flash", s.Model)
	assert.Equal(t, int32(1), summarizer.calls.Load(), "stored summary served without a call")

	require.NoError(t, svc.DeleteSummary(ctx, "1"))
	_, err = svc.Summarize(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, int32(2), summarizer.calls.Load())
}

func TestSummarizeErrorIsNotStored(t *testing.T) {
	source := &fakeSource{page: news.Page{Articles: sampleArticles()}}
	summarizer := &fakeSummarizer{err: errors.New("quota exceeded")}
	svc := newTestService(t, source, summarizer)
	ctx := context.Background()

	_, err := svc.List(ctx, "", 1)
	require.NoError(t, err)

	_, err = svc.Summarize(ctx, "1")
	require.Error(t, err)

	_, err = svc.repos.Summaries.GetSummary("1")
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestPurgeSummaries(t *testing.T) {
	svc := newTestService(t, &fakeSource{}, &fakeSummarizer{})
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	require.NoError(t, svc.repos.Summaries.SaveSummary(database.Summary{ArticleID: "old", Content: "c", CreatedAt: now.AddDate(0, 0, -40)}))
	require.NoError(t, svc.repos.Summaries.SaveSummary(database.Summary{ArticleID: "new", Content: "c", CreatedAt: now.AddDate(0, 0, -1)}))

	n, err := svc.PurgeSummaries(context.Background(), 30*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestPrefetchSelectedCategories(t *testing.T) {
	source := &fakeSource{page: news.Page{Articles: sampleArticles()}}
	svc := newTestService(t, source, &fakeSummarizer{})
	ctx := context.Background()

	require.NoError(t, svc.SetCategories(ctx, []news.Category{news.Sports, news.Technology}))
	require.NoError(t, svc.Prefetch(ctx, 2))
	assert.Equal(t, 2, source.callCount())

	_, err := svc.Article(ctx, "3")
	assert.NoError(t, err)

	source.err = client.ErrNetwork
	assert.ErrorIs(t, svc.Prefetch(ctx, 2), client.ErrNetwork)
}

func TestProfileRoundTrip(t *testing.T) {
	svc := newTestService(t, &fakeSource{}, &fakeSummarizer{})
	ctx := context.Background()

	p, err := svc.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1.0, p.FontScale)

	p.Nickname = "读者"
	require.NoError(t, svc.UpdateProfile(ctx, p))

	got, err := svc.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "读者", got.Nickname)
}

func TestImportMakesArticlesSearchableOffline(t *testing.T) {
	source := &fakeSource{err: client.ErrNetwork}
	svc := newTestService(t, source, &fakeSummarizer{})
	ctx := context.Background()

	require.NoError(t, svc.Import(ctx, sampleArticles()))

	article, err := svc.Article(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, "芯片出口数据", article.Title)

	result, err := svc.Search(ctx, SearchRequest{Text: "篮球"})
	require.NoError(t, err)
	assert.True(t, result.Offline)
	require.Len(t, result.Results, 1)
	assert.Equal(t, "3", result.Results[0].Article.ID)
}
