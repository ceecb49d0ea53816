// Package newsroom is the data layer behind every screen: it combines the
// remote news source, the local sqlite store and the in-memory handoff cache.
package newsroom

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/lysyi3m/newsreader/app/articlecache"
	"github.com/lysyi3m/newsreader/app/client"
	"github.com/lysyi3m/newsreader/app/database"
	"github.com/lysyi3m/newsreader/app/news"
	"github.com/lysyi3m/newsreader/app/search"
	"github.com/lysyi3m/newsreader/app/summary"
)

var ErrEmptyQuery = errors.New("empty search query")

const DefaultPageSize = 15

type NewsSource interface {
	Query(ctx context.Context, p client.Params) (news.Page, error)
}

type Summarizer interface {
	Complete(ctx context.Context, r summary.Request) (summary.Completion, error)
}

type Repositories struct {
	Articles   database.ArticleRepository
	History    database.HistoryRepository
	Favorites  database.FavoriteRepository
	Summaries  database.SummaryRepository
	Categories database.CategoryRepository
	Profile    database.ProfileRepository
}

type Options struct {
	PageSize     int
	SummaryModel string
	MaxTokens    int
}

type Service struct {
	source     NewsSource
	summarizer Summarizer
	repos      Repositories
	handoff    *articlecache.Cache
	opts       Options

	summaries singleflight.Group
	now       func() time.Time
}

func NewService(source NewsSource, summarizer Summarizer, repos Repositories, handoff *articlecache.Cache, opts Options) *Service {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	return &Service{
		source:     source,
		summarizer: summarizer,
		repos:      repos,
		handoff:    handoff,
		opts:       opts,
		now:        time.Now,
	}
}

// Listing is one page of articles. Offline is set when the page was served
// from the local cache because the news source was unreachable.
type Listing struct {
	Page    news.Page
	Offline bool
}

// List returns a page of the category feed. An empty category lists every category.
func (s *Service) List(ctx context.Context, category news.Category, page int) (Listing, error) {
	page = max(page, 1)

	result, err := s.source.Query(ctx, client.Params{
		Page:     page,
		Size:     s.opts.PageSize,
		Category: category,
	})
	if err == nil {
		s.remember(result.Articles)
		return Listing{Page: result}, nil
	}
	if !errors.Is(err, client.ErrNetwork) {
		return Listing{}, fmt.Errorf("failed to list news: %w", err)
	}

	slog.Warn("News source unreachable, serving cached articles", "category", category, "page", page, "error", err)

	cached, cerr := s.repos.Articles.SearchArticles(database.ArticleQuery{
		Category: category,
		Limit:    s.opts.PageSize,
		Offset:   (page - 1) * s.opts.PageSize,
	})
	if cerr != nil {
		return Listing{}, fmt.Errorf("failed to list news: %w (cache: %v)", err, cerr)
	}
	s.handoff.Put(cached...)

	return Listing{
		Page:    news.Page{Total: len(cached), PageSize: s.opts.PageSize, Articles: cached},
		Offline: true,
	}, nil
}

type SearchRequest struct {
	Text     string
	Picked   *search.PartialDate
	Category news.Category
	Page     int
}

type SearchResult struct {
	Query   search.Query
	Results []search.Scored
	Offline bool
}

// Search resolves the request, queries the news source and ranks the results.
func (s *Service) Search(ctx context.Context, req SearchRequest) (SearchResult, error) {
	q, err := search.Resolve(req.Text, req.Picked)
	if err != nil {
		return SearchResult{}, err
	}
	if q.Empty() {
		return SearchResult{}, ErrEmptyQuery
	}

	articles, offline, err := s.find(ctx, q, req.Category, req.Page)
	if err != nil {
		return SearchResult{}, err
	}

	return SearchResult{
		Query:   q,
		Results: search.RankScored(articles, q),
		Offline: offline,
	}, nil
}

// Searcher adapts the service to a search.Machine for one category.
func (s *Service) Searcher(category news.Category) search.Searcher {
	return func(ctx context.Context, q search.Query) ([]news.Article, error) {
		articles, _, err := s.find(ctx, q, category, 1)
		return articles, err
	}
}

func (s *Service) find(ctx context.Context, q search.Query, category news.Category, page int) ([]news.Article, bool, error) {
	page = max(page, 1)

	params := client.Params{
		Page:     page,
		Size:     s.opts.PageSize,
		Keyword:  q.Keyword,
		Category: category,
	}
	if q.Date != nil {
		params.StartDate = q.Date.Start
		params.EndDate = q.Date.End + " 23:59:59"
	}

	result, err := s.source.Query(ctx, params)
	if err == nil {
		s.remember(result.Articles)
		return result.Articles, false, nil
	}
	if !errors.Is(err, client.ErrNetwork) {
		return nil, false, fmt.Errorf("failed to search news: %w", err)
	}

	slog.Warn("News source unreachable, searching cached articles", "query", q.Keyword, "kind", q.Kind, "error", err)

	aq := database.ArticleQuery{
		Keyword:  q.Keyword,
		Category: category,
		Limit:    s.opts.PageSize,
		Offset:   (page - 1) * s.opts.PageSize,
	}
	if q.Date != nil {
		aq.Since = q.Date.Start + " 00:00:00"
		aq.Until = q.Date.End + " 23:59:59"
	}

	cached, cerr := s.repos.Articles.SearchArticles(aq)
	if cerr != nil {
		return nil, false, fmt.Errorf("failed to search news: %w (cache: %v)", err, cerr)
	}
	s.handoff.Put(cached...)

	return cached, true, nil
}

// remember writes fetched articles to both caches. A failed cache write is
// logged and does not fail the read that produced the articles.
func (s *Service) remember(articles []news.Article) {
	s.handoff.Put(articles...)
	if err := s.repos.Articles.UpsertArticles(articles); err != nil {
		slog.Warn("Failed to cache articles", "count", len(articles), "error", err)
	}
}

// Article returns an article previously seen in a listing.
func (s *Service) Article(ctx context.Context, id string) (news.Article, error) {
	if a, ok := s.handoff.Get(id); ok {
		return a, nil
	}

	a, err := s.repos.Articles.GetArticle(id)
	if err != nil {
		return news.Article{}, err
	}
	s.handoff.Put(a)
	return a, nil
}

// View opens an article and records it in the reading history.
func (s *Service) View(ctx context.Context, id string) (news.Article, error) {
	a, err := s.Article(ctx, id)
	if err != nil {
		return news.Article{}, err
	}
	if err := s.repos.History.RecordView(a, s.now()); err != nil {
		return news.Article{}, err
	}
	return a, nil
}

func (s *Service) History(ctx context.Context, limit, offset int) ([]database.HistoryEntry, error) {
	return s.repos.History.ListHistory(limit, offset)
}

func (s *Service) DeleteHistory(ctx context.Context, id string) error {
	return s.repos.History.DeleteHistory(id)
}

func (s *Service) ClearHistory(ctx context.Context) error {
	return s.repos.History.ClearHistory()
}

// ToggleFavorite flips the favorite flag and reports the new state. A favorite
// whose article has left every cache can still be removed.
func (s *Service) ToggleFavorite(ctx context.Context, id string) (bool, error) {
	a, err := s.Article(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		fav, ferr := s.repos.Favorites.IsFavorite(id)
		if ferr != nil {
			return false, ferr
		}
		if !fav {
			return false, err
		}
		return false, s.repos.Favorites.RemoveFavorite(id)
	}
	if err != nil {
		return false, err
	}

	return s.repos.Favorites.ToggleFavorite(a, s.now())
}

func (s *Service) IsFavorite(ctx context.Context, id string) (bool, error) {
	return s.repos.Favorites.IsFavorite(id)
}

func (s *Service) Favorites(ctx context.Context, limit, offset int) ([]database.Favorite, error) {
	return s.repos.Favorites.ListFavorites(limit, offset)
}

// Summarize returns the stored summary of an article, generating and storing
// it on first request. Concurrent requests for one article share a single call.
func (s *Service) Summarize(ctx context.Context, id string) (database.Summary, error) {
	cached, err := s.repos.Summaries.GetSummary(id)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return database.Summary{}, err
	}

	v, err, _ := s.summaries.Do(id, func() (interface{}, error) {
		return s.generateSummary(context.WithoutCancel(ctx), id)
	})
	if err != nil {
		return database.Summary{}, err
	}
	return v.(database.Summary), nil
}

func (s *Service) generateSummary(ctx context.Context, id string) (database.Summary, error) {
	a, err := s.Article(ctx, id)
	if err != nil {
		return database.Summary{}, err
	}

	start := s.now()
	completion, err := s.summarizer.Complete(ctx, summary.Request{
		Model:     s.opts.SummaryModel,
		Messages:  summary.BuildMessages(a),
		MaxTokens: s.opts.MaxTokens,
	})
	if err != nil {
		return database.Summary{}, fmt.Errorf("failed to summarize article %s: %w", id, err)
	}

	result := database.Summary{
		ArticleID:        id,
		Content:          completion.Text,
		Model:            completion.Model,
		PromptTokens:     completion.Usage.PromptTokens,
		CompletionTokens: completion.Usage.CompletionTokens,
		TotalTokens:      completion.Usage.TotalTokens,
		CreatedAt:        s.now(),
	}
	if result.Model == "" {
		result.Model = s.opts.SummaryModel
	}

	if err := s.repos.Summaries.SaveSummary(result); err != nil {
		return database.Summary{}, err
	}

	slog.Info("Summary generated",
		"article_id", id,
		"model", result.Model,
		"total_tokens", result.TotalTokens,
		"duration", s.now().Sub(start))

	return result, nil
}

// StoredSummary returns a previously generated summary without calling the model.
func (s *Service) StoredSummary(ctx context.Context, id string) (database.Summary, error) {
	return s.repos.Summaries.GetSummary(id)
}

func (s *Service) DeleteSummary(ctx context.Context, id string) error {
	return s.repos.Summaries.DeleteSummary(id)
}

// PurgeSummaries removes summaries older than maxAge.
func (s *Service) PurgeSummaries(ctx context.Context, maxAge time.Duration) (int64, error) {
	return s.repos.Summaries.PurgeOlderThan(s.now().Add(-maxAge))
}

func (s *Service) Categories(ctx context.Context) ([]news.Category, error) {
	return s.repos.Categories.GetCategories()
}

func (s *Service) SetCategories(ctx context.Context, categories []news.Category) error {
	return s.repos.Categories.SetCategories(categories)
}

func (s *Service) Profile(ctx context.Context) (database.Profile, error) {
	return s.repos.Profile.GetProfile()
}

func (s *Service) UpdateProfile(ctx context.Context, p database.Profile) error {
	return s.repos.Profile.UpdateProfile(p)
}

// Prefetch loads the first page of every selected category into the caches.
// Failures are logged per category; the returned error is the first one seen.
func (s *Service) Prefetch(ctx context.Context, workers int) error {
	categories, err := s.Categories(ctx)
	if err != nil {
		return err
	}

	var g errgroup.Group
	g.SetLimit(max(workers, 1))

	for _, c := range categories {
		g.Go(func() error {
			result, err := s.source.Query(ctx, client.Params{Page: 1, Size: s.opts.PageSize, Category: c})
			if err != nil {
				slog.Warn("Prefetch failed", "category", c, "error", err)
				return fmt.Errorf("failed to prefetch %s: %w", c, err)
			}
			s.remember(result.Articles)
			slog.Debug("Prefetched category", "category", c, "count", len(result.Articles))
			return nil
		})
	}

	return g.Wait()
}

// Import stores articles that did not come from the news source, such as
// publisher feed items.
func (s *Service) Import(ctx context.Context, articles []news.Article) error {
	if err := s.repos.Articles.UpsertArticles(articles); err != nil {
		return err
	}
	s.handoff.Put(articles...)
	return nil
}
