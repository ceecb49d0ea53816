package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/newsreader/app/client"
	"github.com/lysyi3m/newsreader/app/database"
	"github.com/lysyi3m/newsreader/app/feed"
	"github.com/lysyi3m/newsreader/app/news"
	"github.com/lysyi3m/newsreader/app/newsroom"
	"github.com/lysyi3m/newsreader/app/search"
	"github.com/lysyi3m/newsreader/app/summary"
)

func NewHandler(newsroom Newsroom, articles database.ArticleRepository, configCache *feed.ConfigCache) *Handler {
	return &Handler{
		newsroom:    newsroom,
		articles:    articles,
		generator:   feed.NewGenerator(),
		configCache: configCache,
		startedAt:   time.Now(),
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"uptime":    time.Since(h.startedAt).Round(time.Second).String(),
	}

	if count, err := h.articles.CountArticles(); err == nil {
		health["cached_articles"] = count
	}

	health["loaded_configurations"] = h.configCache.Len()

	c.JSON(http.StatusOK, health)
}

func (h *Handler) ListNews(c *gin.Context) {
	category, err := news.ParseCategory(c.Query("category"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	listing, err := h.newsroom.List(c.Request.Context(), category, queryInt(c, "page", 1))
	if err != nil {
		h.respondError(c, "list_news", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":     listing.Page.Total,
		"page_size": listing.Page.PageSize,
		"offline":   listing.Offline,
		"articles":  nonNil(listing.Page.Articles),
	})
}

func (h *Handler) Search(c *gin.Context) {
	category, err := news.ParseCategory(c.Query("category"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req := newsroom.SearchRequest{
		Text:     c.Query("q"),
		Category: category,
		Page:     queryInt(c, "page", 1),
	}
	if year := queryInt(c, "year", 0); year > 0 {
		req.Picked = &search.PartialDate{
			Year:  year,
			Month: queryInt(c, "month", 0),
			Day:   queryInt(c, "day", 0),
		}
	}

	result, err := h.newsroom.Search(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, "search", err)
		return
	}

	resp := searchResponse{
		Keyword: result.Query.Keyword,
		Kind:    result.Query.Kind.String(),
		Offline: result.Offline,
		Results: make([]scoredResult, 0, len(result.Results)),
	}
	if result.Query.Date != nil {
		resp.Date = result.Query.Date.String()
	}
	for _, r := range result.Results {
		resp.Results = append(resp.Results, scoredResult{Article: r.Article, Score: r.Score})
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) GetArticle(c *gin.Context) {
	h.writeArticle(c, "get_article", h.newsroom.Article)
}

func (h *Handler) ViewArticle(c *gin.Context) {
	h.writeArticle(c, "view_article", h.newsroom.View)
}

func (h *Handler) writeArticle(c *gin.Context, operation string, load func(ctx context.Context, id string) (news.Article, error)) {
	ctx := c.Request.Context()
	id := c.Param("id")

	article, err := load(ctx, id)
	if err != nil {
		h.respondError(c, operation, err)
		return
	}

	favorite, err := h.newsroom.IsFavorite(ctx, id)
	if err != nil {
		slog.Warn("Failed to read favorite state", "article_id", id, "error", err)
	}

	c.JSON(http.StatusOK, articleResponse{
		Article:  article,
		Favorite: favorite,
		Date:     article.DisplayDate(),
		Relative: article.RelativeDate(time.Now()),
	})
}

func (h *Handler) GetSummary(c *gin.Context) {
	s, err := h.newsroom.StoredSummary(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, "get_summary", err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *Handler) CreateSummary(c *gin.Context) {
	s, err := h.newsroom.Summarize(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, "create_summary", err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *Handler) DeleteSummary(c *gin.Context) {
	if err := h.newsroom.DeleteSummary(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, "delete_summary", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListHistory(c *gin.Context) {
	entries, err := h.newsroom.History(c.Request.Context(), queryInt(c, "limit", 0), queryInt(c, "offset", 0))
	if err != nil {
		h.respondError(c, "list_history", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": nonNil(entries)})
}

func (h *Handler) ClearHistory(c *gin.Context) {
	if err := h.newsroom.ClearHistory(c.Request.Context()); err != nil {
		h.respondError(c, "clear_history", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) DeleteHistory(c *gin.Context) {
	if err := h.newsroom.DeleteHistory(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, "delete_history", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListFavorites(c *gin.Context) {
	favorites, err := h.newsroom.Favorites(c.Request.Context(), queryInt(c, "limit", 0), queryInt(c, "offset", 0))
	if err != nil {
		h.respondError(c, "list_favorites", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"favorites": nonNil(favorites)})
}

func (h *Handler) ToggleFavorite(c *gin.Context) {
	favorite, err := h.newsroom.ToggleFavorite(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, "toggle_favorite", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "favorite": favorite})
}

func (h *Handler) GetFavoritesFeed(c *gin.Context) {
	favorites, err := h.newsroom.Favorites(c.Request.Context(), 0, 0)
	if err != nil {
		h.respondError(c, "favorites_feed", err)
		return
	}

	rss, err := h.generator.Run(favorites)
	if err != nil {
		slog.Error("RSS generation error", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.Header("X-Feed-Items", strconv.Itoa(len(favorites)))
	c.String(http.StatusOK, rss)
}

func (h *Handler) GetCategories(c *gin.Context) {
	categories, err := h.newsroom.Categories(c.Request.Context())
	if err != nil {
		h.respondError(c, "get_categories", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"categories": categories,
		"available":  news.AllCategories(),
	})
}

func (h *Handler) SetCategories(c *gin.Context) {
	var req categoriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	categories := make([]news.Category, 0, len(req.Categories))
	for _, s := range req.Categories {
		categories = append(categories, news.Category(s))
	}

	if err := h.newsroom.SetCategories(c.Request.Context(), categories); err != nil {
		h.respondError(c, "set_categories", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

func (h *Handler) GetProfile(c *gin.Context) {
	p, err := h.newsroom.Profile(c.Request.Context())
	if err != nil {
		h.respondError(c, "get_profile", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var p database.Profile
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.newsroom.UpdateProfile(c.Request.Context(), p); err != nil {
		h.respondError(c, "update_profile", err)
		return
	}

	updated, err := h.newsroom.Profile(c.Request.Context())
	if err != nil {
		h.respondError(c, "get_profile", err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) ListFeeds(c *gin.Context) {
	configs := h.configCache.Configs()
	if raw := c.Query("category"); raw != "" {
		category, err := news.ParseCategory(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		configs = h.configCache.ByCategory(category)
	}

	feeds := make([]map[string]interface{}, 0, len(configs))
	for _, feedConfig := range configs {
		feeds = append(feeds, feedInfo(feedConfig))
	}

	c.JSON(http.StatusOK, gin.H{"feeds": feeds, "count": len(feeds)})
}

func (h *Handler) GetFeed(c *gin.Context) {
	feedConfig, ok := h.configCache.Get(c.Param("name"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "feed not found"})
		return
	}

	c.JSON(http.StatusOK, feedInfo(feedConfig))
}

func feedInfo(feedConfig *feed.Config) map[string]interface{} {
	return map[string]interface{}{
		"name":             feedConfig.Name,
		"url":              feedConfig.URL,
		"category":         feedConfig.Category,
		"publisher":        feedConfig.Publisher,
		"enabled":          feedConfig.Settings.Enabled,
		"max_items":        feedConfig.Settings.MaxItems,
		"extract_content":  feedConfig.Settings.ExtractContent,
		"refresh_interval": (time.Duration(feedConfig.Settings.RefreshInterval) * time.Second).String(),
		"filters":          len(feedConfig.Filters),
	}
}

// respondError maps data layer errors to status codes.
func (h *Handler) respondError(c *gin.Context, operation string, err error) {
	var statusErr *client.StatusError

	switch {
	case errors.Is(err, database.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, newsroom.ErrEmptyQuery),
		errors.Is(err, search.ErrInvalidDate),
		errors.Is(err, database.ErrInvalidCategories):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, summary.ErrNotConfigured):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.Is(err, client.ErrNetwork), errors.As(err, &statusErr):
		slog.Warn("News source error", "operation", operation, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		slog.Error("Request failed", "operation", operation, "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func queryInt(c *gin.Context, key string, fallback int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return fallback
	}
	return v
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
