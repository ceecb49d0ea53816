package tasks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/lysyi3m/newsreader/app/feed"
	"github.com/lysyi3m/newsreader/app/news"
)

// ImportFeedTask fetches a publisher feed and stores its visible items as
// articles of the feed's category.
type ImportFeedTask struct {
	Task
	FeedConfig       *feed.Config
	httpClient       *http.Client
	parser           *feed.Parser
	filterer         *feed.Filterer
	contentExtractor *feed.ContentExtractor
	importer         Importer
	userAgent        string
}

func NewImportFeedTask(feedConfig *feed.Config, httpClient *http.Client, parser *feed.Parser, filterer *feed.Filterer,
	contentExtractor *feed.ContentExtractor, importer Importer, userAgent string) *ImportFeedTask {
	return &ImportFeedTask{
		Task:             NewTask(TaskTypeImportFeed, feedConfig.Name),
		FeedConfig:       feedConfig,
		httpClient:       httpClient,
		parser:           parser,
		filterer:         filterer,
		contentExtractor: contentExtractor,
		importer:         importer,
		userAgent:        userAgent,
	}
}

func (t *ImportFeedTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !t.FeedConfig.Settings.Enabled {
		slog.Debug("Feed disabled, skipping", "feed", t.Subject)
		return nil
	}

	data, err := t.fetch(ctx, t.FeedConfig.URL, false)
	if err != nil {
		return fmt.Errorf("failed to fetch feed: %w", err)
	}

	items, err := t.parser.Run(data)
	if err != nil {
		return fmt.Errorf("failed to parse feed: %w", err)
	}

	if len(items) > t.FeedConfig.Settings.MaxItems {
		items = items[:t.FeedConfig.Settings.MaxItems]
	}

	visible := feed.Visible(t.filterer.Run(items, t.FeedConfig))

	extracted := 0
	now := time.Now()
	articles := make([]news.Article, 0, len(visible))
	for _, item := range visible {
		if t.FeedConfig.Settings.ExtractContent && item.Link != "" {
			if content, err := t.extractContent(ctx, item.Link); err != nil {
				slog.Warn("Failed to extract content for item", "feed", t.Subject, "url", item.Link, "error", err)
			} else {
				item.Content = content
				extracted++
			}
		}
		articles = append(articles, feed.ToArticle(item, t.FeedConfig, now))
	}

	if err := t.importer.Import(ctx, articles); err != nil {
		return fmt.Errorf("failed to store articles: %w", err)
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"feed", t.Subject,
		"duration", t.GetDuration(),
		"total", len(items),
		"filtered", len(items)-len(visible),
		"extracted", extracted,
		"imported", len(articles))

	return nil
}

func (t *ImportFeedTask) extractContent(ctx context.Context, url string) (string, error) {
	data, err := t.fetch(ctx, url, true)
	if err != nil {
		return "", err
	}
	return t.contentExtractor.Run(data)
}

func (t *ImportFeedTask) fetch(ctx context.Context, url string, requireHTML bool) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, time.Duration(t.FeedConfig.Settings.Timeout)*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", t.userAgent)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	if requireHTML {
		contentType := resp.Header.Get("Content-Type")
		if !strings.Contains(strings.ToLower(contentType), "text/html") {
			return nil, fmt.Errorf("content type is not HTML: %s", contentType)
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
