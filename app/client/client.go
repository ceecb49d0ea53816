package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/lysyi3m/newsreader/app/news"
)

// ErrNetwork marks transport failures (DNS, refused connections, timeouts),
// the only failures the data layer answers with a cache read.
var ErrNetwork = errors.New("network unavailable")

type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error: %d %s", e.Code, e.Status)
}

// Params are the filters accepted by the news source. Zero values are sent as
// empty parameters, which the source treats as "unbounded".
type Params struct {
	Page      int
	Size      int
	StartDate string
	EndDate   string
	Keyword   string
	Category  news.Category
}

type NewsClient struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
}

func NewNewsClient(baseURL string, httpClient *http.Client, userAgent string) *NewsClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &NewsClient{
		baseURL:    baseURL,
		httpClient: httpClient,
		userAgent:  userAgent,
	}
}

func (c *NewsClient) Query(ctx context.Context, p Params) (news.Page, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return news.Page{}, fmt.Errorf("failed to parse base URL: %w", err)
	}

	q := u.Query()
	q.Set("page", strconv.Itoa(max(p.Page, 1)))
	if p.Size > 0 {
		q.Set("size", strconv.Itoa(p.Size))
	}
	q.Set("startDate", p.StartDate)
	q.Set("endDate", p.EndDate)
	q.Set("words", p.Keyword)
	q.Set("categories", string(p.Category))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return news.Page{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return news.Page{}, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return news.Page{}, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return news.Page{}, fmt.Errorf("%w: failed to read response body: %w", ErrNetwork, err)
	}

	page, err := news.DecodePage(data)
	if err != nil {
		return news.Page{}, err
	}

	slog.Debug("News page fetched",
		"page", p.Page,
		"keyword", p.Keyword,
		"category", p.Category,
		"start", p.StartDate,
		"end", p.EndDate,
		"articles", len(page.Articles),
		"total", page.Total)

	return page, nil
}
