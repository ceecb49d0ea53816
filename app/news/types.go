package news

import (
	"strings"
	"time"
)

// PublishLayout is the fixed-width layout of Article.PublishTime. Values in this
// layout sort lexicographically in time order.
const PublishLayout = "2006-01-02 15:04:05"

type KeywordWeight struct {
	Word   string  `json:"word"`
	Weight float64 `json:"score"`
}

type Article struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Body        string          `json:"body"`
	Video       string          `json:"video,omitempty"`
	Image       string          `json:"image,omitempty"`
	PublishTime string          `json:"publish_time"`
	Category    Category        `json:"category"`
	Keywords    []KeywordWeight `json:"keywords,omitempty"`
	Publisher   string          `json:"publisher"`
}

// Page is one page of articles as returned by the news source.
type Page struct {
	Total    int       `json:"total"`
	PageSize int       `json:"page_size"`
	Articles []Article `json:"articles"`
}

// PublishedAt parses PublishTime in the local zone. A malformed timestamp yields
// the zero time.
func (a Article) PublishedAt() time.Time {
	t, err := time.ParseInLocation(PublishLayout, a.PublishTime, time.Local)
	if err != nil {
		return time.Time{}
	}
	return t
}

// DisplayDate returns the date part of PublishTime.
func (a Article) DisplayDate() string {
	date, _, _ := strings.Cut(strings.TrimSpace(a.PublishTime), " ")
	return date
}

// RelativeDate renders PublishTime for list rows: clock time for today,
// "昨天" for yesterday, the bare date otherwise.
func (a Article) RelativeDate(now time.Time) string {
	published := a.PublishedAt()
	if published.IsZero() {
		return a.DisplayDate()
	}

	y1, m1, d1 := published.Date()
	y2, m2, d2 := now.Date()
	if y1 == y2 && m1 == m2 && d1 == d2 {
		return published.Format("15:04")
	}

	yesterday := now.AddDate(0, 0, -1)
	y3, m3, d3 := yesterday.Date()
	if y1 == y3 && m1 == m3 && d1 == d3 {
		return "昨天"
	}

	return a.DisplayDate()
}
