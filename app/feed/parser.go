package feed

import (
	"bytes"
	"cmp"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/lysyi3m/newsreader/app/news"
)

type Parser struct {
	gofeedParser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
	}
}

func (p *Parser) Run(data []byte) ([]Item, error) {
	feed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	items := make([]Item, 0, len(feed.Items))
	for _, item := range feed.Items {
		normalized := p.normalizeItem(item)
		normalized.ContentHash = p.generateContentHash(normalized)
		items = append(items, normalized)
	}

	return items, nil
}

func (p *Parser) normalizeItem(item *gofeed.Item) Item {
	normalized := Item{
		GUID:        cmp.Or(item.GUID, item.Link),
		Title:       strings.TrimSpace(item.Title),
		Link:        item.Link,
		Description: item.Description,
		Content:     item.Content,
		Categories:  item.Categories,
		Authors:     p.extractAuthors(item),
	}

	if item.PublishedParsed != nil {
		normalized.PublishedAt = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		normalized.PublishedAt = *item.UpdatedParsed
	}

	if item.Image != nil {
		normalized.ImageURL = item.Image.URL
	}
	for _, enclosure := range item.Enclosures {
		if enclosure == nil || enclosure.URL == "" {
			continue
		}
		switch {
		case normalized.ImageURL == "" && strings.HasPrefix(enclosure.Type, "image/"):
			normalized.ImageURL = enclosure.URL
		case normalized.VideoURL == "" && strings.HasPrefix(enclosure.Type, "video/"):
			normalized.VideoURL = enclosure.URL
		}
	}
	if normalized.ImageURL == "" {
		normalized.ImageURL = firstImage(cmp.Or(item.Content, item.Description))
	}

	return normalized
}

// firstImage returns the src of the first <img> in an HTML fragment.
func firstImage(fragment string) string {
	if !strings.Contains(fragment, "<img") {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return ""
	}
	src, _ := doc.Find("img[src]").First().Attr("src")
	return strings.TrimSpace(src)
}

func (p *Parser) generateContentHash(item Item) string {
	content := fmt.Sprintf("%s|%s",
		item.Title,
		item.Link)

	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}

func (p *Parser) extractAuthors(item *gofeed.Item) []string {
	var authors []string

	if len(item.Authors) > 0 {
		for _, author := range item.Authors {
			if author != nil {
				authorStr := p.formatAuthor(author.Name, author.Email)
				if authorStr != "" {
					authors = append(authors, authorStr)
				}
			}
		}
	} else if item.Author != nil {
		authorStr := p.formatAuthor(item.Author.Name, item.Author.Email)
		if authorStr != "" {
			authors = append(authors, authorStr)
		}
	}

	return authors
}

func (p *Parser) formatAuthor(name, email string) string {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	if name != "" {
		return name
	}
	return email
}

// ToArticle converts a feed item into an article of the feed's category.
// Item categories become keywords with equal weight.
func ToArticle(item Item, feedConfig *Config, now time.Time) news.Article {
	published := item.PublishedAt
	if published.IsZero() {
		published = now
	}

	article := news.Article{
		ID:          "feed-" + item.ContentHash[:min(24, len(item.ContentHash))],
		Title:       item.Title,
		Body:        news.PlainText(cmp.Or(item.Content, item.Description)),
		Image:       item.ImageURL,
		Video:       item.VideoURL,
		PublishTime: published.In(time.Local).Format(news.PublishLayout),
		Category:    feedConfig.Category,
		Publisher:   cmp.Or(feedConfig.Publisher, feedConfig.Name),
	}

	if n := len(item.Categories); n > 0 {
		weight := 1.0 / float64(n)
		for _, c := range item.Categories {
			if c = strings.TrimSpace(c); c != "" {
				article.Keywords = append(article.Keywords, news.KeywordWeight{Word: c, Weight: weight})
			}
		}
	}

	return article
}
