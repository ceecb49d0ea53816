package news

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// The news source is loose about types: numbers arrive as strings, the image
// list arrives as a bracketed string, and individual articles are sometimes
// malformed. Decoding is done per field so one bad value zeroes that field
// instead of failing the page.

type wireEnvelope struct {
	Total    json.RawMessage   `json:"total"`
	PageSize json.RawMessage   `json:"pageSize"`
	Data     []json.RawMessage `json:"data"`
}

// DecodePage decodes a news source response envelope.
func DecodePage(data []byte) (Page, error) {
	var env wireEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Page{}, fmt.Errorf("failed to decode envelope: %w", err)
	}

	page := Page{
		Total:    rawInt(env.Total),
		PageSize: rawInt(env.PageSize),
		Articles: make([]Article, 0, len(env.Data)),
	}

	for _, raw := range env.Data {
		article, ok := DecodeArticle(raw)
		if !ok {
			continue
		}
		page.Articles = append(page.Articles, article)
	}

	return page, nil
}

// DecodeArticle decodes one article object. It reports false only when raw is
// not a JSON object or carries no identifier.
func DecodeArticle(raw json.RawMessage) (Article, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Article{}, false
	}

	article := Article{
		ID:          rawString(fields["newsID"]),
		Title:       rawString(fields["title"]),
		Body:        rawString(fields["content"]),
		Video:       strings.TrimSpace(rawString(fields["video"])),
		Image:       FirstImage(rawString(fields["image"])),
		PublishTime: rawString(fields["publishTime"]),
		Category:    Category(rawString(fields["category"])),
		Publisher:   rawString(fields["publisher"]),
		Keywords:    rawKeywords(fields["keywords"]),
	}

	if article.ID == "" {
		return Article{}, false
	}
	return article, true
}

// FirstImage extracts the first locator from the source's image field, which is
// either a plain URL or a list serialized as "[u1, u2]".
func FirstImage(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if !strings.HasPrefix(s, "[") {
		return s
	}

	inner := strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")
	for _, part := range strings.Split(inner, ",") {
		part = strings.Trim(strings.TrimSpace(part), `"'`)
		if part != "" {
			return part
		}
	}
	return ""
}

func rawString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func rawInt(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	if v, err := strconv.Atoi(strings.TrimSpace(rawString(raw))); err == nil {
		return v
	}
	return 0
}

func rawFloat(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(rawString(raw)), 64); err == nil {
		return v
	}
	return 0
}

func rawKeywords(raw json.RawMessage) []KeywordWeight {
	if len(raw) == 0 {
		return nil
	}
	var items []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}

	keywords := make([]KeywordWeight, 0, len(items))
	for _, item := range items {
		word := strings.TrimSpace(rawString(item["word"]))
		if word == "" {
			continue
		}
		keywords = append(keywords, KeywordWeight{Word: word, Weight: rawFloat(item["score"])})
	}
	return keywords
}
