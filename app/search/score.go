package search

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/lysyi3m/newsreader/app/news"
)

const (
	titleMatchScore = 10.0
	bodyMatchScore  = 5.0

	exactKeywordFactor    = 20.0
	keywordContainsFactor = 10.0
	queryContainsFactor   = 8.0
)

// Scored pairs an article with its relevance for one ranking pass.
type Scored struct {
	Article news.Article `json:"article"`
	Score   float64      `json:"score"`
}

// Score computes the relevance of article for keyword. Matching is
// case-insensitive; an empty keyword scores zero.
func Score(keyword string, article news.Article) float64 {
	fold := cases.Fold()
	query := fold.String(strings.TrimSpace(keyword))
	if query == "" {
		return 0
	}

	var score float64
	if strings.Contains(fold.String(article.Title), query) {
		score += titleMatchScore
	}
	if strings.Contains(fold.String(article.Body), query) {
		score += bodyMatchScore
	}

	for _, kw := range article.Keywords {
		word := fold.String(strings.TrimSpace(kw.Word))
		if word == "" {
			continue
		}
		switch {
		case word == query:
			score += kw.Weight * exactKeywordFactor
		case strings.Contains(word, query):
			score += kw.Weight * keywordContainsFactor
		case strings.Contains(query, word):
			score += kw.Weight * queryContainsFactor
		}
	}

	return score
}

// RankScored orders articles for q. Keyword-bearing queries sort by descending
// relevance; date-only queries sort by descending publish time. Ties keep
// their input order.
func RankScored(articles []news.Article, q Query) []Scored {
	scored := make([]Scored, len(articles))
	for i, a := range articles {
		scored[i] = Scored{Article: a}
		if q.HasKeyword() {
			scored[i].Score = Score(q.Keyword, a)
		}
	}

	if q.HasKeyword() {
		sort.SliceStable(scored, func(i, j int) bool {
			return scored[i].Score > scored[j].Score
		})
	} else {
		sort.SliceStable(scored, func(i, j int) bool {
			return scored[i].Article.PublishTime > scored[j].Article.PublishTime
		})
	}

	return scored
}

// Rank is RankScored without the scores.
func Rank(articles []news.Article, q Query) []news.Article {
	scored := RankScored(articles, q)
	ranked := make([]news.Article, len(scored))
	for i, s := range scored {
		ranked[i] = s.Article
	}
	return ranked
}
