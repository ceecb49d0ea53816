package search

import (
	"strings"
)

type Kind int

const (
	KeywordOnly Kind = iota
	DateOnly
	Combined
)

func (k Kind) String() string {
	switch k {
	case KeywordOnly:
		return "keyword"
	case DateOnly:
		return "date"
	case Combined:
		return "combined"
	default:
		return "unknown"
	}
}

// Query is a resolved search submission.
type Query struct {
	Keyword string
	Date    *DateRange
	Kind    Kind
}

// Empty reports whether the query would search for nothing.
func (q Query) Empty() bool {
	return q.Keyword == "" && q.Date == nil
}

// HasKeyword reports whether results should be ranked by relevance.
func (q Query) HasKeyword() bool {
	return q.Kind == KeywordOnly || q.Kind == Combined
}

// Resolve splits raw search text into a keyword and an optional date. A picked
// date-picker selection takes precedence over a date typed into the text: the
// typed token is still removed from the keyword, but its value is dropped.
func Resolve(raw string, picked *PartialDate) (Query, error) {
	text := strings.TrimSpace(raw)

	keyword := text
	var date *DateRange

	if token, ok := FindDateToken(text); ok {
		keyword = strings.TrimSpace(text[:token.Start] + text[token.End:])
		if picked == nil {
			normalized, err := NormalizeDate(token.Text)
			if err != nil {
				return Query{}, err
			}
			r := SingleDay(normalized)
			date = &r
		}
	}

	if picked != nil {
		r, err := picked.Range()
		if err != nil {
			return Query{}, err
		}
		date = &r
	}

	q := Query{Keyword: keyword, Date: date}
	switch {
	case date == nil:
		q.Kind = KeywordOnly
	case keyword == "":
		q.Kind = DateOnly
	default:
		q.Kind = Combined
	}
	return q, nil
}
