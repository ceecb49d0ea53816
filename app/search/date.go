package search

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var ErrInvalidDate = errors.New("invalid date format")

var (
	yearFirstPattern = regexp.MustCompile(`\d{4}[-/]\d{1,2}[-/]\d{1,2}`)
	dayFirstPattern  = regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{4}`)

	yearFirstExact = regexp.MustCompile(`^(\d{4})[-/](\d{1,2})[-/](\d{1,2})$`)
	dayFirstExact  = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
)

// Token is a date substring found inside free text. Start and End are byte
// offsets into the scanned string.
type Token struct {
	Text  string
	Start int
	End   int
}

// FindDateToken returns the first date-looking substring of s. When both forms
// match at the same offset the year-first form wins.
func FindDateToken(s string) (Token, bool) {
	var best []int
	for _, pattern := range []*regexp.Regexp{yearFirstPattern, dayFirstPattern} {
		loc := pattern.FindStringIndex(s)
		if loc == nil {
			continue
		}
		if best == nil || loc[0] < best[0] {
			best = loc
		}
	}

	if best == nil {
		return Token{}, false
	}
	return Token{Text: s[best[0]:best[1]], Start: best[0], End: best[1]}, true
}

// NormalizeDate converts a YYYY-MM-DD, YYYY/MM/DD or DD/MM/YYYY token into
// zero-padded YYYY-MM-DD.
func NormalizeDate(token string) (string, error) {
	token = strings.TrimSpace(token)

	if m := yearFirstExact.FindStringSubmatch(token); m != nil {
		return joinDate(m[1], m[2], m[3]), nil
	}
	if m := dayFirstExact.FindStringSubmatch(token); m != nil {
		return joinDate(m[3], m[2], m[1]), nil
	}

	return "", fmt.Errorf("%w: %q", ErrInvalidDate, token)
}

func joinDate(year, month, day string) string {
	return pad(year, 4) + "-" + pad(month, 2) + "-" + pad(day, 2)
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}

// DateRange is an inclusive pair of canonical YYYY-MM-DD dates.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// SingleDay returns the range covering exactly one canonical date.
func SingleDay(date string) DateRange {
	return DateRange{Start: date, End: date}
}

// Contains reports whether the date part of a publish timestamp falls inside r.
func (r DateRange) Contains(publishTime string) bool {
	date, _, _ := strings.Cut(strings.TrimSpace(publishTime), " ")
	return date >= r.Start && date <= r.End
}

func (r DateRange) String() string {
	if r.Start == r.End {
		return r.Start
	}
	return r.Start + ".." + r.End
}

// PartialDate is a date-picker selection where Month and Day may be left unset (0).
type PartialDate struct {
	Year  int `json:"year"`
	Month int `json:"month,omitempty"`
	Day   int `json:"day,omitempty"`
}

// Range expands the selection: a year covers Jan 1 to Dec 31, a year and month
// covers the whole month, a full date covers that single day.
func (p PartialDate) Range() (DateRange, error) {
	if p.Year < 1 || p.Year > 9999 {
		return DateRange{}, fmt.Errorf("%w: year %d out of range", ErrInvalidDate, p.Year)
	}

	if p.Month == 0 {
		if p.Day != 0 {
			return DateRange{}, fmt.Errorf("%w: day given without month", ErrInvalidDate)
		}
		return DateRange{
			Start: fmt.Sprintf("%04d-01-01", p.Year),
			End:   fmt.Sprintf("%04d-12-31", p.Year),
		}, nil
	}

	if p.Month < 1 || p.Month > 12 {
		return DateRange{}, fmt.Errorf("%w: month %d out of range", ErrInvalidDate, p.Month)
	}

	last := DaysInMonth(p.Year, p.Month)
	if p.Day == 0 {
		return DateRange{
			Start: fmt.Sprintf("%04d-%02d-01", p.Year, p.Month),
			End:   fmt.Sprintf("%04d-%02d-%02d", p.Year, p.Month, last),
		}, nil
	}

	if p.Day < 1 || p.Day > last {
		return DateRange{}, fmt.Errorf("%w: day %d out of range", ErrInvalidDate, p.Day)
	}
	return SingleDay(fmt.Sprintf("%04d-%02d-%02d", p.Year, p.Month, p.Day)), nil
}

func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

func DaysInMonth(year, month int) int {
	switch month {
	case 2:
		if IsLeapYear(year) {
			return 29
		}
		return 28
	case 4, 6, 9, 11:
		return 30
	default:
		return 31
	}
}
