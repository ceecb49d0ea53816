package search

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindDateToken(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		start int
		found bool
	}{
		{"year first dash", "科技 2024-06-15", "2024-06-15", 7, true},
		{"year first slash short", "news 2024/6/5 today", "2024/6/5", 5, true},
		{"day first", "5/6/2024 sports", "5/6/2024", 0, true},
		{"first by position", "1/2/2023 and 2024-01-01", "1/2/2023", 0, true},
		{"day first needs slashes", "05-06-2024", "", 0, false},
		{"no date", "just words", "", 0, false},
		{"empty", "", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok, ok := FindDateToken(tt.input)
			require.Equal(t, tt.found, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.want, tok.Text)
			assert.Equal(t, tt.start, tok.Start)
			assert.Equal(t, tt.want, tt.input[tok.Start:tok.End])
		})
	}
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"2024-6-5", "2024-06-05"},
		{"5/6/2024", "2024-06-05"},
		{"2024/12/31", "2024-12-31"},
		{"2024-06-15", "2024-06-15"},
		{"31/12/1999", "1999-12-31"},
	}

	for _, tt := range tests {
		got, err := NormalizeDate(tt.input)
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got, tt.input)
	}

	for _, bad := range []string{"", "2024", "06-05-2024", "2024.06.05", "hello"} {
		_, err := NormalizeDate(bad)
		assert.True(t, errors.Is(err, ErrInvalidDate), "expected ErrInvalidDate for %q", bad)
	}
}

func TestDaysInMonthLeapYears(t *testing.T) {
	assert.Equal(t, 29, DaysInMonth(2024, 2))
	assert.Equal(t, 28, DaysInMonth(2023, 2))
	assert.Equal(t, 28, DaysInMonth(1900, 2))
	assert.Equal(t, 29, DaysInMonth(2000, 2))
	assert.Equal(t, 30, DaysInMonth(2023, 4))
	assert.Equal(t, 31, DaysInMonth(2023, 12))
}

func TestPartialDateRange(t *testing.T) {
	tests := []struct {
		name   string
		picked PartialDate
		want   DateRange
	}{
		{"year only", PartialDate{Year: 2023}, DateRange{"2023-01-01", "2023-12-31"}},
		{"leap february", PartialDate{Year: 2024, Month: 2}, DateRange{"2024-02-01", "2024-02-29"}},
		{"plain february", PartialDate{Year: 2023, Month: 2}, DateRange{"2023-02-01", "2023-02-28"}},
		{"full date", PartialDate{Year: 2024, Month: 6, Day: 5}, DateRange{"2024-06-05", "2024-06-05"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.picked.Range()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, got.Start, got.End)
		})
	}

	for _, bad := range []PartialDate{{}, {Year: 2024, Day: 3}, {Year: 2024, Month: 13}, {Year: 2023, Month: 2, Day: 29}} {
		_, err := bad.Range()
		assert.ErrorIs(t, err, ErrInvalidDate, "%+v", bad)
	}
}

func TestDateRangeContains(t *testing.T) {
	r := DateRange{Start: "2024-06-01", End: "2024-06-30"}
	assert.True(t, r.Contains("2024-06-01 00:00:00"))
	assert.True(t, r.Contains("2024-06-30 23:59:59"))
	assert.False(t, r.Contains("2024-07-01 00:00:00"))
	assert.False(t, r.Contains("2024-05-31 23:59:59"))
}
