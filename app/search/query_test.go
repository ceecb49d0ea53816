package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveKeywordOnly(t *testing.T) {
	for _, input := range []string{"科技", "  artificial intelligence  ", "", "2024 budget"} {
		q, err := Resolve(input, nil)
		require.NoError(t, err)
		assert.Equal(t, KeywordOnly, q.Kind, input)
		assert.Nil(t, q.Date, input)
	}

	q, _ := Resolve("  artificial intelligence  ", nil)
	assert.Equal(t, "artificial intelligence", q.Keyword)

	q, _ = Resolve("   ", nil)
	assert.True(t, q.Empty())
}

func TestResolveCombined(t *testing.T) {
	q, err := Resolve("科技 2024-06-15", nil)
	require.NoError(t, err)

	assert.Equal(t, Combined, q.Kind)
	assert.Equal(t, "科技", q.Keyword)
	require.NotNil(t, q.Date)
	assert.Equal(t, "2024-06-15", q.Date.Start)
	assert.Equal(t, "2024-06-15", q.Date.End)
}

func TestResolveCombinedKeepsInnerText(t *testing.T) {
	q, err := Resolve("  chips 5/6/2024 export ", nil)
	require.NoError(t, err)

	assert.Equal(t, Combined, q.Kind)
	assert.Equal(t, "chips  export", q.Keyword)
	assert.Equal(t, "2024-06-05", q.Date.Start)
}

func TestResolveDateOnly(t *testing.T) {
	for _, input := range []string{"2024/6/5", "   2024-06-05   "} {
		q, err := Resolve(input, nil)
		require.NoError(t, err)
		assert.Equal(t, DateOnly, q.Kind, input)
		assert.Equal(t, "", q.Keyword)
		assert.Equal(t, "2024-06-05", q.Date.Start)
	}
}

func TestResolvePickedDateTakesPrecedence(t *testing.T) {
	q, err := Resolve("科技 2024-06-15", &PartialDate{Year: 2023, Month: 2})
	require.NoError(t, err)

	assert.Equal(t, Combined, q.Kind)
	assert.Equal(t, "科技", q.Keyword)
	assert.Equal(t, DateRange{Start: "2023-02-01", End: "2023-02-28"}, *q.Date)

	q, err = Resolve("", &PartialDate{Year: 2024})
	require.NoError(t, err)
	assert.Equal(t, DateOnly, q.Kind)
	assert.Equal(t, DateRange{Start: "2024-01-01", End: "2024-12-31"}, *q.Date)

	_, err = Resolve("x", &PartialDate{Year: 2024, Month: 14})
	assert.ErrorIs(t, err, ErrInvalidDate)
}
