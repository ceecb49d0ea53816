package feed

import (
	"testing"
)

func TestFiltererNoFilters(t *testing.T) {
	items := []Item{{Title: "A"}, {Title: "B"}}

	result := NewFilterer().Run(items, &Config{})

	if len(result) != 2 {
		t.Errorf("Expected 2 items, got %d", len(result))
	}
	for i, item := range result {
		if item.IsFiltered {
			t.Errorf("Item %d should not be filtered when no filters are configured", i)
		}
	}
}

func TestFiltererIncludeAndExclude(t *testing.T) {
	items := []Item{
		{Title: "芯片产业新进展"},
		{Title: "芯片广告"},
		{Title: "Weather Report"},
		{Title: "CHIP shortage"},
	}

	feedConfig := &Config{
		Filters: []ConfigFilter{
			{Field: "title", Includes: []string{"芯片", "chip"}, Excludes: []string{"广告"}},
		},
	}

	result := NewFilterer().Run(items, feedConfig)

	expected := []bool{false, true, true, false}
	for i, want := range expected {
		if result[i].IsFiltered != want {
			t.Errorf("Item %d (%s): expected filtered=%v, got %v", i, result[i].Title, want, result[i].IsFiltered)
		}
		if want && result[i].FilterReason == "" {
			t.Errorf("Item %d should have a filter reason", i)
		}
	}

	visible := Visible(result)
	if len(visible) != 2 {
		t.Errorf("Expected 2 visible items, got %d", len(visible))
	}
}

func TestFiltererFields(t *testing.T) {
	item := Item{
		Title:       "t",
		Description: "desc",
		Content:     "body",
		Link:        "https://example.com/sponsored/1",
		Authors:     []string{"编辑部"},
		Categories:  []string{"财经", "市场"},
	}

	tests := []struct {
		field   string
		exclude string
	}{
		{"description", "desc"},
		{"content", "body"},
		{"link", "/sponsored/"},
		{"authors", "编辑"},
		{"categories", "市场"},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			feedConfig := &Config{Filters: []ConfigFilter{{Field: tt.field, Excludes: []string{tt.exclude}}}}
			result := NewFilterer().Run([]Item{item}, feedConfig)
			if !result[0].IsFiltered {
				t.Errorf("Expected item to be excluded by %s filter", tt.field)
			}
		})
	}
}
