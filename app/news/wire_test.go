package news

import (
	"testing"
)

func TestDecodePage(t *testing.T) {
	data := `{
  "pageSize": "15",
  "total": 2,
  "data": [
    {
      "newsID": "a1",
      "title": "科技新闻",
      "content": "正文",
      "video": "",
      "image": "[http://img/1.jpg, http://img/2.jpg]",
      "publishTime": "2024-06-15 08:30:00",
      "category": "科技",
      "publisher": "新华社",
      "keywords": [{"word": "科技", "score": 0.9}, {"word": "芯片", "score": "0.4"}]
    },
    {
      "newsID": "a2",
      "title": 42,
      "image": "[]",
      "keywords": "broken"
    },
    "not an object",
    {"title": "missing id"}
  ]
}`

	page, err := DecodePage([]byte(data))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if page.Total != 2 {
		t.Errorf("Expected total 2, got %d", page.Total)
	}
	if page.PageSize != 15 {
		t.Errorf("Expected page size 15, got %d", page.PageSize)
	}
	if len(page.Articles) != 2 {
		t.Fatalf("Expected 2 articles, got %d", len(page.Articles))
	}

	first := page.Articles[0]
	if first.Image != "http://img/1.jpg" {
		t.Errorf("Expected first image, got %q", first.Image)
	}
	if first.Category != Technology {
		t.Errorf("Expected category 科技, got %q", first.Category)
	}
	if len(first.Keywords) != 2 || first.Keywords[1].Weight != 0.4 {
		t.Errorf("Unexpected keywords: %+v", first.Keywords)
	}

	second := page.Articles[1]
	if second.Title != "42" {
		t.Errorf("Expected numeric title to be stringified, got %q", second.Title)
	}
	if second.Image != "" {
		t.Errorf("Expected empty image, got %q", second.Image)
	}
	if second.Keywords != nil {
		t.Errorf("Expected malformed keywords to decode as nil, got %+v", second.Keywords)
	}
}

func TestDecodePageMalformedEnvelope(t *testing.T) {
	if _, err := DecodePage([]byte(`{"data": [`)); err == nil {
		t.Error("Expected error for truncated envelope")
	}
}

func TestFirstImage(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"[]", ""},
		{"http://a/x.png", "http://a/x.png"},
		{"[http://a/1.png]", "http://a/1.png"},
		{`["http://a/1.png","http://a/2.png"]`, "http://a/1.png"},
		{"[ , http://a/2.png]", "http://a/2.png"},
	}

	for _, tt := range tests {
		if got := FirstImage(tt.input); got != tt.want {
			t.Errorf("FirstImage(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
