package articlecache

import (
	"fmt"
	"testing"

	"github.com/lysyi3m/newsreader/app/news"
)

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c, err := New(2)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	c.Put(news.Article{ID: "a"}, news.Article{ID: "b"}, news.Article{Title: "no id"})
	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}

	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected a to be cached")
	}

	c.Put(news.Article{ID: "c"})

	if _, ok := c.Get("b"); ok {
		t.Error("expected b to be evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("expected a to survive after recent use")
	}

	c.Remove("a")
	if _, ok := c.Get("a"); ok {
		t.Error("expected a to be removed")
	}
}

func TestNewUsesDefaultSize(t *testing.T) {
	c, err := New(0)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	for i := 0; i < DefaultSize+10; i++ {
		c.Put(news.Article{ID: fmt.Sprintf("n%d", i)})
	}
	if c.Len() != DefaultSize {
		t.Errorf("Len() = %d, want %d", c.Len(), DefaultSize)
	}
}
