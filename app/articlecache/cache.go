// Package articlecache keeps recently listed articles in memory so a detail
// view can be served without another round trip.
package articlecache

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/lysyi3m/newsreader/app/news"
)

const DefaultSize = 512

type Cache struct {
	lru *lru.Cache[string, news.Article]
}

func New(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultSize
	}
	c, err := lru.New[string, news.Article](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create article cache: %w", err)
	}
	return &Cache{lru: c}, nil
}

func (c *Cache) Put(articles ...news.Article) {
	for _, a := range articles {
		if a.ID != "" {
			c.lru.Add(a.ID, a)
		}
	}
}

func (c *Cache) Get(id string) (news.Article, bool) {
	return c.lru.Get(id)
}

func (c *Cache) Remove(id string) {
	c.lru.Remove(id)
}

func (c *Cache) Len() int {
	return c.lru.Len()
}
