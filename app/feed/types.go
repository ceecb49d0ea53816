package feed

import (
	"time"

	"github.com/lysyi3m/newsreader/app/news"
)

type Item struct {
	GUID        string
	Title       string
	Link        string
	Description string
	Content     string
	PublishedAt time.Time
	Authors     []string
	Categories  []string
	ImageURL    string
	VideoURL    string

	ContentHash  string
	IsFiltered   bool
	FilterReason string
}

// Config describes one publisher feed, loaded from <name>.yml or <name>.yaml in the feeds directory.
type Config struct {
	Name      string         // file name without extension
	URL       string         `yaml:"url"`
	Category  news.Category  `yaml:"category"`
	Publisher string         `yaml:"publisher"`
	Settings  ConfigSettings `yaml:"settings"`
	Filters   []ConfigFilter `yaml:"filters"`
}

type ConfigSettings struct {
	Enabled         bool `yaml:"enabled"`
	RefreshInterval int  `yaml:"refresh_interval"` // seconds
	MaxItems        int  `yaml:"max_items"`
	Timeout         int  `yaml:"timeout"`         // seconds
	ExtractContent  bool `yaml:"extract_content"` // fetch and extract the linked page body
}

type ConfigFilter struct {
	Field    string   `yaml:"field"`
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}
