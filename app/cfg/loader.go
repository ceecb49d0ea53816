package cfg

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage
	DBPath            string `long:"db-path" env:"DB_PATH" default:"./data/news.db" description:"Path to the sqlite database file"`
	ArticleCacheLimit int    `long:"article-cache-limit" env:"ARTICLE_CACHE_LIMIT" default:"5000" description:"Maximum number of cached articles"`
	HistoryLimit      int    `long:"history-limit" env:"HISTORY_LIMIT" default:"500" description:"Maximum number of reading history entries"`
	FavoriteLimit     int    `long:"favorite-limit" env:"FAVORITE_LIMIT" default:"1000" description:"Maximum number of favorites"`
	SummaryLimit      int    `long:"summary-limit" env:"SUMMARY_LIMIT" default:"1000" description:"Maximum number of stored summaries"`
	HandoffCacheSize  int    `long:"handoff-cache-size" env:"HANDOFF_CACHE_SIZE" default:"512" description:"Number of recently listed articles kept in memory"`

	// News source
	NewsAPIURL   string `long:"news-api-url" env:"NEWS_API_URL" default:"https://api2.newsminer.net/svc/news/queryNewsList" description:"News list endpoint"`
	NewsPageSize int    `long:"news-page-size" env:"NEWS_PAGE_SIZE" default:"15" description:"Articles per page"`

	// Summaries
	SummaryAPIURL    string `long:"summary-api-url" env:"SUMMARY_API_URL" default:"https://open.bigmodel.cn/api/paas/v4/chat/completions" description:"Chat completion endpoint used for summaries"`
	SummaryAPIKey    string `long:"summary-api-key" env:"SUMMARY_API_KEY" description:"API key for the summary endpoint (summaries disabled when empty)"`
	SummaryModel     string `long:"summary-model" env:"SUMMARY_MODEL" default:"glm-4-flash" description:"Model used for summaries"`
	SummaryMaxTokens int    `long:"summary-max-tokens" env:"SUMMARY_MAX_TOKENS" default:"512" description:"Maximum tokens per summary"`
	SummaryRateLimit int    `long:"summary-rate-limit" env:"SUMMARY_RATE_LIMIT" default:"30" description:"Maximum summary requests per minute (0 for unlimited)"`
	SummaryMaxAge    int    `long:"summary-max-age" env:"SUMMARY_MAX_AGE" default:"30" description:"Days to keep stored summaries"`

	// Application configuration
	FeedsDir          string `long:"feeds-dir" env:"FEEDS_DIR" default:"./feeds" description:"Directory containing publisher feed configuration files"`
	Port              string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl           string `long:"base-url" env:"BASE_URL" description:"Public base URL for the service (e.g., https://news.example.com)"`
	WorkerCount       int    `long:"worker-count" env:"WORKER_COUNT" default:"3" description:"Number of background workers"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"300" description:"Scheduler interval in seconds"`
	APIAccessKey      string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"NewsReader/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"Asia/Shanghai" description:"Timezone for timestamps (e.g., UTC, Asia/Shanghai)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

// Load parses command-line flags and environment variables. It returns nil
// without an error when help was requested.
func Load() (*Cfg, error) {
	cfg, err := parse(os.Args[1:])
	if err != nil || cfg == nil {
		return nil, err
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func parse(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if raw.NewsPageSize <= 0 {
		return nil, fmt.Errorf("news page size must be positive")
	}
	if raw.WorkerCount <= 0 {
		return nil, fmt.Errorf("worker count must be positive")
	}

	return &Cfg{
		DBPath:            raw.DBPath,
		ArticleCacheLimit: raw.ArticleCacheLimit,
		HistoryLimit:      raw.HistoryLimit,
		FavoriteLimit:     raw.FavoriteLimit,
		SummaryLimit:      raw.SummaryLimit,
		HandoffCacheSize:  raw.HandoffCacheSize,
		NewsAPIURL:        raw.NewsAPIURL,
		NewsPageSize:      raw.NewsPageSize,
		SummaryAPIURL:     raw.SummaryAPIURL,
		SummaryAPIKey:     raw.SummaryAPIKey,
		SummaryModel:      raw.SummaryModel,
		SummaryMaxTokens:  raw.SummaryMaxTokens,
		SummaryRateLimit:  raw.SummaryRateLimit,
		SummaryMaxAge:     raw.SummaryMaxAge,
		FeedsDir:          raw.FeedsDir,
		Port:              raw.Port,
		BaseUrl:           raw.BaseUrl,
		WorkerCount:       raw.WorkerCount,
		SchedulerInterval: raw.SchedulerInterval,
		APIAccessKey:      raw.APIAccessKey,
		UserAgent:         raw.UserAgent,
		Timezone:          raw.Timezone,
		Debug:             raw.Debug,
		Version:           GetVersion(),
	}, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// Set replaces the global configuration. Used by tests of packages that read cfg.Get().
func Set(c *Cfg) {
	globalCfg = c
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
			fmt.Printf("Timezone configured: %s\n", timezone)
		}
	}
	return nil
}
