package cfg

type Cfg struct {
	// Storage
	DBPath            string
	ArticleCacheLimit int
	HistoryLimit      int
	FavoriteLimit     int
	SummaryLimit      int
	HandoffCacheSize  int

	// News source
	NewsAPIURL   string
	NewsPageSize int

	// Summaries
	SummaryAPIURL    string
	SummaryAPIKey    string
	SummaryModel     string
	SummaryMaxTokens int
	SummaryRateLimit int
	SummaryMaxAge    int

	// Application configuration
	FeedsDir          string
	Port              string
	BaseUrl           string
	WorkerCount       int
	SchedulerInterval int
	APIAccessKey      string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
