package tasks

import (
	"context"
	"time"

	"github.com/lysyi3m/newsreader/app/news"
)

// TaskSchedulerInterface defines the interface for task scheduling operations.
//
//	scheduler := NewScheduler(configCache, newsroom, httpClient, parser, filterer, contentExtractor)
//	scheduler.Start()
//	defer scheduler.Stop()
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}

type Importer interface {
	Import(ctx context.Context, articles []news.Article) error
}

type Prefetcher interface {
	Prefetch(ctx context.Context, workers int) error
}

type SummaryPurger interface {
	PurgeSummaries(ctx context.Context, maxAge time.Duration) (int64, error)
}

// Newsroom is the part of the data layer the background tasks drive.
type Newsroom interface {
	Importer
	Prefetcher
	SummaryPurger
}
