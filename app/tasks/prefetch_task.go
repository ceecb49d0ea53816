package tasks

import (
	"context"
	"log/slog"
)

// PrefetchTask refreshes the first page of every selected category.
type PrefetchTask struct {
	Task
	prefetcher Prefetcher
	workers    int
}

func NewPrefetchTask(prefetcher Prefetcher, workers int) *PrefetchTask {
	return &PrefetchTask{
		Task:       NewTask(TaskTypePrefetch, "categories"),
		prefetcher: prefetcher,
		workers:    workers,
	}
}

func (t *PrefetchTask) Execute(ctx context.Context) error {
	if err := t.prefetcher.Prefetch(ctx, t.workers); err != nil {
		return err
	}

	slog.Info("Task completed", "type", t.GetType(), "duration", t.GetDuration())
	return nil
}
