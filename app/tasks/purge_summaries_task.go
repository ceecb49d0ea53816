package tasks

import (
	"context"
	"log/slog"
	"time"
)

// PurgeSummariesTask deletes stored summaries older than MaxAge.
type PurgeSummariesTask struct {
	Task
	MaxAge time.Duration
	purger SummaryPurger
}

func NewPurgeSummariesTask(purger SummaryPurger, maxAge time.Duration) *PurgeSummariesTask {
	return &PurgeSummariesTask{
		Task:   NewTask(TaskTypePurgeSummaries, "summaries"),
		MaxAge: maxAge,
		purger: purger,
	}
}

func (t *PurgeSummariesTask) Execute(ctx context.Context) error {
	n, err := t.purger.PurgeSummaries(ctx, t.MaxAge)
	if err != nil {
		return err
	}

	slog.Info("Task completed", "type", t.GetType(), "duration", t.GetDuration(), "purged", n)
	return nil
}
