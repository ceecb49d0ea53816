package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/lysyi3m/newsreader/app/cfg"
	"github.com/lysyi3m/newsreader/app/feed"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type Scheduler struct {
	newsroom         Newsroom
	configCache      *feed.ConfigCache
	httpClient       *http.Client
	parser           *feed.Parser
	filterer         *feed.Filterer
	contentExtractor *feed.ContentExtractor
	userAgent        string
	interval         time.Duration
	summaryMaxAge    time.Duration
	workerCount      int
	ctx              context.Context
	cancel           context.CancelFunc
	wg               sync.WaitGroup
	taskQueue        chan TaskInterface

	mu          sync.Mutex
	lastImports map[string]time.Time
	now         func() time.Time
}

func NewScheduler(configCache *feed.ConfigCache, newsroom Newsroom, httpClient *http.Client, parser *feed.Parser,
	filterer *feed.Filterer, contentExtractor *feed.ContentExtractor) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	return &Scheduler{
		newsroom:         newsroom,
		configCache:      configCache,
		httpClient:       httpClient,
		parser:           parser,
		filterer:         filterer,
		contentExtractor: contentExtractor,
		userAgent:        cfg.UserAgent,
		interval:         time.Duration(cfg.SchedulerInterval) * time.Second,
		summaryMaxAge:    time.Duration(cfg.SummaryMaxAge) * 24 * time.Hour,
		workerCount:      cfg.WorkerCount,
		ctx:              ctx,
		cancel:           cancel,
		taskQueue:        make(chan TaskInterface, 300),
		lastImports:      make(map[string]time.Time),
		now:              time.Now,
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueTasks()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
	}

	select {
	case s.taskQueue <- task:
		return nil
	default:
		return fmt.Errorf("task queue is full")
	}
}

func (s *Scheduler) enqueueTasks() {
	if err := s.EnqueueTask(NewPrefetchTask(s.newsroom, s.workerCount)); err != nil {
		slog.Warn("Failed to enqueue PrefetchTask", "error", err)
	}

	if s.summaryMaxAge > 0 {
		if err := s.EnqueueTask(NewPurgeSummariesTask(s.newsroom, s.summaryMaxAge)); err != nil {
			slog.Warn("Failed to enqueue PurgeSummariesTask", "error", err)
		}
	}

	for _, feedConfig := range s.dueFeeds() {
		task := NewImportFeedTask(feedConfig, s.httpClient, s.parser, s.filterer, s.contentExtractor, s.newsroom, s.userAgent)
		if err := s.EnqueueTask(task); err != nil {
			slog.Warn("Failed to enqueue ImportFeedTask", "feed", feedConfig.Name, "error", err)
		}
	}
}

// dueFeeds returns the enabled feeds whose refresh interval has elapsed and
// marks them as imported now.
func (s *Scheduler) dueFeeds() []*feed.Config {
	feedConfigs := s.configCache.Enabled()
	if len(feedConfigs) == 0 {
		slog.Debug("No enabled feed configurations found")
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var due []*feed.Config
	for _, feedConfig := range feedConfigs {
		name := feedConfig.Name
		interval := time.Duration(feedConfig.Settings.RefreshInterval) * time.Second
		if last, ok := s.lastImports[name]; ok && now.Sub(last) < interval {
			slog.Debug("Feed not due for refresh yet", "feed", name, "next_import_at", last.Add(interval))
			continue
		}
		s.lastImports[name] = now
		due = append(due, feedConfig)
	}

	return due
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task := <-s.taskQueue:
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)
	if err == nil {
		return
	}

	slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

	if !task.CanRetry() {
		slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		return
	}

	task.IncrementRetryCount()
	retryDelay := retryDelay(task.GetRetryCount())

	slog.Warn("Task retry scheduled", "type", string(task.GetType()), "subject", task.GetSubject(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		timer := time.NewTimer(retryDelay)
		defer timer.Stop()

		select {
		case <-s.ctx.Done():
			slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
		case <-timer.C:
			if retryErr := s.EnqueueTask(task); retryErr != nil {
				slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
			}
		}
	}()
}

// retryDelay doubles from one second per attempt, capped at 30 seconds.
func retryDelay(attempt int) time.Duration {
	delay := time.Duration(1<<uint(max(attempt-1, 0))) * time.Second
	return min(delay, 30*time.Second)
}
