// Package scheduler polls watch subscriptions and ingests new feed
// entries into their series.
package scheduler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/mmcdole/gofeed"

	"cartoon_bot/internal/model"
	"cartoon_bot/internal/pipeline"
	"cartoon_bot/internal/source"
	"cartoon_bot/internal/storage"
)

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// RunStarter launches a pipeline run for a watch's new items. It reports
// false when the run could not start (typically another run is active),
// in which case the watch is retried on its next due tick.
type RunStarter interface {
	StartWatchRun(ctx context.Context, w model.Watch, items []pipeline.Item) bool
}

// Scheduler periodically checks watched feeds for new videos.
type Scheduler struct {
	store   storage.Storage
	client  HTTPClient
	starter RunStarter
	log     *slog.Logger
	tick    time.Duration
}

// New creates a Scheduler with the default HTTP client.
func New(store storage.Storage, starter RunStarter, log *slog.Logger) *Scheduler {
	return &Scheduler{
		store:   store,
		client:  http.DefaultClient,
		starter: starter,
		log:     log,
		tick:    1 * time.Minute,
	}
}

// NewWithClient creates a Scheduler with a custom HTTP client (useful for
// testing).
func NewWithClient(store storage.Storage, client HTTPClient, starter RunStarter, log *slog.Logger) *Scheduler {
	s := New(store, starter, log)
	s.client = client
	return s
}

// SetTickInterval overrides the default 1-minute check interval.
func (s *Scheduler) SetTickInterval(d time.Duration) {
	s.tick = d
}

// Run starts the scheduler loop, blocking until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.checkAll(ctx)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.checkAll(ctx)
		}
	}
}

func (s *Scheduler) checkAll(ctx context.Context) {
	watches, err := s.store.ListDueWatches(ctx)
	if err != nil {
		s.log.Error("list due watches", "error", err)
		return
	}

	for _, w := range watches {
		if ctx.Err() != nil {
			return
		}
		s.syncWatch(ctx, w)
	}
}

func (s *Scheduler) syncWatch(ctx context.Context, w model.Watch) {
	s.log.Debug("checking watch", "watch_id", w.ID, "feed", w.FeedURL)

	feed, err := s.fetchFeed(ctx, w.FeedURL)
	if err != nil {
		s.log.Error("fetch watch feed", "watch_id", w.ID, "feed", w.FeedURL, "error", err)
		s.updateLastCheck(ctx, &w)
		return
	}

	items := feedItems(feed)
	if len(items) == 0 {
		s.updateLastCheck(ctx, &w)
		return
	}

	if !s.starter.StartWatchRun(ctx, w, items) {
		// Another run is active; leave last_check unset so the watch
		// comes due again on the next tick.
		s.log.Debug("watch run deferred", "watch_id", w.ID)
		return
	}

	s.updateLastCheck(ctx, &w)
}

func (s *Scheduler) fetchFeed(ctx context.Context, url string) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "CartoonSeriesBot/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 5*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	feed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return feed, nil
}

// feedItems maps feed entries to pipeline items, oldest first (YouTube
// feeds list newest entries first).
func feedItems(feed *gofeed.Feed) []pipeline.Item {
	items := make([]pipeline.Item, 0, len(feed.Items))
	for i := len(feed.Items) - 1; i >= 0; i-- {
		entry := feed.Items[i]
		if entry == nil || entry.Link == "" {
			continue
		}
		link := canonicalLink(entry.Link)
		items = append(items, pipeline.Item{
			Key:    link,
			Title:  entry.Title,
			WebURL: link,
		})
	}
	return items
}

// canonicalLink normalizes a feed entry link to the canonical watch URL,
// so watch-ingested items dedup against playlist-ingested ones.
func canonicalLink(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return link
	}
	if id := u.Query().Get("v"); id != "" {
		return source.WatchURL(id)
	}
	return link
}

func (s *Scheduler) updateLastCheck(ctx context.Context, w *model.Watch) {
	now := time.Now().UTC()
	w.LastCheckAt = &now
	if err := s.store.UpdateWatch(ctx, w); err != nil {
		s.log.Error("update watch last check", "watch_id", w.ID, "error", err)
	}
}
