// Package pipeline runs the sequential, cancellable publish loop for one
// series: dedup-check, fetch, probe, caption, publish, record.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"cartoon_bot/internal/storage"
	"cartoon_bot/internal/title"
)

// Run start errors.
var (
	ErrAlreadyRunning = errors.New("another task is already running")
	ErrSeriesNotFound = errors.New("series not found")
)

// EnumerationError wraps a source enumeration failure. It aborts the run
// before any item is processed.
type EnumerationError struct {
	Err error
}

func (e *EnumerationError) Error() string { return fmt.Sprintf("enumerate source: %v", e.Err) }
func (e *EnumerationError) Unwrap() error { return e.Err }

// Item is one source entry: either download-sourced (WebURL set) or
// forward-sourced (FileRef set). Key is the deduplication key.
type Item struct {
	Key      string
	Title    string
	WebURL   string
	FileRef  string
	Duration int // seconds, when the source already knows it
}

// Media is a publishable video: a local file for download-sourced items
// or a platform file reference for forward-sourced items.
type Media struct {
	LocalPath string
	FileRef   string
	Title     string
	Duration  int // seconds
}

// EnumerateFunc produces the ordered source items for a run. It is called
// once, after the run slot is acquired; a failure aborts the run.
type EnumerateFunc func(ctx context.Context) ([]Item, error)

// Fetcher obtains media for a download-sourced item.
type Fetcher interface {
	FetchItem(ctx context.Context, webURL, destDir string) (Media, error)
}

// Sink publishes a video with its caption to a destination channel.
type Sink interface {
	PublishVideo(ctx context.Context, channel string, media Media, caption, thumbFileID string) error
}

// Probe reports a local video's duration in seconds.
type Probe interface {
	Duration(ctx context.Context, localPath string) (int, error)
}

// Notifier delivers progress messages to the operator.
type Notifier interface {
	Notify(text string)
}

// Options control one run.
type Options struct {
	// EpisodeStart enables manual numbering mode: the item range is
	// sliced to [EpisodeStart-1 : EpisodeEnd] before iteration, and the
	// published episode numbers count up from EpisodeStart once per
	// successful publish, overriding whatever the titles parse to.
	EpisodeStart int
	EpisodeEnd   int // inclusive 1-indexed end; 0 means to the end
	Season       int // explicit season override; 0 means use parsed
	AudioLang    string
}

// Result is the final accounting of a run.
type Result struct {
	Total     int
	Processed int
	Failed    int
	Skipped   int
	Stopped   bool
}

// batchNotifyEvery bounds notification volume on high-volume runs.
const batchNotifyEvery = 10

// Runner executes pipeline runs against its collaborators.
type Runner struct {
	store       storage.Storage
	registry    *Registry
	fetcher     Fetcher
	sink        Sink
	probe       Probe
	notify      Notifier
	downloadDir string
	log         *slog.Logger
}

// NewRunner creates a Runner.
func NewRunner(store storage.Storage, registry *Registry, fetcher Fetcher, sink Sink, probe Probe, notify Notifier, downloadDir string, log *slog.Logger) *Runner {
	return &Runner{
		store:       store,
		registry:    registry,
		fetcher:     fetcher,
		sink:        sink,
		probe:       probe,
		notify:      notify,
		downloadDir: downloadDir,
		log:         log,
	}
}

// Registry exposes the run registry for stop/status handling.
func (r *Runner) Registry() *Registry { return r.registry }

// Run executes one sequential pipeline run for a series. It fails with
// ErrAlreadyRunning when the owner has an active run, ErrSeriesNotFound
// when the series does not exist, and *EnumerationError when the source
// cannot be enumerated. Per-item failures never abort the run. All exit
// paths release the owner's run slot.
func (r *Runner) Run(ctx context.Context, owner int64, seriesName, label string, enumerate EnumerateFunc, opts Options) (Result, error) {
	handle, err := r.registry.TryAcquire(owner, label)
	if err != nil {
		return Result{}, err
	}
	defer r.registry.Release(owner)

	// A context cancelled before the run starts reads as a stop, not an
	// error, same as the stop flag mid-run.
	if ctx.Err() != nil {
		return Result{Stopped: true}, nil
	}

	series, err := r.store.GetSeries(ctx, seriesName)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Result{}, ErrSeriesNotFound
		}
		return Result{}, fmt.Errorf("load series: %w", err)
	}

	items, err := enumerate(ctx)
	if err != nil {
		return Result{}, &EnumerationError{Err: err}
	}

	items = sliceRange(items, opts.EpisodeStart, opts.EpisodeEnd)
	handle.total.Store(int64(len(items)))

	res := Result{Total: len(items)}
	counter := opts.EpisodeStart

	for i, item := range items {
		if ctx.Err() != nil || handle.Stopped() {
			res.Stopped = true
			break
		}
		handle.cursor.Store(int64(i + 1))

		done, err := r.store.IsProcessed(ctx, series.ID, item.Key)
		if err != nil {
			r.log.Error("check processed", "series", series.Name, "key", item.Key, "error", err)
			res.Failed++
			handle.failed.Add(1)
			continue
		}
		if done {
			res.Skipped++
			handle.skipped.Add(1)
			continue
		}

		media := Media{FileRef: item.FileRef, Title: item.Title, Duration: item.Duration}
		if item.WebURL != "" {
			media, err = r.fetcher.FetchItem(ctx, item.WebURL, r.downloadDir)
			if err != nil {
				r.log.Error("fetch item", "series", series.Name, "url", item.WebURL, "error", err)
				res.Failed++
				handle.failed.Add(1)
				r.progress(i+1, len(items), &res)
				continue
			}
		}

		durationSec := media.Duration
		if media.LocalPath != "" {
			if d, err := r.probe.Duration(ctx, media.LocalPath); err != nil {
				r.log.Warn("probe duration", "path", media.LocalPath, "error", err)
				durationSec = 0
			} else {
				durationSec = d
			}
		}

		rawTitle := media.Title
		if rawTitle == "" {
			rawTitle = item.Title
		}
		parsed := title.Extract(rawTitle)

		episodeLabel := parsed.Episode
		episodeNum, _ := strconv.Atoi(parsed.Episode)
		season := parsed.Season
		if opts.EpisodeStart > 0 {
			// Manual numbering: the caller's counter wins over the
			// parsed values for the caption and the series cursor.
			episodeNum = counter
			episodeLabel = title.Label(counter)
			r.log.Debug("numbering override",
				"parsed_episode", parsed.Episode, "parsed_season", parsed.Season, "episode", episodeNum)
		}
		if opts.Season > 0 {
			season = opts.Season
		}

		caption := title.BuildCaption(title.Caption{
			Episode:   episodeLabel,
			Season:    season,
			Title:     parsed.Title,
			Series:    series.Name,
			Duration:  title.FormatDuration(durationSec),
			AudioLang: opts.AudioLang,
		})

		if err := r.sink.PublishVideo(ctx, series.Channel, media, caption, series.ThumbFileID); err != nil {
			r.log.Error("publish", "series", series.Name, "key", item.Key, "error", err)
			res.Failed++
			handle.failed.Add(1)
			r.removeLocal(media)
			r.progress(i+1, len(items), &res)
			continue
		}

		if err := r.store.MarkProcessed(ctx, series.ID, item.Key); err != nil {
			r.log.Error("mark processed", "series", series.Name, "key", item.Key, "error", err)
		}
		series.LastSeason = season
		series.LastEpisode = episodeNum
		if err := r.store.UpdateSeries(ctx, series); err != nil {
			r.log.Error("update series cursor", "series", series.Name, "error", err)
		}

		res.Processed++
		handle.processed.Add(1)
		if opts.EpisodeStart > 0 {
			counter++
		}
		r.removeLocal(media)
		r.progress(i+1, len(items), &res)
	}

	r.log.Info("run finished",
		"series", series.Name, "total", res.Total,
		"processed", res.Processed, "failed", res.Failed,
		"skipped", res.Skipped, "stopped", res.Stopped)
	return res, nil
}

// sliceRange restricts items to the 1-indexed [start, end] window before
// iteration begins.
func sliceRange(items []Item, start, end int) []Item {
	if start <= 0 {
		return items
	}
	if start > len(items) {
		return nil
	}
	last := len(items)
	if end > 0 && end < last {
		last = end
	}
	return items[start-1 : last]
}

func (r *Runner) progress(visited, total int, res *Result) {
	r.notify.Notify(fmt.Sprintf("⬆️ %d/%d — %d published, %d failed", visited, total, res.Processed, res.Failed))
	if visited%batchNotifyEvery == 0 && visited < total {
		r.notify.Notify(fmt.Sprintf("📊 Progress: %d of %d items visited", visited, total))
	}
}

// removeLocal deletes an item's temporary download. Cleanup failures are
// logged, not fatal.
func (r *Runner) removeLocal(media Media) {
	if media.LocalPath == "" {
		return
	}
	if err := os.Remove(media.LocalPath); err != nil && !os.IsNotExist(err) {
		r.log.Warn("remove temp file", "path", media.LocalPath, "error", err)
	}
}
