package bot

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"cartoon_bot/internal/model"
	"cartoon_bot/internal/pipeline"
	"cartoon_bot/internal/storage"
)

func (b *Bot) handleStart(chatID int64) {
	b.reply(chatID, `🎬 Cartoon Series Bot

Download YouTube playlists or re-publish forwarded videos into your
series channels, with automatic episode numbering.

Quick start:
1. /add <name> <@channel> — add a series
2. /download <playlist_url> <name> — ingest a playlist
3. /forward <name> — then forward videos and send /go

Use /help for the full command reference.`)
}

func (b *Bot) handleHelp(chatID int64) {
	b.reply(chatID, `Series management:
/add <name> <@channel or -100...> — add a series
/list — show all series
/info <name> — series details
/remove <name> — delete a series (published videos stay)
/setthumb <name> — set a thumbnail (send a photo after)

Ingestion:
/download <url> [-e start[-end]] [-season N] [-lang L] <name> — playlist run
/forward <name> — collect forwarded videos, then /go
/go [-e start[-end]] [-season N] [-lang L] — publish collected videos
/cancel — drop the collected videos
/stop — stop the active run after the current item
/status — active run progress and stats

Auto-sync:
/watch <UC.../PL.../feed url> [-i minutes] <name> — watch a channel feed
/unwatch <watch_id> — remove a watch
/watches — list watches`)
}

func (b *Bot) handleAdd(ctx context.Context, chatID int64, args string) {
	name, channel, err := ParseAddArgs(args)
	if err != nil {
		b.reply(chatID, err.Error())
		return
	}

	s := &model.Series{Name: name, Channel: channel, LastSeason: 1}
	if err := b.store.CreateSeries(ctx, s); err != nil {
		b.reply(chatID, fmt.Sprintf("Failed to save series (does \"%s\" already exist?): %v", name, err))
		return
	}

	b.reply(chatID, fmt.Sprintf("✅ Series added: %s → %s\nUse /download or /forward to ingest episodes.", s.Name, s.Channel))
}

func (b *Bot) handleList(ctx context.Context, chatID int64) {
	series, err := b.store.ListSeries(ctx)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}

	counts := make(map[int64]int)
	for _, s := range series {
		n, err := b.store.CountProcessed(ctx, s.ID)
		if err != nil {
			continue
		}
		counts[s.ID] = n
	}

	b.reply(chatID, FormatSeriesList(series, counts))
}

func (b *Bot) handleInfo(ctx context.Context, chatID int64, args string) {
	if args == "" {
		b.reply(chatID, "Usage: /info <name>")
		return
	}

	s, err := b.store.GetSeries(ctx, args)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Series \"%s\" not found.", args))
		return
	}

	count, _ := b.store.CountProcessed(ctx, s.ID)
	watches, _ := b.store.ListWatches(ctx)
	var own []model.Watch
	for _, w := range watches {
		if w.SeriesID == s.ID {
			own = append(own, w)
		}
	}

	b.reply(chatID, FormatSeriesInfo(s, count, own))
}

func (b *Bot) handleRemove(ctx context.Context, chatID int64, args string) {
	if args == "" {
		b.reply(chatID, "Usage: /remove <name>")
		return
	}

	s, err := b.store.GetSeries(ctx, args)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Series \"%s\" not found.", args))
		return
	}

	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("Delete \"%s\"? Published videos stay in %s. This cannot be undone.", s.Name, s.Channel))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Yes, delete", cmdRemove+":"+s.Name),
			tgbotapi.NewInlineKeyboardButtonData("Cancel", "noop:-"),
		),
	)
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send delete confirmation", "error", err)
	}
}

func (b *Bot) deleteSeries(ctx context.Context, chatID int64, name string) {
	if err := b.store.DeleteSeries(ctx, name); err != nil {
		b.reply(chatID, fmt.Sprintf("Error deleting series: %v", err))
		return
	}
	b.reply(chatID, fmt.Sprintf("✅ Series \"%s\" deleted.", name))
}

func (b *Bot) handleSetThumb(ctx context.Context, chatID int64, args string) {
	if args == "" {
		b.reply(chatID, "Usage: /setthumb <name>")
		return
	}

	if _, err := b.store.GetSeries(ctx, args); err != nil {
		b.reply(chatID, fmt.Sprintf("Series \"%s\" not found.", args))
		return
	}

	b.mu.Lock()
	b.pendingThumb = args
	b.mu.Unlock()

	b.reply(chatID, fmt.Sprintf("Send me the thumbnail photo for \"%s\".", args))
}

func (b *Bot) handleThumbPhoto(ctx context.Context, msg *tgbotapi.Message) {
	b.mu.Lock()
	name := b.pendingThumb
	b.pendingThumb = ""
	b.mu.Unlock()

	if name == "" {
		return
	}

	s, err := b.store.GetSeries(ctx, name)
	if err != nil {
		b.reply(msg.Chat.ID, fmt.Sprintf("Series \"%s\" not found.", name))
		return
	}

	// Largest size last.
	s.ThumbFileID = msg.Photo[len(msg.Photo)-1].FileID
	if err := b.store.UpdateSeries(ctx, s); err != nil {
		b.reply(msg.Chat.ID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(msg.Chat.ID, fmt.Sprintf("✅ Thumbnail saved for \"%s\".", name))
}

func (b *Bot) handleDownload(ctx context.Context, chatID int64, args string) {
	parsed, err := ParseDownloadArgs(args)
	if err != nil {
		b.reply(chatID, err.Error())
		return
	}

	if _, err := b.store.GetSeries(ctx, parsed.Series); err != nil {
		b.reply(chatID, fmt.Sprintf("Series \"%s\" not found. Add it first with /add.", parsed.Series))
		return
	}

	b.reply(chatID, fmt.Sprintf("🔄 Starting download run for \"%s\"...", parsed.Series))

	enumerate := func(ctx context.Context) ([]pipeline.Item, error) {
		return b.source.Playlist(ctx, parsed.URL)
	}
	go b.runAndReport(ctx, parsed.Series, "Downloading "+parsed.Series, enumerate, parsed.Opts, false)
}

func (b *Bot) handleForward(ctx context.Context, chatID int64, args string) {
	if args == "" {
		b.reply(chatID, "Usage: /forward <name>")
		return
	}

	if _, err := b.store.GetSeries(ctx, args); err != nil {
		b.reply(chatID, fmt.Sprintf("Series \"%s\" not found. Add it first with /add.", args))
		return
	}

	b.mu.Lock()
	b.collect = &collection{series: args, msgIDs: make(map[string]int)}
	b.mu.Unlock()

	b.reply(chatID, fmt.Sprintf("🔄 Forward videos from the source channel for \"%s\", then send /go (or /cancel).", args))
}

func (b *Bot) handleGo(ctx context.Context, chatID int64, args string) {
	opts, err := ParseGoArgs(args)
	if err != nil {
		b.reply(chatID, err.Error())
		return
	}

	series, items := b.takeCollection()
	if series == "" {
		b.reply(chatID, "Nothing collected. Use /forward <name> first.")
		return
	}
	if len(items) == 0 {
		b.reply(chatID, "No videos were collected.")
		return
	}

	b.reply(chatID, fmt.Sprintf("🔄 Publishing %d collected videos to \"%s\"...", len(items), series))

	enumerate := func(context.Context) ([]pipeline.Item, error) {
		return items, nil
	}
	go b.runAndReport(ctx, series, "Forwarding to "+series, enumerate, opts, false)
}

func (b *Bot) handleCancel(chatID int64) {
	b.mu.Lock()
	armed := b.collect != nil
	b.collect = nil
	b.mu.Unlock()

	if armed {
		b.reply(chatID, "Collection dropped.")
		return
	}
	b.reply(chatID, "Nothing to cancel.")
}

func (b *Bot) handleStop(chatID int64) {
	handle, ok := b.runner.Registry().Active(b.cfg.OwnerID)
	if !ok {
		b.reply(chatID, "✅ No task is currently running.")
		return
	}
	handle.Stop()
	b.reply(chatID, "⏹ Stop signal sent. The run will stop after the current item.")
}

func (b *Bot) handleStatus(ctx context.Context, chatID int64) {
	series, err := b.store.ListSeries(ctx)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	watches, _ := b.store.ListWatches(ctx)

	status := "🟢 Idle"
	if handle, ok := b.runner.Registry().Active(b.cfg.OwnerID); ok {
		status = FormatRunStatus(handle.Snapshot())
	}

	b.reply(chatID, fmt.Sprintf("%s\n\nSeries: %d\nWatches: %d", status, len(series), len(watches)))
}

func (b *Bot) handleWatch(ctx context.Context, chatID int64, args string) {
	parsed, err := ParseWatchArgs(args)
	if err != nil {
		b.reply(chatID, err.Error())
		return
	}

	s, err := b.store.GetSeries(ctx, parsed.Series)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Series \"%s\" not found. Add it first with /add.", parsed.Series))
		return
	}

	w := &model.Watch{
		SeriesID:        s.ID,
		FeedURL:         parsed.FeedURL,
		IntervalMinutes: parsed.Interval,
		IsActive:        true,
	}
	if err := b.store.CreateWatch(ctx, w); err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}

	b.reply(chatID, fmt.Sprintf("✅ Watch W%d added: new videos land in \"%s\" every %d min.", w.ID, s.Name, w.IntervalMinutes))
}

func (b *Bot) handleUnwatch(ctx context.Context, chatID int64, args string) {
	id, err := ParseIDArg(args)
	if err != nil {
		b.reply(chatID, "Usage: /unwatch <watch_id>")
		return
	}

	if err := b.store.DeleteWatch(ctx, id); err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(chatID, fmt.Sprintf("✅ Watch W%d removed.", id))
}

func (b *Bot) handleWatches(ctx context.Context, chatID int64) {
	watches, err := b.store.ListWatches(ctx)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}

	names := make(map[int64]string)
	if series, err := b.store.ListSeries(ctx); err == nil {
		for _, s := range series {
			names[s.ID] = s.Name
		}
	}

	b.reply(chatID, FormatWatchList(watches, names))
}

// StartWatchRun implements scheduler.RunStarter: it launches a pipeline
// run over a watch's feed items unless a run is already active.
func (b *Bot) StartWatchRun(ctx context.Context, w model.Watch, items []pipeline.Item) bool {
	if _, active := b.runner.Registry().Active(b.cfg.OwnerID); active {
		return false
	}

	s, err := b.store.GetSeriesByID(ctx, w.SeriesID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Orphaned watch; drop it.
			b.log.Warn("watch points at missing series", "watch_id", w.ID, "series_id", w.SeriesID)
			_ = b.store.DeleteWatch(ctx, w.ID)
		}
		return true
	}

	enumerate := func(context.Context) ([]pipeline.Item, error) {
		return items, nil
	}
	go b.runAndReport(ctx, s.Name, "Syncing "+s.Name, enumerate, pipeline.Options{}, true)
	return true
}

// runAndReport executes a pipeline run and reports its outcome to the
// owner. Auto-started (watch) runs keep quiet about lost races for the
// run slot.
func (b *Bot) runAndReport(ctx context.Context, seriesName, label string, enumerate pipeline.EnumerateFunc, opts pipeline.Options, auto bool) {
	res, err := b.runner.Run(ctx, b.cfg.OwnerID, seriesName, label, enumerate, opts)
	if err != nil {
		switch {
		case errors.Is(err, pipeline.ErrAlreadyRunning):
			if !auto {
				b.Notify("❌ Another task is already running. Use /stop to cancel it.")
			}
		case errors.Is(err, pipeline.ErrSeriesNotFound):
			b.Notify(fmt.Sprintf("❌ Series \"%s\" not found.", seriesName))
		default:
			b.Notify(fmt.Sprintf("❌ Cannot read source for \"%s\": %v", seriesName, err))
		}
		return
	}

	if auto && res.Processed == 0 && res.Failed == 0 {
		// Nothing new on this sync; stay quiet.
		return
	}
	b.Notify(FormatRunSummary(seriesName, res))
}
