package bot

import (
	"fmt"
	"strings"
	"time"

	"cartoon_bot/internal/model"
	"cartoon_bot/internal/pipeline"
)

// FormatSeriesList formats all series for display.
func FormatSeriesList(series []model.Series, processedCounts map[int64]int) string {
	if len(series) == 0 {
		return "You have no series yet. Use /add <name> <@channel> to add one."
	}
	var b strings.Builder
	b.WriteString("Your series:\n")
	for _, s := range series {
		thumb := "no thumbnail"
		if s.ThumbFileID != "" {
			thumb = "thumbnail set"
		}
		fmt.Fprintf(&b, "\n%s → %s\n", s.Name, s.Channel)
		fmt.Fprintf(&b, "   at S%02dE%02d, %d published, %s\n",
			s.LastSeason, s.LastEpisode, processedCounts[s.ID], thumb)
	}
	return b.String()
}

// FormatSeriesInfo formats detailed information about a single series.
func FormatSeriesInfo(s *model.Series, processedCount int, watches []model.Watch) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📺 %s\n", s.Name)
	fmt.Fprintf(&b, "Channel: %s\n", s.Channel)
	fmt.Fprintf(&b, "Position: Season %d, Episode %d\n", s.LastSeason, s.LastEpisode)
	fmt.Fprintf(&b, "Published items: %d\n", processedCount)
	if s.ThumbFileID != "" {
		b.WriteString("Thumbnail: set\n")
	} else {
		b.WriteString("Thumbnail: not set (use /setthumb)\n")
	}
	fmt.Fprintf(&b, "Added: %s\n", s.CreatedAt.Format("2006-01-02"))
	if len(watches) > 0 {
		b.WriteString("\nWatches:\n")
		for _, w := range watches {
			fmt.Fprintf(&b, "  W%d: %s (every %d min)\n", w.ID, w.FeedURL, w.IntervalMinutes)
		}
	}
	return b.String()
}

// FormatRunSummary formats the final accounting of a finished run.
func FormatRunSummary(seriesName string, res pipeline.Result) string {
	head := "✅ Completed"
	if res.Stopped {
		head = "⏹ Stopped"
	}
	return fmt.Sprintf("%s: \"%s\" — %d of %d published, %d failed, %d skipped.",
		head, seriesName, res.Processed, res.Total, res.Failed, res.Skipped)
}

// FormatRunStatus formats a live run snapshot for /status.
func FormatRunStatus(p pipeline.Progress) string {
	elapsed := time.Since(p.StartedAt).Round(time.Second)
	return fmt.Sprintf("🟡 %s\nItem %d of %d — %d published, %d failed, %d skipped (running %s)",
		p.Label, p.Cursor, p.Total, p.Processed, p.Failed, p.Skipped, elapsed)
}

// FormatWatchList formats all watches with their series names.
func FormatWatchList(watches []model.Watch, seriesNames map[int64]string) string {
	if len(watches) == 0 {
		return "No watches yet. Use /watch <channel id> <series name> to add one."
	}
	var b strings.Builder
	b.WriteString("Watches:\n")
	for _, w := range watches {
		status := "active"
		if !w.IsActive {
			status = "paused"
		}
		name := seriesNames[w.SeriesID]
		fmt.Fprintf(&b, "\nW%d → %s [%s]\n   %s (every %d min)\n",
			w.ID, name, status, w.FeedURL, w.IntervalMinutes)
		if w.LastCheckAt != nil {
			fmt.Fprintf(&b, "   last check %s\n", w.LastCheckAt.Format("2006-01-02 15:04 UTC"))
		}
	}
	return b.String()
}
