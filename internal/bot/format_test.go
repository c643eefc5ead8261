package bot

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"cartoon_bot/internal/model"
	"cartoon_bot/internal/pipeline"
)

func TestFormatSeriesList(t *testing.T) {
	tests := []struct {
		name         string
		series       []model.Series
		counts       map[int64]int
		wantContains []string
	}{
		{
			name:         "empty list",
			wantContains: []string{"no series yet"},
		},
		{
			name: "with series",
			series: []model.Series{
				{ID: 1, Name: "Bluey", Channel: "@bluey", LastSeason: 1, LastEpisode: 4, ThumbFileID: "t"},
				{ID: 2, Name: "Gravity Falls", Channel: "@gf", LastSeason: 2, LastEpisode: 14},
			},
			counts: map[int64]int{1: 4, 2: 34},
			wantContains: []string{
				"Bluey → @bluey",
				"at S01E04, 4 published, thumbnail set",
				"Gravity Falls → @gf",
				"at S02E14, 34 published, no thumbnail",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatSeriesList(tt.series, tt.counts)
			for _, want := range tt.wantContains {
				if !strings.Contains(got, want) {
					t.Errorf("output missing %q:\n%s", want, got)
				}
			}
		})
	}
}

func TestFormatSeriesInfo(t *testing.T) {
	created := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		series       *model.Series
		count        int
		watches      []model.Watch
		wantContains []string
	}{
		{
			name: "full info with watch",
			series: &model.Series{
				ID: 1, Name: "Bluey", Channel: "@bluey",
				ThumbFileID: "thumb", LastSeason: 2, LastEpisode: 7, CreatedAt: created,
			},
			count: 12,
			watches: []model.Watch{
				{ID: 3, SeriesID: 1, FeedURL: "https://yt.com/feed", IntervalMinutes: 30},
			},
			wantContains: []string{
				"📺 Bluey",
				"Channel: @bluey",
				"Position: Season 2, Episode 7",
				"Published items: 12",
				"Thumbnail: set",
				"Added: 2026-03-10",
				"W3: https://yt.com/feed (every 30 min)",
			},
		},
		{
			name:   "no thumbnail no watches",
			series: &model.Series{ID: 2, Name: "Show", Channel: "@s", LastSeason: 1, CreatedAt: created},
			wantContains: []string{
				"Thumbnail: not set (use /setthumb)",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatSeriesInfo(tt.series, tt.count, tt.watches)
			for _, want := range tt.wantContains {
				if !strings.Contains(got, want) {
					t.Errorf("output missing %q:\n%s", want, got)
				}
			}
		})
	}
}

func TestFormatRunSummary(t *testing.T) {
	tests := []struct {
		name   string
		series string
		res    pipeline.Result
		want   string
	}{
		{
			name:   "completed",
			series: "Bluey",
			res:    pipeline.Result{Total: 10, Processed: 8, Failed: 1, Skipped: 1},
			want:   `✅ Completed: "Bluey" — 8 of 10 published, 1 failed, 1 skipped.`,
		},
		{
			name:   "stopped",
			series: "Show",
			res:    pipeline.Result{Total: 20, Processed: 5, Stopped: true},
			want:   `⏹ Stopped: "Show" — 5 of 20 published, 0 failed, 0 skipped.`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatRunSummary(tt.series, tt.res)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFormatRunStatus(t *testing.T) {
	p := pipeline.Progress{
		Label:     "Downloading Bluey",
		StartedAt: time.Now().Add(-30 * time.Second),
		Cursor:    4,
		Total:     10,
		Processed: 2,
		Failed:    1,
		Skipped:   1,
	}
	got := FormatRunStatus(p)
	for _, want := range []string{"🟡 Downloading Bluey", "Item 4 of 10", "2 published", "1 failed", "1 skipped"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestFormatWatchList(t *testing.T) {
	lastCheck := time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name         string
		watches      []model.Watch
		names        map[int64]string
		wantContains []string
	}{
		{
			name:         "empty",
			wantContains: []string{"No watches yet"},
		},
		{
			name: "active and paused",
			watches: []model.Watch{
				{ID: 1, SeriesID: 10, FeedURL: "https://a.com/feed", IntervalMinutes: 60, IsActive: true, LastCheckAt: &lastCheck},
				{ID: 2, SeriesID: 20, FeedURL: "https://b.com/feed", IntervalMinutes: 120},
			},
			names: map[int64]string{10: "Bluey", 20: "Show"},
			wantContains: []string{
				"W1 → Bluey [active]",
				"https://a.com/feed (every 60 min)",
				"last check 2026-05-01 09:30 UTC",
				"W2 → Show [paused]",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatWatchList(tt.watches, tt.names)
			for _, want := range tt.wantContains {
				if !strings.Contains(got, want) {
					t.Errorf("output missing %q:\n%s", want, got)
				}
			}
		})
	}
}
