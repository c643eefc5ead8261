package title

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Result
	}{
		{
			name: "combined season episode",
			raw:  "Adventure Time S02E05 720p x264",
			want: Result{Episode: "05", Season: 2, Title: "Adventure Time"},
		},
		{
			name: "compact marker only",
			raw:  "S01E04",
			want: Result{Episode: "04", Season: 1, Title: "S01E04"},
		},
		{
			name: "season x episode",
			raw:  "1x04 - The Beginning",
			want: Result{Episode: "04", Season: 1, Title: "The Beginning"},
		},
		{
			name: "spelled out season and episode",
			raw:  "Season 2 Episode 10 Finale",
			want: Result{Episode: "10", Season: 2, Title: "Finale"},
		},
		{
			name: "ep with dot",
			raw:  "My Show Ep.12",
			want: Result{Episode: "12", Season: 1, Title: "My Show"},
		},
		{
			name: "three digit episode keeps width",
			raw:  "Ep 205 - The Finale",
			want: Result{Episode: "205", Season: 1, Title: "The Finale"},
		},
		{
			name: "bracketed number",
			raw:  "[12] Mystery Cave",
			want: Result{Episode: "12", Season: 1, Title: "Mystery Cave"},
		},
		{
			name: "hash number",
			raw:  "#03 The Lost City",
			want: Result{Episode: "03", Season: 1, Title: "The Lost City"},
		},
		{
			name: "leading number with dot",
			raw:  "7. The Journey Home",
			want: Result{Episode: "07", Season: 1, Title: "The Journey Home"},
		},
		{
			name: "bare integer fallback",
			raw:  "Show 7",
			want: Result{Episode: "07", Season: 1, Title: "Show"},
		},
		{
			name: "resolution is not an episode",
			raw:  "Show 1080p",
			want: Result{Episode: "01", Season: 1, Title: "Show"},
		},
		{
			name: "no numbers at all",
			raw:  "Random Title With No Numbers",
			want: Result{Episode: "01", Season: 1, Title: "Random Title With No Numbers"},
		},
		{
			name: "empty title",
			raw:  "",
			want: Result{Episode: "01", Season: 1, Title: PlaceholderTitle},
		},
		{
			name: "whitespace only",
			raw:  "   ",
			want: Result{Episode: "01", Season: 1, Title: PlaceholderTitle},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.raw)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Extract(%q) mismatch (-want +got):\n%s", tt.raw, diff)
			}
		})
	}
}

func TestExtractDeterministic(t *testing.T) {
	raw := "Adventure Time S02E05 720p"
	first := Extract(raw)
	for i := 0; i < 5; i++ {
		if diff := cmp.Diff(first, Extract(raw)); diff != "" {
			t.Fatalf("Extract not deterministic (-first +again):\n%s", diff)
		}
	}
}

func TestLabel(t *testing.T) {
	tests := []struct {
		episode int
		want    string
	}{
		{5, "05"},
		{12, "12"},
		{205, "205"},
		{1, "01"},
	}

	for _, tt := range tests {
		if got := Label(tt.episode); got != tt.want {
			t.Errorf("Label(%d) = %q, want %q", tt.episode, got, tt.want)
		}
	}
}
