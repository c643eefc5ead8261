package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kkdai/youtube/v2"
)

func TestWatchURL(t *testing.T) {
	got := WatchURL("dQw4w9WgXcQ")
	want := "https://www.youtube.com/watch?v=dQw4w9WgXcQ"
	if got != want {
		t.Errorf("WatchURL = %q, want %q", got, want)
	}
}

func TestSelectFormat(t *testing.T) {
	formats := youtube.FormatList{
		{MimeType: `video/mp4; codecs="avc1.42001E, mp4a.40.2"`, Height: 360, AudioChannels: 2},
		{MimeType: `video/mp4; codecs="avc1.4D401F, mp4a.40.2"`, Height: 720, AudioChannels: 2},
		{MimeType: `video/mp4; codecs="avc1.640028, mp4a.40.2"`, Height: 1080, AudioChannels: 2},
		{MimeType: `video/webm; codecs="vp9"`, Height: 720, AudioChannels: 2},
		{MimeType: `video/mp4; codecs="avc1.640033"`, Height: 2160, AudioChannels: 0},
	}

	tests := []struct {
		name       string
		formats    youtube.FormatList
		maxHeight  int
		wantHeight int
		wantNil    bool
	}{
		{name: "exact cap", formats: formats, maxHeight: 720, wantHeight: 720},
		{name: "below cap picks best fit", formats: formats, maxHeight: 480, wantHeight: 360},
		{name: "cap above all picks highest", formats: formats, maxHeight: 2160, wantHeight: 1080},
		{name: "all above cap picks smallest", formats: formats, maxHeight: 240, wantHeight: 360},
		{name: "no progressive mp4", formats: youtube.FormatList{
			{MimeType: `video/webm; codecs="vp9"`, Height: 720, AudioChannels: 2},
			{MimeType: `video/mp4; codecs="avc1"`, Height: 1080, AudioChannels: 0},
		}, maxHeight: 720, wantNil: true},
		{name: "empty list", formats: nil, maxHeight: 720, wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := selectFormat(tt.formats, tt.maxHeight)
			if tt.wantNil {
				if got != nil {
					t.Fatalf("expected nil, got height %d", got.Height)
				}
				return
			}
			if got == nil {
				t.Fatal("expected a format, got nil")
			}
			if got.Height != tt.wantHeight {
				t.Errorf("height = %d, want %d", got.Height, tt.wantHeight)
			}
		})
	}
}

func TestVerifyVideo(t *testing.T) {
	dir := t.TempDir()

	writeFile := func(t *testing.T, name string, data []byte) string {
		t.Helper()
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		return path
	}

	// Minimal MP4 ftyp box header.
	mp4Head := []byte{
		0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p',
		'i', 's', 'o', 'm', 0x00, 0x00, 0x02, 0x00,
		'i', 's', 'o', 'm', 'm', 'p', '4', '1',
	}

	t.Run("real video header passes", func(t *testing.T) {
		path := writeFile(t, "ok.mp4", mp4Head)
		if err := verifyVideo(path); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("html error page rejected", func(t *testing.T) {
		path := writeFile(t, "page.mp4", []byte("<!DOCTYPE html><html><body>blocked</body></html>"))
		if err := verifyVideo(path); err == nil {
			t.Error("expected error for non-video payload")
		}
	})

	t.Run("empty file rejected", func(t *testing.T) {
		path := writeFile(t, "empty.mp4", nil)
		if err := verifyVideo(path); err == nil {
			t.Error("expected error for empty file")
		}
	})
}
