// Package source enumerates and downloads video items from YouTube.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/h2non/filetype"
	"github.com/kkdai/youtube/v2"

	"cartoon_bot/internal/pipeline"
)

const fetchAttempts = 3

// YouTube resolves playlists and fetches single videos as local files.
type YouTube struct {
	client    *youtube.Client
	maxHeight int
	maxBytes  int64
}

// New creates a YouTube source. maxHeight caps the selected video
// resolution and maxSizeMB caps the downloaded file size.
func New(maxHeight, maxSizeMB int) *YouTube {
	return &YouTube{
		client:    &youtube.Client{HTTPClient: &http.Client{Timeout: 10 * time.Minute}},
		maxHeight: maxHeight,
		maxBytes:  int64(maxSizeMB) * 1024 * 1024,
	}
}

// WatchURL returns the canonical watch URL for a video ID. It doubles as
// the deduplication key for download-sourced items.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

// Playlist resolves a playlist URL into the ordered list of its items.
func (y *YouTube) Playlist(ctx context.Context, url string) ([]pipeline.Item, error) {
	pl, err := y.client.GetPlaylistContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("get playlist: %w", err)
	}

	items := make([]pipeline.Item, 0, len(pl.Videos))
	for _, entry := range pl.Videos {
		if entry == nil || entry.ID == "" {
			continue
		}
		items = append(items, pipeline.Item{
			Key:      WatchURL(entry.ID),
			Title:    entry.Title,
			WebURL:   WatchURL(entry.ID),
			Duration: int(entry.Duration.Seconds()),
		})
	}
	if len(items) == 0 {
		return nil, errors.New("playlist has no videos")
	}
	return items, nil
}

// FetchItem downloads a single video into destDir, retrying transient
// failures a fixed number of times with a fixed delay.
func (y *YouTube) FetchItem(ctx context.Context, webURL, destDir string) (pipeline.Media, error) {
	var media pipeline.Media
	err := retry.Do(
		func() error {
			m, err := y.fetchOnce(ctx, webURL, destDir)
			if err != nil {
				return err
			}
			media = m
			return nil
		},
		retry.Attempts(fetchAttempts),
		retry.Delay(2*time.Second),
		retry.DelayType(retry.FixedDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return pipeline.Media{}, fmt.Errorf("fetch %s: %w", webURL, err)
	}
	return media, nil
}

func (y *YouTube) fetchOnce(ctx context.Context, webURL, destDir string) (pipeline.Media, error) {
	video, err := y.client.GetVideoContext(ctx, webURL)
	if err != nil {
		return pipeline.Media{}, fmt.Errorf("get video: %w", err)
	}

	format := selectFormat(video.Formats, y.maxHeight)
	if format == nil {
		return pipeline.Media{}, retry.Unrecoverable(errors.New("no suitable mp4 format"))
	}
	if format.ContentLength > y.maxBytes {
		return pipeline.Media{}, retry.Unrecoverable(
			fmt.Errorf("video size %d exceeds limit %d", format.ContentLength, y.maxBytes))
	}

	if err := os.MkdirAll(destDir, 0o750); err != nil {
		return pipeline.Media{}, fmt.Errorf("create download dir: %w", err)
	}
	path := filepath.Join(destDir, video.ID+".mp4")

	if err := y.download(ctx, video, format, path); err != nil {
		_ = os.Remove(path)
		return pipeline.Media{}, err
	}
	if err := verifyVideo(path); err != nil {
		_ = os.Remove(path)
		return pipeline.Media{}, retry.Unrecoverable(err)
	}

	return pipeline.Media{
		LocalPath: path,
		Title:     video.Title,
		Duration:  int(video.Duration.Seconds()),
	}, nil
}

func (y *YouTube) download(ctx context.Context, video *youtube.Video, format *youtube.Format, path string) error {
	stream, _, err := y.client.GetStreamContext(ctx, video, format)
	if err != nil {
		return fmt.Errorf("get stream: %w", err)
	}
	defer func() { _ = stream.Close() }()

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer func() { _ = file.Close() }()

	if _, err := io.Copy(file, stream); err != nil {
		return fmt.Errorf("download stream: %w", err)
	}
	return nil
}

// selectFormat picks the highest-resolution progressive MP4 at or below
// the height cap, falling back to the smallest available one.
func selectFormat(formats youtube.FormatList, maxHeight int) *youtube.Format {
	candidates := formats.Type("video/mp4").WithAudioChannels()
	if len(candidates) == 0 {
		return nil
	}

	var best *youtube.Format
	for i := range candidates {
		f := &candidates[i]
		if f.Height > maxHeight {
			continue
		}
		if best == nil || f.Height > best.Height {
			best = f
		}
	}
	if best != nil {
		return best
	}

	// Everything is above the cap; take the smallest.
	smallest := &candidates[0]
	for i := range candidates {
		if candidates[i].Height < smallest.Height {
			smallest = &candidates[i]
		}
	}
	return smallest
}

// verifyVideo sniffs the file header and rejects non-video payloads
// (error pages saved as .mp4 and the like).
func verifyVideo(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open for sniffing: %w", err)
	}
	defer func() { _ = file.Close() }()

	head := make([]byte, 261)
	n, err := file.Read(head)
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read header: %w", err)
	}
	if !filetype.IsVideo(head[:n]) {
		return errors.New("downloaded file is not a video")
	}
	return nil
}
