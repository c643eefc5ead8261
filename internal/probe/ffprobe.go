// Package probe reads media durations with ffprobe.
package probe

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const probeTimeout = 30 * time.Second

// FFProbe implements duration probing via the ffprobe binary.
type FFProbe struct{}

// New creates an FFProbe.
func New() *FFProbe {
	return &FFProbe{}
}

// Duration returns the duration of the media file at path in whole
// seconds.
func (p *FFProbe) Duration(ctx context.Context, path string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)

	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %q: %w", path, err)
	}
	return ParseSeconds(string(out))
}

// ParseSeconds converts raw ffprobe duration output into whole seconds.
// Exported for testing without a real ffprobe binary.
func ParseSeconds(out string) (int, error) {
	s := strings.TrimSpace(out)
	if s == "" {
		return 0, fmt.Errorf("empty ffprobe output")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	if f < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	return int(f), nil
}
