package title

import (
	"fmt"
	"strings"
)

// qualityMarker is the fixed last caption line.
const qualityMarker = "🎞 Quality: HD"

// Caption holds the inputs of the published caption.
type Caption struct {
	Episode   string // zero-padded label
	Season    int
	Title     string
	Series    string
	Duration  string // formatted, or "Unknown"
	AudioLang string // optional
}

// BuildCaption renders the caption published with every episode. The line
// order and presence rules are a wire contract: header (season shown only
// when above 1), series, title, duration, optional audio language, and
// the quality marker.
func BuildCaption(c Caption) string {
	var b strings.Builder
	if c.Season > 1 {
		fmt.Fprintf(&b, "🎬 Season %d, Episode %s\n", c.Season, c.Episode)
	} else {
		fmt.Fprintf(&b, "🎬 Episode %s\n", c.Episode)
	}
	fmt.Fprintf(&b, "📺 Series: %s\n", c.Series)
	fmt.Fprintf(&b, "📝 Title: %s\n", c.Title)
	fmt.Fprintf(&b, "🕒 Duration: %s\n", c.Duration)
	if c.AudioLang != "" {
		fmt.Fprintf(&b, "🔊 Audio: %s\n", c.AudioLang)
	}
	b.WriteString(qualityMarker)
	return b.String()
}

// FormatDuration renders a duration in whole minutes with a floor of one
// minute; non-positive durations render as "Unknown".
func FormatDuration(seconds int) string {
	if seconds <= 0 {
		return "Unknown"
	}
	minutes := seconds / 60
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Sprintf("%d min", minutes)
}
