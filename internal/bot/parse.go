package bot

import (
	"fmt"
	"strconv"
	"strings"

	"cartoon_bot/internal/pipeline"
)

// ParseAddArgs parses "/add <name...> <channel>" where the channel is the
// last token and must be an @username or a -100... chat id.
func ParseAddArgs(args string) (name, channel string, err error) {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		return "", "", fmt.Errorf("usage: /add <name> <@channel or -100...>")
	}
	channel = fields[len(fields)-1]
	if !strings.HasPrefix(channel, "@") && !strings.HasPrefix(channel, "-100") {
		return "", "", fmt.Errorf("channel must start with @ or -100")
	}
	name = strings.Join(fields[:len(fields)-1], " ")
	return name, channel, nil
}

// DownloadArgs holds the parsed arguments of /download.
type DownloadArgs struct {
	URL    string
	Series string
	Opts   pipeline.Options
}

// ParseDownloadArgs parses "/download <playlist_url> [flags] <series name>".
// Flags: -e start[-end], -season N, -lang <language>.
func ParseDownloadArgs(args string) (DownloadArgs, error) {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		return DownloadArgs{}, fmt.Errorf("usage: /download <playlist_url> [-e start[-end]] [-season N] [-lang L] <series name>")
	}

	url := fields[0]
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return DownloadArgs{}, fmt.Errorf("invalid playlist URL %q", url)
	}

	opts, rest, err := parseRunFlags(fields[1:])
	if err != nil {
		return DownloadArgs{}, err
	}
	if len(rest) == 0 {
		return DownloadArgs{}, fmt.Errorf("series name is required")
	}

	return DownloadArgs{
		URL:    url,
		Series: strings.Join(rest, " "),
		Opts:   opts,
	}, nil
}

// ParseGoArgs parses the optional flags of /go: -e start[-end],
// -season N, -lang <language>.
func ParseGoArgs(args string) (pipeline.Options, error) {
	opts, rest, err := parseRunFlags(strings.Fields(args))
	if err != nil {
		return pipeline.Options{}, err
	}
	if len(rest) > 0 {
		return pipeline.Options{}, fmt.Errorf("unexpected argument %q", rest[0])
	}
	return opts, nil
}

// parseRunFlags consumes leading run flags and returns the remaining
// fields untouched.
func parseRunFlags(fields []string) (pipeline.Options, []string, error) {
	var opts pipeline.Options
	for len(fields) > 0 {
		switch fields[0] {
		case "-e":
			if len(fields) < 2 {
				return opts, nil, fmt.Errorf("-e requires a value, e.g. -e 5-8")
			}
			start, end, err := parseRange(fields[1])
			if err != nil {
				return opts, nil, err
			}
			opts.EpisodeStart, opts.EpisodeEnd = start, end
			fields = fields[2:]
		case "-season":
			if len(fields) < 2 {
				return opts, nil, fmt.Errorf("-season requires a number")
			}
			season, err := strconv.Atoi(fields[1])
			if err != nil || season < 1 || season > 99 {
				return opts, nil, fmt.Errorf("season must be between 1 and 99")
			}
			opts.Season = season
			fields = fields[2:]
		case "-lang":
			if len(fields) < 2 {
				return opts, nil, fmt.Errorf("-lang requires a value")
			}
			opts.AudioLang = fields[1]
			fields = fields[2:]
		default:
			return opts, fields, nil
		}
	}
	return opts, nil, nil
}

// parseRange parses "5", "5-" or "5-8" into 1-indexed start and
// inclusive end (0 = to the end).
func parseRange(s string) (start, end int, err error) {
	left, right, hasEnd := strings.Cut(s, "-")
	start, err = strconv.Atoi(left)
	if err != nil || start < 1 {
		return 0, 0, fmt.Errorf("invalid range %q", s)
	}
	if !hasEnd || right == "" {
		return start, 0, nil
	}
	end, err = strconv.Atoi(right)
	if err != nil || end < start {
		return 0, 0, fmt.Errorf("invalid range %q", s)
	}
	return start, end, nil
}

// WatchArgs holds the parsed arguments of /watch.
type WatchArgs struct {
	FeedURL  string
	Series   string
	Interval int
}

// ParseWatchArgs parses "/watch <channel-id|playlist-id|feed_url> [-i minutes] <series name>".
func ParseWatchArgs(args string) (WatchArgs, error) {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		return WatchArgs{}, fmt.Errorf("usage: /watch <UC channel id, PL playlist id or feed URL> [-i minutes] <series name>")
	}

	feedURL, err := resolveFeedURL(fields[0])
	if err != nil {
		return WatchArgs{}, err
	}

	interval := 60
	rest := fields[1:]
	if len(rest) >= 2 && rest[0] == "-i" {
		interval, err = strconv.Atoi(rest[1])
		if err != nil || interval < 5 || interval > 1440 {
			return WatchArgs{}, fmt.Errorf("interval must be between 5 and 1440 minutes")
		}
		rest = rest[2:]
	}
	if len(rest) == 0 {
		return WatchArgs{}, fmt.Errorf("series name is required")
	}

	return WatchArgs{
		FeedURL:  feedURL,
		Series:   strings.Join(rest, " "),
		Interval: interval,
	}, nil
}

// resolveFeedURL maps a YouTube channel id (UC...) or playlist id (PL...)
// to its Atom feed URL; full URLs pass through.
func resolveFeedURL(s string) (string, error) {
	switch {
	case strings.HasPrefix(s, "http://"), strings.HasPrefix(s, "https://"):
		return s, nil
	case strings.HasPrefix(s, "UC"):
		return "https://www.youtube.com/feeds/videos.xml?channel_id=" + s, nil
	case strings.HasPrefix(s, "PL"):
		return "https://www.youtube.com/feeds/videos.xml?playlist_id=" + s, nil
	default:
		return "", fmt.Errorf("cannot resolve %q to a feed URL", s)
	}
}

// ParseIDArg extracts a numeric ID from a command argument string.
func ParseIDArg(args string) (int64, error) {
	s := strings.TrimSpace(args)
	if s == "" {
		return 0, fmt.Errorf("ID is required")
	}
	id, err := strconv.ParseInt(strings.Fields(s)[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid ID %q", s)
	}
	return id, nil
}
