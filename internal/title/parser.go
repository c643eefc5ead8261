// Package title extracts episode numbering from free-text video titles
// and assembles the caption published alongside each episode.
package title

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// PlaceholderTitle is used when a title is empty or unusable.
const PlaceholderTitle = "Cartoon"

// Result holds the outcome of parsing a raw title.
type Result struct {
	Episode string // zero-padded episode label, minimum width 2
	Season  int
	Title   string // cleaned display title
}

// rule is one prioritized pattern. seasonIdx/episodeIdx are submatch
// indices; seasonIdx 0 means the rule carries no season (season 1).
type rule struct {
	re         *regexp.Regexp
	seasonIdx  int
	episodeIdx int
}

// Rules are evaluated in order; the first match wins. Combined
// season+episode forms rank above episode-only forms, which rank above
// the bare-integer fallback applied separately in Extract.
var rules = []rule{
	// S01E04, s1.e4, S01 E04
	{re: regexp.MustCompile(`(?i)\bS(\d{1,2})[\s._-]*E(\d{1,3})\b`), seasonIdx: 1, episodeIdx: 2},
	// Season 1 Episode 4
	{re: regexp.MustCompile(`(?i)\bSEASON[\s._-]*(\d{1,2})[\s._-]*EPISODE[\s._-]*(\d{1,3})\b`), seasonIdx: 1, episodeIdx: 2},
	// 1x04
	{re: regexp.MustCompile(`(?i)\b(\d{1,2})X(\d{1,3})\b`), seasonIdx: 1, episodeIdx: 2},
	// Episode 4, Ep 4, Ep.12, EP04
	{re: regexp.MustCompile(`(?i)\bEP(?:ISODE)?[\s._-]*(\d{1,3})\b`), episodeIdx: 1},
	// E4, E 04
	{re: regexp.MustCompile(`(?i)\bE[\s._]*(\d{1,3})\b`), episodeIdx: 1},
	// [4], (04), {4}
	{re: regexp.MustCompile(`[\[({]\s*0*(\d{1,3})\s*[\])}]`), episodeIdx: 1},
	// #4
	{re: regexp.MustCompile(`#0*(\d{1,3})\b`), episodeIdx: 1},
	// leading "4." or "4-"
	{re: regexp.MustCompile(`^\s*0*(\d{1,3})\s*[.\-]`), episodeIdx: 1},
	// "- 4 -" or trailing "- 4"
	{re: regexp.MustCompile(`-\s*0*(\d{1,3})\s*(?:-|$)`), episodeIdx: 1},
}

// bareNumber is the last-resort fallback: the first standalone integer in
// [1, 999] anywhere in the title.
var bareNumber = regexp.MustCompile(`\b(\d{1,3})\b`)

// denyList holds quality/codec/source/container tokens stripped from the
// cleaned title regardless of which rule matched.
var denyList = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b\d{3,4}P\b`),
	regexp.MustCompile(`(?i)\b(?:X26[45]|H\.?26[45]|HEVC|AVC|AAC|AC3|DDP?5\.1)\b`),
	regexp.MustCompile(`(?i)\b(?:WEB-?DL|WEB-?RIP|BLURAY|BLU-RAY|BRRIP|HDTV|HDRIP|DVDRIP)\b`),
	regexp.MustCompile(`(?i)\.(?:MP4|MKV|AVI|WEBM|MOV)$`),
}

var whitespace = regexp.MustCompile(`\s+`)

// Extract parses a raw title into an episode label, a season number, and
// a cleaned display title. It is pure and deterministic; empty input
// yields episode "01", season 1, and the placeholder title.
func Extract(raw string) Result {
	if strings.TrimSpace(raw) == "" {
		return Result{Episode: "01", Season: 1, Title: PlaceholderTitle}
	}

	for _, r := range rules {
		loc := r.re.FindStringSubmatchIndex(raw)
		if loc == nil {
			continue
		}
		season := 1
		if r.seasonIdx > 0 {
			season = number(raw, loc, r.seasonIdx)
			if season < 1 {
				season = 1
			}
		}
		episode := number(raw, loc, r.episodeIdx)
		if episode < 1 {
			episode = 1
		}
		return Result{
			Episode: Label(episode),
			Season:  season,
			Title:   cleanTitle(raw, loc[0], loc[1]),
		}
	}

	// Bare-integer fallback: first standalone number in [1, 999].
	for _, loc := range bareNumber.FindAllStringSubmatchIndex(raw, -1) {
		n, err := strconv.Atoi(raw[loc[2]:loc[3]])
		if err != nil || n < 1 || n > 999 {
			continue
		}
		return Result{
			Episode: Label(n),
			Season:  1,
			Title:   cleanTitle(raw, loc[0], loc[1]),
		}
	}

	return Result{Episode: "01", Season: 1, Title: cleanTitle(raw, -1, -1)}
}

// Label renders an episode number as zero-padded decimal with a minimum
// width of 2; wider numbers are never truncated.
func Label(episode int) string {
	return fmt.Sprintf("%02d", episode)
}

func number(s string, loc []int, idx int) int {
	start, end := loc[2*idx], loc[2*idx+1]
	if start < 0 {
		return 0
	}
	n, err := strconv.Atoi(s[start:end])
	if err != nil {
		return 0
	}
	return n
}

// cleanTitle strips the matched token at [start, end), removes deny-list
// tokens, normalizes separators, and falls back to the raw title when the
// result is shorter than 3 characters.
func cleanTitle(raw string, start, end int) string {
	s := raw
	if start >= 0 {
		s = s[:start] + " " + s[end:]
	}
	for _, re := range denyList {
		s = re.ReplaceAllString(s, " ")
	}
	s = whitespace.ReplaceAllString(s, " ")
	s = strings.Trim(s, "-._[]() \t")
	s = strings.NewReplacer(".", " ", "_", " ").Replace(s)
	s = strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
	if len([]rune(s)) < 3 {
		return raw
	}
	return s
}
