// Package model defines the domain types used across the application.
package model

import "time"

// Series represents one managed destination series: a named group of
// episodes mapped to a single Telegram channel.
type Series struct {
	ID          int64
	Name        string
	Channel     string
	ThumbFileID string
	LastSeason  int
	LastEpisode int
	CreatedAt   time.Time
}

// Watch is an auto-sync subscription: a YouTube channel or playlist Atom
// feed checked on an interval, with new entries ingested into a series.
type Watch struct {
	ID              int64
	SeriesID        int64
	FeedURL         string
	IntervalMinutes int
	IsActive        bool
	LastCheckAt     *time.Time
	CreatedAt       time.Time
}

// ProcessedItem records that a source item has already been published for
// a series. SourceKey is the video URL for download-sourced items or
// "chatID:messageID" for forward-sourced items.
type ProcessedItem struct {
	SeriesID    int64
	SourceKey   string
	ProcessedAt time.Time
}
