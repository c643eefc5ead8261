// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Config holds the application configuration.
type Config struct {
	TelegramBotToken string
	OwnerID          int64
	DataDir          string
	DatabasePath     string
	DownloadDir      string
	VideoQuality     int
	MaxFileSizeMB    int
	LogLevel         string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	rawOwner := os.Getenv("OWNER_ID")
	if rawOwner == "" {
		return nil, fmt.Errorf("OWNER_ID is required")
	}
	ownerID, err := strconv.ParseInt(rawOwner, 10, 64)
	if err != nil || ownerID == 0 {
		return nil, fmt.Errorf("invalid OWNER_ID %q", rawOwner)
	}

	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "./data"
	}

	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = filepath.Join(dataDir, "bot.db")
	}

	quality := 720
	if raw := os.Getenv("VIDEO_QUALITY"); raw != "" {
		quality, err = strconv.Atoi(raw)
		if err != nil || quality < 144 || quality > 2160 {
			return nil, fmt.Errorf("invalid VIDEO_QUALITY %q", raw)
		}
	}

	maxSize := 2000
	if raw := os.Getenv("MAX_FILE_SIZE_MB"); raw != "" {
		maxSize, err = strconv.Atoi(raw)
		if err != nil || maxSize < 1 {
			return nil, fmt.Errorf("invalid MAX_FILE_SIZE_MB %q", raw)
		}
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	return &Config{
		TelegramBotToken: token,
		OwnerID:          ownerID,
		DataDir:          dataDir,
		DatabasePath:     dbPath,
		DownloadDir:      filepath.Join(dataDir, "downloads"),
		VideoQuality:     quality,
		MaxFileSizeMB:    maxSize,
		LogLevel:         logLevel,
	}, nil
}

// IsOwner checks whether a user ID is the bot owner.
func (c *Config) IsOwner(userID int64) bool {
	return userID == c.OwnerID
}
