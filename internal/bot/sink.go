package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"cartoon_bot/internal/pipeline"
)

const publishAttempts = 3

// PublishVideo implements pipeline.Sink: it sends media to a destination
// channel with a caption and optional thumbnail, retrying a fixed number
// of times with a fixed delay.
func (b *Bot) PublishVideo(ctx context.Context, channel string, media pipeline.Media, caption, thumbFileID string) error {
	video := tgbotapi.VideoConfig{
		BaseFile: tgbotapi.BaseFile{
			BaseChat: chatTarget(channel),
			File:     mediaFile(media),
		},
		Caption:           caption,
		Duration:          media.Duration,
		SupportsStreaming: true,
	}
	if thumbFileID != "" {
		video.Thumb = tgbotapi.FileID(thumbFileID)
	}

	err := retry.Do(
		func() error {
			if err := ctx.Err(); err != nil {
				return retry.Unrecoverable(err)
			}
			_, err := b.api.Send(video)
			return err
		},
		retry.Attempts(publishAttempts),
		retry.Delay(2*time.Second),
		retry.DelayType(retry.FixedDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return fmt.Errorf("send video to %s: %w", channel, err)
	}
	return nil
}

// mediaFile maps pipeline media to a Telegram upload: local files are
// uploaded, forward-sourced references reuse the existing file id.
func mediaFile(media pipeline.Media) tgbotapi.RequestFileData {
	if media.LocalPath != "" {
		return tgbotapi.FilePath(media.LocalPath)
	}
	return tgbotapi.FileID(media.FileRef)
}

// chatTarget resolves a destination channel: "@username" channels go by
// username, anything else must be a numeric chat id.
func chatTarget(channel string) tgbotapi.BaseChat {
	if strings.HasPrefix(channel, "@") {
		return tgbotapi.BaseChat{ChannelUsername: channel}
	}
	id, err := strconv.ParseInt(channel, 10, 64)
	if err != nil {
		// Left unparsed; Telegram rejects the send and the pipeline
		// counts it as a publish failure.
		return tgbotapi.BaseChat{ChannelUsername: channel}
	}
	return tgbotapi.BaseChat{ChatID: id}
}
