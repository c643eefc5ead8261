// Package bot implements the Telegram command surface and the publish
// sink of the pipeline.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"cartoon_bot/internal/config"
	"cartoon_bot/internal/pipeline"
	"cartoon_bot/internal/storage"
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// PlaylistSource enumerates a playlist URL into pipeline items.
type PlaylistSource interface {
	Playlist(ctx context.Context, url string) ([]pipeline.Item, error)
}

// Bot is the Telegram bot that handles owner commands, publishes videos,
// and reports pipeline progress.
type Bot struct {
	api    telegramAPI
	store  storage.Storage
	cfg    *config.Config
	runner *pipeline.Runner
	source PlaylistSource
	log    *slog.Logger

	mu           sync.Mutex
	pendingThumb string      // series awaiting a thumbnail photo
	collect      *collection // armed forward collection, if any
}

// collection buffers forwarded video messages for one series until /go.
type collection struct {
	series string
	items  []pipeline.Item
	msgIDs map[string]int // item key -> source message id, for ordering
}

// New creates a Bot with the given Telegram token, storage, and config.
// The pipeline runner is attached separately via SetRunner.
func New(token string, store storage.Storage, cfg *config.Config, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	return &Bot{
		api:   api,
		store: store,
		cfg:   cfg,
		log:   log,
	}, nil
}

// SetRunner attaches the pipeline runner and the playlist source. The
// bot is itself the runner's sink and notifier, so the two are wired
// after construction.
func (b *Bot) SetRunner(r *pipeline.Runner, src PlaylistSource) {
	b.runner = r
	b.source = src
}

// Run starts the bot's long-polling loop, blocking until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update := <-updates:
			if update.CallbackQuery != nil {
				if b.cfg.IsOwner(update.CallbackQuery.From.ID) {
					b.handleCallback(ctx, update.CallbackQuery)
				}
				continue
			}
			if update.Message == nil {
				continue
			}
			if !b.cfg.IsOwner(update.Message.From.ID) {
				b.reply(update.Message.Chat.ID, "⛔ Unauthorized. This is a private bot.")
				continue
			}
			if update.Message.IsCommand() {
				b.handleCommand(ctx, update.Message)
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

// SendMessage sends a text message to the given chat.
func (b *Bot) SendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send message", "chat_id", chatID, "error", err)
	}
}

// Notify implements pipeline.Notifier: progress goes to the owner chat.
func (b *Bot) Notify(text string) {
	b.SendMessage(b.cfg.OwnerID, text)
}

func (b *Bot) reply(chatID int64, text string) {
	b.SendMessage(chatID, text)
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	cmd := msg.Command()
	args := strings.TrimSpace(msg.CommandArguments())
	chatID := msg.Chat.ID

	b.log.Debug("command", "cmd", cmd, "args", args, "chat_id", chatID)

	switch cmd {
	case "start":
		b.handleStart(chatID)
	case "help":
		b.handleHelp(chatID)
	case "add":
		b.handleAdd(ctx, chatID, args)
	case "list":
		b.handleList(ctx, chatID)
	case "info":
		b.handleInfo(ctx, chatID, args)
	case cmdRemove:
		b.handleRemove(ctx, chatID, args)
	case "setthumb":
		b.handleSetThumb(ctx, chatID, args)
	case "download":
		b.handleDownload(ctx, chatID, args)
	case "forward":
		b.handleForward(ctx, chatID, args)
	case "go":
		b.handleGo(ctx, chatID, args)
	case "cancel":
		b.handleCancel(chatID)
	case "stop":
		b.handleStop(chatID)
	case "status":
		b.handleStatus(ctx, chatID)
	case "watch":
		b.handleWatch(ctx, chatID, args)
	case "unwatch":
		b.handleUnwatch(ctx, chatID, args)
	case "watches":
		b.handleWatches(ctx, chatID)
	default:
		b.reply(chatID, "Unknown command. Use /help for a list of commands.")
	}
}

// handleMessage routes non-command messages: thumbnail photos and
// forwarded videos being collected for a /forward run.
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if len(msg.Photo) > 0 {
		b.handleThumbPhoto(ctx, msg)
		return
	}
	if fileID, duration, ok := videoAttachment(msg); ok {
		b.collectForwarded(msg, fileID, duration)
		return
	}
}

// videoAttachment extracts a video file reference from a message, either
// a native video or a document with a video MIME type.
func videoAttachment(msg *tgbotapi.Message) (fileID string, duration int, ok bool) {
	if msg.Video != nil {
		return msg.Video.FileID, msg.Video.Duration, true
	}
	if msg.Document != nil && strings.HasPrefix(msg.Document.MimeType, "video/") {
		return msg.Document.FileID, 0, true
	}
	return "", 0, false
}

func (b *Bot) collectForwarded(msg *tgbotapi.Message, fileID string, duration int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.collect == nil {
		return
	}
	if msg.ForwardFromChat == nil {
		b.SendMessage(msg.Chat.ID, "Forward videos from the source channel (not direct uploads).")
		return
	}

	key := forwardKey(msg.ForwardFromChat.ID, msg.ForwardFromMessageID)
	if _, dup := b.collect.msgIDs[key]; dup {
		return
	}
	b.collect.items = append(b.collect.items, pipeline.Item{
		Key:      key,
		Title:    msg.Caption,
		FileRef:  fileID,
		Duration: duration,
	})
	b.collect.msgIDs[key] = msg.ForwardFromMessageID

	if len(b.collect.items) == 1 {
		b.SendMessage(msg.Chat.ID, fmt.Sprintf("Collecting videos for \"%s\". Send /go when done, /cancel to abort.", b.collect.series))
	} else if len(b.collect.items)%10 == 0 {
		b.SendMessage(msg.Chat.ID, fmt.Sprintf("Collected %d videos so far.", len(b.collect.items)))
	}
}

// takeCollection returns the armed collection's items ordered by source
// message id and disarms the collector.
func (b *Bot) takeCollection() (string, []pipeline.Item) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.collect == nil {
		return "", nil
	}
	c := b.collect
	b.collect = nil

	sort.SliceStable(c.items, func(i, j int) bool {
		return c.msgIDs[c.items[i].Key] < c.msgIDs[c.items[j].Key]
	})
	return c.series, c.items
}

// forwardKey is the dedup key for forward-sourced items.
func forwardKey(chatID int64, messageID int) string {
	return fmt.Sprintf("%d:%d", chatID, messageID)
}
