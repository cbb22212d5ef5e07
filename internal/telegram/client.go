// Package telegram moves files and messages between the service and the Telegram Bot API.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/memohai/mediaconv/internal/media"
)

const (
	DefaultRequestTimeout  = 30 * time.Second
	DefaultDownloadTimeout = 60 * time.Second

	telegramMaxMessageLength = 4096
)

// Options configures a Client.
type Options struct {
	Token string
	// APIEndpoint is a tgbotapi endpoint format, e.g. "https://api.telegram.org/bot%s/%s".
	APIEndpoint string
	// FileEndpoint is the download endpoint format, e.g. "https://api.telegram.org/file/bot%s/%s".
	FileEndpoint    string
	RequestTimeout  time.Duration
	DownloadTimeout time.Duration
	// Keyboard holds the reply keyboard rows attached to help messages.
	Keyboard [][]string
}

// DownloadedFile is an attachment copied to local disk.
type DownloadedFile struct {
	Path string
	Size int64
	Mime string
}

// Client implements file transfer and replies on top of tgbotapi.
type Client struct {
	logger          *slog.Logger
	bot             *tgbotapi.BotAPI
	http            *http.Client
	fileEndpoint    string
	downloadTimeout time.Duration
	keyboard        [][]string
}

// NewClient authenticates against the Bot API (getMe) and returns a ready client.
func NewClient(log *slog.Logger, opts Options) (*Client, error) {
	if log == nil {
		log = slog.Default()
	}
	token := strings.TrimSpace(opts.Token)
	if token == "" {
		return nil, fmt.Errorf("telegram bot token is required")
	}
	apiEndpoint := strings.TrimSpace(opts.APIEndpoint)
	if apiEndpoint == "" {
		apiEndpoint = tgbotapi.APIEndpoint
	}
	fileEndpoint := strings.TrimSpace(opts.FileEndpoint)
	if fileEndpoint == "" {
		fileEndpoint = tgbotapi.FileEndpoint
	}
	requestTimeout := opts.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = DefaultRequestTimeout
	}
	downloadTimeout := opts.DownloadTimeout
	if downloadTimeout <= 0 {
		downloadTimeout = DefaultDownloadTimeout
	}
	logger := log.With(slog.String("component", "telegram"))
	_ = tgbotapi.SetLogger(&slogBotLogger{log: logger})

	httpClient := &http.Client{Timeout: requestTimeout}
	bot, err := tgbotapi.NewBotAPIWithClient(token, apiEndpoint, httpClient)
	if err != nil {
		reason := redact(err, token)
		logger.Error("create bot failed", slog.String("error", reason))
		return nil, fmt.Errorf("%w: create telegram bot: %s", ErrTransport, reason)
	}
	logger.Info("authorized", slog.String("username", bot.Self.UserName))
	return &Client{
		logger:          logger,
		bot:             bot,
		http:            &http.Client{},
		fileEndpoint:    fileEndpoint,
		downloadTimeout: downloadTimeout,
		keyboard:        opts.Keyboard,
	}, nil
}

// Bot exposes the underlying API client for webhook management.
func (c *Client) Bot() *tgbotapi.BotAPI {
	return c.bot
}

// Download fetches the attachment into dir. The size limit is enforced from the
// reported size, then from getFile, then from Content-Length and finally on the
// stream itself, so oversized files are rejected as early as the API allows.
func (c *Client) Download(ctx context.Context, att media.Attachment, dir string, maxBytes int64) (DownloadedFile, error) {
	fileID := strings.TrimSpace(att.FileID)
	if fileID == "" {
		return DownloadedFile{}, fmt.Errorf("%w: file id is required", ErrFileNotFound)
	}
	if exceeds(att.Size, maxBytes) {
		return DownloadedFile{}, fmt.Errorf("%w: reported %d bytes, max %d", media.ErrSizeExceeded, att.Size, maxBytes)
	}
	if err := ctx.Err(); err != nil {
		return DownloadedFile{}, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	file, err := c.bot.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return DownloadedFile{}, classifyGetFileError(err, c.bot.Token)
	}
	if exceeds(int64(file.FileSize), maxBytes) {
		return DownloadedFile{}, fmt.Errorf("%w: %d bytes, max %d", media.ErrSizeExceeded, file.FileSize, maxBytes)
	}
	if strings.TrimSpace(file.FilePath) == "" {
		return DownloadedFile{}, fmt.Errorf("%w: empty file path", ErrFileNotFound)
	}

	dlCtx, cancel := context.WithTimeout(ctx, c.downloadTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(dlCtx, http.MethodGet, c.fileURL(file.FilePath), nil)
	if err != nil {
		return DownloadedFile{}, fmt.Errorf("%w: build download request: %v", ErrTransport, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return DownloadedFile{}, fmt.Errorf("%w: download attachment: %s", ErrTransport, redact(err, c.bot.Token))
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return DownloadedFile{}, fmt.Errorf("%w: download status %d", ErrFileNotFound, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return DownloadedFile{}, fmt.Errorf("%w: download status %d", ErrTransport, resp.StatusCode)
	}
	if exceeds(resp.ContentLength, maxBytes) {
		return DownloadedFile{}, fmt.Errorf("%w: content length %d, max %d", media.ErrSizeExceeded, resp.ContentLength, maxBytes)
	}

	localPath := filepath.Join(dir, "input"+strings.ToLower(filepath.Ext(file.FilePath)))
	size, err := writeFile(localPath, resp.Body, maxBytes)
	if err != nil {
		_ = os.Remove(localPath)
		if errors.Is(err, media.ErrSizeExceeded) {
			return DownloadedFile{}, err
		}
		return DownloadedFile{}, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	mime := strings.TrimSpace(att.MimeType)
	if detected, err := mimetype.DetectFile(localPath); err == nil {
		mime = detected.String()
	}
	c.logger.Debug("downloaded", slog.String("file_id", fileID), slog.Int64("size", size), slog.String("mime", mime))
	return DownloadedFile{Path: localPath, Size: size, Mime: mime}, nil
}

// Upload sends a conversion result to the chat as a voice note or an audio file.
func (c *Client) Upload(ctx context.Context, chatID int64, result media.ConversionResult, replyTo int) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	f, err := os.Open(result.Path)
	if err != nil {
		return fmt.Errorf("open result: %w", err)
	}
	defer f.Close()

	preset := result.Kind.Preset()
	var msg tgbotapi.Chattable
	switch result.Kind.UploadAs() {
	case media.UploadVoice:
		voice := tgbotapi.NewVoice(chatID, tgbotapi.FileReader{Name: "voice" + preset.Extension, Reader: f})
		voice.ReplyToMessageID = replyTo
		msg = voice
	case media.UploadAudio:
		audio := tgbotapi.NewAudio(chatID, tgbotapi.FileReader{Name: "audio" + preset.Extension, Reader: f})
		audio.ReplyToMessageID = replyTo
		msg = audio
	default:
		return fmt.Errorf("unsupported upload type for %s", result.Kind)
	}
	resp, err := c.bot.Request(msg)
	if err := classifySendError(resp, err, c.bot.Token); err != nil {
		c.logger.Warn("upload failed", slog.Int64("chat_id", chatID), slog.Any("error", err))
		return err
	}
	return nil
}

// SendText sends a plain text reply.
func (c *Client) SendText(ctx context.Context, chatID int64, text string, replyTo int) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	message := tgbotapi.NewMessage(chatID, truncateTelegramText(text))
	if replyTo > 0 {
		message.ReplyToMessageID = replyTo
	}
	resp, err := c.bot.Request(message)
	return classifySendError(resp, err, c.bot.Token)
}

// SendHelp sends text together with the mode keyboard.
func (c *Client) SendHelp(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	message := tgbotapi.NewMessage(chatID, truncateTelegramText(text))
	if markup, ok := buildKeyboard(c.keyboard); ok {
		message.ReplyMarkup = markup
	}
	resp, err := c.bot.Request(message)
	return classifySendError(resp, err, c.bot.Token)
}

// ChatAction shows a transient status such as "upload_voice". Best effort.
func (c *Client) ChatAction(ctx context.Context, chatID int64, action string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := c.bot.Request(tgbotapi.NewChatAction(chatID, action)); err != nil {
		return fmt.Errorf("%w: chat action: %s", ErrTransport, redact(err, c.bot.Token))
	}
	return nil
}

func (c *Client) fileURL(filePath string) string {
	return fmt.Sprintf(c.fileEndpoint, c.bot.Token, filePath)
}

func exceeds(size, maxBytes int64) bool {
	return maxBytes > 0 && size > maxBytes
}

func writeFile(path string, body io.Reader, maxBytes int64) (int64, error) {
	out, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return 0, fmt.Errorf("create local file: %w", err)
	}
	var written int64
	if maxBytes > 0 {
		written, err = media.CopyWithLimit(out, body, maxBytes)
	} else {
		written, err = io.Copy(out, body)
	}
	if closeErr := out.Close(); err == nil && closeErr != nil {
		err = closeErr
	}
	return written, err
}

// truncateTelegramText keeps text within the Bot API message length.
func truncateTelegramText(text string) string {
	runes := []rune(text)
	if len(runes) <= telegramMaxMessageLength {
		return text
	}
	return string(runes[:telegramMaxMessageLength-3]) + "..."
}

type slogBotLogger struct {
	log *slog.Logger
}

func (l *slogBotLogger) Println(v ...interface{}) {
	l.log.Debug(strings.TrimSpace(fmt.Sprintln(v...)))
}

func (l *slogBotLogger) Printf(format string, v ...interface{}) {
	l.log.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)))
}
