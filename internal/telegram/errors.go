package telegram

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/memohai/mediaconv/internal/media"
)

var (
	// ErrFileNotFound indicates the platform does not know the referenced file.
	ErrFileNotFound = errors.New("telegram file not found")
	// ErrTransport indicates a network or API failure talking to Telegram.
	ErrTransport = errors.New("telegram transport error")
	// ErrPayloadRejected indicates Telegram refused the uploaded file.
	ErrPayloadRejected = errors.New("telegram rejected payload")
)

const redactedToken = "<redacted>"

func asAPIError(err error) (*tgbotapi.Error, bool) {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) && apiErr != nil {
		return apiErr, true
	}
	var valueErr tgbotapi.Error
	if errors.As(err, &valueErr) {
		return &valueErr, true
	}
	return nil, false
}

// redact renders err without the bot token. Bot API URLs embed the token,
// so url.Error values lose their URL and any other occurrence is masked.
func redact(err error, token string) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		msg = fmt.Sprintf("%s request: %v", strings.ToLower(urlErr.Op), urlErr.Err)
	}
	if token != "" {
		msg = strings.ReplaceAll(msg, token, redactedToken)
	}
	return msg
}

// classifyGetFileError maps getFile failures onto download errors. Telegram
// answers "file is too big" for files over the Bot API download ceiling.
func classifyGetFileError(err error, token string) error {
	if apiErr, ok := asAPIError(err); ok {
		if strings.Contains(strings.ToLower(apiErr.Message), "file is too big") {
			return fmt.Errorf("%w: %s", media.ErrSizeExceeded, apiErr.Message)
		}
		if apiErr.Code == 400 || apiErr.Code == 404 {
			return fmt.Errorf("%w: %s", ErrFileNotFound, apiErr.Message)
		}
	}
	return fmt.Errorf("%w: get file: %s", ErrTransport, redact(err, token))
}

// classifySendError maps send failures. Uploads report the API error code
// only on the response, so resp is consulted when the error carries none.
func classifySendError(resp *tgbotapi.APIResponse, err error, token string) error {
	if err == nil {
		return nil
	}
	if apiErr, ok := asAPIError(err); ok {
		code := apiErr.Code
		if code == 0 && resp != nil {
			code = resp.ErrorCode
		}
		if code == 400 || code == 413 {
			return fmt.Errorf("%w: %s", ErrPayloadRejected, apiErr.Message)
		}
	}
	return fmt.Errorf("%w: %s", ErrTransport, redact(err, token))
}
