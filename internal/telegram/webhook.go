package telegram

import (
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// SecretHeader carries the webhook secret on every delivery.
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// RegisterWebhook points Telegram at url. setWebhook is sent as a raw request
// because secret_token is not part of tgbotapi.WebhookConfig.
func (c *Client) RegisterWebhook(url, secret string, dropPending bool) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return fmt.Errorf("webhook url is required")
	}
	params := tgbotapi.Params{}
	params.AddNonEmpty("url", url)
	params.AddNonEmpty("secret_token", strings.TrimSpace(secret))
	params.AddNonEmpty("allowed_updates", `["message"]`)
	params.AddBool("drop_pending_updates", dropPending)
	if _, err := c.bot.MakeRequest("setWebhook", params); err != nil {
		return fmt.Errorf("%w: set webhook: %s", ErrTransport, redact(err, c.bot.Token))
	}
	c.logger.Info("webhook registered", slog.String("url", url), slog.Bool("secret", secret != ""))
	return nil
}

// DeleteWebhook removes the webhook registration.
func (c *Client) DeleteWebhook(dropPending bool) error {
	if _, err := c.bot.Request(tgbotapi.DeleteWebhookConfig{DropPendingUpdates: dropPending}); err != nil {
		return fmt.Errorf("%w: delete webhook: %s", ErrTransport, redact(err, c.bot.Token))
	}
	c.logger.Info("webhook deleted")
	return nil
}

// WebhookInfo returns the current registration as reported by Telegram.
func (c *Client) WebhookInfo() (tgbotapi.WebhookInfo, error) {
	info, err := c.bot.GetWebhookInfo()
	if err != nil {
		return tgbotapi.WebhookInfo{}, fmt.Errorf("%w: get webhook info: %s", ErrTransport, redact(err, c.bot.Token))
	}
	return info, nil
}
