package telegram

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func buildKeyboard(rows [][]string) (tgbotapi.ReplyKeyboardMarkup, bool) {
	buttons := make([][]tgbotapi.KeyboardButton, 0, len(rows))
	for _, row := range rows {
		line := make([]tgbotapi.KeyboardButton, 0, len(row))
		for _, label := range row {
			if strings.TrimSpace(label) == "" {
				continue
			}
			line = append(line, tgbotapi.NewKeyboardButton(label))
		}
		if len(line) > 0 {
			buttons = append(buttons, line)
		}
	}
	if len(buttons) == 0 {
		return tgbotapi.ReplyKeyboardMarkup{}, false
	}
	markup := tgbotapi.NewReplyKeyboard(buttons...)
	markup.ResizeKeyboard = true
	return markup, true
}
