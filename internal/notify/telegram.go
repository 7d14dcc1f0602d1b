// Package notify delivers operator alerts. The only transport is a
// send-only Telegram bot; it backs the logx alert sink.
package notify

import (
	"context"
	"errors"
	"strings"

	tele "gopkg.in/telebot.v4"
)

type Telegram struct {
	bot    *tele.Bot
	chatID int64
}

func NewTelegram(token string, chatID int64) (*Telegram, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if chatID == 0 {
		return nil, errors.New("telegram chat_id is required")
	}
	// Send-only: no poller, no handlers.
	b, err := tele.NewBot(tele.Settings{Token: token})
	if err != nil {
		return nil, err
	}
	return &Telegram{bot: b, chatID: chatID}, nil
}

// SendAlert implements logx.AlertSender. Rate limiting and drop-on-pressure
// happen in the logx sink; this just performs one delivery.
func (t *Telegram) SendAlert(ctx context.Context, msg string) error {
	_ = ctx // telebot manages its own request timeout
	_, err := t.bot.Send(tele.ChatID(t.chatID), msg, &tele.SendOptions{
		DisableWebPagePreview: true,
	})
	return err
}
