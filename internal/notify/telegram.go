package notify

import (
	"context"
	"net/http"
	"time"

	tele "gopkg.in/telebot.v4"
)

// TelegramChannel pushes alerts to a single chat through a bot token.
// Send-only: no poller is started.
type TelegramChannel struct {
	bot    *tele.Bot
	chatID int64
}

func NewTelegram(token string, chatID int64) (*TelegramChannel, error) {
	b, err := tele.NewBot(tele.Settings{
		Token:  token,
		Client: &http.Client{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, err
	}
	return &TelegramChannel{bot: b, chatID: chatID}, nil
}

func (c *TelegramChannel) Name() string { return "telegram" }

func (c *TelegramChannel) Send(ctx context.Context, title, body string) error {
	_ = ctx // telebot bounds the call via its HTTP client timeout

	text := title
	if body != "" {
		text += "\n\n" + body
	}
	_, err := c.bot.Send(&tele.Chat{ID: c.chatID}, text, &tele.SendOptions{DisableWebPagePreview: true})
	return err
}
