package notify

import (
	"strings"
	"time"

	"slotwatch/internal/config"
	logx "slotwatch/pkg/logx"
)

const channelTimeout = 10 * time.Second

// ChannelsFromConfig builds the channel set for the configured destinations.
// A malformed destination is an error: better to refuse startup than to
// silently watch with a dead channel.
func ChannelsFromConfig(cfg config.NotifyConfig, log logx.Logger) ([]Channel, error) {
	var out []Channel

	if u := strings.TrimSpace(cfg.DiscordWebhookURL); u != "" {
		su, err := DiscordServiceURL(u)
		if err != nil {
			return nil, err
		}
		ch, err := NewShoutrrr("discord", su, channelTimeout)
		if err != nil {
			return nil, err
		}
		out = append(out, ch)
		log.Info("discord channel configured")
	}

	if u := strings.TrimSpace(cfg.SlackWebhookURL); u != "" {
		su, err := SlackServiceURL(u)
		if err != nil {
			return nil, err
		}
		ch, err := NewShoutrrr("slack", su, channelTimeout)
		if err != nil {
			return nil, err
		}
		out = append(out, ch)
		log.Info("slack channel configured")
	}

	if e := cfg.Email; e != nil {
		su, err := SMTPServiceURL(e.SMTPHost, e.SMTPPort, e.Username, e.Password, e.From, e.Recipients)
		if err != nil {
			return nil, err
		}
		ch, err := NewShoutrrr("email", su, channelTimeout)
		if err != nil {
			return nil, err
		}
		out = append(out, ch)
		log.Info("email channel configured", logx.Int("recipients", len(e.Recipients)))
	}

	if t := cfg.Telegram; t != nil {
		ch, err := NewTelegram(t.Token, t.ChatID)
		if err != nil {
			return nil, err
		}
		out = append(out, ch)
		log.Info("telegram channel configured", logx.Int64("chat_id", t.ChatID))
	}

	return out, nil
}
