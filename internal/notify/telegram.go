// Package notify sends an out-of-band completion notice for unattended
// campaign runs.
package notify

import (
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Kuruzyy/excelwablaster/internal/metrics"
)

// Telegram posts the run summary to a Telegram chat when a campaign ends.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger *slog.Logger
}

type TelegramConfig struct {
	Token  string
	ChatID int64
	Logger *slog.Logger
}

func NewTelegram(cfg TelegramConfig) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	cfg.Logger.Info("telegram notifier connected", "username", bot.Self.UserName)
	return &Telegram{bot: bot, chatID: cfg.ChatID, logger: cfg.Logger}, nil
}

// CampaignFinished sends the final counters. Failures are logged and
// returned; the caller treats them as non-fatal.
func (t *Telegram) CampaignFinished(workbook string, sum metrics.Summary) error {
	text := fmt.Sprintf(
		"Campaign finished (%s)\nsent: %d\ninvalid: %d\nretried: %d\nskipped: %d\nelapsed: %s",
		workbook, sum.Sent, sum.Invalid, sum.Retried, sum.Skipped, sum.Elapsed,
	)
	msg := tgbotapi.NewMessage(t.chatID, text)
	if _, err := t.bot.Send(msg); err != nil {
		t.logger.Warn("completion notice failed", "err", err)
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}
