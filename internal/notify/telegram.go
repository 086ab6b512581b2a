package notify

import (
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/tqpictures/studio/models"
)

// Telegram pushes new-booking notices to the studio's chat. Nil when the
// bot token is not configured; all methods are nil-safe.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	log    *slog.Logger
}

func NewTelegram(token string, chatID int64, log *slog.Logger) (*Telegram, error) {
	if token == "" || chatID == 0 {
		return nil, nil
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("notify: telegram: %w", err)
	}
	return &Telegram{bot: bot, chatID: chatID, log: log}, nil
}

func (t *Telegram) BookingCreated(b *models.Booking) {
	if t == nil {
		return
	}
	text := fmt.Sprintf(
		"New booking request\n%s (%s, %s)\n%s at %s\n%s",
		b.FullName, b.Email, b.Phone, b.BookingDate, b.BookingTime, b.Reason,
	)
	if _, err := t.bot.Send(tgbotapi.NewMessage(t.chatID, text)); err != nil {
		t.log.Error("notify: telegram send", "booking_id", b.ID, "error", err)
	}
}
