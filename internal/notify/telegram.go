package notify

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/supervision/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// Sender is the part of *bot.Bot the notifier uses
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// UserLookup resolves the Telegram chat of a user
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
}

// TelegramNotifier sends events to users who linked a Telegram account.
type TelegramNotifier struct {
	sender Sender
	users  UserLookup
	logger *zap.Logger
}

func NewTelegramNotifier(sender Sender, users UserLookup, logger *zap.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		sender: sender,
		users:  users,
		logger: logger,
	}
}

func (n *TelegramNotifier) Notify(ctx context.Context, userID int64, ev Event) error {
	user, err := n.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}

	// Telegram не привязан - молча пропускаем
	if user.TelegramID == nil {
		n.logger.Debug("Telegram not linked, skipping notification",
			zap.Int64("user_id", userID),
			zap.String("event", string(ev.Type)))
		return nil
	}

	_, err = n.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    *user.TelegramID,
		Text:      FormatMessage(ev),
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}
