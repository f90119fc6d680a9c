package handlers

import (
	"context"

	"github.com/Freeeeeet/supervision/internal/model"
	"github.com/Freeeeeet/supervision/internal/storage"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

const notLinkedText = "❌ This Telegram account is not linked to a platform user."

// lookupUser резолвит пользователя платформы по Telegram ID; nil если не привязан
func (h *Handlers) lookupUser(ctx context.Context, telegramID int64) (*model.User, error) {
	user, err := h.store.Users().GetByTelegramID(ctx, telegramID)
	if storage.IsNotFound(err) {
		return nil, nil
	}
	return user, err
}

// requireUser проверяет что Telegram аккаунт привязан
// Возвращает user и true если OK, nil и false если нет
func (h *Handlers) requireUser(ctx context.Context, b *bot.Bot, update *models.Update) (*model.User, bool) {
	if update.Message == nil || update.Message.From == nil {
		return nil, false
	}

	telegramID := update.Message.From.ID
	user, err := h.lookupUser(ctx, telegramID)
	if err != nil {
		h.logger.Error("Failed to get user", zap.Int64("telegram_id", telegramID), zap.Error(err))
		h.sendMessage(ctx, b, update.Message.Chat.ID, failureText)
		return nil, false
	}

	if user == nil {
		h.sendMessage(ctx, b, update.Message.Chat.ID, notLinkedText)
		return nil, false
	}

	return user, true
}
