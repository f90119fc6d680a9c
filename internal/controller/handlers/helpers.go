package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/Freeeeeet/supervision/internal/service"
	"github.com/go-telegram/bot"
	"go.uber.org/zap"
)

const failureText = "❌ Something went wrong. Please try again later."

var errUsage = errors.New("usage")

// sendMessage отправляет сообщение и логирует если не удалось
func (h *Handlers) sendMessage(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		h.logger.Error("Failed to send message",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
}

// splitCommand разбирает "/cmd 12 free text" на id и остаток
func splitCommand(text string) (int64, string, error) {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return 0, "", errUsage
	}
	id, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil || id <= 0 {
		return 0, "", errUsage
	}
	rest := strings.TrimSpace(strings.Join(fields[2:], " "))
	return id, rest, nil
}

// errorText переводит ошибку сервиса в ответ пользователю
func (h *Handlers) errorText(err error) string {
	if ve, ok := service.AsValidationError(err); ok {
		msgs := make([]string, 0, len(ve.Fields))
		for _, f := range ve.Fields {
			msgs = append(msgs, f.Message)
		}
		return "❌ " + strings.Join(msgs, "\n")
	}
	if errors.Is(err, service.ErrNotFound) {
		return "❌ Not found."
	}

	h.logger.Error("Command failed", zap.Error(err))
	return failureText
}
