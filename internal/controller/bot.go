package controller

import (
	"context"

	"github.com/Freeeeeet/supervision/internal/controller/handlers"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

type BotController struct {
	bot      *bot.Bot
	handlers *handlers.Handlers
	logger   *zap.Logger
}

func NewBotController(botInstance *bot.Bot, cmdHandlers *handlers.Handlers, logger *zap.Logger) *BotController {
	return &BotController{
		bot:      botInstance,
		handlers: cmdHandlers,
		logger:   logger,
	}
}

// RegisterHandlers регистрирует все обработчики команд
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, c.handlers.HandleStart)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, c.handlers.HandleHelp)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/shortlist", bot.MatchTypeExact, c.handlers.HandleShortlist)

	// Решения по заявкам
	for _, cmd := range []string{"/cancelrequest", "/declineoffer", "/rejectrequest", "/offer"} {
		c.bot.RegisterHandler(bot.HandlerTypeMessageText, cmd, bot.MatchTypePrefix, c.handlers.HandleRequestCommand)
	}

	// Ответы на запросы разрыва
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/approveunbind", bot.MatchTypePrefix, c.handlers.HandleUnbindCommand)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/rejectunbind", bot.MatchTypePrefix, c.handlers.HandleUnbindCommand)

	return c.setCommands(ctx)
}

// setCommands устанавливает список команд в меню бота
func (c *BotController) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "start", Description: "🚀 Link status and welcome"},
		{Command: "help", Description: "❓ Command reference"},
		{Command: "shortlist", Description: "📋 My shortlisted supervisors"},
		{Command: "cancelrequest", Description: "🚫 Withdraw a request"},
		{Command: "declineoffer", Description: "❌ Decline an offer"},
		{Command: "rejectrequest", Description: "❌ Decline a request (supervisor)"},
		{Command: "offer", Description: "🤝 Make an offer (supervisor)"},
		{Command: "approveunbind", Description: "✅ Agree to end a supervision"},
		{Command: "rejectunbind", Description: "✋ Refuse to end a supervision"},
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
	})
	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("Bot commands menu set")
	return nil
}

// Start запускает бота; блокируется до отмены ctx
func (c *BotController) Start(ctx context.Context) error {
	c.logger.Info("Starting bot")
	c.bot.Start(ctx)
	return nil
}
