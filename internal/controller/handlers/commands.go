package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/supervision/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

const helpText = "📚 Commands:\n\n" +
	"/shortlist - Your shortlisted supervisors\n" +
	"/cancelrequest <id> [reason] - Withdraw your request or offer\n" +
	"/declineoffer <id> [reason] - Decline a supervision offer\n" +
	"/rejectrequest <id> [reason] - Decline a request (supervisors)\n" +
	"/offer <id> - Make an offer on a request (supervisors)\n" +
	"/approveunbind <id> - Agree to end a supervision\n" +
	"/rejectunbind <id> - Refuse to end a supervision\n" +
	"/help - Show this help"

// HandleStart обрабатывает команду /start
func (h *Handlers) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	user, err := h.lookupUser(ctx, update.Message.From.ID)
	if err != nil {
		h.logger.Error("Failed to get user", zap.Int64("telegram_id", update.Message.From.ID), zap.Error(err))
		h.sendMessage(ctx, b, update.Message.Chat.ID, failureText)
		return
	}
	h.sendMessage(ctx, b, update.Message.Chat.ID, startText(user))
}

func startText(user *model.User) string {
	if user == nil {
		return notLinkedText + "\n\nLink it in your profile settings to receive supervision updates here."
	}
	return fmt.Sprintf("👋 Hello, %s!\n\nSupervision updates will arrive in this chat.\n\n%s", user.DisplayName(), helpText)
}

// HandleHelp обрабатывает команду /help
func (h *Handlers) HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.sendMessage(ctx, b, update.Message.Chat.ID, helpText)
}

// HandleShortlist обрабатывает команду /shortlist
func (h *Handlers) HandleShortlist(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}
	h.sendMessage(ctx, b, update.Message.Chat.ID, h.shortlistText(ctx, user))
}

func (h *Handlers) shortlistText(ctx context.Context, user *model.User) string {
	entries, err := h.shortlists.ListShortlist(ctx, user.ID)
	if err != nil {
		return h.errorText(err)
	}
	if len(entries) == 0 {
		return "📋 Your shortlist is empty."
	}

	lines := []string{fmt.Sprintf("📋 Shortlist (%d of %d):", len(entries), model.MaxShortlistEntries)}
	for _, e := range entries {
		name := fmt.Sprintf("#%d", e.AcademicianID)
		if a, err := h.store.Users().GetByID(ctx, e.AcademicianID); err == nil {
			name = a.DisplayName()
		}
		lines = append(lines, "• "+name)
	}
	return strings.Join(lines, "\n")
}

// requestCommand выполняет решение по заявке и возвращает ответ
type requestCommand func(ctx context.Context, req *model.SupervisionRequest, actor *model.User, reason string) (*model.SupervisionRequest, error)

func (h *Handlers) requestCommands() map[string]requestCommand {
	return map[string]requestCommand{
		"/cancelrequest": h.requests.CancelRequest,
		"/declineoffer":  h.requests.DeclineOffer,
		"/rejectrequest": h.requests.RejectRequest,
		"/offer": func(ctx context.Context, req *model.SupervisionRequest, actor *model.User, _ string) (*model.SupervisionRequest, error) {
			return h.requests.MakeOffer(ctx, req, actor)
		},
	}
}

// HandleRequestCommand обрабатывает команды решений по заявкам
func (h *Handlers) HandleRequestCommand(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}
	h.sendMessage(ctx, b, update.Message.Chat.ID, h.requestText(ctx, user, update.Message.Text))
}

func (h *Handlers) requestText(ctx context.Context, user *model.User, text string) string {
	name := strings.Fields(text)[0]
	cmd, ok := h.requestCommands()[name]
	if !ok {
		return helpText
	}

	id, reason, err := splitCommand(text)
	if err != nil {
		return fmt.Sprintf("Usage: %s <request id> [reason]", name)
	}

	req, err := cmd(ctx, &model.SupervisionRequest{ID: id}, user, reason)
	if err != nil {
		return h.errorText(err)
	}
	return fmt.Sprintf("✅ Request #%d is now %s.", req.ID, req.Status)
}

// HandleUnbindCommand обрабатывает /approveunbind и /rejectunbind
func (h *Handlers) HandleUnbindCommand(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}
	h.sendMessage(ctx, b, update.Message.Chat.ID, h.unbindText(ctx, user, update.Message.Text))
}

func (h *Handlers) unbindText(ctx context.Context, user *model.User, text string) string {
	name := strings.Fields(text)[0]
	approve := name == "/approveunbind"

	id, _, err := splitCommand(text)
	if err != nil {
		return fmt.Sprintf("Usage: %s <unbind request id>", name)
	}

	ub, err := h.store.Unbinds().GetByID(ctx, id)
	if err != nil {
		return h.errorText(err)
	}

	// Студент отвечает на запрос руководителя, и наоборот
	var resolved *model.UnbindRequest
	switch {
	case ub.InitiatedBy == model.UnbindInitiatorSupervisor && approve:
		resolved, err = h.unbinds.ApproveUnbindRequest(ctx, ub, user)
	case ub.InitiatedBy == model.UnbindInitiatorSupervisor:
		resolved, err = h.unbinds.RejectUnbindRequest(ctx, ub, user)
	case approve:
		resolved, err = h.unbinds.SupervisorApproveUnbindRequest(ctx, ub, user)
	default:
		resolved, err = h.unbinds.SupervisorRejectUnbindRequest(ctx, ub, user)
	}
	if err != nil {
		return h.errorText(err)
	}
	return fmt.Sprintf("✅ Unbind request #%d is now %s.", resolved.ID, resolved.Status)
}
