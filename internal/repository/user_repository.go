package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/supervision/internal/model"
	"github.com/Freeeeeet/supervision/internal/repository/base"
)

type UserRepository struct {
	base.Repository
}

const userColumns = `id, telegram_id, full_name, email, supervision_group_conversation_id, created_at`

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID,
		&u.TelegramID,
		&u.FullName,
		&u.Email,
		&u.SupervisionGroupConversationID,
		&u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID получает пользователя по ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	u, err := scanUser(r.Q().QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", base.NotFound(err))
	}
	return u, nil
}

// GetByTelegramID получает пользователя по привязанному Telegram ID
func (r *UserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE telegram_id = $1`

	u, err := scanUser(r.Q().QueryRow(ctx, query, telegramID))
	if err != nil {
		return nil, fmt.Errorf("get user by telegram id: %w", base.NotFound(err))
	}
	return u, nil
}

// LockByID блокирует строку пользователя до конца транзакции
func (r *UserRepository) LockByID(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 FOR UPDATE`

	u, err := scanUser(r.Q().QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("lock user: %w", base.NotFound(err))
	}
	return u, nil
}

// SetGroupConversation сохраняет групповой чат научного руководства
func (r *UserRepository) SetGroupConversation(ctx context.Context, userID, conversationID int64) error {
	query := `UPDATE users SET supervision_group_conversation_id = $1 WHERE id = $2`

	if err := r.ExecOne(ctx, query, conversationID, userID); err != nil {
		return fmt.Errorf("set group conversation: %w", err)
	}
	return nil
}
