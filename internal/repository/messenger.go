package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/supervision/internal/model"
	"github.com/Freeeeeet/supervision/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Messenger адаптер подсистемы сообщений поверх её таблиц
type Messenger struct {
	base.Repository
}

func NewMessenger(pool *pgxpool.Pool) *Messenger {
	return &Messenger{base.NewRepository(pool)}
}

// FindDirectConversation ищет личный чат двух пользователей; nil если его нет
func (m *Messenger) FindDirectConversation(ctx context.Context, userA, userB int64) (*model.Conversation, error) {
	query := `
		SELECT c.id, c.type, c.title, c.owner_id, c.created_at
		FROM conversations c
		JOIN conversation_participants pa ON pa.conversation_id = c.id AND pa.user_id = $1
		JOIN conversation_participants pb ON pb.conversation_id = c.id AND pb.user_id = $2
		WHERE c.type = $3
		ORDER BY c.id ASC
		LIMIT 1
	`

	var c model.Conversation
	err := m.Q().QueryRow(ctx, query, userA, userB, model.ConversationTypeDirect).
		Scan(&c.ID, &c.Type, &c.Title, &c.OwnerID, &c.CreatedAt)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find direct conversation: %w", err)
	}
	return &c, nil
}

// CreateDirectConversation создаёт личный чат двух пользователей
func (m *Messenger) CreateDirectConversation(ctx context.Context, userA, userB int64) (*model.Conversation, error) {
	return m.create(ctx, model.ConversationTypeDirect, "", userA, []int64{userA, userB})
}

// CreateGroupConversation создаёт групповой чат
func (m *Messenger) CreateGroupConversation(ctx context.Context, ownerID int64, memberIDs []int64, title string) (*model.Conversation, error) {
	members := append([]int64{ownerID}, memberIDs...)
	return m.create(ctx, model.ConversationTypeGroup, title, ownerID, members)
}

func (m *Messenger) create(ctx context.Context, typ model.ConversationType, title string, ownerID int64, members []int64) (*model.Conversation, error) {
	c := model.Conversation{Type: typ, Title: title, OwnerID: ownerID}

	query := `INSERT INTO conversations (type, title, owner_id) VALUES ($1, $2, $3) RETURNING id, created_at`
	if err := m.Q().QueryRow(ctx, query, typ, title, ownerID).Scan(&c.ID, &c.CreatedAt); err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}

	for _, userID := range members {
		if err := m.AddParticipant(ctx, c.ID, userID); err != nil {
			return nil, err
		}
	}
	return &c, nil
}

// AddParticipant добавляет участника (повторное добавление игнорируется)
func (m *Messenger) AddParticipant(ctx context.Context, conversationID, userID int64) error {
	query := `
		INSERT INTO conversation_participants (conversation_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (conversation_id, user_id) DO NOTHING
	`

	if _, err := m.ExecAffected(ctx, query, conversationID, userID); err != nil {
		return fmt.Errorf("add participant: %w", err)
	}
	return nil
}

// RemoveParticipant удаляет участника
func (m *Messenger) RemoveParticipant(ctx context.Context, conversationID, userID int64) error {
	query := `DELETE FROM conversation_participants WHERE conversation_id = $1 AND user_id = $2`

	if err := m.ExecOne(ctx, query, conversationID, userID); err != nil {
		return fmt.Errorf("remove participant: %w", err)
	}
	return nil
}
