package memory

import (
	"context"

	"github.com/Freeeeeet/supervision/internal/model"
)

type userRepository struct{ s *Store }

func (r *userRepository) GetByID(_ context.Context, id int64) (*model.User, error) {
	defer r.s.lock()()

	u, ok := r.s.db.data.users[id]
	if !ok {
		return nil, notFound("user", id)
	}
	return &u, nil
}

func (r *userRepository) GetByTelegramID(_ context.Context, telegramID int64) (*model.User, error) {
	defer r.s.lock()()

	for _, u := range r.s.db.data.users {
		if u.TelegramID != nil && *u.TelegramID == telegramID {
			return &u, nil
		}
	}
	return nil, notFound("telegram user", telegramID)
}

// LockByID is GetByID: the transaction already holds the store mutex.
func (r *userRepository) LockByID(ctx context.Context, id int64) (*model.User, error) {
	return r.GetByID(ctx, id)
}

func (r *userRepository) SetGroupConversation(_ context.Context, userID, conversationID int64) error {
	defer r.s.lock()()

	u, ok := r.s.db.data.users[userID]
	if !ok {
		return notFound("user", userID)
	}
	u.SupervisionGroupConversationID = &conversationID
	r.s.db.data.users[userID] = u
	return nil
}
