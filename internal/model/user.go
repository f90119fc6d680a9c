package model

import "time"

// User is the slice of a platform account the supervision engine needs.
type User struct {
	ID                             int64     `json:"id"`
	TelegramID                     *int64    `json:"telegram_id"` // nil = Telegram not linked
	FullName                       string    `json:"full_name"`
	Email                          string    `json:"email"`
	SupervisionGroupConversationID *int64    `json:"supervision_group_conversation_id"`
	CreatedAt                      time.Time `json:"created_at"`
}

// DisplayName returns the full name or a fallback based on the id
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	if u.Email != "" {
		return u.Email
	}
	return "user"
}
