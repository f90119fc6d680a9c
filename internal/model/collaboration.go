package model

import "time"

type ConversationType string

const (
	ConversationTypeDirect ConversationType = "direct"
	ConversationTypeGroup  ConversationType = "group"
)

// Conversation is a messaging channel owned by the messaging subsystem
type Conversation struct {
	ID        int64            `json:"id"`
	Type      ConversationType `json:"type"`
	Title     string           `json:"title"`
	OwnerID   int64            `json:"owner_id"`
	CreatedAt time.Time        `json:"created_at"`
}

// Workspace is a ScholarLab collaboration space
type Workspace struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	OwnerID     int64     `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
}

type Board struct {
	ID          int64     `json:"id"`
	WorkspaceID int64     `json:"workspace_id"`
	Name        string    `json:"name"`
	CreatorID   int64     `json:"creator_id"`
	CreatedAt   time.Time `json:"created_at"`
}

type BoardList struct {
	ID        int64  `json:"id"`
	BoardID   int64  `json:"board_id"`
	Name      string `json:"name"`
	SortOrder int    `json:"sort_order"`
}

type Task struct {
	ID          int64     `json:"id"`
	ListID      int64     `json:"list_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatorID   int64     `json:"creator_id"`
	SortOrder   int       `json:"sort_order"`
	CreatedAt   time.Time `json:"created_at"`
}
