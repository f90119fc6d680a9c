package service

import (
	"context"
	"io"

	"github.com/Freeeeeet/supervision/internal/model"
)

// Messenger is the narrow view of the messaging subsystem.
type Messenger interface {
	// FindDirectConversation returns nil, nil when the pair has no direct conversation.
	FindDirectConversation(ctx context.Context, userA, userB int64) (*model.Conversation, error)
	CreateDirectConversation(ctx context.Context, userA, userB int64) (*model.Conversation, error)
	CreateGroupConversation(ctx context.Context, ownerID int64, memberIDs []int64, title string) (*model.Conversation, error)
	AddParticipant(ctx context.Context, conversationID, userID int64) error
	RemoveParticipant(ctx context.Context, conversationID, userID int64) error
}

// Workspaces is the narrow view of the ScholarLab board subsystem.
type Workspaces interface {
	CreateWorkspace(ctx context.Context, name, description string, ownerID int64) (*model.Workspace, error)
	AttachWorkspaceMember(ctx context.Context, workspaceID, userID int64, role string) error
	DetachWorkspaceMember(ctx context.Context, workspaceID, userID int64) error
	CreateBoard(ctx context.Context, workspaceID int64, name string, creatorID int64) (*model.Board, error)
	AttachBoardMember(ctx context.Context, boardID, userID int64) error
	DetachBoardMember(ctx context.Context, boardID, userID int64) error
	CreateBoardList(ctx context.Context, boardID int64, name string, order int) (*model.BoardList, error)
	CreateTask(ctx context.Context, listID int64, title, description string, creatorID int64, order int) (*model.Task, error)
	SyncTaskAssignees(ctx context.Context, taskID int64, userIDs []int64) error
}

// FileStore keeps uploaded attachments.
type FileStore interface {
	// Put stores r under dir; the mime type is sniffed from the content.
	Put(ctx context.Context, dir, originalName string, r io.Reader) (model.StoredFile, error)
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

// Upload is one file handed to SubmitRequest.
type Upload struct {
	OriginalName string
	MimeType     string // overrides the sniffed type when set
	Content      io.Reader
}
