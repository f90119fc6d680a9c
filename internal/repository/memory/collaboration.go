package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/Freeeeeet/supervision/internal/model"
)

// Messenger keeps conversations in memory.
type Messenger struct {
	mu            sync.Mutex
	seq           int64
	conversations map[int64]model.Conversation
	participants  map[int64][]int64
}

func NewMessenger() *Messenger {
	return &Messenger{
		conversations: map[int64]model.Conversation{},
		participants:  map[int64][]int64{},
	}
}

func (m *Messenger) create(typ model.ConversationType, ownerID int64, title string, members []int64) *model.Conversation {
	m.seq++
	c := model.Conversation{ID: m.seq, Type: typ, Title: title, OwnerID: ownerID, CreatedAt: time.Now().UTC()}
	m.conversations[c.ID] = c

	var ids []int64
	for _, id := range members {
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	m.participants[c.ID] = ids
	return &c
}

func (m *Messenger) FindDirectConversation(_ context.Context, userA, userB int64) (*model.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var found *model.Conversation
	for id, c := range m.conversations {
		p := m.participants[id]
		if c.Type == model.ConversationTypeDirect && slices.Contains(p, userA) && slices.Contains(p, userB) {
			if found == nil || c.ID < found.ID {
				found = &c
			}
		}
	}
	return found, nil
}

func (m *Messenger) CreateDirectConversation(_ context.Context, userA, userB int64) (*model.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.create(model.ConversationTypeDirect, userA, "", []int64{userA, userB}), nil
}

func (m *Messenger) CreateGroupConversation(_ context.Context, ownerID int64, memberIDs []int64, title string) (*model.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.create(model.ConversationTypeGroup, ownerID, title, append([]int64{ownerID}, memberIDs...)), nil
}

func (m *Messenger) AddParticipant(_ context.Context, conversationID, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.conversations[conversationID]; !ok {
		return fmt.Errorf("conversation %d: not found", conversationID)
	}
	if !slices.Contains(m.participants[conversationID], userID) {
		m.participants[conversationID] = append(m.participants[conversationID], userID)
	}
	return nil
}

func (m *Messenger) RemoveParticipant(_ context.Context, conversationID, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.conversations[conversationID]; !ok {
		return fmt.Errorf("conversation %d: not found", conversationID)
	}
	m.participants[conversationID] = slices.DeleteFunc(m.participants[conversationID], func(id int64) bool { return id == userID })
	return nil
}

// Conversations returns all conversations of a type
func (m *Messenger) Conversations(typ model.ConversationType) []model.Conversation {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []model.Conversation
	for _, c := range m.conversations {
		if c.Type == typ {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b model.Conversation) int { return int(a.ID - b.ID) })
	return out
}

// Participants returns the members of a conversation in join order
func (m *Messenger) Participants(conversationID int64) []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.participants[conversationID])
}

// Workspaces keeps ScholarLab workspaces and boards in memory.
type Workspaces struct {
	mu               sync.Mutex
	seq              int64
	workspaces       map[int64]model.Workspace
	workspaceMembers map[int64]map[int64]string
	boards           map[int64]model.Board
	boardMembers     map[int64][]int64
	lists            map[int64]model.BoardList
	tasks            map[int64]model.Task
	assignees        map[int64][]int64
}

func NewWorkspaces() *Workspaces {
	return &Workspaces{
		workspaces:       map[int64]model.Workspace{},
		workspaceMembers: map[int64]map[int64]string{},
		boards:           map[int64]model.Board{},
		boardMembers:     map[int64][]int64{},
		lists:            map[int64]model.BoardList{},
		tasks:            map[int64]model.Task{},
		assignees:        map[int64][]int64{},
	}
}

func (w *Workspaces) CreateWorkspace(_ context.Context, name, description string, ownerID int64) (*model.Workspace, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.seq++
	ws := model.Workspace{ID: w.seq, Name: name, Description: description, OwnerID: ownerID, CreatedAt: time.Now().UTC()}
	w.workspaces[ws.ID] = ws
	w.workspaceMembers[ws.ID] = map[int64]string{ownerID: "owner"}
	return &ws, nil
}

func (w *Workspaces) AttachWorkspaceMember(_ context.Context, workspaceID, userID int64, role string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	members, ok := w.workspaceMembers[workspaceID]
	if !ok {
		return fmt.Errorf("workspace %d: not found", workspaceID)
	}
	members[userID] = role
	return nil
}

func (w *Workspaces) DetachWorkspaceMember(_ context.Context, workspaceID, userID int64) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	members, ok := w.workspaceMembers[workspaceID]
	if !ok {
		return fmt.Errorf("workspace %d: not found", workspaceID)
	}
	delete(members, userID)
	return nil
}

func (w *Workspaces) CreateBoard(_ context.Context, workspaceID int64, name string, creatorID int64) (*model.Board, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.workspaces[workspaceID]; !ok {
		return nil, fmt.Errorf("workspace %d: not found", workspaceID)
	}
	w.seq++
	b := model.Board{ID: w.seq, WorkspaceID: workspaceID, Name: name, CreatorID: creatorID, CreatedAt: time.Now().UTC()}
	w.boards[b.ID] = b
	return &b, nil
}

func (w *Workspaces) AttachBoardMember(_ context.Context, boardID, userID int64) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.boards[boardID]; !ok {
		return fmt.Errorf("board %d: not found", boardID)
	}
	if !slices.Contains(w.boardMembers[boardID], userID) {
		w.boardMembers[boardID] = append(w.boardMembers[boardID], userID)
	}
	return nil
}

func (w *Workspaces) DetachBoardMember(_ context.Context, boardID, userID int64) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.boards[boardID]; !ok {
		return fmt.Errorf("board %d: not found", boardID)
	}
	w.boardMembers[boardID] = slices.DeleteFunc(w.boardMembers[boardID], func(id int64) bool { return id == userID })
	return nil
}

func (w *Workspaces) CreateBoardList(_ context.Context, boardID int64, name string, order int) (*model.BoardList, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.boards[boardID]; !ok {
		return nil, fmt.Errorf("board %d: not found", boardID)
	}
	w.seq++
	l := model.BoardList{ID: w.seq, BoardID: boardID, Name: name, SortOrder: order}
	w.lists[l.ID] = l
	return &l, nil
}

func (w *Workspaces) CreateTask(_ context.Context, listID int64, title, description string, creatorID int64, order int) (*model.Task, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.lists[listID]; !ok {
		return nil, fmt.Errorf("list %d: not found", listID)
	}
	w.seq++
	t := model.Task{ID: w.seq, ListID: listID, Title: title, Description: description, CreatorID: creatorID, SortOrder: order, CreatedAt: time.Now().UTC()}
	w.tasks[t.ID] = t
	return &t, nil
}

func (w *Workspaces) SyncTaskAssignees(_ context.Context, taskID int64, userIDs []int64) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.tasks[taskID]; !ok {
		return fmt.Errorf("task %d: not found", taskID)
	}
	w.assignees[taskID] = slices.Clone(userIDs)
	return nil
}

// WorkspaceMembers returns user id -> role for a workspace
func (w *Workspaces) WorkspaceMembers(workspaceID int64) map[int64]string {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make(map[int64]string, len(w.workspaceMembers[workspaceID]))
	for id, role := range w.workspaceMembers[workspaceID] {
		out[id] = role
	}
	return out
}

// BoardMembers returns the members of a board
func (w *Workspaces) BoardMembers(boardID int64) []int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.boardMembers[boardID])
}

// Tasks returns tasks of a board ordered by list then position, with their assignees
func (w *Workspaces) Tasks(boardID int64) ([]model.Task, map[int64][]int64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var out []model.Task
	assigned := map[int64][]int64{}
	for _, t := range w.tasks {
		if l, ok := w.lists[t.ListID]; ok && l.BoardID == boardID {
			out = append(out, t)
			assigned[t.ID] = slices.Clone(w.assignees[t.ID])
		}
	}
	slices.SortFunc(out, func(a, b model.Task) int {
		if a.ListID != b.ListID {
			return w.lists[a.ListID].SortOrder - w.lists[b.ListID].SortOrder
		}
		return a.SortOrder - b.SortOrder
	})
	return out, assigned
}
