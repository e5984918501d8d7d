// Package history holds fully loaded datasets in their canonical in-memory
// form and answers read queries against them. A Loaded value is immutable
// after construction; concurrent access is coordinated by the registry.
package history

import (
	"github.com/pkg/errors"

	"github.com/chatfold/chatfold/internal/model"
)

// ChatWithMessages pairs a chat with its messages in load order.
type ChatWithMessages struct {
	Chat     model.Chat
	Messages []model.Message
}

// Loaded is one dataset after normalization: identity, users, chats and
// messages, all consistent with each other.
type Loaded struct {
	dataset model.Dataset
	root    model.DatasetRoot
	users   []model.User
	cwms    []ChatWithMessages
	chatIdx map[model.ChatID]int
}

// New validates and seals a loaded dataset.
//
// It enforces the cross-entity invariants loaders rely on downstream:
// myself is a valid, known user and is moved to the front of users; every
// entity carries the dataset UUID; chat member ids refer to known users and
// include myself. Message internal ids are assigned here, dense and
// ascending per chat, so loaders cannot get them wrong.
func New(
	dataset model.Dataset,
	root model.DatasetRoot,
	myselfID model.UserID,
	users []model.User,
	cwms []ChatWithMessages,
) (*Loaded, error) {
	if !myselfID.Valid() {
		return nil, errors.Wrapf(model.ErrValidation, "myself id %d is not valid", myselfID)
	}
	if len(users) == 0 {
		return nil, errors.Wrap(model.ErrValidation, "dataset has no users")
	}

	myselfIdx := -1
	userIDs := make(map[model.UserID]bool, len(users))
	for i := range users {
		u := &users[i]
		if u.DsUUID != dataset.UUID {
			return nil, errors.Wrapf(model.ErrValidation, "user %d belongs to dataset %s, not %s", u.ID, u.DsUUID, dataset.UUID)
		}
		if !u.ID.Valid() {
			return nil, errors.Wrapf(model.ErrValidation, "user id %d is not valid", u.ID)
		}
		if userIDs[u.ID] {
			return nil, errors.Wrapf(model.ErrValidation, "duplicate user id %d", u.ID)
		}
		userIDs[u.ID] = true
		if u.ID == myselfID {
			myselfIdx = i
		}
	}
	if myselfIdx < 0 {
		return nil, errors.Wrapf(model.ErrValidation, "myself id %d is not among dataset users", myselfID)
	}

	// Myself goes first; everyone else keeps relative order.
	ordered := make([]model.User, 0, len(users))
	ordered = append(ordered, users[myselfIdx])
	ordered = append(ordered, users[:myselfIdx]...)
	ordered = append(ordered, users[myselfIdx+1:]...)

	chatIdx := make(map[model.ChatID]int, len(cwms))
	for i := range cwms {
		cwm := &cwms[i]
		if cwm.Chat.DsUUID != dataset.UUID {
			return nil, errors.Wrapf(model.ErrValidation, "chat %s belongs to dataset %s, not %s",
				cwm.Chat.QualifiedName(), cwm.Chat.DsUUID, dataset.UUID)
		}
		if _, dup := chatIdx[cwm.Chat.ID]; dup {
			return nil, errors.Wrapf(model.ErrValidation, "duplicate chat id %d", cwm.Chat.ID)
		}
		chatIdx[cwm.Chat.ID] = i

		hasMyself := false
		for _, mid := range cwm.Chat.MemberIDs {
			if !userIDs[mid] {
				return nil, errors.Wrapf(model.ErrValidation, "chat %s references unknown member %d",
					cwm.Chat.QualifiedName(), mid)
			}
			if mid == myselfID {
				hasMyself = true
			}
		}
		if !hasMyself {
			return nil, errors.Wrapf(model.ErrValidation, "chat %s does not list myself as a member",
				cwm.Chat.QualifiedName())
		}

		for j := range cwm.Messages {
			cwm.Messages[j].InternalID = model.MessageInternalID(j)
		}
		cwm.Chat.MsgCount = len(cwm.Messages)
	}

	return &Loaded{
		dataset: dataset,
		root:    root,
		users:   ordered,
		cwms:    cwms,
		chatIdx: chatIdx,
	}, nil
}

// Dataset returns the dataset identity.
func (l *Loaded) Dataset() model.Dataset { return l.dataset }

// Root returns the directory all stored paths are relative to.
func (l *Loaded) Root() model.DatasetRoot { return l.root }

// Myself returns the local user.
func (l *Loaded) Myself() model.User { return l.users[0] }

// Users lists all users, myself first.
func (l *Loaded) Users() []model.User { return l.users }

// UserOption finds a user by id.
func (l *Loaded) UserOption(id model.UserID) *model.User {
	for i := range l.users {
		if l.users[i].ID == id {
			return &l.users[i]
		}
	}
	return nil
}

// Chats lists all chats in discovery order, each with resolved members
// (myself first) and its last message.
func (l *Loaded) Chats() []model.ChatWithDetails {
	out := make([]model.ChatWithDetails, 0, len(l.cwms))
	for i := range l.cwms {
		out = append(out, l.details(&l.cwms[i]))
	}
	return out
}

// ChatOption finds a single chat by id.
func (l *Loaded) ChatOption(id model.ChatID) *model.ChatWithDetails {
	i, ok := l.chatIdx[id]
	if !ok {
		return nil
	}
	cwd := l.details(&l.cwms[i])
	return &cwd
}

func (l *Loaded) details(cwm *ChatWithMessages) model.ChatWithDetails {
	members := make([]model.User, 0, len(cwm.Chat.MemberIDs))
	members = append(members, l.users[0])
	for _, mid := range cwm.Chat.MemberIDs {
		if mid == l.users[0].ID {
			continue
		}
		if u := l.UserOption(mid); u != nil {
			members = append(members, *u)
		}
	}

	var lastMsg *model.Message
	if n := len(cwm.Messages); n > 0 {
		m := cwm.Messages[n-1]
		lastMsg = &m
	}

	return model.ChatWithDetails{Chat: cwm.Chat, LastMsg: lastMsg, Members: members}
}

func (l *Loaded) chatMessages(chatID model.ChatID) ([]model.Message, error) {
	i, ok := l.chatIdx[chatID]
	if !ok {
		return nil, errors.Wrapf(model.ErrNotFound, "chat #%d", chatID)
	}
	return l.cwms[i].Messages, nil
}

// Messages returns a copy of the full message list of a chat.
func (l *Loaded) Messages(chatID model.ChatID) ([]model.Message, error) {
	msgs, err := l.chatMessages(chatID)
	if err != nil {
		return nil, err
	}
	return append([]model.Message(nil), msgs...), nil
}

// FirstMessages returns up to limit messages from the beginning of a chat.
func (l *Loaded) FirstMessages(chatID model.ChatID, limit int) ([]model.Message, error) {
	msgs, err := l.chatMessages(chatID)
	if err != nil {
		return nil, err
	}
	if limit < 0 {
		return nil, errors.Wrapf(model.ErrValidation, "negative limit %d", limit)
	}
	if limit > len(msgs) {
		limit = len(msgs)
	}
	return append([]model.Message(nil), msgs[:limit]...), nil
}

// LastMessages returns up to limit messages from the end of a chat, in
// chronological order.
func (l *Loaded) LastMessages(chatID model.ChatID, limit int) ([]model.Message, error) {
	msgs, err := l.chatMessages(chatID)
	if err != nil {
		return nil, err
	}
	if limit < 0 {
		return nil, errors.Wrapf(model.ErrValidation, "negative limit %d", limit)
	}
	if limit > len(msgs) {
		limit = len(msgs)
	}
	return append([]model.Message(nil), msgs[len(msgs)-limit:]...), nil
}

// MessagesSlice returns up to limit messages starting at offset.
// An offset at or past the end yields an empty slice, not an error.
func (l *Loaded) MessagesSlice(chatID model.ChatID, offset, limit int) ([]model.Message, error) {
	msgs, err := l.chatMessages(chatID)
	if err != nil {
		return nil, err
	}
	if offset < 0 {
		return nil, errors.Wrapf(model.ErrValidation, "negative offset %d", offset)
	}
	if limit < 0 {
		return nil, errors.Wrapf(model.ErrValidation, "negative limit %d", limit)
	}
	if offset >= len(msgs) {
		return []model.Message{}, nil
	}
	end := offset + limit
	if end > len(msgs) {
		end = len(msgs)
	}
	return append([]model.Message(nil), msgs[offset:end]...), nil
}

// MessageBySourceID finds a message by its source-assigned id.
func (l *Loaded) MessageBySourceID(chatID model.ChatID, srcID model.MessageSourceID) (*model.Message, error) {
	msgs, err := l.chatMessages(chatID)
	if err != nil {
		return nil, err
	}
	for i := range msgs {
		if msgs[i].SourceID != nil && *msgs[i].SourceID == srcID {
			m := msgs[i]
			return &m, nil
		}
	}
	return nil, errors.Wrapf(model.ErrNotFound, "message with source id %d in chat #%d", srcID, chatID)
}

// CountMessages returns the message count of a chat.
func (l *Loaded) CountMessages(chatID model.ChatID) (int, error) {
	msgs, err := l.chatMessages(chatID)
	if err != nil {
		return 0, err
	}
	return len(msgs), nil
}
