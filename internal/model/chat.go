package model

import "fmt"

// ChatType distinguishes one-on-one conversations from group ones.
type ChatType string

const (
	ChatTypePersonal     ChatType = "personal"
	ChatTypePrivateGroup ChatType = "private_group"
)

// Chat is one conversation within a dataset.
type Chat struct {
	DsUUID     UUID       `json:"dsUuid"`
	ID         ChatID     `json:"id"`
	Name       *string    `json:"name,omitempty"`
	SourceType SourceType `json:"sourceType"`
	Type       ChatType   `json:"type"`
	// ImgPath is the chat avatar, relative to the dataset root.
	ImgPath   *string  `json:"imgPath,omitempty"`
	MemberIDs []UserID `json:"memberIds"`
	MsgCount  int      `json:"msgCount"`
	// MainChatID links a lesser chat (e.g. a pre-migration group) to the
	// chat that continues it.
	MainChatID *ChatID `json:"mainChatId,omitempty"`
}

// NameOrUnnamed returns the chat name or the "[unnamed]" placeholder.
func (c *Chat) NameOrUnnamed() string {
	if s := strOrEmpty(c.Name); s != "" {
		return s
	}
	return Unnamed
}

// QualifiedName renders the chat for logs and error messages.
func (c *Chat) QualifiedName() string {
	return fmt.Sprintf("'%s' (#%d)", c.NameOrUnnamed(), c.ID)
}

// ChatWithDetails couples a chat with its resolved members and last message.
// Members always start with myself; the rest follow MemberIDs order.
type ChatWithDetails struct {
	Chat    Chat     `json:"chat"`
	LastMsg *Message `json:"lastMsg,omitempty"`
	Members []User   `json:"members"`
}

// ResolveMemberIndex finds the member whose pretty name matches exactly.
// Returns -1 when absent; never errors.
func (c *ChatWithDetails) ResolveMemberIndex(name string) int {
	for i := range c.Members {
		if c.Members[i].PrettyName() == name {
			return i
		}
	}
	return -1
}

// ResolveMember is ResolveMemberIndex returning the user itself.
func (c *ChatWithDetails) ResolveMember(name string) *User {
	if i := c.ResolveMemberIndex(name); i >= 0 {
		return &c.Members[i]
	}
	return nil
}

// ResolveMembers maps service-event member names to users. Unresolved names
// yield nil entries so positions line up with the input.
func (c *ChatWithDetails) ResolveMembers(names []string) []*User {
	out := make([]*User, len(names))
	for i, n := range names {
		out[i] = c.ResolveMember(n)
	}
	return out
}
