package model

// Typed is the message payload: exactly one of MessageRegular or
// MessageService.
type Typed interface{ typedMessage() }

// MessageRegular is an ordinary user message. Content is nil when the
// message carries text only.
type MessageRegular struct {
	EditTimestamp          *Timestamp
	IsDeleted              bool
	ForwardFromName        *string
	ReplyToMessageSourceID *MessageSourceID
	Content                Content
}

// MessageService wraps a system-generated event.
type MessageService struct {
	Event ServiceEvent
}

func (*MessageRegular) typedMessage() {}
func (*MessageService) typedMessage() {}

// Message is a single chat message in canonical form.
type Message struct {
	// InternalID is dense and ascending within the owning chat. It is
	// assigned at load time and is not stable across loads.
	InternalID MessageInternalID `json:"internalId"`
	// SourceID is the id the source system assigned, stable across exports
	// of the same chat. Matching between datasets relies on it alone.
	SourceID  *MessageSourceID  `json:"sourceId,omitempty"`
	Timestamp Timestamp         `json:"timestamp"`
	FromID    UserID            `json:"fromId"`
	Text      []RichTextElement `json:"text"`
	// SearchableString is derived from Text and the typed payload at
	// construction time.
	SearchableString string `json:"searchableString"`
	Typed            Typed  `json:"-"`
}

// NewMessage builds a message and derives its searchable string. All
// construction goes through here so the derivation cannot be skipped.
func NewMessage(
	internalID MessageInternalID,
	sourceID *MessageSourceID,
	ts Timestamp,
	fromID UserID,
	text []RichTextElement,
	typed Typed,
) Message {
	return Message{
		InternalID:       internalID,
		SourceID:         sourceID,
		Timestamp:        ts,
		FromID:           fromID,
		Text:             text,
		SearchableString: MakeSearchableString(text, typed),
		Typed:            typed,
	}
}

// FilesRelative enumerates the dataset-relative paths this message
// references, across both content and service payloads.
func (m *Message) FilesRelative() []string {
	switch tv := m.Typed.(type) {
	case *MessageRegular:
		return contentFilesRelative(tv.Content)
	case *MessageService:
		return serviceFilesRelative(tv.Event)
	}
	return nil
}

// Files resolves FilesRelative against the dataset root.
// Does not check file existence.
func (m *Message) Files(root DatasetRoot) ([]string, error) {
	rels := m.FilesRelative()
	out := make([]string, 0, len(rels))
	for _, rel := range rels {
		abs, err := root.ToAbsolute(rel)
		if err != nil {
			return nil, err
		}
		out = append(out, abs)
	}
	return out, nil
}

// Regular returns the regular payload, or nil for service messages.
func (m *Message) Regular() *MessageRegular {
	if tv, ok := m.Typed.(*MessageRegular); ok {
		return tv
	}
	return nil
}

// Service returns the service payload, or nil for regular messages.
func (m *Message) Service() *MessageService {
	if tv, ok := m.Typed.(*MessageService); ok {
		return tv
	}
	return nil
}
