package model

import "encoding/json"

// Wire rendering for the sealed types. Each closed set marshals as an object
// with exactly one variant key, so consumers can dispatch on the key name.
// The service only ever writes these shapes; requests never carry messages,
// so no unmarshaler is defined.

type typedJSON struct {
	Regular *regularJSON `json:"regular,omitempty"`
	Service *serviceJSON `json:"service,omitempty"`
}

type regularJSON struct {
	EditTimestamp          *Timestamp       `json:"editTimestamp,omitempty"`
	IsDeleted              bool             `json:"isDeleted,omitempty"`
	ForwardFromName        *string          `json:"forwardFromName,omitempty"`
	ReplyToMessageSourceID *MessageSourceID `json:"replyToMessageSourceId,omitempty"`
	Content                *contentJSON     `json:"content,omitempty"`
}

type contentJSON struct {
	Sticker       *ContentSticker       `json:"sticker,omitempty"`
	Photo         *ContentPhoto         `json:"photo,omitempty"`
	VoiceMsg      *ContentVoiceMsg      `json:"voiceMsg,omitempty"`
	Audio         *ContentAudio         `json:"audio,omitempty"`
	VideoMsg      *ContentVideoMsg      `json:"videoMsg,omitempty"`
	Video         *ContentVideo         `json:"video,omitempty"`
	File          *ContentFile          `json:"file,omitempty"`
	Location      *ContentLocation      `json:"location,omitempty"`
	Poll          *ContentPoll          `json:"poll,omitempty"`
	SharedContact *ContentSharedContact `json:"sharedContact,omitempty"`
}

type serviceJSON struct {
	PhoneCall           *ServicePhoneCall           `json:"phoneCall,omitempty"`
	SuggestProfilePhoto *ServiceSuggestProfilePhoto `json:"suggestProfilePhoto,omitempty"`
	PinMessage          *ServicePinMessage          `json:"pinMessage,omitempty"`
	ClearHistory        *ServiceClearHistory        `json:"clearHistory,omitempty"`
	BlockUser           *ServiceBlockUser           `json:"blockUser,omitempty"`
	StatusTextChanged   *ServiceStatusTextChanged   `json:"statusTextChanged,omitempty"`
	Notice              *ServiceNotice              `json:"notice,omitempty"`
	GroupCreate         *ServiceGroupCreate         `json:"groupCreate,omitempty"`
	GroupEditTitle      *ServiceGroupEditTitle      `json:"groupEditTitle,omitempty"`
	GroupEditPhoto      *ServiceGroupEditPhoto      `json:"groupEditPhoto,omitempty"`
	GroupDeletePhoto    *ServiceGroupDeletePhoto    `json:"groupDeletePhoto,omitempty"`
	GroupInviteMembers  *ServiceGroupInviteMembers  `json:"groupInviteMembers,omitempty"`
	GroupRemoveMembers  *ServiceGroupRemoveMembers  `json:"groupRemoveMembers,omitempty"`
	GroupMigrateFrom    *ServiceGroupMigrateFrom    `json:"groupMigrateFrom,omitempty"`
	GroupMigrateTo      *ServiceGroupMigrateTo      `json:"groupMigrateTo,omitempty"`
	GroupCall           *ServiceGroupCall           `json:"groupCall,omitempty"`
}

type rteJSON struct {
	SearchableString string            `json:"searchableString"`
	Plain            *RtePlain         `json:"plain,omitempty"`
	Bold             *RteBold          `json:"bold,omitempty"`
	Italic           *RteItalic        `json:"italic,omitempty"`
	Underline        *RteUnderline     `json:"underline,omitempty"`
	Strikethrough    *RteStrikethrough `json:"strikethrough,omitempty"`
	Blockquote       *RteBlockquote    `json:"blockquote,omitempty"`
	Spoiler          *RteSpoiler       `json:"spoiler,omitempty"`
	Link             *RteLink          `json:"link,omitempty"`
	PrefmtInline     *RtePrefmtInline  `json:"prefmtInline,omitempty"`
	PrefmtBlock      *RtePrefmtBlock   `json:"prefmtBlock,omitempty"`
}

func contentToJSON(c Content) *contentJSON {
	if c == nil {
		return nil
	}
	out := &contentJSON{}
	switch v := c.(type) {
	case *ContentSticker:
		out.Sticker = v
	case *ContentPhoto:
		out.Photo = v
	case *ContentVoiceMsg:
		out.VoiceMsg = v
	case *ContentAudio:
		out.Audio = v
	case *ContentVideoMsg:
		out.VideoMsg = v
	case *ContentVideo:
		out.Video = v
	case *ContentFile:
		out.File = v
	case *ContentLocation:
		out.Location = v
	case *ContentPoll:
		out.Poll = v
	case *ContentSharedContact:
		out.SharedContact = v
	default:
		panic("unhandled content variant")
	}
	return out
}

func serviceToJSON(ev ServiceEvent) *serviceJSON {
	if ev == nil {
		return nil
	}
	out := &serviceJSON{}
	switch v := ev.(type) {
	case *ServicePhoneCall:
		out.PhoneCall = v
	case *ServiceSuggestProfilePhoto:
		out.SuggestProfilePhoto = v
	case *ServicePinMessage:
		out.PinMessage = v
	case *ServiceClearHistory:
		out.ClearHistory = v
	case *ServiceBlockUser:
		out.BlockUser = v
	case *ServiceStatusTextChanged:
		out.StatusTextChanged = v
	case *ServiceNotice:
		out.Notice = v
	case *ServiceGroupCreate:
		out.GroupCreate = v
	case *ServiceGroupEditTitle:
		out.GroupEditTitle = v
	case *ServiceGroupEditPhoto:
		out.GroupEditPhoto = v
	case *ServiceGroupDeletePhoto:
		out.GroupDeletePhoto = v
	case *ServiceGroupInviteMembers:
		out.GroupInviteMembers = v
	case *ServiceGroupRemoveMembers:
		out.GroupRemoveMembers = v
	case *ServiceGroupMigrateFrom:
		out.GroupMigrateFrom = v
	case *ServiceGroupMigrateTo:
		out.GroupMigrateTo = v
	case *ServiceGroupCall:
		out.GroupCall = v
	default:
		panic("unhandled service event variant")
	}
	return out
}

func typedToJSON(t Typed) *typedJSON {
	switch v := t.(type) {
	case *MessageRegular:
		return &typedJSON{Regular: &regularJSON{
			EditTimestamp:          v.EditTimestamp,
			IsDeleted:              v.IsDeleted,
			ForwardFromName:        v.ForwardFromName,
			ReplyToMessageSourceID: v.ReplyToMessageSourceID,
			Content:                contentToJSON(v.Content),
		}}
	case *MessageService:
		return &typedJSON{Service: serviceToJSON(v.Event)}
	case nil:
		return nil
	}
	panic("unhandled typed variant")
}

// MarshalJSON renders the element with its variant under a tag key.
func (e RichTextElement) MarshalJSON() ([]byte, error) {
	out := rteJSON{SearchableString: e.SearchableString}
	switch v := e.Val.(type) {
	case *RtePlain:
		out.Plain = v
	case *RteBold:
		out.Bold = v
	case *RteItalic:
		out.Italic = v
	case *RteUnderline:
		out.Underline = v
	case *RteStrikethrough:
		out.Strikethrough = v
	case *RteBlockquote:
		out.Blockquote = v
	case *RteSpoiler:
		out.Spoiler = v
	case *RteLink:
		out.Link = v
	case *RtePrefmtInline:
		out.PrefmtInline = v
	case *RtePrefmtBlock:
		out.PrefmtBlock = v
	case nil:
		// leave all variant keys absent
	default:
		panic("unhandled rich text variant")
	}
	return json.Marshal(out)
}

// MarshalJSON renders the message with its payload under "typed".
func (m Message) MarshalJSON() ([]byte, error) {
	type messageJSON struct {
		InternalID       MessageInternalID `json:"internalId"`
		SourceID         *MessageSourceID  `json:"sourceId,omitempty"`
		Timestamp        Timestamp         `json:"timestamp"`
		FromID           UserID            `json:"fromId"`
		Text             []RichTextElement `json:"text"`
		SearchableString string            `json:"searchableString"`
		Typed            *typedJSON        `json:"typed,omitempty"`
	}
	return json.Marshal(messageJSON{
		InternalID:       m.InternalID,
		SourceID:         m.SourceID,
		Timestamp:        m.Timestamp,
		FromID:           m.FromID,
		Text:             m.Text,
		SearchableString: m.SearchableString,
		Typed:            typedToJSON(m.Typed),
	})
}
