// Package telegram loads single-chat JSON exports produced by the Telegram
// desktop client. An export carries one chat and never marks which
// participant is the local user, so every load consults the chooser.
package telegram

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/chatfold/chatfold/internal/chooser"
	"github.com/chatfold/chatfold/internal/history"
	"github.com/chatfold/chatfold/internal/model"
)

// dateLayout is the offset-less local-time format older exports use when
// date_unixtime is absent.
const dateLayout = "2006-01-02T15:04:05"

type Loader struct{}

func New() *Loader { return &Loader{} }

func (l *Loader) Name() string { return "telegram" }

// LooksAboutRight accepts a .json file whose top level carries the
// single-chat export envelope keys.
func (l *Loader) LooksAboutRight(path string) error {
	base := filepath.Base(path)
	if !strings.EqualFold(filepath.Ext(path), ".json") {
		return errors.Wrapf(model.ErrFormatMismatch, "%s is not a .json file", base)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read %q", path)
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return errors.Wrapf(model.ErrFormatMismatch, "%s is not a JSON object", base)
	}
	var missing []string
	for _, key := range []string{"type", "id", "messages"} {
		if _, ok := top[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return errors.Wrapf(model.ErrFormatMismatch,
			"%s misses required keys: %s", base, strings.Join(missing, ", "))
	}
	return nil
}

func (l *Loader) Load(ctx context.Context, path string, ch chooser.Chooser) (*history.Loaded, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %q", path)
	}
	var export chatExport
	if err := json.Unmarshal(raw, &export); err != nil {
		return nil, errors.Wrapf(model.ErrParseFailure, "decode %s: %v", filepath.Base(path), err)
	}

	chatType, err := parseChatType(export.Type)
	if err != nil {
		return nil, err
	}

	ds := model.NewDataset("Telegram: "+aliasName(export.Name), model.SourceTelegram)
	root, err := model.NewDatasetRoot(filepath.Dir(path))
	if err != nil {
		return nil, err
	}

	reg := newUserRegistry(ds.UUID)
	msgs := make([]model.Message, 0, len(export.Messages))
	for i := range export.Messages {
		msg, err := parseMessage(&export.Messages[i], reg)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}

	users := reg.users()
	if len(users) == 0 {
		return nil, errors.Wrapf(model.ErrParseFailure, "%s contains no participants", filepath.Base(path))
	}

	// The export never marks the local user.
	idx, err := ch.ChooseMyself(ctx, users)
	if err != nil {
		return nil, err
	}
	if idx < 0 || idx >= len(users) {
		return nil, errors.Wrapf(model.ErrAmbiguousIdentity, "chosen index %d out of range [0, %d)", idx, len(users))
	}
	myself := users[idx]

	memberIDs := make([]model.UserID, 0, len(users))
	memberIDs = append(memberIDs, myself.ID)
	for _, u := range users {
		if u.ID != myself.ID {
			memberIDs = append(memberIDs, u.ID)
		}
	}

	chat := model.Chat{
		DsUUID:     ds.UUID,
		ID:         model.ChatID(export.ID),
		Name:       export.Name,
		SourceType: model.SourceTelegram,
		Type:       chatType,
		MemberIDs:  memberIDs,
	}

	return history.New(ds, root, myself.ID, users, []history.ChatWithMessages{
		{Chat: chat, Messages: msgs},
	})
}

func aliasName(name *string) string {
	if name != nil && *name != "" {
		return *name
	}
	return model.Unnamed
}

//
// Export envelope
//

type chatExport struct {
	Name     *string         `json:"name"`
	Type     string          `json:"type"`
	ID       int64           `json:"id"`
	Messages []exportMessage `json:"messages"`
}

type exportMessage struct {
	ID           int64  `json:"id"`
	Type         string `json:"type"`
	Date         string `json:"date"`
	DateUnixtime string `json:"date_unixtime"`

	From    *string `json:"from"`
	FromID  string  `json:"from_id"`
	Actor   *string `json:"actor"`
	ActorID string  `json:"actor_id"`

	Edited         string          `json:"edited"`
	EditedUnixtime string          `json:"edited_unixtime"`
	ForwardedFrom  json.RawMessage `json:"forwarded_from"`
	ReplyTo        *int64          `json:"reply_to_message_id"`

	Text json.RawMessage `json:"text"`

	Photo        *string `json:"photo"`
	Width        int32   `json:"width"`
	Height       int32   `json:"height"`
	File         *string `json:"file"`
	FileName     *string `json:"file_name"`
	Thumbnail    *string `json:"thumbnail"`
	MediaType    string  `json:"media_type"`
	MimeType     *string `json:"mime_type"`
	StickerEmoji *string `json:"sticker_emoji"`
	Performer    *string `json:"performer"`

	Contact    *contactInfo  `json:"contact_information"`
	Location   *locationInfo `json:"location_information"`
	PlaceName  *string       `json:"place_name"`
	Address    *string       `json:"address"`
	LivePeriod *int32        `json:"live_location_period_seconds"`
	Poll       *pollInfo     `json:"poll"`

	Action        string    `json:"action"`
	Title         string    `json:"title"`
	Members       []*string `json:"members"`
	DurationSec   *int32    `json:"duration_seconds"`
	DiscardReason string    `json:"discard_reason"`
	MessageID     *int64    `json:"message_id"`
}

type contactInfo struct {
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	PhoneNumber *string `json:"phone_number"`
}

// locationInfo keeps coordinates as json.Number so the exact source digits
// survive into ContentLocation.
type locationInfo struct {
	Latitude  json.Number `json:"latitude"`
	Longitude json.Number `json:"longitude"`
}

type pollInfo struct {
	Question string `json:"question"`
}

type textEntity struct {
	Type     string `json:"type"`
	Text     string `json:"text"`
	Href     string `json:"href"`
	Language string `json:"language"`
}

//
// Parsing
//

func parseChatType(s string) (model.ChatType, error) {
	switch s {
	case "personal_chat", "saved_messages":
		return model.ChatTypePersonal, nil
	case "private_group", "private_supergroup":
		return model.ChatTypePrivateGroup, nil
	default:
		return "", errors.Wrapf(model.ErrParseFailure, "unsupported chat type %q", s)
	}
}

func parseMessage(em *exportMessage, reg *userRegistry) (model.Message, error) {
	ts, err := parseTimestamp(em.DateUnixtime, em.Date)
	if err != nil {
		return model.Message{}, errors.Wrapf(err, "message %d", em.ID)
	}

	text, err := parseRichText(em.Text)
	if err != nil {
		return model.Message{}, errors.Wrapf(err, "message %d", em.ID)
	}

	var fromID model.UserID
	var typed model.Typed
	switch em.Type {
	case "message":
		fromID, err = reg.register(em.FromID, em.From)
		if err == nil {
			typed, err = parseRegular(em)
		}
	case "service":
		fromID, err = reg.register(em.ActorID, em.Actor)
		if err == nil {
			typed, err = parseService(em)
		}
	default:
		err = errors.Wrapf(model.ErrParseFailure, "unsupported message type %q", em.Type)
	}
	if err != nil {
		return model.Message{}, errors.Wrapf(err, "message %d", em.ID)
	}

	srcID := model.MessageSourceID(em.ID)
	return model.NewMessage(model.NoInternalID, &srcID, ts, fromID, text, typed), nil
}

func parseTimestamp(unixtime, date string) (model.Timestamp, error) {
	if unixtime != "" {
		v, err := strconv.ParseInt(unixtime, 10, 64)
		if err != nil {
			return 0, errors.Wrapf(model.ErrParseFailure, "unixtime %q", unixtime)
		}
		return model.Timestamp(v), nil
	}
	if date == "" {
		return 0, errors.Wrap(model.ErrParseFailure, "message has no date")
	}
	t, err := time.ParseInLocation(dateLayout, date, time.Local)
	if err != nil {
		return 0, errors.Wrapf(model.ErrParseFailure, "date %q", date)
	}
	return model.Timestamp(t.Unix()), nil
}

func parseRegular(em *exportMessage) (model.Typed, error) {
	content, err := parseContent(em)
	if err != nil {
		return nil, err
	}

	var editTs *model.Timestamp
	if em.EditedUnixtime != "" || em.Edited != "" {
		ts, err := parseTimestamp(em.EditedUnixtime, em.Edited)
		if err != nil {
			return nil, err
		}
		editTs = &ts
	}

	var fwd *string
	if len(em.ForwardedFrom) > 0 {
		// A literal null means the origin hid their identity.
		if string(em.ForwardedFrom) == "null" {
			fwd = model.StrPtr(model.Someone)
		} else {
			var name string
			if err := json.Unmarshal(em.ForwardedFrom, &name); err != nil {
				return nil, errors.Wrapf(model.ErrParseFailure, "forwarded_from %s", em.ForwardedFrom)
			}
			fwd = &name
		}
	}

	var reply *model.MessageSourceID
	if em.ReplyTo != nil {
		id := model.MessageSourceID(*em.ReplyTo)
		reply = &id
	}

	return &model.MessageRegular{
		EditTimestamp:          editTs,
		ForwardFromName:        fwd,
		ReplyToMessageSourceID: reply,
		Content:                content,
	}, nil
}

func parseContent(em *exportMessage) (model.Content, error) {
	switch {
	case em.Photo != nil:
		return &model.ContentPhoto{
			Path:   normalizePath(em.Photo),
			Width:  em.Width,
			Height: em.Height,
		}, nil
	case em.MediaType != "":
		return parseMedia(em)
	case em.File != nil:
		return &model.ContentFile{
			Path:          normalizePath(em.File),
			FileName:      em.FileName,
			MimeType:      em.MimeType,
			ThumbnailPath: normalizePath(em.Thumbnail),
		}, nil
	case em.Contact != nil:
		return &model.ContentSharedContact{
			FirstName:   em.Contact.FirstName,
			LastName:    em.Contact.LastName,
			PhoneNumber: em.Contact.PhoneNumber,
		}, nil
	case em.Location != nil:
		return &model.ContentLocation{
			Title:       em.PlaceName,
			Address:     em.Address,
			LatStr:      em.Location.Latitude.String(),
			LonStr:      em.Location.Longitude.String(),
			DurationSec: em.LivePeriod,
		}, nil
	case em.Poll != nil:
		return &model.ContentPoll{Question: em.Poll.Question}, nil
	default:
		return nil, nil
	}
}

func parseMedia(em *exportMessage) (model.Content, error) {
	switch em.MediaType {
	case "sticker":
		return &model.ContentSticker{
			Path:          normalizePath(em.File),
			Width:         em.Width,
			Height:        em.Height,
			ThumbnailPath: normalizePath(em.Thumbnail),
			Emoji:         em.StickerEmoji,
		}, nil
	case "voice_message":
		return &model.ContentVoiceMsg{
			Path:        normalizePath(em.File),
			MimeType:    em.MimeType,
			DurationSec: em.DurationSec,
		}, nil
	case "video_message":
		return &model.ContentVideoMsg{
			Path:          normalizePath(em.File),
			Width:         em.Width,
			Height:        em.Height,
			MimeType:      em.MimeType,
			DurationSec:   em.DurationSec,
			ThumbnailPath: normalizePath(em.Thumbnail),
		}, nil
	case "video_file", "animation":
		return &model.ContentVideo{
			Path:          normalizePath(em.File),
			Width:         em.Width,
			Height:        em.Height,
			MimeType:      em.MimeType,
			DurationSec:   em.DurationSec,
			ThumbnailPath: normalizePath(em.Thumbnail),
		}, nil
	case "audio_file":
		var title *string
		if em.Title != "" {
			title = model.StrPtr(em.Title)
		}
		return &model.ContentAudio{
			Path:        normalizePath(em.File),
			Title:       title,
			Performer:   em.Performer,
			MimeType:    em.MimeType,
			DurationSec: em.DurationSec,
		}, nil
	default:
		return nil, errors.Wrapf(model.ErrParseFailure, "unsupported media type %q", em.MediaType)
	}
}

func parseService(em *exportMessage) (model.Typed, error) {
	var ev model.ServiceEvent
	switch em.Action {
	case "create_group":
		ev = &model.ServiceGroupCreate{Title: em.Title, Members: memberNames(em.Members)}
	case "edit_group_title":
		ev = &model.ServiceGroupEditTitle{Title: em.Title}
	case "edit_group_photo":
		ev = &model.ServiceGroupEditPhoto{Photo: servicePhoto(em)}
	case "delete_group_photo":
		ev = &model.ServiceGroupDeletePhoto{}
	case "invite_members":
		ev = &model.ServiceGroupInviteMembers{Members: memberNames(em.Members)}
	case "remove_members":
		ev = &model.ServiceGroupRemoveMembers{Members: memberNames(em.Members)}
	case "join_group_by_link":
		// The joining actor invited themselves.
		ev = &model.ServiceGroupInviteMembers{Members: []string{actorName(em)}}
	case "phone_call":
		ev = &model.ServicePhoneCall{DurationSec: em.DurationSec, DiscardReason: discardReason(em)}
	case "group_call":
		ev = &model.ServiceGroupCall{Members: memberNames(em.Members)}
	case "pin_message":
		if em.MessageID == nil {
			return nil, errors.Wrap(model.ErrParseFailure, "pin_message without message_id")
		}
		ev = &model.ServicePinMessage{MessageSourceID: model.MessageSourceID(*em.MessageID)}
	case "clear_history":
		ev = &model.ServiceClearHistory{}
	case "suggest_profile_photo":
		ev = &model.ServiceSuggestProfilePhoto{Photo: servicePhoto(em)}
	case "migrate_from_group":
		ev = &model.ServiceGroupMigrateFrom{Title: em.Title}
	case "migrate_to_supergroup":
		ev = &model.ServiceGroupMigrateTo{}
	default:
		return nil, errors.Wrapf(model.ErrParseFailure, "unsupported service action %q", em.Action)
	}
	return &model.MessageService{Event: ev}, nil
}

func servicePhoto(em *exportMessage) model.ContentPhoto {
	return model.ContentPhoto{Path: normalizePath(em.Photo), Width: em.Width, Height: em.Height}
}

func discardReason(em *exportMessage) *string {
	if em.DiscardReason == "" {
		return nil
	}
	return model.StrPtr(em.DiscardReason)
}

func actorName(em *exportMessage) string {
	if em.Actor != nil && *em.Actor != "" {
		return *em.Actor
	}
	return model.Unknown
}

func memberNames(members []*string) []string {
	out := make([]string, 0, len(members))
	for _, m := range members {
		if m == nil {
			out = append(out, model.Unknown)
		} else {
			out = append(out, *m)
		}
	}
	return out
}

// normalizePath drops export placeholders like "(File not included. ...)".
func normalizePath(p *string) *string {
	if p == nil || *p == "" || strings.HasPrefix(*p, "(") {
		return nil
	}
	return p
}

func parseRichText(raw json.RawMessage) ([]model.RichTextElement, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, errors.Wrapf(model.ErrParseFailure, "text %s", raw)
		}
		if s == "" {
			return nil, nil
		}
		return []model.RichTextElement{model.MakePlain(s)}, nil
	}
	if trimmed[0] != '[' {
		return nil, errors.Wrapf(model.ErrParseFailure, "unexpected text shape %s", raw)
	}

	var parts []json.RawMessage
	if err := json.Unmarshal(raw, &parts); err != nil {
		return nil, errors.Wrapf(model.ErrParseFailure, "text %s", raw)
	}
	out := make([]model.RichTextElement, 0, len(parts))
	for _, part := range parts {
		if len(part) > 0 && part[0] == '"' {
			var s string
			if err := json.Unmarshal(part, &s); err != nil {
				return nil, errors.Wrapf(model.ErrParseFailure, "text part %s", part)
			}
			out = append(out, model.MakePlain(s))
			continue
		}
		var ent textEntity
		if err := json.Unmarshal(part, &ent); err != nil {
			return nil, errors.Wrapf(model.ErrParseFailure, "text part %s", part)
		}
		rte, err := parseEntity(&ent)
		if err != nil {
			return nil, err
		}
		out = append(out, rte)
	}
	return out, nil
}

func parseEntity(ent *textEntity) (model.RichTextElement, error) {
	switch ent.Type {
	case "plain", "mention":
		return model.MakePlain(ent.Text), nil
	case "bold":
		return model.MakeBold(ent.Text), nil
	case "italic":
		return model.MakeItalic(ent.Text), nil
	case "underline":
		return model.MakeUnderline(ent.Text), nil
	case "strikethrough":
		return model.MakeStrikethrough(ent.Text), nil
	case "spoiler":
		return model.MakeSpoiler(ent.Text), nil
	case "blockquote":
		return model.MakeBlockquote(ent.Text), nil
	case "code":
		return model.MakePrefmtInline(ent.Text), nil
	case "pre":
		var lang *string
		if ent.Language != "" {
			lang = model.StrPtr(ent.Language)
		}
		return model.MakePrefmtBlock(ent.Text, lang), nil
	case "text_link":
		var text *string
		if ent.Text != "" {
			text = model.StrPtr(ent.Text)
		}
		return model.MakeLink(text, ent.Href, false), nil
	case "link":
		return model.MakeLink(model.StrPtr(ent.Text), ent.Text, false), nil
	default:
		return model.RichTextElement{}, errors.Wrapf(model.ErrParseFailure, "unknown text entity type %q", ent.Type)
	}
}

//
// User registry
//

// userRegistry accumulates participants in discovery order. Telegram chat
// exports reference users as "user<id>" (or "channel<id>" for channel
// identities) and carry only a display name.
type userRegistry struct {
	dsUUID model.UUID
	order  []model.UserID
	byID   map[model.UserID]*model.User
}

func newUserRegistry(dsUUID model.UUID) *userRegistry {
	return &userRegistry{dsUUID: dsUUID, byID: map[model.UserID]*model.User{}}
}

func (r *userRegistry) register(rawID string, name *string) (model.UserID, error) {
	id, err := parseUserID(rawID)
	if err != nil {
		return model.InvalidUserID, err
	}
	if u, ok := r.byID[id]; ok {
		if u.FirstName == nil && name != nil && *name != "" {
			u.FirstName = name
		}
		return id, nil
	}
	u := &model.User{DsUUID: r.dsUUID, ID: id}
	if name != nil && *name != "" {
		u.FirstName = name
	}
	r.byID[id] = u
	r.order = append(r.order, id)
	return id, nil
}

func (r *userRegistry) users() []model.User {
	out := make([]model.User, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.byID[id])
	}
	return out
}

func parseUserID(raw string) (model.UserID, error) {
	num := raw
	switch {
	case strings.HasPrefix(raw, "user"):
		num = strings.TrimPrefix(raw, "user")
	case strings.HasPrefix(raw, "channel"):
		num = strings.TrimPrefix(raw, "channel")
	}
	v, err := strconv.ParseInt(num, 10, 64)
	if err != nil || v <= 0 {
		return model.InvalidUserID, errors.Wrapf(model.ErrParseFailure, "sender id %q", raw)
	}
	return model.UserID(v), nil
}
