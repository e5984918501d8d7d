// Package whatsapp loads WhatsApp Android message stores: the msgstore.db
// database plus the sibling wa.db contact database. The store marks the
// local user itself, so the chooser is never consulted.
package whatsapp

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/chatfold/chatfold/internal/chooser"
	"github.com/chatfold/chatfold/internal/history"
	"github.com/chatfold/chatfold/internal/loader"
	"github.com/chatfold/chatfold/internal/model"
)

const (
	dbFilename       = "msgstore.db"
	contactsFilename = "wa.db"

	userServer  = "s.whatsapp.net"
	groupServer = "g.us"
)

// myselfUserID is fixed: the store itself identifies the owner.
const myselfUserID = model.UserID(1)

// Message type discriminators used by the message table.
const (
	msgTypeText         = 0
	msgTypeImage        = 1
	msgTypeAudio        = 2
	msgTypeVideo        = 3
	msgTypeContact      = 4
	msgTypeLocation     = 5
	msgTypeSystem       = 7
	msgTypeDocument     = 9
	msgTypeMissedCall   = 10
	msgTypeGif          = 13
	msgTypeRevoked      = 15
	msgTypeLiveLocation = 16
	msgTypeSticker      = 20
)

// System action discriminators used by the message_system table.
const (
	sysActionTitleChange   = 1
	sysActionInviteMembers = 4
	sysActionRemoveMembers = 5
	sysActionPhotoChange   = 6
)

type Loader struct{}

func New() *Loader { return &Loader{} }

func (l *Loader) Name() string { return "whatsapp" }

// LooksAboutRight accepts a file named msgstore.db with a sibling wa.db,
// both carrying their expected tables.
func (l *Loader) LooksAboutRight(path string) error {
	if filepath.Base(path) != dbFilename {
		return errors.Wrapf(model.ErrFormatMismatch, "%s is not named %s", filepath.Base(path), dbFilename)
	}
	contactsPath := filepath.Join(filepath.Dir(path), contactsFilename)
	if _, err := os.Stat(contactsPath); err != nil {
		return errors.Wrapf(model.ErrFormatMismatch, "sibling %s not found next to %s", contactsFilename, dbFilename)
	}

	msgDB, err := loader.OpenVendorDB(path)
	if err != nil {
		return err
	}
	defer msgDB.Close()
	if err := loader.RequireTables(msgDB, path, "chat", "jid", "message"); err != nil {
		return err
	}

	waDB, err := loader.OpenVendorDB(contactsPath)
	if err != nil {
		return err
	}
	defer waDB.Close()
	return loader.RequireTables(waDB, contactsPath, "wa_contacts", "me")
}

func (l *Loader) Load(ctx context.Context, path string, _ chooser.Chooser) (*history.Loaded, error) {
	if err := l.LooksAboutRight(path); err != nil {
		return nil, err
	}

	msgDB, err := loader.OpenVendorDB(path)
	if err != nil {
		return nil, err
	}
	defer msgDB.Close()
	waDB, err := loader.OpenVendorDB(filepath.Join(filepath.Dir(path), contactsFilename))
	if err != nil {
		return nil, err
	}
	defer waDB.Close()

	meJID, err := readMeJID(waDB)
	if err != nil {
		return nil, err
	}
	contacts, err := readContacts(waDB)
	if err != nil {
		return nil, err
	}
	jids, err := readJIDs(msgDB)
	if err != nil {
		return nil, err
	}

	ds := model.NewDataset("WhatsApp (Android)", model.SourceWhatsAppDB)
	root, err := model.NewDatasetRoot(filepath.Dir(path))
	if err != nil {
		return nil, err
	}

	reg := newUserRegistry(ds.UUID, meJID, contacts)
	p := &parser{db: msgDB, reg: reg, jids: jids}

	chatRows, err := readChats(msgDB)
	if err != nil {
		return nil, err
	}

	var cwms []history.ChatWithMessages
	for _, cr := range chatRows {
		jr, ok := jids[cr.jidRowID]
		if !ok {
			return nil, errors.Wrapf(model.ErrParseFailure, "chat %d references unknown jid row %d", cr.rowID, cr.jidRowID)
		}
		if jr.server != userServer && jr.server != groupServer {
			// Broadcast and status pseudo-chats are not conversations.
			continue
		}
		cwm, err := p.parseChat(cr, jr)
		if err != nil {
			return nil, err
		}
		cwms = append(cwms, *cwm)
	}

	return history.New(ds, root, myselfUserID, reg.users(), cwms)
}

//
// Vendor rows
//

type jidRow struct {
	user   string
	server string
	raw    string
}

type chatRow struct {
	rowID    int64
	jidRowID int64
	subject  *string
}

type mediaRow struct {
	path        *string
	mimeType    *string
	width       int32
	height      int32
	durationSec *int32
	name        *string
	caption     *string
}

func readMeJID(waDB *sql.DB) (string, error) {
	var jid string
	err := waDB.QueryRow(`SELECT jid FROM me LIMIT 1`).Scan(&jid)
	if err == sql.ErrNoRows {
		return "", errors.Wrap(model.ErrParseFailure, "wa.db holds no own identity")
	}
	if err != nil {
		return "", errors.Wrap(err, "read own jid")
	}
	return jid, nil
}

func readContacts(waDB *sql.DB) (map[string]*string, error) {
	rows, err := waDB.Query(`SELECT jid, display_name FROM wa_contacts`)
	if err != nil {
		return nil, errors.Wrap(err, "read contacts")
	}
	defer rows.Close()

	out := map[string]*string{}
	for rows.Next() {
		var jid string
		var name sql.NullString
		if err := rows.Scan(&jid, &name); err != nil {
			return nil, errors.Wrap(err, "scan contact")
		}
		if name.Valid && name.String != "" {
			out[jid] = &name.String
		} else {
			out[jid] = nil
		}
	}
	return out, rows.Err()
}

func readJIDs(msgDB *sql.DB) (map[int64]jidRow, error) {
	rows, err := msgDB.Query(`SELECT _id, user, server, raw_string FROM jid`)
	if err != nil {
		return nil, errors.Wrap(err, "read jids")
	}
	defer rows.Close()

	out := map[int64]jidRow{}
	for rows.Next() {
		var id int64
		var jr jidRow
		if err := rows.Scan(&id, &jr.user, &jr.server, &jr.raw); err != nil {
			return nil, errors.Wrap(err, "scan jid")
		}
		out[id] = jr
	}
	return out, rows.Err()
}

func readChats(msgDB *sql.DB) ([]chatRow, error) {
	rows, err := msgDB.Query(`SELECT _id, jid_row_id, subject FROM chat ORDER BY _id`)
	if err != nil {
		return nil, errors.Wrap(err, "read chats")
	}
	defer rows.Close()

	var out []chatRow
	for rows.Next() {
		var cr chatRow
		var subject sql.NullString
		if err := rows.Scan(&cr.rowID, &cr.jidRowID, &subject); err != nil {
			return nil, errors.Wrap(err, "scan chat")
		}
		if subject.Valid && subject.String != "" {
			cr.subject = &subject.String
		}
		out = append(out, cr)
	}
	return out, rows.Err()
}

//
// Parsing
//

type parser struct {
	db   *sql.DB
	reg  *userRegistry
	jids map[int64]jidRow
}

func (p *parser) parseChat(cr chatRow, jr jidRow) (*history.ChatWithMessages, error) {
	isGroup := jr.server == groupServer

	members := newMemberSet()
	var chatID model.ChatID
	var name *string
	if isGroup {
		chatID = loader.HashChatID(jr.raw)
		name = cr.subject
	} else {
		peer := p.reg.registerJID(jr)
		chatID = model.ChatID(peer)
		name = p.reg.displayName(peer)
		members.add(peer)
	}

	msgs, err := p.parseMessages(cr, members)
	if err != nil {
		return nil, errors.Wrapf(err, "chat %q", jr.raw)
	}

	chatType := model.ChatTypePersonal
	if isGroup {
		chatType = model.ChatTypePrivateGroup
	}
	return &history.ChatWithMessages{
		Chat: model.Chat{
			DsUUID:     p.reg.dsUUID,
			ID:         chatID,
			Name:       name,
			SourceType: model.SourceWhatsAppDB,
			Type:       chatType,
			MemberIDs:  members.ordered(),
		},
		Messages: msgs,
	}, nil
}

func (p *parser) parseMessages(cr chatRow, members *memberSet) ([]model.Message, error) {
	rows, err := p.db.Query(`
		SELECT _id, from_me, key_id, sender_jid_row_id, timestamp, text_data, message_type
		FROM message WHERE chat_row_id = ? ORDER BY timestamp, _id`, cr.rowID)
	if err != nil {
		return nil, errors.Wrap(err, "read messages")
	}
	defer rows.Close()

	var msgs []model.Message
	for rows.Next() {
		var rowID, tsMs int64
		var fromMe, msgType int
		var keyID string
		var sender sql.NullInt64
		var text sql.NullString
		if err := rows.Scan(&rowID, &fromMe, &keyID, &sender, &tsMs, &text, &msgType); err != nil {
			return nil, errors.Wrap(err, "scan message")
		}

		fromID, err := p.resolveSender(rowID, fromMe, sender)
		if err != nil {
			return nil, err
		}
		members.add(fromID)

		var textData *string
		if text.Valid && text.String != "" {
			textData = &text.String
		}

		textElems, typed, err := p.parsePayload(rowID, msgType, textData, members)
		if err != nil {
			return nil, errors.Wrapf(err, "message row %d", rowID)
		}

		srcID := loader.HashSourceID(keyID)
		msgs = append(msgs, model.NewMessage(
			model.NoInternalID, &srcID, model.Timestamp(tsMs/1000), fromID, textElems, typed))
	}
	return msgs, rows.Err()
}

func (p *parser) resolveSender(rowID int64, fromMe int, sender sql.NullInt64) (model.UserID, error) {
	if fromMe != 0 {
		return myselfUserID, nil
	}
	if !sender.Valid {
		return model.InvalidUserID, errors.Wrapf(model.ErrParseFailure, "message row %d has no sender", rowID)
	}
	jr, ok := p.jids[sender.Int64]
	if !ok {
		return model.InvalidUserID, errors.Wrapf(model.ErrParseFailure, "message row %d references unknown jid row %d", rowID, sender.Int64)
	}
	return p.reg.registerJID(jr), nil
}

func (p *parser) parsePayload(rowID int64, msgType int, textData *string, members *memberSet) ([]model.RichTextElement, model.Typed, error) {
	if msgType == msgTypeSystem {
		ev, err := p.parseSystem(rowID, textData, members)
		if err != nil {
			return nil, nil, err
		}
		return nil, &model.MessageService{Event: ev}, nil
	}
	if msgType == msgTypeMissedCall {
		return nil, &model.MessageService{
			Event: &model.ServicePhoneCall{DiscardReason: model.StrPtr("missed")},
		}, nil
	}
	if msgType == msgTypeRevoked {
		return nil, &model.MessageRegular{
			IsDeleted:     true,
			EditTimestamp: p.revokeTimestamp(rowID),
		}, nil
	}

	var text []model.RichTextElement
	var content model.Content
	switch msgType {
	case msgTypeText:
		text = textElements(textData)
	case msgTypeLocation, msgTypeLiveLocation:
		loc, err := p.locationFor(rowID)
		if err != nil {
			return nil, nil, err
		}
		content = loc
	case msgTypeContact:
		contact, err := p.contactFor(rowID)
		if err != nil {
			return nil, nil, err
		}
		content = contact
	case msgTypeImage, msgTypeAudio, msgTypeVideo, msgTypeGif, msgTypeDocument, msgTypeSticker:
		media, err := p.mediaFor(rowID)
		if err != nil {
			return nil, nil, err
		}
		content = mediaContent(msgType, media)
		text = textElements(media.caption)
	default:
		return nil, nil, errors.Wrapf(model.ErrParseFailure, "unsupported message type %d", msgType)
	}

	return text, &model.MessageRegular{
		EditTimestamp:          p.editTimestamp(rowID),
		ForwardFromName:        p.forwardName(rowID),
		ReplyToMessageSourceID: p.replyTo(rowID),
		Content:                content,
	}, nil
}

func (p *parser) parseSystem(rowID int64, textData *string, members *memberSet) (model.ServiceEvent, error) {
	var action int
	err := p.db.QueryRow(
		`SELECT action_type FROM message_system WHERE message_row_id = ?`, rowID).Scan(&action)
	if err == sql.ErrNoRows {
		return nil, errors.Wrap(model.ErrParseFailure, "system message without action")
	}
	if err != nil {
		return nil, errors.Wrap(err, "read system action")
	}

	switch action {
	case sysActionTitleChange:
		var title string
		if textData != nil {
			title = *textData
		}
		return &model.ServiceGroupEditTitle{Title: title}, nil
	case sysActionInviteMembers:
		names, err := p.participantNames(rowID, members)
		if err != nil {
			return nil, err
		}
		return &model.ServiceGroupInviteMembers{Members: names}, nil
	case sysActionRemoveMembers:
		names, err := p.participantNames(rowID, members)
		if err != nil {
			return nil, err
		}
		return &model.ServiceGroupRemoveMembers{Members: names}, nil
	case sysActionPhotoChange:
		return &model.ServiceGroupEditPhoto{Photo: model.ContentPhoto{}}, nil
	default:
		return nil, errors.Wrapf(model.ErrParseFailure, "unsupported system action %d", action)
	}
}

func (p *parser) participantNames(rowID int64, members *memberSet) ([]string, error) {
	rows, err := p.db.Query(`
		SELECT user_jid_row_id FROM message_system_chat_participant
		WHERE message_row_id = ? ORDER BY user_jid_row_id`, rowID)
	if err != nil {
		return nil, errors.Wrap(err, "read system participants")
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var jidRowID int64
		if err := rows.Scan(&jidRowID); err != nil {
			return nil, errors.Wrap(err, "scan system participant")
		}
		jr, ok := p.jids[jidRowID]
		if !ok {
			return nil, errors.Wrapf(model.ErrParseFailure, "system participant references unknown jid row %d", jidRowID)
		}
		id := p.reg.registerJID(jr)
		members.add(id)
		names = append(names, p.reg.prettyName(id))
	}
	return names, rows.Err()
}

func (p *parser) mediaFor(rowID int64) (*mediaRow, error) {
	var m mediaRow
	var path, mime, name, caption sql.NullString
	var width, height, duration sql.NullInt64
	err := p.db.QueryRow(`
		SELECT file_path, mime_type, width, height, media_duration, media_name, media_caption
		FROM message_media WHERE message_row_id = ?`, rowID).
		Scan(&path, &mime, &width, &height, &duration, &name, &caption)
	if err == sql.ErrNoRows {
		return nil, errors.Wrap(model.ErrParseFailure, "media message without media row")
	}
	if err != nil {
		return nil, errors.Wrap(err, "read media")
	}
	m.path = nullableStr(path)
	m.mimeType = nullableStr(mime)
	m.name = nullableStr(name)
	m.caption = nullableStr(caption)
	m.width = int32(width.Int64)
	m.height = int32(height.Int64)
	if duration.Valid {
		d := int32(duration.Int64)
		m.durationSec = &d
	}
	return &m, nil
}

func mediaContent(msgType int, m *mediaRow) model.Content {
	switch msgType {
	case msgTypeImage:
		return &model.ContentPhoto{Path: m.path, Width: m.width, Height: m.height}
	case msgTypeAudio:
		return &model.ContentVoiceMsg{Path: m.path, MimeType: m.mimeType, DurationSec: m.durationSec}
	case msgTypeVideo, msgTypeGif:
		return &model.ContentVideo{
			Path: m.path, Width: m.width, Height: m.height,
			MimeType: m.mimeType, DurationSec: m.durationSec,
		}
	case msgTypeDocument:
		return &model.ContentFile{Path: m.path, FileName: m.name, MimeType: m.mimeType}
	case msgTypeSticker:
		return &model.ContentSticker{Path: m.path, Width: m.width, Height: m.height}
	}
	panic("unhandled media message type")
}

func (p *parser) locationFor(rowID int64) (*model.ContentLocation, error) {
	var lat, lon float64
	var placeName, placeAddress sql.NullString
	var liveDuration sql.NullInt64
	err := p.db.QueryRow(`
		SELECT latitude, longitude, place_name, place_address, live_location_share_duration
		FROM message_location WHERE message_row_id = ?`, rowID).
		Scan(&lat, &lon, &placeName, &placeAddress, &liveDuration)
	if err == sql.ErrNoRows {
		return nil, errors.Wrap(model.ErrParseFailure, "location message without location row")
	}
	if err != nil {
		return nil, errors.Wrap(err, "read location")
	}

	loc := &model.ContentLocation{
		Title:   nullableStr(placeName),
		Address: nullableStr(placeAddress),
		LatStr:  fmt.Sprintf("%.8f", lat),
		LonStr:  fmt.Sprintf("%.8f", lon),
	}
	if liveDuration.Valid {
		d := int32(liveDuration.Int64)
		loc.DurationSec = &d
	}
	return loc, nil
}

func (p *parser) contactFor(rowID int64) (*model.ContentSharedContact, error) {
	var vcard string
	err := p.db.QueryRow(
		`SELECT vcard FROM message_vcard WHERE message_row_id = ?`, rowID).Scan(&vcard)
	if err == sql.ErrNoRows {
		return nil, errors.Wrap(model.ErrParseFailure, "contact message without vcard row")
	}
	if err != nil {
		return nil, errors.Wrap(err, "read vcard")
	}
	return parseVCard(vcard)
}

func (p *parser) editTimestamp(rowID int64) *model.Timestamp {
	var tsMs int64
	err := p.db.QueryRow(
		`SELECT edited_timestamp FROM message_edit_info WHERE message_row_id = ?`, rowID).Scan(&tsMs)
	if err != nil {
		return nil
	}
	ts := model.Timestamp(tsMs / 1000)
	return &ts
}

func (p *parser) revokeTimestamp(rowID int64) *model.Timestamp {
	var tsMs sql.NullInt64
	err := p.db.QueryRow(
		`SELECT revoke_timestamp FROM message_revoked WHERE message_row_id = ?`, rowID).Scan(&tsMs)
	if err != nil || !tsMs.Valid {
		return nil
	}
	ts := model.Timestamp(tsMs.Int64 / 1000)
	return &ts
}

func (p *parser) forwardName(rowID int64) *string {
	var score int64
	err := p.db.QueryRow(
		`SELECT forward_score FROM message_forwarded WHERE message_row_id = ?`, rowID).Scan(&score)
	if err != nil {
		return nil
	}
	// The store never records who the origin was.
	return model.StrPtr(model.Someone)
}

func (p *parser) replyTo(rowID int64) *model.MessageSourceID {
	var keyID string
	err := p.db.QueryRow(
		`SELECT key_id FROM message_quoted WHERE message_row_id = ?`, rowID).Scan(&keyID)
	if err != nil {
		return nil
	}
	id := loader.HashSourceID(keyID)
	return &id
}

func textElements(s *string) []model.RichTextElement {
	if s == nil || *s == "" {
		return nil
	}
	return []model.RichTextElement{model.MakePlain(*s)}
}

func nullableStr(v sql.NullString) *string {
	if v.Valid && v.String != "" {
		return &v.String
	}
	return nil
}

//
// User registry
//

type userRegistry struct {
	dsUUID   model.UUID
	meJID    string
	contacts map[string]*string
	order    []model.UserID
	byID     map[model.UserID]*model.User
}

func newUserRegistry(dsUUID model.UUID, meJID string, contacts map[string]*string) *userRegistry {
	r := &userRegistry{
		dsUUID:   dsUUID,
		meJID:    meJID,
		contacts: contacts,
		byID:     map[model.UserID]*model.User{},
	}
	myself := &model.User{
		DsUUID:      dsUUID,
		ID:          myselfUserID,
		FirstName:   contacts[meJID],
		PhoneNumber: phoneFromJID(meJID),
	}
	r.byID[myselfUserID] = myself
	r.order = append(r.order, myselfUserID)
	return r
}

func (r *userRegistry) registerJID(jr jidRow) model.UserID {
	if jr.raw == r.meJID {
		return myselfUserID
	}
	id := loader.HashUserID(jr.raw)
	if _, ok := r.byID[id]; ok {
		return id
	}
	u := &model.User{DsUUID: r.dsUUID, ID: id, FirstName: r.contacts[jr.raw]}
	if jr.server == userServer {
		u.PhoneNumber = model.StrPtr("+" + jr.user)
	}
	r.byID[id] = u
	r.order = append(r.order, id)
	return id
}

func (r *userRegistry) displayName(id model.UserID) *string {
	return r.byID[id].FirstName
}

func (r *userRegistry) prettyName(id model.UserID) string {
	return r.byID[id].PrettyName()
}

func (r *userRegistry) users() []model.User {
	out := make([]model.User, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.byID[id])
	}
	return out
}

func phoneFromJID(jid string) *string {
	user, _, ok := strings.Cut(jid, "@")
	if !ok || user == "" {
		return nil
	}
	return model.StrPtr("+" + user)
}

//
// Member tracking
//

// memberSet keeps chat membership with myself first and everyone else in
// first-seen order.
type memberSet struct {
	order []model.UserID
	seen  map[model.UserID]bool
}

func newMemberSet() *memberSet {
	return &memberSet{
		order: []model.UserID{myselfUserID},
		seen:  map[model.UserID]bool{myselfUserID: true},
	}
}

func (s *memberSet) add(id model.UserID) {
	if !s.seen[id] {
		s.seen[id] = true
		s.order = append(s.order, id)
	}
}

func (s *memberSet) ordered() []model.UserID {
	return append([]model.UserID(nil), s.order...)
}
