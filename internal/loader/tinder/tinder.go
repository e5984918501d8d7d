// Package tinder loads Tinder Android match databases. The database stores
// no own profile, so a fixed "Me" user is synthesized; each match becomes a
// personal chat with the matched person.
//
// GIF messages reference remote media. Those are fetched through the
// injected HTTP client and materialized next to the dataset root, making
// this the only loader that touches the network.
package tinder

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"

	"github.com/chatfold/chatfold/internal/chooser"
	"github.com/chatfold/chatfold/internal/history"
	"github.com/chatfold/chatfold/internal/loader"
	"github.com/chatfold/chatfold/internal/model"
)

const (
	dbFilename = "tinder-3.db"

	// Fetched media land in a sibling of the dataset root, so stored paths
	// step out of the root by one level.
	mediaDirName     = "Media"
	relativeMediaDir = "../" + mediaDirName
)

const myselfUserID = model.UserID(1)

type Loader struct {
	http loader.HTTPClient
}

func New(client loader.HTTPClient) *Loader { return &Loader{http: client} }

func (l *Loader) Name() string { return "tinder" }

func (l *Loader) LooksAboutRight(path string) error {
	if filepath.Base(path) != dbFilename {
		return errors.Wrapf(model.ErrFormatMismatch, "%s is not named %s", filepath.Base(path), dbFilename)
	}
	db, err := loader.OpenVendorDB(path)
	if err != nil {
		return err
	}
	defer db.Close()
	return loader.RequireTables(db, path, "match", "match_person", "message")
}

func (l *Loader) Load(ctx context.Context, path string, _ chooser.Chooser) (*history.Loaded, error) {
	if err := l.LooksAboutRight(path); err != nil {
		return nil, err
	}
	db, err := loader.OpenVendorDB(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	ds := model.NewDataset("Tinder (Android)", model.SourceTinderDB)
	root, err := model.NewDatasetRoot(filepath.Dir(path))
	if err != nil {
		return nil, err
	}

	myself := model.User{
		DsUUID:    ds.UUID,
		ID:        myselfUserID,
		FirstName: model.StrPtr("Me"),
	}
	users := []model.User{myself}

	matches, err := readMatches(db)
	if err != nil {
		return nil, err
	}

	var cwms []history.ChatWithMessages
	for _, m := range matches {
		peer := model.User{
			DsUUID:    ds.UUID,
			ID:        loader.HashUserID(m.personID),
			FirstName: m.personName,
		}
		users = append(users, peer)

		msgs, err := l.parseMessages(ctx, db, root, m, peer.ID)
		if err != nil {
			return nil, errors.Wrapf(err, "match %q", m.id)
		}

		cwms = append(cwms, history.ChatWithMessages{
			Chat: model.Chat{
				DsUUID:     ds.UUID,
				ID:         model.ChatID(peer.ID),
				Name:       peer.FirstName,
				SourceType: model.SourceTinderDB,
				Type:       model.ChatTypePersonal,
				MemberIDs:  []model.UserID{myselfUserID, peer.ID},
			},
			Messages: msgs,
		})
	}

	return history.New(ds, root, myselfUserID, users, cwms)
}

type matchRow struct {
	id         string
	personID   string
	personName *string
}

func readMatches(db *sql.DB) ([]matchRow, error) {
	rows, err := db.Query(`
		SELECT m.id, p.id, p.name
		FROM match m JOIN match_person p ON p.id = m.person_id
		ORDER BY m.id`)
	if err != nil {
		return nil, errors.Wrap(err, "read matches")
	}
	defer rows.Close()

	var out []matchRow
	for rows.Next() {
		var m matchRow
		var name sql.NullString
		if err := rows.Scan(&m.id, &m.personID, &name); err != nil {
			return nil, errors.Wrap(err, "scan match")
		}
		if name.Valid && name.String != "" {
			m.personName = &name.String
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (l *Loader) parseMessages(
	ctx context.Context,
	db *sql.DB,
	root model.DatasetRoot,
	m matchRow,
	peerID model.UserID,
) ([]model.Message, error) {
	rows, err := db.Query(`
		SELECT id, from_id, text, sent_date, type
		FROM message WHERE match_id = ? ORDER BY sent_date, id`, m.id)
	if err != nil {
		return nil, errors.Wrap(err, "read messages")
	}
	defer rows.Close()

	var msgs []model.Message
	for rows.Next() {
		var id, msgType string
		var fromID, text sql.NullString
		var sentMs int64
		if err := rows.Scan(&id, &fromID, &text, &sentMs, &msgType); err != nil {
			return nil, errors.Wrap(err, "scan message")
		}

		from := myselfUserID
		if fromID.Valid && fromID.String == m.personID {
			from = peerID
		}

		var textElems []model.RichTextElement
		var content model.Content
		switch msgType {
		case "text":
			if text.Valid && text.String != "" {
				textElems = []model.RichTextElement{model.MakePlain(text.String)}
			}
		case "gif":
			if !text.Valid || text.String == "" {
				return nil, errors.Wrapf(model.ErrParseFailure, "gif message %q has no url", id)
			}
			sticker, err := l.fetchGif(ctx, root, text.String)
			if err != nil {
				return nil, err
			}
			content = sticker
		default:
			return nil, errors.Wrapf(model.ErrParseFailure, "unsupported message type %q", msgType)
		}

		srcID := loader.HashSourceID(id)
		msgs = append(msgs, model.NewMessage(
			model.NoInternalID, &srcID, model.Timestamp(sentMs/1000), from, textElems,
			&model.MessageRegular{Content: content}))
	}
	return msgs, rows.Err()
}

// fetchGif downloads the referenced GIF into the sibling media directory and
// returns it as sticker content. Reported dimensions are half of the real
// ones, so they are doubled.
func (l *Loader) fetchGif(ctx context.Context, root model.DatasetRoot, rawURL string) (*model.ContentSticker, error) {
	body, err := l.http.GetBytes(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	mediaDir := filepath.Join(filepath.Dir(string(root)), mediaDirName)
	if err := os.MkdirAll(mediaDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create media dir")
	}
	name := fmt.Sprintf("%d.gif", loader.HashSourceID(rawURL))
	if err := os.WriteFile(filepath.Join(mediaDir, name), body, 0o644); err != nil {
		return nil, errors.Wrap(err, "write gif")
	}

	width, height := gifDimensions(rawURL)
	return &model.ContentSticker{
		Path:   model.StrPtr(relativeMediaDir + "/" + name),
		Width:  width,
		Height: height,
	}, nil
}

func gifDimensions(rawURL string) (int32, int32) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0, 0
	}
	q := u.Query()
	parse := func(key string) int32 {
		v, err := strconv.Atoi(q.Get(key))
		if err != nil {
			return 0
		}
		return int32(v)
	}
	return 2 * parse("width"), 2 * parse("height")
}
