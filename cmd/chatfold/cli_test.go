package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatfold/chatfold/internal/history"
	"github.com/chatfold/chatfold/internal/model"
)

func buildHistory(t *testing.T, chats ...history.ChatWithMessages) *history.Loaded {
	t.Helper()
	ds := model.NewDataset("Fixture", model.SourceTelegram)
	root, err := model.NewDatasetRoot(t.TempDir())
	require.NoError(t, err)

	users := []model.User{
		{DsUUID: ds.UUID, ID: 1, FirstName: model.StrPtr("Aaaaa")},
		{DsUUID: ds.UUID, ID: 2, FirstName: model.StrPtr("Bbbbb")},
	}
	for i := range chats {
		chats[i].Chat.DsUUID = ds.UUID
		chats[i].Chat.SourceType = ds.SourceType
		chats[i].Chat.Type = model.ChatTypePersonal
		chats[i].Chat.MemberIDs = []model.UserID{1, 2}
	}

	loaded, err := history.New(ds, root, 1, users, chats)
	require.NoError(t, err)
	return loaded
}

func msg(srcID int64, ts model.Timestamp, text string) model.Message {
	id := model.MessageSourceID(srcID)
	return model.NewMessage(model.NoInternalID, &id, ts, 2,
		[]model.RichTextElement{model.MakePlain(text)}, &model.MessageRegular{})
}

func TestPrintSummary(t *testing.T) {
	loaded := buildHistory(t, history.ChatWithMessages{
		Chat:     model.Chat{ID: 10, Name: model.StrPtr("Talk")},
		Messages: []model.Message{msg(1, 1000, "hello")},
	})

	var out bytes.Buffer
	printSummary(&out, loaded)

	s := out.String()
	assert.Contains(t, s, `Dataset "Fixture" (telegram)`)
	assert.Contains(t, s, "Myself  Aaaaa")
	assert.Contains(t, s, "Users   2")
	assert.Contains(t, s, "Chats   1")
	assert.Contains(t, s, "'Talk' (#10): personal, 2 members, 1 messages")
}

func TestPrintDiff(t *testing.T) {
	master := buildHistory(t,
		history.ChatWithMessages{
			Chat:     model.Chat{ID: 10, Name: model.StrPtr("Talk")},
			Messages: []model.Message{msg(1, 1000, "hello"), msg(2, 2000, "world")},
		},
		history.ChatWithMessages{
			Chat: model.Chat{ID: 20, Name: model.StrPtr("Gone")},
		},
	)
	slave := buildHistory(t,
		history.ChatWithMessages{
			Chat:     model.Chat{ID: 10, Name: model.StrPtr("Talk")},
			Messages: []model.Message{msg(1, 1000, "hello"), msg(2, 2000, "world!")},
		},
		history.ChatWithMessages{
			Chat: model.Chat{ID: 30, Name: model.StrPtr("Fresh")},
		},
	)

	var out bytes.Buffer
	require.NoError(t, printDiff(&out, master, slave))

	s := out.String()
	assert.Contains(t, s, "'Talk' (#10): 1 differences")
	assert.Contains(t, s, "text differs")
	assert.Contains(t, s, `old: "world"`)
	assert.Contains(t, s, `new: "world!"`)
	assert.Contains(t, s, "'Gone' (#20): no counterpart in slave")
	assert.Contains(t, s, "'Fresh' (#30): only in slave")
}

func TestPrintDiffIdentical(t *testing.T) {
	mk := func() *history.Loaded {
		return buildHistory(t, history.ChatWithMessages{
			Chat:     model.Chat{ID: 10, Name: model.StrPtr("Talk")},
			Messages: []model.Message{msg(1, 1000, "hello")},
		})
	}

	var out bytes.Buffer
	require.NoError(t, printDiff(&out, mk(), mk()))
	assert.Contains(t, out.String(), "No differences")
}
