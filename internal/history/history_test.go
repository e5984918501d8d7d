package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatfold/chatfold/internal/model"
)

func srcID(v int64) *model.MessageSourceID {
	id := model.MessageSourceID(v)
	return &id
}

func textMsg(src *model.MessageSourceID, ts model.Timestamp, from model.UserID, text string) model.Message {
	return model.NewMessage(model.NoInternalID, src, ts, from,
		[]model.RichTextElement{model.MakePlain(text)}, &model.MessageRegular{})
}

// fixture builds a two-user dataset with one personal chat of three messages.
// Users are deliberately passed with myself last to exercise reordering.
func fixture(t *testing.T) (*Loaded, model.Dataset) {
	t.Helper()
	ds := model.NewDataset("fixture", model.SourceTelegram)
	root := model.DatasetRoot(t.TempDir())

	users := []model.User{
		{DsUUID: ds.UUID, ID: 2, FirstName: model.StrPtr("Alice")},
		{DsUUID: ds.UUID, ID: 1, FirstName: model.StrPtr("Me")},
	}
	cwms := []ChatWithMessages{{
		Chat: model.Chat{
			DsUUID:     ds.UUID,
			ID:         2,
			Name:       model.StrPtr("Alice"),
			SourceType: model.SourceTelegram,
			Type:       model.ChatTypePersonal,
			MemberIDs:  []model.UserID{1, 2},
		},
		Messages: []model.Message{
			textMsg(srcID(100), 1000, 1, "hi"),
			textMsg(srcID(101), 1010, 2, "hello"),
			textMsg(nil, 1020, 1, "unsent draft echo"),
		},
	}}

	loaded, err := New(ds, root, 1, users, cwms)
	require.NoError(t, err)
	return loaded, ds
}

func TestNew_OrdersMyselfFirstAndAssignsInternalIDs(t *testing.T) {
	loaded, ds := fixture(t)

	assert.Equal(t, ds.UUID, loaded.Dataset().UUID)
	require.Len(t, loaded.Users(), 2)
	assert.Equal(t, model.UserID(1), loaded.Users()[0].ID)
	assert.Equal(t, model.UserID(1), loaded.Myself().ID)

	msgs, err := loaded.Messages(2)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	for i, m := range msgs {
		assert.Equal(t, model.MessageInternalID(i), m.InternalID)
	}

	chats := loaded.Chats()
	require.Len(t, chats, 1)
	assert.Equal(t, 3, chats[0].Chat.MsgCount)
}

func TestNew_Validation(t *testing.T) {
	ds := model.NewDataset("v", model.SourceTelegram)
	root := model.DatasetRoot(t.TempDir())
	me := model.User{DsUUID: ds.UUID, ID: 1}
	alice := model.User{DsUUID: ds.UUID, ID: 2}
	okChat := func(members ...model.UserID) []ChatWithMessages {
		return []ChatWithMessages{{Chat: model.Chat{
			DsUUID: ds.UUID, ID: 2, SourceType: ds.SourceType,
			Type: model.ChatTypePersonal, MemberIDs: members,
		}}}
	}

	cases := []struct {
		name   string
		myself model.UserID
		users  []model.User
		cwms   []ChatWithMessages
	}{
		{"invalid myself id", 0, []model.User{me}, nil},
		{"myself not among users", 9, []model.User{me, alice}, nil},
		{"duplicate user id", 1, []model.User{me, me}, nil},
		{"foreign user ds uuid", 1, []model.User{{DsUUID: "other", ID: 1}}, nil},
		{"chat references unknown member", 1, []model.User{me}, okChat(1, 77)},
		{"chat without myself", 1, []model.User{me, alice}, okChat(2)},
		{
			"foreign chat ds uuid", 1, []model.User{me},
			[]ChatWithMessages{{Chat: model.Chat{DsUUID: "other", ID: 3, MemberIDs: []model.UserID{1}}}},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(ds, root, tc.myself, tc.users, tc.cwms)
			require.Error(t, err)
			assert.ErrorIs(t, err, model.ErrValidation)
		})
	}
}

func TestChats_DetailsShape(t *testing.T) {
	loaded, _ := fixture(t)

	chats := loaded.Chats()
	require.Len(t, chats, 1)
	cwd := chats[0]

	require.Len(t, cwd.Members, 2)
	assert.Equal(t, model.UserID(1), cwd.Members[0].ID, "myself leads the member list")
	assert.Equal(t, model.UserID(2), cwd.Members[1].ID)

	require.NotNil(t, cwd.LastMsg)
	assert.Equal(t, model.Timestamp(1020), cwd.LastMsg.Timestamp)

	assert.Nil(t, loaded.ChatOption(999))
	found := loaded.ChatOption(2)
	require.NotNil(t, found)
	assert.Equal(t, "'Alice' (#2)", found.Chat.QualifiedName())
}

func TestMessageWindows(t *testing.T) {
	loaded, _ := fixture(t)

	first, err := loaded.FirstMessages(2, 2)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, model.Timestamp(1000), first[0].Timestamp)

	last, err := loaded.LastMessages(2, 2)
	require.NoError(t, err)
	require.Len(t, last, 2)
	assert.Equal(t, model.Timestamp(1010), last[0].Timestamp)
	assert.Equal(t, model.Timestamp(1020), last[1].Timestamp)

	// Limits beyond the count clamp instead of failing.
	all, err := loaded.FirstMessages(2, 100)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	slice, err := loaded.MessagesSlice(2, 1, 1)
	require.NoError(t, err)
	require.Len(t, slice, 1)
	assert.Equal(t, model.Timestamp(1010), slice[0].Timestamp)

	empty, err := loaded.MessagesSlice(2, 10, 5)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = loaded.FirstMessages(2, -1)
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = loaded.FirstMessages(404, 1)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestMessageBySourceID(t *testing.T) {
	loaded, _ := fixture(t)

	m, err := loaded.MessageBySourceID(2, 101)
	require.NoError(t, err)
	assert.Equal(t, model.Timestamp(1010), m.Timestamp)

	_, err = loaded.MessageBySourceID(2, 999)
	assert.ErrorIs(t, err, model.ErrNotFound)

	n, err := loaded.CountMessages(2)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
