package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatfold/chatfold/internal/chooser"
	"github.com/chatfold/chatfold/internal/config"
	"github.com/chatfold/chatfold/internal/history"
	"github.com/chatfold/chatfold/internal/loader"
	"github.com/chatfold/chatfold/internal/model"
	"github.com/chatfold/chatfold/internal/registry"
)

const (
	firstChatID  = 100
	secondChatID = 200
)

// fakeLoader recognizes every path and hands out a pre-built dataset.
type fakeLoader struct {
	loaded *history.Loaded
}

func (f *fakeLoader) Name() string { return "fake" }

func (f *fakeLoader) LooksAboutRight(string) error { return nil }

func (f *fakeLoader) Load(context.Context, string, chooser.Chooser) (*history.Loaded, error) {
	return f.loaded, nil
}

// fixtureLoaded builds one dataset with two chats describing the same
// conversation: the second one has an edited text and an extra message, so a
// self-diff yields predictable differences.
func fixtureLoaded(t *testing.T) *history.Loaded {
	t.Helper()
	ds := model.NewDataset("Fixture", model.SourceTelegram)
	root, err := model.NewDatasetRoot(t.TempDir())
	require.NoError(t, err)

	users := []model.User{
		{DsUUID: ds.UUID, ID: 1, FirstName: model.StrPtr("Aaaaa")},
		{DsUUID: ds.UUID, ID: 2, FirstName: model.StrPtr("Bbbbb")},
	}

	src := func(v int64) *model.MessageSourceID {
		id := model.MessageSourceID(v)
		return &id
	}
	plain := func(s string) []model.RichTextElement {
		return []model.RichTextElement{model.MakePlain(s)}
	}

	firstMsgs := []model.Message{
		model.NewMessage(model.NoInternalID, src(1), 1000, 2, plain("hello"), &model.MessageRegular{}),
		model.NewMessage(model.NoInternalID, src(2), 2000, 1, plain("world"), &model.MessageRegular{}),
	}
	secondMsgs := []model.Message{
		model.NewMessage(model.NoInternalID, src(1), 1000, 2, plain("hello"), &model.MessageRegular{}),
		model.NewMessage(model.NoInternalID, src(2), 2000, 1, plain("world, edited"), &model.MessageRegular{}),
		model.NewMessage(model.NoInternalID, src(3), 3000, 2, plain("a new one"), &model.MessageRegular{}),
	}

	chat := func(id model.ChatID, name string, msgs []model.Message) history.ChatWithMessages {
		return history.ChatWithMessages{
			Chat: model.Chat{
				DsUUID:     ds.UUID,
				ID:         id,
				Name:       model.StrPtr(name),
				SourceType: ds.SourceType,
				Type:       model.ChatTypePersonal,
				MemberIDs:  []model.UserID{1, 2},
			},
			Messages: msgs,
		}
	}

	loaded, err := history.New(ds, root, 1, users, []history.ChatWithMessages{
		chat(firstChatID, "First", firstMsgs),
		chat(secondChatID, "Second", secondMsgs),
	})
	require.NoError(t, err)
	return loaded
}

type env struct {
	server *httptest.Server
	key    string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	front := loader.NewFront(zerolog.Nop(), &fakeLoader{loaded: fixtureLoaded(t)})
	reg := registry.New(zerolog.Nop())
	router := NewRouter(zerolog.Nop(), config.NewForTesting(), front, reg, chooser.NoChooser{})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &env{server: server, key: existingSource(t)}
}

func existingSource(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "export.dat")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	return path
}

func (e *env) post(t *testing.T, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(e.server.URL+path, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func (e *env) get(t *testing.T, path string) (int, map[string]interface{}) {
	t.Helper()
	resp, err := http.Get(e.server.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func (e *env) load(t *testing.T) {
	t.Helper()
	code, _ := e.post(t, "/api/loader/load", map[string]string{"key": e.key})
	require.Equal(t, http.StatusOK, code)
}

func TestHealth(t *testing.T) {
	e := newEnv(t)
	code, out := e.get(t, "/api/health")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", out["status"])
}

func TestLoadAndQueryRoundTrip(t *testing.T) {
	e := newEnv(t)

	code, out := e.post(t, "/api/loader/load", map[string]string{"key": e.key})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, out["alreadyLoaded"])
	assert.Equal(t, "Fixture", out["dataset"].(map[string]interface{})["alias"])

	code, out = e.post(t, "/api/loader/load", map[string]string{"key": e.key})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, out["alreadyLoaded"])

	code, out = e.get(t, "/api/loader/loaded")
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, out["count"])
	assert.Equal(t, []interface{}{e.key}, out["keys"])

	t.Run("dataset", func(t *testing.T) {
		code, out := e.post(t, "/api/dao/dataset", map[string]string{"key": e.key})
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, "Fixture", out["dataset"].(map[string]interface{})["alias"])
		assert.NotEmpty(t, out["root"])
	})

	t.Run("users are myself-first", func(t *testing.T) {
		code, out := e.post(t, "/api/dao/users", map[string]string{"key": e.key})
		require.Equal(t, http.StatusOK, code)
		assert.EqualValues(t, 2, out["count"])
		users := out["users"].([]interface{})
		assert.EqualValues(t, 1, users[0].(map[string]interface{})["id"])
	})

	t.Run("chats carry details", func(t *testing.T) {
		code, out := e.post(t, "/api/dao/chats", map[string]string{"key": e.key})
		require.Equal(t, http.StatusOK, code)
		assert.EqualValues(t, 2, out["count"])
		first := out["chats"].([]interface{})[0].(map[string]interface{})
		assert.EqualValues(t, firstChatID, first["chat"].(map[string]interface{})["id"])
		members := first["members"].([]interface{})
		assert.EqualValues(t, 1, members[0].(map[string]interface{})["id"])
		assert.Equal(t, "world", first["lastMsg"].(map[string]interface{})["searchableString"])
	})

	t.Run("message queries", func(t *testing.T) {
		code, out := e.post(t, "/api/dao/messages/first",
			map[string]interface{}{"key": e.key, "chatId": firstChatID, "limit": 1})
		require.Equal(t, http.StatusOK, code)
		assert.EqualValues(t, 1, out["count"])
		msgs := out["messages"].([]interface{})
		assert.Equal(t, "hello", msgs[0].(map[string]interface{})["searchableString"])

		code, out = e.post(t, "/api/dao/messages/last",
			map[string]interface{}{"key": e.key, "chatId": secondChatID, "limit": 1})
		require.Equal(t, http.StatusOK, code)
		msgs = out["messages"].([]interface{})
		assert.Equal(t, "a new one", msgs[0].(map[string]interface{})["searchableString"])

		code, out = e.post(t, "/api/dao/messages/slice",
			map[string]interface{}{"key": e.key, "chatId": secondChatID, "offset": 1, "limit": 5})
		require.Equal(t, http.StatusOK, code)
		assert.EqualValues(t, 2, out["count"])

		code, out = e.post(t, "/api/dao/message",
			map[string]interface{}{"key": e.key, "chatId": firstChatID, "sourceId": 2})
		require.Equal(t, http.StatusOK, code)
		msg := out["message"].(map[string]interface{})
		assert.Equal(t, "world", msg["searchableString"])
	})
}

func TestQueriesRequireLoadedDataset(t *testing.T) {
	e := newEnv(t)

	code, out := e.post(t, "/api/dao/users", map[string]string{"key": e.key})
	require.Equal(t, http.StatusPreconditionFailed, code)
	assert.Contains(t, out["message"], e.key)

	e.load(t)
	code, _ = e.post(t, "/api/dao/users", map[string]string{"key": e.key})
	require.Equal(t, http.StatusOK, code)

	code, _ = e.post(t, "/api/loader/unload", map[string]string{"key": e.key})
	require.Equal(t, http.StatusOK, code)

	code, _ = e.post(t, "/api/dao/users", map[string]string{"key": e.key})
	assert.Equal(t, http.StatusPreconditionFailed, code)

	code, _ = e.post(t, "/api/loader/unload", map[string]string{"key": e.key})
	assert.Equal(t, http.StatusPreconditionFailed, code)
}

func TestMergeDiff(t *testing.T) {
	e := newEnv(t)
	e.load(t)

	code, out := e.post(t, "/api/merge/diff", map[string]interface{}{
		"masterKey":    e.key,
		"masterChatId": firstChatID,
		"slaveKey":     e.key,
		"slaveChatId":  secondChatID,
	})
	require.Equal(t, http.StatusOK, code)
	require.EqualValues(t, 2, out["count"])

	diffs := out["differences"].([]interface{})
	textDiff := diffs[0].(map[string]interface{})
	assert.Contains(t, textDiff["message"], "source id 2")
	assert.Contains(t, textDiff["message"], "text differs")
	values := textDiff["values"].(map[string]interface{})
	assert.Equal(t, `"world"`, values["old"])
	assert.Equal(t, `"world, edited"`, values["new"])
	assert.Contains(t, diffs[1].(map[string]interface{})["message"], "added in slave")

	t.Run("slave side must be loaded too", func(t *testing.T) {
		code, _ := e.post(t, "/api/merge/diff", map[string]interface{}{
			"masterKey":    e.key,
			"masterChatId": firstChatID,
			"slaveKey":     filepath.Join(t.TempDir(), "absent.dat"),
			"slaveChatId":  secondChatID,
		})
		assert.Equal(t, http.StatusPreconditionFailed, code)
	})
}

func TestParseDoesNotRegister(t *testing.T) {
	e := newEnv(t)

	code, out := e.post(t, "/api/loader/parse", map[string]string{"path": e.key})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Fixture", out["dataset"].(map[string]interface{})["alias"])
	assert.Len(t, out["users"], 2)
	assert.Len(t, out["chats"], 2)
	assert.EqualValues(t, 1, out["myself"].(map[string]interface{})["id"])

	code, out = e.get(t, "/api/loader/loaded")
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 0, out["count"])
}

func TestBadRequests(t *testing.T) {
	e := newEnv(t)

	t.Run("relative key", func(t *testing.T) {
		code, out := e.post(t, "/api/loader/load", map[string]string{"key": "relative/path"})
		require.Equal(t, http.StatusBadRequest, code)
		assert.Contains(t, out["message"], "absolute")
	})

	t.Run("empty parse path", func(t *testing.T) {
		code, _ := e.post(t, "/api/loader/parse", map[string]string{"path": ""})
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("negative limit", func(t *testing.T) {
		code, _ := e.post(t, "/api/dao/messages/first",
			map[string]interface{}{"key": e.key, "chatId": firstChatID, "limit": -1})
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("malformed body", func(t *testing.T) {
		resp, err := http.Post(e.server.URL+"/api/loader/load", "application/json",
			bytes.NewReader([]byte("{not json")))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

// Failures other than a missing dataset must not leak detail to the client.
func TestInternalErrorsAreOpaque(t *testing.T) {
	e := newEnv(t)
	e.load(t)

	code, out := e.post(t, "/api/dao/messages/first",
		map[string]interface{}{"key": e.key, "chatId": 999, "limit": 5})
	require.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "internal error", out["message"])
}
