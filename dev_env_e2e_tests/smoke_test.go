//go:build e2e
// +build e2e

package e2e

import (
	"net/http"
	"os"
	"testing"
	"time"
)

// -----------------------------------------------------------------------------
//
//	Smoke: load → query → diff → unload against a running service
//
// -----------------------------------------------------------------------------
// Exercises the full request surface over a real export. The export path must
// be absolute and readable by the service process; the chat format is whatever
// the loader front detects. Skips when the stack is not up or no export is
// configured.
func TestDevEnv_LoadQueryDiffUnload(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping in short mode")
	}

	base := env("CHATFOLD_API", "http://localhost:8080")
	export := os.Getenv("CHATFOLD_E2E_EXPORT")
	if export == "" {
		t.Skip("CHATFOLD_E2E_EXPORT not set")
	}
	if err := ping(base + "/api/health"); err != nil {
		t.Skipf("service %s unreachable: %v", base, err)
	}
	waitForHealthy(t, base, 10*time.Second)

	// 1. Load and register the export
	var loadResp struct {
		Key     string `json:"key"`
		Dataset struct {
			UUID  string `json:"uuid"`
			Alias string `json:"alias"`
		} `json:"dataset"`
		AlreadyLoaded bool `json:"alreadyLoaded"`
	}
	mustJSON(t, postJSON(t, base+"/api/loader/load", map[string]string{"key": export}), &loadResp)
	if loadResp.Dataset.UUID == "" {
		t.Fatalf("load returned no dataset uuid: %+v", loadResp)
	}
	t.Logf("loaded %q as dataset %s", loadResp.Dataset.Alias, loadResp.Dataset.UUID)

	// 2. The key must now be listed
	var listResp struct {
		Keys  []string `json:"keys"`
		Count int      `json:"count"`
	}
	resp, err := http.Get(base + "/api/loader/loaded")
	if err != nil {
		t.Fatalf("GET loaded: %v", err)
	}
	mustJSON(t, resp, &listResp)
	found := false
	for _, k := range listResp.Keys {
		if k == export {
			found = true
		}
	}
	if !found {
		t.Fatalf("export key not listed after load: %v", listResp.Keys)
	}

	// 3. Query chats and pull the first page of the first chat
	var chatsResp struct {
		Chats []struct {
			Chat struct {
				ID       int64 `json:"id"`
				MsgCount int   `json:"msgCount"`
			} `json:"chat"`
		} `json:"chats"`
		Count int `json:"count"`
	}
	mustJSON(t, postJSON(t, base+"/api/dao/chats", map[string]string{"key": export}), &chatsResp)
	if chatsResp.Count == 0 {
		t.Fatalf("export contains no chats")
	}
	chatID := chatsResp.Chats[0].Chat.ID

	var msgsResp struct {
		Messages []struct {
			SearchableString string `json:"searchableString"`
		} `json:"messages"`
		Count int `json:"count"`
	}
	mustJSON(t, postJSON(t, base+"/api/dao/messages/first",
		map[string]interface{}{"key": export, "chatId": chatID, "limit": 10}), &msgsResp)
	t.Logf("chat #%d: %d messages in first page", chatID, msgsResp.Count)

	// 4. A chat diffed against itself reports no differences
	var diffResp struct {
		Count int `json:"count"`
	}
	mustJSON(t, postJSON(t, base+"/api/merge/diff", map[string]interface{}{
		"masterKey":    export,
		"masterChatId": chatID,
		"slaveKey":     export,
		"slaveChatId":  chatID,
	}), &diffResp)
	if diffResp.Count != 0 {
		t.Fatalf("self-diff reported %d differences", diffResp.Count)
	}

	// 5. Unload; subsequent queries must fail the loaded-key precondition
	var unloadResp struct {
		Key string `json:"key"`
	}
	mustJSON(t, postJSON(t, base+"/api/loader/unload", map[string]string{"key": export}), &unloadResp)

	after := postJSON(t, base+"/api/dao/users", map[string]string{"key": export})
	defer after.Body.Close()
	if after.StatusCode != http.StatusPreconditionFailed {
		t.Fatalf("query after unload: want 412, got %d", after.StatusCode)
	}
}

// Parse must inspect a source without registering it. The configured export
// must be a format that carries its own identity (the one-shot parse runs
// with the rejecting resolver, so a Telegram export fails here).
func TestDevEnv_ParseIsStateless(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping in short mode")
	}

	base := env("CHATFOLD_API", "http://localhost:8080")
	export := os.Getenv("CHATFOLD_E2E_EXPORT")
	if export == "" {
		t.Skip("CHATFOLD_E2E_EXPORT not set")
	}
	if err := ping(base + "/api/health"); err != nil {
		t.Skipf("service %s unreachable: %v", base, err)
	}

	before := loadedCount(t, base)

	var parseResp struct {
		Dataset struct {
			Alias string `json:"alias"`
		} `json:"dataset"`
	}
	mustJSON(t, postJSON(t, base+"/api/loader/parse", map[string]string{"path": export}), &parseResp)
	if parseResp.Dataset.Alias == "" {
		t.Fatalf("parse returned no dataset alias")
	}

	if after := loadedCount(t, base); after != before {
		t.Fatalf("parse changed the loaded set: %d -> %d", before, after)
	}
}

func loadedCount(t *testing.T, base string) int {
	resp, err := http.Get(base + "/api/loader/loaded")
	if err != nil {
		t.Fatalf("GET loaded: %v", err)
	}
	var listResp struct {
		Count int `json:"count"`
	}
	mustJSON(t, resp, &listResp)
	return listResp.Count
}
