//
// 🔒 CRITICAL SYSTEM FILE - Invariant Contract Testing
// ⚠️  These tests ensure system invariants are never violated
// 🛡️  Uses customer-facing APIs only (blackbox testing)
// 📋  Never mutate invariants to get incremental changes working
//

package invariants

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// InvariantChecker tests system invariants using customer-facing APIs.
// This is a blackbox test that treats the service as an external system.
type InvariantChecker struct {
	baseURL string
	client  *http.Client
}

// NewInvariantChecker creates a new invariant checker
func NewInvariantChecker(baseURL string) *InvariantChecker {
	return &InvariantChecker{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// 🔒 INVARIANT: Loading is idempotent per key
func (ic *InvariantChecker) TestLoadIdempotencyInvariant(t *testing.T, exportPath string) {
	// Step 1: First load registers the dataset
	first := ic.loadExport(t, exportPath)

	// 🔒 INVARIANT: A second load of the same key reuses the resident dataset
	t.Run("SecondLoadReusesResidentDataset", func(t *testing.T) {
		second := ic.loadExport(t, exportPath)
		assert.True(t, second.AlreadyLoaded, "second load must report alreadyLoaded")
		assert.Equal(t, first.Dataset.UUID, second.Dataset.UUID,
			"reloading must not mint a new dataset identity")
	})

	// 🔒 INVARIANT: The key appears exactly once in the loaded list
	t.Run("KeyListedExactlyOnce", func(t *testing.T) {
		keys := ic.loadedKeys(t)
		occurrences := 0
		for _, k := range keys {
			if k == exportPath {
				occurrences++
			}
		}
		assert.Equal(t, 1, occurrences, "key must be listed exactly once, got %v", keys)
	})

	ic.unloadExport(t, exportPath)
}

// 🔒 INVARIANT: Unloaded keys fail every query with 412
func (ic *InvariantChecker) TestUnloadDisciplineInvariant(t *testing.T, exportPath string) {
	ic.loadExport(t, exportPath)
	ic.unloadExport(t, exportPath)

	// 🔒 INVARIANT: No query endpoint serves an unloaded key
	t.Run("QueriesFailAfterUnload", func(t *testing.T) {
		for _, path := range []string{"/api/dao/dataset", "/api/dao/users", "/api/dao/chats"} {
			resp := ic.makeRequest(t, "POST", path,
				map[string]string{"key": exportPath}, http.StatusPreconditionFailed)

			var errorResp map[string]interface{}
			require.NoError(t, json.Unmarshal(resp, &errorResp))
			message := errorResp["message"].(string)
			assert.Contains(t, message, exportPath, "412 must name the missing key")
		}
	})

	// 🔒 INVARIANT: Unloading twice is not a silent noop
	t.Run("DoubleUnloadFailsPrecondition", func(t *testing.T) {
		ic.makeRequest(t, "POST", "/api/loader/unload",
			map[string]string{"key": exportPath}, http.StatusPreconditionFailed)
	})
}

// 🔒 INVARIANT: Internal failures never leak detail to clients
func (ic *InvariantChecker) TestOpaqueErrorInvariant(t *testing.T, exportPath string) {
	ic.loadExport(t, exportPath)
	defer ic.unloadExport(t, exportPath)

	// A chat id no export can contain
	resp := ic.makeRequest(t, "POST", "/api/dao/messages/first",
		map[string]interface{}{"key": exportPath, "chatId": -987654321, "limit": 1},
		http.StatusInternalServerError)

	var errorResp map[string]interface{}
	require.NoError(t, json.Unmarshal(resp, &errorResp))
	assert.Equal(t, "internal error", errorResp["message"],
		"500 responses must carry the generic message only")
}

// Helper methods for API interactions

type loadResponse struct {
	Key     string `json:"key"`
	Dataset struct {
		UUID  string `json:"uuid"`
		Alias string `json:"alias"`
	} `json:"dataset"`
	AlreadyLoaded bool `json:"alreadyLoaded"`
}

func (ic *InvariantChecker) loadExport(t *testing.T, exportPath string) *loadResponse {
	resp := ic.makeRequest(t, "POST", "/api/loader/load",
		map[string]string{"key": exportPath}, http.StatusOK)

	var load loadResponse
	require.NoError(t, json.Unmarshal(resp, &load))
	require.NotEmpty(t, load.Dataset.UUID, "load must return the dataset identity")
	return &load
}

func (ic *InvariantChecker) unloadExport(t *testing.T, exportPath string) {
	ic.makeRequest(t, "POST", "/api/loader/unload",
		map[string]string{"key": exportPath}, http.StatusOK)
}

func (ic *InvariantChecker) loadedKeys(t *testing.T) []string {
	resp := ic.makeRequest(t, "GET", "/api/loader/loaded", nil, http.StatusOK)

	var list struct {
		Keys []string `json:"keys"`
	}
	require.NoError(t, json.Unmarshal(resp, &list))
	return list.Keys
}

func (ic *InvariantChecker) makeRequest(t *testing.T, method, path string, body interface{}, expectedStatus int) []byte {
	var reqBody []byte
	var err error

	if body != nil {
		reqBody, err = json.Marshal(body)
		require.NoError(t, err)
	}

	req, err := http.NewRequest(method, ic.baseURL+path, bytes.NewBuffer(reqBody))
	require.NoError(t, err)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := ic.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	// Verify expected status
	assert.Equal(t, expectedStatus, resp.StatusCode,
		"Expected status %d but got %d for %s %s", expectedStatus, resp.StatusCode, method, path)

	// Read the full response body
	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return respBody
}
