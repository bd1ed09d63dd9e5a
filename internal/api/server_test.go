package api

import (
	"bytes"
	"encoding/hex"
	"encoding/json/v2"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dipa/notefournote-server/internal/auth"
	"github.com/dipa/notefournote-server/internal/search"
	"github.com/dipa/notefournote-server/internal/service"
	"github.com/dipa/notefournote-server/internal/store/sqlite"
)

// testEnvelope mirrors the response envelope with typed data.
type testEnvelope[T any] struct {
	Data    T      `json:"data"`
	Error   string `json:"error"`
	Success bool   `json:"success"`
}

// testServer bundles the HTTP server with its backing services.
type testServer struct {
	server  *Server
	cleanup func()
}

// setupTestServer wires a full server against temporary storage.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "notefournote-api-test-*")
	require.NoError(t, err)

	s, err := sqlite.Open(filepath.Join(tmpDir, "test.db"), nil)
	require.NoError(t, err)

	index, err := search.NewNoteIndex(search.Options{DataPath: tmpDir})
	require.NoError(t, err)

	authKey, err := auth.LoadOrGenerateKey(tmpDir)
	require.NoError(t, err)
	tokenService, err := auth.NewTokenService(hex.EncodeToString(authKey), 15*time.Minute)
	require.NoError(t, err)

	logger := slog.New(slog.DiscardHandler)
	projection := service.NewProjectionService(index, s, logger)
	noteService := service.NewNoteService(s, projection, logger)
	authService := service.NewAuthService(s, tokenService, logger)

	server := NewServer(authService, noteService, logger)

	return &testServer{
		server: server,
		cleanup: func() {
			_ = index.Close()
			_ = s.Close()
			_ = os.RemoveAll(tmpDir)
		},
	}
}

// do performs a request against the test server with an optional bearer
// token and JSON body.
func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	ts.server.ServeHTTP(w, req)
	return w
}

// registerAndLogin creates a user through the API and returns their token.
func (ts *testServer) registerAndLogin(t *testing.T, username string) string {
	t.Helper()

	resp := ts.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"username": username,
		"password": "a perfectly good password",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	resp = ts.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"username": username,
		"password": "a perfectly good password",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var envelope testEnvelope[service.AuthResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	require.NotEmpty(t, envelope.Data.AccessToken)

	return envelope.Data.AccessToken
}

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestRegister_And_Login(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	token := ts.registerAndLogin(t, "alice")

	resp := ts.do(t, http.MethodGet, "/api/v1/users/me", token, nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[map[string]string]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, "alice", envelope.Data["username"])

	// Duplicate registration conflicts.
	resp = ts.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"username": "alice",
		"password": "a different password here",
	})
	assert.Equal(t, http.StatusConflict, resp.Code)

	// Bad credentials give 401.
	resp = ts.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"username": "alice",
		"password": "definitely not the password",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestNotes_RequireAuth(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.do(t, http.MethodGet, "/api/v1/notes/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = ts.do(t, http.MethodGet, "/api/v1/notes/", "not-a-real-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestNotes_CRUD(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	token := ts.registerAndLogin(t, "alice")

	// Create.
	resp := ts.do(t, http.MethodPost, "/api/v1/notes/", token, map[string]any{
		"title":   "Rome trip",
		"content": "Visit the colosseum and the forum",
		"tags":    []string{"travel", " food "},
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var created testEnvelope[NoteResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
	noteID := created.Data.ID
	require.NotEmpty(t, noteID)
	assert.Equal(t, []string{"TRAVEL", "FOOD"}, created.Data.Tags)
	assert.Equal(t, "OWNED", string(created.Data.Ownership))

	// Read.
	resp = ts.do(t, http.MethodGet, "/api/v1/notes/"+noteID, token, nil)
	require.Equal(t, http.StatusOK, resp.Code)

	// Update.
	resp = ts.do(t, http.MethodPut, "/api/v1/notes/"+noteID, token, map[string]any{
		"title":   "Rome trip v2",
		"content": "Updated itinerary with day trips",
		"tags":    []string{"travel"},
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var updated testEnvelope[NoteResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &updated))
	assert.Equal(t, "Rome trip v2", updated.Data.Title)
	assert.Equal(t, []string{"TRAVEL"}, updated.Data.Tags)

	// List.
	resp = ts.do(t, http.MethodGet, "/api/v1/notes/", token, nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var list testEnvelope[[]NoteResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)

	// Delete.
	resp = ts.do(t, http.MethodDelete, "/api/v1/notes/"+noteID, token, nil)
	require.Equal(t, http.StatusNoContent, resp.Code)

	resp = ts.do(t, http.MethodGet, "/api/v1/notes/"+noteID, token, nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestNotes_Validation(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	token := ts.registerAndLogin(t, "alice")

	resp := ts.do(t, http.MethodPost, "/api/v1/notes/", token, map[string]any{
		"title":   "",
		"content": "content long enough to pass",
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = ts.do(t, http.MethodPost, "/api/v1/notes/", token, map[string]any{
		"title":   "Valid",
		"content": "too short",
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestNotes_ShareFlow(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	aliceToken := ts.registerAndLogin(t, "alice")
	bobToken := ts.registerAndLogin(t, "bob")

	resp := ts.do(t, http.MethodPost, "/api/v1/notes/", aliceToken, map[string]any{
		"title":   "Shared plans",
		"content": "Plans that alice shares with bob",
	})
	require.Equal(t, http.StatusCreated, resp.Code)

	var created testEnvelope[NoteResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
	noteID := created.Data.ID

	// Bob can't see it before the share.
	resp = ts.do(t, http.MethodGet, "/api/v1/notes/"+noteID, bobToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	// Alice shares with bob.
	resp = ts.do(t, http.MethodPost, "/api/v1/notes/"+noteID+"/share", aliceToken, map[string]any{
		"username": "bob",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var shared testEnvelope[NoteResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &shared))
	assert.Equal(t, "SHARED_BY_ME", string(shared.Data.Ownership))
	assert.Contains(t, shared.Data.SharedWith, "bob")

	// Bob now reads it, classified from his perspective.
	resp = ts.do(t, http.MethodGet, "/api/v1/notes/"+noteID, bobToken, nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var bobView testEnvelope[NoteResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &bobView))
	assert.Equal(t, "SHARED_WITH_ME", string(bobView.Data.Ownership))
	// Recipients never learn who else the owner shared with.
	assert.Empty(t, bobView.Data.SharedWith)

	// But bob can't update or re-share someone else's note.
	resp = ts.do(t, http.MethodPut, "/api/v1/notes/"+noteID, bobToken, map[string]any{
		"title":   "Hijack",
		"content": "bob tries to take over here",
	})
	assert.Equal(t, http.StatusForbidden, resp.Code)

	// Duplicate share conflicts.
	resp = ts.do(t, http.MethodPost, "/api/v1/notes/"+noteID+"/share", aliceToken, map[string]any{
		"username": "bob",
	})
	assert.Equal(t, http.StatusConflict, resp.Code)

	// Self-share is a validation error.
	resp = ts.do(t, http.MethodPost, "/api/v1/notes/"+noteID+"/share", aliceToken, map[string]any{
		"username": "alice",
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestNotes_CreateWithShares_RecipientListOwnerOnly(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	aliceToken := ts.registerAndLogin(t, "alice")
	bobToken := ts.registerAndLogin(t, "bob")
	ts.registerAndLogin(t, "carol")

	resp := ts.do(t, http.MethodPost, "/api/v1/notes/", aliceToken, map[string]any{
		"title":      "Group itinerary",
		"content":    "Shared with the whole travel group",
		"sharedWith": []string{"bob", "carol"},
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var created testEnvelope[NoteResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
	assert.ElementsMatch(t, []string{"bob", "carol"}, created.Data.SharedWith)

	// A recipient sees the note but not the other recipients.
	resp = ts.do(t, http.MethodGet, "/api/v1/notes/"+created.Data.ID, bobToken, nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var bobView testEnvelope[NoteResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &bobView))
	assert.Equal(t, "SHARED_WITH_ME", string(bobView.Data.Ownership))
	assert.Empty(t, bobView.Data.SharedWith)
}

func TestNotes_Search(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	aliceToken := ts.registerAndLogin(t, "alice")
	bobToken := ts.registerAndLogin(t, "bob")

	resp := ts.do(t, http.MethodPost, "/api/v1/notes/", aliceToken, map[string]any{
		"title":   "Budget planning",
		"content": "spreadsheets and savings goals",
		"tags":    []string{"finance"},
	})
	require.Equal(t, http.StatusCreated, resp.Code)

	resp = ts.do(t, http.MethodPost, "/api/v1/notes/", bobToken, map[string]any{
		"title":   "Budget secrets",
		"content": "bob's own private budget numbers",
	})
	require.Equal(t, http.StatusCreated, resp.Code)

	// Alice's search only returns her accessible notes.
	resp = ts.do(t, http.MethodGet, "/api/v1/notes/search?q=budget", aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var results testEnvelope[[]NoteResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &results))
	require.Len(t, results.Data, 1)
	assert.Equal(t, "Budget planning", results.Data[0].Title)

	// Tag filter via comma-separated query parameter.
	resp = ts.do(t, http.MethodGet, "/api/v1/notes/search?q=budget&tags=finance", aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &results))
	require.Len(t, results.Data, 1)

	// No criteria is rejected.
	resp = ts.do(t, http.MethodGet, "/api/v1/notes/search", aliceToken, nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}
