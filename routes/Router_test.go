package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threadhive/composer"
	"threadhive/controllers"
	"threadhive/database"
	"threadhive/feed"
	"threadhive/listing"
	"threadhive/metrics"
	"threadhive/social"
	"threadhive/storage"
)

const testHost = "http://files.test/"

type testApp struct {
	router *gin.Engine
	ctl    *controllers.Controller
	blobs  *storage.MemoryStore
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := database.NewMemoryStore()
	blobs := storage.NewMemoryStore(testHost)
	m := metrics.New()
	graph := social.NewGraph(store, logger, m)
	limits := composer.DefaultLimits()

	ctl := &controllers.Controller{
		Store:          store,
		Blobs:          blobs,
		Graph:          graph,
		Lists:          listing.NewAssembler(store, graph, logger, m),
		Drafts:         composer.NewDrafts(composer.Deps{Store: store, Blobs: blobs, Logger: logger, Metrics: m, Limits: limits}),
		Feed:           feed.New(store, logger),
		Logger:         logger,
		Secret:         []byte("test-secret"),
		Limits:         limits,
		AllowedOrigins: []string{"http://localhost:3000"},
	}
	return &testApp{router: NewRouter(ctl, m, logger), ctl: ctl, blobs: blobs}
}

func (a *testApp) do(t *testing.T, method, path, token string, body io.Reader, contentType string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var out map[string]any
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w.Code, out
}

func (a *testApp) doJSON(t *testing.T, method, path, token string, payload any) (int, map[string]any) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	return a.do(t, method, path, token, body, "application/json")
}

// signUp creates an account and logs it in, returning the user id and token.
func (a *testApp) signUp(t *testing.T, name, email string, public bool) (string, string) {
	t.Helper()
	code, out := a.doJSON(t, http.MethodPost, "/signup", "", gin.H{
		"name":            name,
		"email":           email,
		"password":        "password123",
		"isProfilePublic": public,
	})
	require.Equal(t, http.StatusCreated, code, out)
	id := out["data"].(map[string]any)["_id"].(string)

	code, out = a.doJSON(t, http.MethodPost, "/login", "", gin.H{"email": email, "password": "password123"})
	require.Equal(t, http.StatusOK, code, out)
	return id, out["token"].(string)
}

type upload struct {
	name string
	data []byte
}

func multipartBody(t *testing.T, text string, files ...upload) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if text != "" {
		require.NoError(t, w.WriteField("text", text))
	}
	for _, f := range files {
		part, err := w.CreateFormFile("files", f.name)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func ids(t *testing.T, out map[string]any) []string {
	t.Helper()
	var userIDs []string
	for _, item := range out["data"].([]any) {
		userIDs = append(userIDs, item.(map[string]any)["userId"].(string))
	}
	return userIDs
}

func TestAuthFlow(t *testing.T) {
	app := newTestApp(t)
	id, token := app.signUp(t, "Alice", "Alice@Example.com", true)

	code, out := app.doJSON(t, http.MethodPost, "/signup", "", gin.H{
		"name": "Other", "email": "alice@example.com", "password": "password123",
	})
	assert.Equal(t, http.StatusBadRequest, code, out)

	code, _ = app.doJSON(t, http.MethodPost, "/signup", "", gin.H{
		"name": "Mallory", "email": "not-an-email", "password": "password123",
	})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = app.doJSON(t, http.MethodPost, "/signup", "", gin.H{
		"name": "Mallory", "email": "mallory@example.com", "password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = app.doJSON(t, http.MethodPost, "/login", "", gin.H{"email": "alice@example.com", "password": "wrong-password"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, out = app.doJSON(t, http.MethodGet, "/validate", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, id, out["data"].(map[string]any)["_id"])
	assert.NotContains(t, out["data"], "password")

	code, _ = app.doJSON(t, http.MethodGet, "/validate", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = app.doJSON(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestFollowAndLists(t *testing.T) {
	app := newTestApp(t)
	aliceID, aliceToken := app.signUp(t, "Alice", "alice@example.com", true)
	bobID, bobToken := app.signUp(t, "Bob", "bob@example.com", false)

	code, out := app.doJSON(t, http.MethodPost, "/follow/"+bobID, aliceToken, nil)
	require.Equal(t, http.StatusOK, code, out)
	assert.Equal(t, true, out["isFollowing"])

	code, out = app.doJSON(t, http.MethodGet, "/followers/"+bobID, bobToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{aliceID}, ids(t, out))
	assert.Equal(t, false, out["empty"])

	code, out = app.doJSON(t, http.MethodGet, "/following/"+aliceID, aliceToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{bobID}, ids(t, out))

	code, out = app.doJSON(t, http.MethodGet, "/profile?email=bob@example.com", aliceToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), out["followers"])
	assert.Equal(t, true, out["isFollowing"])

	code, out = app.doJSON(t, http.MethodPost, "/follow/"+bobID, aliceToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, out["isFollowing"])

	code, out = app.doJSON(t, http.MethodGet, "/followers/"+bobID, bobToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, out["data"])
	assert.Equal(t, true, out["empty"])

	code, _ = app.doJSON(t, http.MethodPost, "/follow/"+aliceID, aliceToken, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = app.doJSON(t, http.MethodPost, "/follow/"+bobID, "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestSearch(t *testing.T) {
	app := newTestApp(t)
	aliceID, token := app.signUp(t, "Alice", "alice@example.com", true)
	bobID, _ := app.signUp(t, "Bob", "bob@example.com", false)

	code, out := app.doJSON(t, http.MethodGet, "/search", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{aliceID, bobID}, ids(t, out))

	code, out = app.doJSON(t, http.MethodGet, "/search?q=BO", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{bobID}, ids(t, out))

	code, out = app.doJSON(t, http.MethodGet, "/search?type=profile", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{aliceID}, ids(t, out))

	code, out = app.doJSON(t, http.MethodGet, "/search?q=nobody", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, out["empty"])

	bio := "likes gophers"
	code, _ = app.doJSON(t, http.MethodPut, "/profile", token, gin.H{"bio": bio})
	require.Equal(t, http.StatusOK, code)
	code, out = app.doJSON(t, http.MethodGet, "/search?q=GOPHER", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{aliceID}, ids(t, out))
}

func TestCreatePostWithFiles(t *testing.T) {
	app := newTestApp(t)
	aliceID, token := app.signUp(t, "Alice", "alice@example.com", true)

	body, contentType := multipartBody(t, "hello",
		upload{"one.png", []byte("first")},
		upload{"two.png", []byte("second")},
	)
	code, out := app.do(t, http.MethodPost, "/posts", token, body, contentType)
	require.Equal(t, http.StatusCreated, code, out)
	assert.Empty(t, out["rejected"])

	post := out["post"].(map[string]any)
	assert.Equal(t, "hello", post["post"])
	assert.Equal(t, "Alice", post["username"])
	files := post["files"].([]any)
	require.Len(t, files, 2)

	// the file URL is served by this process
	req := httptest.NewRequest(http.MethodGet, "/"+strings.TrimPrefix(files[1].(string), testHost), nil)
	w := httptest.NewRecorder()
	app.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "second", w.Body.String())

	code, out = app.doJSON(t, http.MethodGet, "/posts/"+aliceID, token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, out["posts"], 1)

	code, out = app.doJSON(t, http.MethodGet, "/post/"+post["id"].(string), token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "hello", out["post"].(map[string]any)["post"])

	code, _ = app.doJSON(t, http.MethodGet, "/post/missing", token, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestCreatePostRejectsExtraFiles(t *testing.T) {
	app := newTestApp(t)
	_, token := app.signUp(t, "Alice", "alice@example.com", true)

	var files []upload
	for i := 0; i < 4; i++ {
		files = append(files, upload{fmt.Sprintf("f%d.png", i), []byte("x")})
	}
	body, contentType := multipartBody(t, "four files", files...)
	code, out := app.do(t, http.MethodPost, "/posts", token, body, contentType)
	require.Equal(t, http.StatusCreated, code, out)
	assert.Len(t, out["rejected"], 1)
	assert.Len(t, out["post"].(map[string]any)["files"], 3)

	body, contentType = multipartBody(t, "   ")
	code, _ = app.do(t, http.MethodPost, "/posts", token, body, contentType)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestDraftFlow(t *testing.T) {
	app := newTestApp(t)
	_, token := app.signUp(t, "Alice", "alice@example.com", true)

	code, out := app.doJSON(t, http.MethodPost, "/drafts/submit", token, nil)
	assert.Equal(t, http.StatusBadRequest, code, out)

	code, _ = app.doJSON(t, http.MethodPut, "/drafts/text", token, gin.H{"text": "draft post"})
	require.Equal(t, http.StatusOK, code)

	body, contentType := multipartBody(t, "", upload{"a.png", []byte("a")}, upload{"b.png", []byte("b")})
	code, out = app.do(t, http.MethodPost, "/drafts/files", token, body, contentType)
	require.Equal(t, http.StatusOK, code, out)
	assert.Len(t, out["data"].(map[string]any)["files"], 2)

	code, out = app.doJSON(t, http.MethodDelete, "/drafts/files/0", token, nil)
	require.Equal(t, http.StatusOK, code)
	draft := out["data"].(map[string]any)
	require.Len(t, draft["files"], 1)
	assert.Equal(t, "b.png", draft["files"].([]any)[0].(map[string]any)["name"])

	code, _ = app.doJSON(t, http.MethodDelete, "/drafts/files/9", token, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, out = app.doJSON(t, http.MethodPost, "/drafts/submit", token, nil)
	require.Equal(t, http.StatusCreated, code, out)
	assert.Equal(t, composer.DefaultView, out["next"])
	assert.Len(t, out["post"].(map[string]any)["files"], 1)

	code, out = app.doJSON(t, http.MethodGet, "/drafts", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "", out["data"].(map[string]any)["text"])
}

func TestRecordingSocket(t *testing.T) {
	app := newTestApp(t)
	aliceID, token := app.signUp(t, "Alice", "alice@example.com", true)

	srv := httptest.NewServer(app.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/drafts/recording"
	header := http.Header{"Authorization": []string{"Bearer " + token}}

	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	defer conn.Close()

	var event map[string]any
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, "recording", event["action"])

	// a second session is refused while the first runs
	busy, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	require.NoError(t, busy.ReadJSON(&event))
	assert.Equal(t, "busy", event["action"])
	busy.Close()

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte("abc")))
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte("def")))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"action":"stop"}`)))

	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, "stopped", event["action"])
	assert.Equal(t, float64(1), event["files"])

	files := app.ctl.Drafts.Get(aliceID).Files()
	require.Len(t, files, 1)
	assert.Equal(t, composer.RecordingName, files[0].Name)
	assert.Equal(t, "abcdef", string(files[0].Data))

	_, _, err = websocket.DefaultDialer.Dial(url, nil)
	assert.Error(t, err)
}

func TestDiscardDuringRecording(t *testing.T) {
	app := newTestApp(t)
	aliceID, token := app.signUp(t, "Alice", "alice@example.com", true)

	srv := httptest.NewServer(app.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/drafts/recording"
	conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{"Authorization": []string{"Bearer " + token}})
	require.NoError(t, err)
	defer conn.Close()

	var event map[string]any
	require.NoError(t, conn.ReadJSON(&event))
	require.Equal(t, "recording", event["action"])
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte("abc")))

	code, _ := app.doJSON(t, http.MethodDelete, "/drafts", token, nil)
	require.Equal(t, http.StatusOK, code)

	// the next chunk finds the recording gone
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte("def")))
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, "discarded", event["action"])

	draft := app.ctl.Drafts.Get(aliceID)
	assert.Empty(t, draft.Files())
	assert.False(t, draft.IsRecording())
}
