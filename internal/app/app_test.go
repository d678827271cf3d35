package app

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"github.com/projectnexus/nexus/internal/application/notification"
	infraauth "github.com/projectnexus/nexus/internal/infrastructure/auth"
	"github.com/projectnexus/nexus/internal/infrastructure/http/handlers"
	"github.com/projectnexus/nexus/internal/infrastructure/lockout"
	"github.com/projectnexus/nexus/internal/infrastructure/metrics"
	"github.com/projectnexus/nexus/internal/infrastructure/persistence/memory"
	"github.com/projectnexus/nexus/internal/infrastructure/queue"
	"github.com/projectnexus/nexus/internal/infrastructure/realtime"
	"github.com/projectnexus/nexus/internal/infrastructure/security"
	"github.com/projectnexus/nexus/internal/infrastructure/storage"
	"github.com/projectnexus/nexus/internal/infrastructure/webhook"
)

var testKey *rsa.PrivateKey

func signingKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	if testKey == nil {
		k, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			t.Fatal(err)
		}
		testKey = k
	}
	return testKey
}

type testAPI struct {
	t       *testing.T
	srv     *httptest.Server
	store   *memory.Store
	objects *storage.MemoryStorage
	hub     *realtime.Hub
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	log := zerolog.Nop()
	store := memory.NewStore()
	objects := storage.NewMemoryStorage("")
	hub := realtime.NewHub(log)
	deliverer := notification.NewDeliverer(store.Notifications(), hub)
	h, err := NewHandler(Backends{
		Users:         store.Users(),
		Projects:      store.Projects(),
		Versions:      store.Versions(),
		Activities:    store.Activities(),
		Notifications: store.Notifications(),
		Tx:            store,
		Storage:       objects,
		Enqueuer:      queue.NewInlineEnqueuer(deliverer, webhook.NewNoopEmitter(), log),
		Issuer:        infraauth.NewTokenIssuer(signingKey(t), "nexus", "nexus"),
		Hasher:        security.NewArgon2Hasher(security.Argon2Params{Memory: 1024, Iterations: 1, Parallelism: 1}),
		Lockout:       lockout.NewMemoryStore(3, 60),
		Stream:        hub,
		Metrics:       metrics.New(),
		Checks:        map[string]handlers.Pinger{"storage": objects},
	}, Options{ShareBaseURL: "http://nexus.test", ExposeMetrics: true}, log)
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return &testAPI{t: t, srv: srv, store: store, objects: objects, hub: hub}
}

type response struct {
	Status  int
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
}

func (r response) decode(t *testing.T, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(r.Data, v); err != nil {
		t.Fatalf("decode data %s: %v", r.Data, err)
	}
}

func (a *testAPI) send(req *http.Request, token string) response {
	a.t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		a.t.Fatal(err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	out := response{Status: resp.StatusCode}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			a.t.Fatalf("%s %s: body %q: %v", req.Method, req.URL.Path, raw, err)
		}
	}
	return out
}

func (a *testAPI) do(method, path, token string, body interface{}) response {
	a.t.Helper()
	var rd io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, a.srv.URL+path, rd)
	if err != nil {
		a.t.Fatal(err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return a.send(req, token)
}

func (a *testAPI) upload(path, token, name, content string) response {
	a.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		a.t.Fatal(err)
	}
	_, _ = fw.Write([]byte(content))
	_ = mw.WriteField("notes", "from test")
	_ = mw.Close()
	req, err := http.NewRequest(http.MethodPost, a.srv.URL+path, &buf)
	if err != nil {
		a.t.Fatal(err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return a.send(req, token)
}

type session struct {
	ID    string
	Email string
	Token string
}

func (a *testAPI) register(name string) session {
	a.t.Helper()
	email := name + "@example.com"
	res := a.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": name, "email": email, "password": "correct horse",
	})
	if res.Status != http.StatusCreated {
		a.t.Fatalf("register %s: %d %s", name, res.Status, res.Message)
	}
	var data struct {
		AccessToken string `json:"access_token"`
		User        struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	res.decode(a.t, &data)
	return session{ID: data.User.ID, Email: email, Token: data.AccessToken}
}

func (a *testAPI) createProject(owner session, name string) string {
	a.t.Helper()
	res := a.do(http.MethodPost, "/api/projects", owner.Token, map[string]string{"name": name})
	if res.Status != http.StatusCreated {
		a.t.Fatalf("create project: %d %s", res.Status, res.Message)
	}
	var p struct {
		ID string `json:"id"`
	}
	res.decode(a.t, &p)
	return p.ID
}

func TestRegisterLoginAndMe(t *testing.T) {
	api := newTestAPI(t)
	alice := api.register("alice")

	dup := api.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "ALICE@example.com", "password": "another password",
	})
	if dup.Status != http.StatusConflict || dup.Success {
		t.Fatalf("duplicate register = %d %+v", dup.Status, dup)
	}

	login := api.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": alice.Email, "password": "correct horse"})
	if login.Status != http.StatusOK {
		t.Fatalf("login = %d %s", login.Status, login.Message)
	}
	bad := api.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": alice.Email, "password": "wrong password"})
	if bad.Status != http.StatusUnauthorized || bad.Code != handlers.ErrCodeInvalidCredentials {
		t.Fatalf("bad login = %d %s", bad.Status, bad.Code)
	}

	me := api.do(http.MethodGet, "/api/users/me", alice.Token, nil)
	var user struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	me.decode(t, &user)
	if user.Email != alice.Email || user.Name != "alice" {
		t.Fatalf("me = %+v", user)
	}

	if res := api.do(http.MethodGet, "/api/users/me", "", nil); res.Status != http.StatusUnauthorized {
		t.Fatalf("anonymous me = %d", res.Status)
	}
	if res := api.do(http.MethodGet, "/api/users/me", "not-a-jwt", nil); res.Status != http.StatusUnauthorized {
		t.Fatalf("garbage token = %d", res.Status)
	}
}

func TestRegisterValidation(t *testing.T) {
	api := newTestAPI(t)
	tests := []struct {
		name string
		body map[string]string
	}{
		{"missing email", map[string]string{"password": "long enough"}},
		{"bad email", map[string]string{"email": "nope", "password": "long enough"}},
		{"short password", map[string]string{"email": "x@example.com", "password": "short"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := api.do(http.MethodPost, "/api/auth/register", "", tt.body)
			if res.Status != http.StatusBadRequest || res.Code != handlers.ErrCodeInvalidRequest {
				t.Fatalf("got %d %s %s", res.Status, res.Code, res.Message)
			}
		})
	}
}

func TestLoginLockout(t *testing.T) {
	api := newTestAPI(t)
	alice := api.register("alice")
	for i := 0; i < 3; i++ {
		api.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": alice.Email, "password": "wrong password"})
	}
	res := api.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": alice.Email, "password": "correct horse"})
	if res.Status != http.StatusTooManyRequests || res.Code != handlers.ErrCodeAccountLocked {
		t.Fatalf("locked login = %d %s", res.Status, res.Code)
	}
}

func TestVersionApprovalOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	alice := api.register("alice")
	bob := api.register("bob")
	eve := api.register("eve")
	pid := api.createProject(alice, "Thesis")

	if res := api.do(http.MethodPost, "/api/projects/"+pid+"/users", alice.Token, map[string]string{
		"email": bob.Email, "access_type": "editor",
	}); res.Status != http.StatusOK {
		t.Fatalf("add collaborator = %d %s", res.Status, res.Message)
	}

	up := api.upload("/api/projects/"+pid+"/versions/upload-file", bob.Token, "draft.pdf", "%PDF-1.4 body")
	if up.Status != http.StatusCreated {
		t.Fatalf("upload = %d %s", up.Status, up.Message)
	}
	var v struct {
		ID            string `json:"id"`
		Status        string `json:"status"`
		VersionNumber int    `json:"version_number"`
		FileSize      int64  `json:"file_size"`
	}
	up.decode(t, &v)
	if v.Status != "pending" || v.VersionNumber != 1 || v.FileSize != int64(len("%PDF-1.4 body")) {
		t.Fatalf("uploaded version = %+v", v)
	}

	var inbox struct {
		Notifications []struct {
			Type string `json:"type"`
		} `json:"notifications"`
		UnreadCount int `json:"unread_count"`
	}
	api.do(http.MethodGet, "/api/notifications", alice.Token, nil).decode(t, &inbox)
	if inbox.UnreadCount != 1 || inbox.Notifications[0].Type != "new_version" {
		t.Fatalf("creator inbox = %+v", inbox)
	}

	var list struct {
		Approved []json.RawMessage `json:"approved"`
		Pending  []json.RawMessage `json:"pending"`
	}
	api.do(http.MethodGet, "/api/projects/"+pid+"/versions", alice.Token, nil).decode(t, &list)
	if len(list.Approved) != 0 || len(list.Pending) != 1 {
		t.Fatalf("creator list = %d approved %d pending", len(list.Approved), len(list.Pending))
	}

	if res := api.do(http.MethodPut, "/api/projects/"+pid+"/versions/"+v.ID+"/status", bob.Token, map[string]string{"status": "approved"}); res.Status != http.StatusForbidden {
		t.Fatalf("editor approval = %d", res.Status)
	}
	if res := api.do(http.MethodPut, "/api/projects/"+pid+"/versions/"+v.ID+"/status", alice.Token, map[string]string{"status": "published"}); res.Status != http.StatusBadRequest {
		t.Fatalf("bad decision = %d", res.Status)
	}
	approve := api.do(http.MethodPut, "/api/projects/"+pid+"/versions/"+v.ID+"/status", alice.Token, map[string]string{"status": "approved"})
	if approve.Status != http.StatusOK {
		t.Fatalf("approve = %d %s", approve.Status, approve.Message)
	}
	if again := api.do(http.MethodPut, "/api/projects/"+pid+"/versions/"+v.ID+"/status", alice.Token, map[string]string{"status": "rejected"}); again.Status != http.StatusNotFound {
		t.Fatalf("second decision = %d", again.Status)
	}

	var project struct {
		CurrentVersion string `json:"current_version"`
		Access         string `json:"access"`
	}
	api.do(http.MethodGet, "/api/projects/"+pid, bob.Token, nil).decode(t, &project)
	if project.CurrentVersion != v.ID || project.Access != "editor" {
		t.Fatalf("project after approval = %+v", project)
	}

	var got struct {
		DownloadURL string `json:"download_url"`
		ExpiresIn   int    `json:"expires_in"`
	}
	api.do(http.MethodGet, "/api/projects/"+pid+"/versions/"+v.ID, bob.Token, nil).decode(t, &got)
	if !strings.Contains(got.DownloadURL, "mode=get") || got.ExpiresIn <= 0 {
		t.Fatalf("download = %+v", got)
	}

	if res := api.do(http.MethodGet, "/api/projects/"+pid, eve.Token, nil); res.Status != http.StatusForbidden {
		t.Fatalf("stranger read = %d", res.Status)
	}
	if res := api.do(http.MethodGet, "/api/projects/not-a-uuid", eve.Token, nil); res.Status != http.StatusBadRequest {
		t.Fatalf("bad id = %d", res.Status)
	}
}

func TestAccessRequestOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	alice := api.register("alice")
	carol := api.register("carol")
	pid := api.createProject(alice, "Atlas")

	res := api.do(http.MethodPost, "/api/projects/"+pid+"/request-access", carol.Token, map[string]string{"request_type": "editor"})
	if res.Status != http.StatusCreated {
		t.Fatalf("request = %d %s", res.Status, res.Message)
	}
	var req struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	res.decode(t, &req)
	if dup := api.do(http.MethodPost, "/api/projects/"+pid+"/request-access", carol.Token, nil); dup.Status != http.StatusConflict {
		t.Fatalf("duplicate request = %d", dup.Status)
	}
	if list := api.do(http.MethodGet, "/api/projects/"+pid+"/access-requests", carol.Token, nil); list.Status != http.StatusForbidden {
		t.Fatalf("requester listing = %d", list.Status)
	}

	var pending []struct {
		ID string `json:"id"`
	}
	api.do(http.MethodGet, "/api/projects/"+pid+"/access-requests", alice.Token, nil).decode(t, &pending)
	if len(pending) != 1 || pending[0].ID != req.ID {
		t.Fatalf("pending = %+v", pending)
	}

	path := "/api/projects/" + pid + "/access-requests/" + req.ID
	if res := api.do(http.MethodPut, path, alice.Token, map[string]string{"status": "approved", "access_type": "viewer"}); res.Status != http.StatusOK {
		t.Fatalf("approve = %d %s", res.Status, res.Message)
	}
	if res := api.do(http.MethodPut, path, alice.Token, map[string]string{"status": "rejected"}); res.Status != http.StatusConflict {
		t.Fatalf("re-decide = %d", res.Status)
	}
	var project struct {
		Access string `json:"access"`
	}
	api.do(http.MethodGet, "/api/projects/"+pid, carol.Token, nil).decode(t, &project)
	if project.Access != "viewer" {
		t.Fatalf("carol access = %q", project.Access)
	}
}

func TestShareLinkIsPublic(t *testing.T) {
	api := newTestAPI(t)
	alice := api.register("alice")
	pid := api.createProject(alice, "Atlas")

	var share struct {
		ShareURL string `json:"share_url"`
		Token    string `json:"token"`
	}
	api.do(http.MethodPost, "/api/projects/"+pid+"/share", alice.Token, map[string]int{"days": 2}).decode(t, &share)
	if share.ShareURL != "http://nexus.test/shared/project/"+share.Token {
		t.Fatalf("share url = %q", share.ShareURL)
	}

	var view struct {
		Name     string `json:"name"`
		SharedBy string `json:"shared_by"`
	}
	api.do(http.MethodGet, "/api/share/"+share.Token, "", nil).decode(t, &view)
	if view.Name != "Atlas" || view.SharedBy != alice.ID {
		t.Fatalf("shared view = %+v", view)
	}
	if res := api.do(http.MethodGet, "/api/share/garbage", "", nil); res.Status != http.StatusUnauthorized || res.Code != handlers.ErrCodeInvalidToken {
		t.Fatalf("garbage share = %d %s", res.Status, res.Code)
	}
}

func TestRevertAndActivityOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	alice := api.register("alice")
	pid := api.createProject(alice, "Atlas")

	var ids []string
	for i := 0; i < 3; i++ {
		res := api.do(http.MethodPost, "/api/projects/"+pid+"/versions", alice.Token, map[string]interface{}{
			"file_key":  "projects/" + pid + "/versions/v" + string(rune('1'+i)) + ".pdf",
			"file_name": "atlas.pdf",
			"file_size": 10,
		})
		if res.Status != http.StatusCreated || res.Message != "version created" {
			t.Fatalf("create version = %d %s", res.Status, res.Message)
		}
		var v struct {
			ID string `json:"id"`
		}
		res.decode(t, &v)
		ids = append(ids, v.ID)
	}

	res := api.do(http.MethodPost, "/api/projects/"+pid+"/versions/"+ids[0]+"/revert", alice.Token, nil)
	if res.Status != http.StatusOK {
		t.Fatalf("revert = %d %s", res.Status, res.Message)
	}
	var reverted struct {
		DeletedVersions int `json:"deleted_versions"`
		Project         struct {
			CurrentVersion string   `json:"current_version"`
			Versions       []string `json:"versions"`
		} `json:"project"`
	}
	res.decode(t, &reverted)
	if reverted.DeletedVersions != 2 || reverted.Project.CurrentVersion != ids[0] || len(reverted.Project.Versions) != 1 {
		t.Fatalf("revert result = %+v", reverted)
	}

	var page struct {
		Activities []struct {
			Action string `json:"action"`
		} `json:"activities"`
		Pagination struct {
			Page  int `json:"page"`
			Limit int `json:"limit"`
			Total int `json:"total"`
			Pages int `json:"pages"`
		} `json:"pagination"`
	}
	api.do(http.MethodGet, "/api/activities/project/"+pid+"?limit=2&page=1", alice.Token, nil).decode(t, &page)
	if page.Pagination.Total < 5 || len(page.Activities) != 2 || page.Pagination.Pages < 3 {
		t.Fatalf("activity page = %+v", page)
	}
	if res := api.do(http.MethodGet, "/api/activities/project/"+pid+"?limit=zero", alice.Token, nil); res.Status != http.StatusBadRequest {
		t.Fatalf("bad limit = %d", res.Status)
	}

	var timeline []json.RawMessage
	api.do(http.MethodGet, "/api/activities/timeline/"+pid, alice.Token, nil).decode(t, &timeline)
	if len(timeline) != page.Pagination.Total {
		t.Fatalf("timeline = %d entries, total %d", len(timeline), page.Pagination.Total)
	}

	if res := api.do(http.MethodDelete, "/api/projects/"+pid, alice.Token, nil); res.Status != http.StatusOK {
		t.Fatalf("delete = %d %s", res.Status, res.Message)
	}
	if res := api.do(http.MethodGet, "/api/projects/"+pid, alice.Token, nil); res.Status != http.StatusNotFound {
		t.Fatalf("deleted project = %d", res.Status)
	}
}

func TestUserSearch(t *testing.T) {
	api := newTestAPI(t)
	alice := api.register("alice")
	api.register("alicia")
	api.register("bob")

	var users []struct {
		Name string `json:"name"`
	}
	api.do(http.MethodGet, "/api/users/search?q=ali", alice.Token, nil).decode(t, &users)
	if len(users) != 2 {
		t.Fatalf("search = %+v", users)
	}
	if res := api.do(http.MethodGet, "/api/users/search", alice.Token, nil); res.Status != http.StatusBadRequest {
		t.Fatalf("empty query = %d", res.Status)
	}
}

func TestProfileAndPasswordOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	alice := api.register("alice")
	bob := api.register("bob")

	res := api.do(http.MethodPut, "/api/users/profile", alice.Token, map[string]string{
		"name": "Alice Liddell", "profile_picture": "https://img.example/a.png",
	})
	if res.Status != http.StatusOK {
		t.Fatalf("update profile = %d %s", res.Status, res.Message)
	}
	var me struct {
		Name           string `json:"name"`
		Email          string `json:"email"`
		ProfilePicture string `json:"profile_picture"`
	}
	api.do(http.MethodGet, "/api/users/me", alice.Token, nil).decode(t, &me)
	if me.Name != "Alice Liddell" || me.ProfilePicture != "https://img.example/a.png" || me.Email != alice.Email {
		t.Fatalf("me = %+v", me)
	}
	if res := api.do(http.MethodPut, "/api/users/profile", alice.Token, map[string]string{"email": bob.Email}); res.Status != http.StatusConflict {
		t.Fatalf("taken email = %d", res.Status)
	}
	if res := api.do(http.MethodPut, "/api/users/profile", alice.Token, map[string]string{}); res.Status != http.StatusBadRequest {
		t.Fatalf("empty profile = %d", res.Status)
	}

	res = api.do(http.MethodPut, "/api/users/password", alice.Token, map[string]string{
		"current_password": "wrong password", "new_password": "battery staple",
	})
	if res.Status != http.StatusUnauthorized {
		t.Fatalf("wrong current password = %d", res.Status)
	}
	res = api.do(http.MethodPut, "/api/users/password", alice.Token, map[string]string{
		"current_password": "correct horse", "new_password": "battery staple",
	})
	if res.Status != http.StatusOK {
		t.Fatalf("change password = %d %s", res.Status, res.Message)
	}
	login := func(password string) int {
		return api.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": alice.Email, "password": password}).Status
	}
	if got := login("correct horse"); got != http.StatusUnauthorized {
		t.Fatalf("old password login = %d", got)
	}
	if got := login("battery staple"); got != http.StatusOK {
		t.Fatalf("new password login = %d", got)
	}
}

func TestNotificationStream(t *testing.T) {
	api := newTestAPI(t)
	alice := api.register("alice")
	bob := api.register("bob")
	pid := api.createProject(alice, "Atlas")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, api.srv.URL+"/api/notifications/stream?access_token="+alice.Token, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	api.do(http.MethodPost, "/api/projects/"+pid+"/request-access", bob.Token, nil)

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg realtime.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatal(err)
	}
	if msg.Recipient != alice.ID || msg.Notification.Type != "access_requested" || msg.Notification.ProjectID != pid {
		t.Fatalf("pushed = %+v", msg)
	}
	conn.Close(websocket.StatusNormalClosure, "")
}

func TestHealthAndMetrics(t *testing.T) {
	api := newTestAPI(t)
	resp, err := http.Get(api.srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	var health struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&health)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || health.Checks["storage"] != "ok" {
		t.Fatalf("health = %d %+v", resp.StatusCode, health)
	}
	if resp.Header.Get("X-Content-Type-Options") != "nosniff" {
		t.Fatal("security headers missing")
	}

	resp, err = http.Get(api.srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !bytes.Contains(body, []byte(`nexus_http_request_duration_seconds_count{method="GET",route="/health",status="200"}`)) {
		t.Fatalf("metrics missing route series:\n%s", body)
	}
}
