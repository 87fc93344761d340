package simulator

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apperrors "github.com/kbukum/ranchkit/errors"
	"github.com/kbukum/ranchkit/fetch"
	"github.com/kbukum/ranchkit/httpclient"
	"github.com/kbukum/ranchkit/kvstore"
	"github.com/kbukum/ranchkit/live"
	"github.com/kbukum/ranchkit/notify"
	"github.com/kbukum/ranchkit/session"
)

func newSimulator(t *testing.T) *Simulator {
	t.Helper()
	sim, err := New(Config{Seed: 7})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = sim.Stop(context.Background()) })
	return sim
}

func do(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func login(t *testing.T, h http.Handler, email string) LoginResponse {
	t.Helper()
	rr := do(t, h, http.MethodPost, "/api/auth/login", "", LoginRequest{Email: email, Password: "secret"})
	if rr.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", rr.Code, rr.Body)
	}
	var env struct {
		Data LoginResponse `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	return env.Data
}

func decodeData[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var env struct {
		Data T `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v (%s)", err, rr.Body)
	}
	return env.Data
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) apperrors.ErrorCode {
	t.Helper()
	var body apperrors.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v (%s)", err, rr.Body)
	}
	return body.Error.Code
}

func TestLogin(t *testing.T) {
	sim := newSimulator(t)
	h := sim.Handler()

	first := login(t, h, "ada@ranch.example")
	second := login(t, h, "ada@ranch.example")
	if first.User.UserID == "" || first.User.UserID != second.User.UserID {
		t.Errorf("expected stable user id, got %q and %q", first.User.UserID, second.User.UserID)
	}
	if first.User.Name != "ada" {
		t.Errorf("expected name from email, got %q", first.User.Name)
	}

	id, err := session.Verify(sim.cfg.JWTSecret, first.Token)
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if id.UserID != first.User.UserID {
		t.Errorf("token subject %q, want %q", id.UserID, first.User.UserID)
	}

	rr := do(t, h, http.MethodPost, "/api/auth/login", "", LoginRequest{Email: "ada@ranch.example"})
	if rr.Code != http.StatusBadRequest || errorCode(t, rr) != apperrors.ErrCodeMissingField {
		t.Errorf("expected missing password, got %d %s", rr.Code, rr.Body)
	}
}

func TestRanchesRequireAuth(t *testing.T) {
	sim := newSimulator(t)
	tests := []struct {
		name  string
		token string
		code  apperrors.ErrorCode
	}{
		{"no token", "", apperrors.ErrCodeUnauthorized},
		{"garbage", "not-a-jwt", apperrors.ErrCodeInvalidToken},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := do(t, sim.Handler(), http.MethodGet, "/api/ranches", tc.token, nil)
			if rr.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rr.Code)
			}
			if got := errorCode(t, rr); got != tc.code {
				t.Errorf("expected %s, got %s", tc.code, got)
			}
		})
	}

	forged, _ := session.Issue("other-secret", session.Identity{UserID: "u-1"}, time.Hour)
	if rr := do(t, sim.Handler(), http.MethodGet, "/api/ranches", forged, nil); rr.Code != http.StatusUnauthorized {
		t.Errorf("expected forged token rejected, got %d", rr.Code)
	}
}

func TestRanchCRUD(t *testing.T) {
	sim := newSimulator(t)
	h := sim.Handler()
	token := login(t, h, "ada@ranch.example").Token

	rr := do(t, h, http.MethodPost, "/api/ranches", token, map[string]any{"name": "North Pasture", "herd_size": 40})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rr.Code, rr.Body)
	}
	created := decodeData[Ranch](t, rr)
	if created.ID == "" || created.HerdSize != 40 {
		t.Fatalf("unexpected ranch %+v", created)
	}
	path := "/api/ranches/" + created.ID

	rr = do(t, h, http.MethodPatch, path, token, map[string]any{"location": "Kansas"})
	if patched := decodeData[Ranch](t, rr); patched.Location != "Kansas" || patched.HerdSize != 40 {
		t.Errorf("patch should keep other fields, got %+v", patched)
	}

	rr = do(t, h, http.MethodPut, path, token, map[string]any{"name": "South Pasture"})
	if replaced := decodeData[Ranch](t, rr); replaced.Name != "South Pasture" || replaced.Location != "" || replaced.HerdSize != 0 {
		t.Errorf("put should replace every field, got %+v", replaced)
	}

	rr = do(t, h, http.MethodGet, "/api/ranches", token, nil)
	if list := decodeData[[]Ranch](t, rr); len(list) != 1 || list[0].ID != created.ID {
		t.Errorf("unexpected list %+v", list)
	}

	if rr = do(t, h, http.MethodDelete, path, token, nil); rr.Code != http.StatusNoContent {
		t.Errorf("delete: expected 204, got %d", rr.Code)
	}
	rr = do(t, h, http.MethodGet, path, token, nil)
	if rr.Code != http.StatusNotFound || errorCode(t, rr) != apperrors.ErrCodeNotFound {
		t.Errorf("expected 404 after delete, got %d", rr.Code)
	}
}

func TestRanchValidation(t *testing.T) {
	sim := newSimulator(t)
	h := sim.Handler()
	token := login(t, h, "ada@ranch.example").Token

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{"create without name", http.MethodPost, "/api/ranches", map[string]any{"herd_size": 3}, http.StatusBadRequest},
		{"patch missing", http.MethodPatch, "/api/ranches/nope", map[string]any{"name": "x"}, http.StatusNotFound},
		{"put missing", http.MethodPut, "/api/ranches/nope", map[string]any{"name": "x"}, http.StatusNotFound},
		{"delete missing", http.MethodDelete, "/api/ranches/nope", nil, http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if rr := do(t, h, tc.method, tc.path, token, tc.body); rr.Code != tc.status {
				t.Errorf("expected %d, got %d: %s", tc.status, rr.Code, rr.Body)
			}
		})
	}
}

func TestFetchAgainstSimulator(t *testing.T) {
	sim := newSimulator(t)
	ts := httptest.NewServer(sim.Handler())
	defer ts.Close()
	token := login(t, sim.Handler(), "ada@ranch.example").Token

	adapter, err := httpclient.New(httpclient.Config{
		Name:    "simulator",
		BaseURL: ts.URL,
		Auth:    httpclient.BearerTokenFunc(func(context.Context) (string, error) { return token, nil }),
	})
	if err != nil {
		t.Fatalf("httpclient.New: %v", err)
	}

	type one struct {
		Data Ranch `json:"data"`
	}
	type many struct {
		Data []Ranch `json:"data"`
	}
	create, err := fetch.New[one](fetch.Config{URL: "/api/ranches"}, fetch.WithAdapter[one](adapter))
	if err != nil {
		t.Fatalf("fetch.New: %v", err)
	}
	created := create.Post(context.Background(), map[string]any{"name": "North"})
	if !created.Success || created.Data.Data.ID == "" {
		t.Fatalf("create failed: %+v", created)
	}

	list, err := fetch.New[many](fetch.Config{URL: "/api/ranches", CacheKey: "ranches"}, fetch.WithAdapter[many](adapter))
	if err != nil {
		t.Fatalf("fetch.New: %v", err)
	}
	res := list.Execute(context.Background())
	if !res.Success || len(res.Data.Data) != 1 || res.Data.Data[0].ID != created.Data.Data.ID {
		t.Fatalf("unexpected result %+v", res)
	}
	if again := list.Execute(context.Background()); !again.FromCache {
		t.Error("second keyed GET should be served from cache")
	}

	missing, err := fetch.New[one](fetch.Config{URL: "/api/ranches/nope", Retries: 2, RetryDelay: time.Millisecond},
		fetch.WithAdapter[one](adapter))
	if err != nil {
		t.Fatalf("fetch.New: %v", err)
	}
	if res := missing.Execute(context.Background()); res.Success || !httpclient.IsNotFound(res.Err) {
		t.Errorf("expected not found, got %+v", res)
	}
}

func TestLiveEndToEnd(t *testing.T) {
	sim := newSimulator(t)
	ts := httptest.NewServer(sim.Handler())
	defer ts.Close()

	ctx := context.Background()
	h := sim.Handler()
	token := login(t, h, "ada@ranch.example").Token
	rr := do(t, h, http.MethodPost, "/api/ranches", token, map[string]any{"name": "North"})
	ranch := decodeData[Ranch](t, rr)
	token = login(t, h, "ada@ranch.example").Token

	sess := session.New(kvstore.NewMemory())
	ident, err := sess.Login(ctx, token)
	if err != nil {
		t.Fatalf("session login: %v", err)
	}
	center := notify.NewCenter(notify.WithAutoRemove(-1))
	defer center.Close()

	cfg := live.DefaultConfig()
	cfg.URL = "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	cfg.AutoReconnect = false
	cfg.HeartbeatInterval = 20 * time.Millisecond
	m, err := live.New(cfg, live.WithIdentity(sess), live.WithNotifier(center))
	if err != nil {
		t.Fatalf("live.New: %v", err)
	}
	defer m.Disconnect()

	subscribed := make(chan live.Message, 1)
	off := m.AddEventListener("SUBSCRIBED", func(msg live.Message) { subscribed <- msg })
	defer off()

	if err := m.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	select {
	case msg := <-subscribed:
		var data struct {
			Channels []string `json:"channels"`
		}
		_ = msg.Decode(&data)
		want := []string{"user_" + ident.UserID, "ranch_" + ranch.ID}
		if strings.Join(data.Channels, ",") != strings.Join(want, ",") {
			t.Errorf("subscribed %v, want %v", data.Channels, want)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("subscription not confirmed")
	}

	if err := sim.Publish("ranch_"+ranch.ID, "HEALTH_ALERT", map[string]any{
		"id": "a-1", "bovine_id": "b-1", "bovine_name": "Bessie",
		"severity": "critical", "alert_message": "Fever detected",
	}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := sim.Publish("ranch_other", "HEALTH_ALERT", map[string]any{"id": "a-2"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) && (len(center.List()) == 0 || m.LastPong().IsZero()) {
		time.Sleep(5 * time.Millisecond)
	}
	list := center.List()
	if len(list) != 1 {
		t.Fatalf("expected one notification, got %+v", list)
	}
	if list[0].Priority != notify.PriorityHigh || !list[0].Persistent {
		t.Errorf("unexpected notification %+v", list[0])
	}
	if alerts := m.HealthAlerts(); len(alerts) != 1 || alerts[0].ID != "a-1" {
		t.Errorf("unexpected alerts %+v", alerts)
	}
	if m.LastPong().IsZero() {
		t.Error("expected a PONG for the heartbeat")
	}
	if got := m.OnlineUsers(); len(got) != 1 || got[0] != ident.UserID {
		t.Errorf("online users = %v", got)
	}
}

func TestWebsocketRejectsBadToken(t *testing.T) {
	sim := newSimulator(t)
	ts := httptest.NewServer(sim.Handler())
	defer ts.Close()

	cfg := live.DefaultConfig()
	cfg.URL = "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	cfg.AutoReconnect = false
	cfg.HeartbeatInterval = 0
	m, err := live.New(cfg, live.WithIdentity(badIdentity{}))
	if err != nil {
		t.Fatalf("live.New: %v", err)
	}
	defer m.Disconnect()

	if err := m.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) && m.ConnectionError() == nil {
		time.Sleep(5 * time.Millisecond)
	}
	if !apperrors.HasCode(m.ConnectionError(), apperrors.ErrCodeAuthFailed) {
		t.Errorf("expected AUTH_FAILED, got %v", m.ConnectionError())
	}
}

type badIdentity struct{}

func (badIdentity) Token(context.Context) (string, error) { return "forged", nil }

func (badIdentity) Identity(context.Context) (session.Identity, error) {
	return session.Identity{UserID: "mallory"}, nil
}

func TestGeneratorEvents(t *testing.T) {
	g := newGenerator(42, time.Now)
	for _, et := range eventTypes {
		ev := g.make(et, []string{"r-1"})
		if ev.msgType != et || ev.ranchID != "r-1" {
			t.Errorf("unexpected event %+v", ev)
		}
		if ev.data["id"] == nil {
			t.Errorf("%s event has no id", et)
		}
	}
	if ev := g.next(nil); ev.ranchID != "demo" {
		t.Errorf("expected demo ranch without ranches, got %s", ev.ranchID)
	}
}

func TestGeneratorBroadcasts(t *testing.T) {
	sim, err := New(Config{Seed: 3, EventInterval: 5 * time.Millisecond})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := sim.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer sim.Stop(context.Background())

	client := newClient("c-1")
	client.subscribe("ranch_*")
	if !sim.Hub().Register(client) {
		t.Fatal("hub stopped")
	}
	select {
	case frame := <-client.Events():
		var msg wireMessage
		if err := json.Unmarshal(frame, &msg); err != nil || !isEventType(msg.Type) {
			t.Errorf("unexpected frame %s", frame)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no generated event")
	}
}

func TestClientMatches(t *testing.T) {
	tests := []struct {
		name    string
		subs    []string
		pattern string
		want    bool
		wantErr bool
	}{
		{"empty pattern", nil, "", true, false},
		{"exact", []string{"ranch_demo"}, "ranch_demo", true, false},
		{"glob subscription", []string{"ranch_*"}, "ranch_demo", true, false},
		{"glob broadcast", []string{"user_42"}, "user_*", true, false},
		{"no match", []string{"ranch_*"}, "user_42", false, false},
		{"malformed only", []string{"ranch_["}, "ranch_demo", false, true},
		{"malformed and valid", []string{"ranch_[", "ranch_*"}, "ranch_demo", true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClient("c-1")
			c.subscribe(tt.subs...)
			got, err := c.matches(tt.pattern)
			if got != tt.want {
				t.Errorf("matches(%q) = %v, want %v", tt.pattern, got, tt.want)
			}
			if (err != nil) != tt.wantErr {
				t.Errorf("matches(%q) error = %v, wantErr %v", tt.pattern, err, tt.wantErr)
			}
		})
	}
}

func TestHubBroadcastSkipsMalformedSubscriptions(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	var good []*Client
	for i, sub := range []string{"ranch_[", "ranch_*", "ranch_[", "ranch_demo", "ranch_["} {
		c := newClient(string(rune('a' + i)))
		c.subscribe(sub)
		if !hub.Register(c) {
			t.Fatal("hub stopped")
		}
		if sub != "ranch_[" {
			good = append(good, c)
		}
	}

	hub.Broadcast("ranch_demo", []byte(`{"type":"BOVINE_UPDATE"}`))
	for _, c := range good {
		select {
		case frame := <-c.Events():
			if !bytes.Contains(frame, []byte("BOVINE_UPDATE")) {
				t.Errorf("client %s got %s", c.ID(), frame)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("client %s missed the broadcast", c.ID())
		}
	}
}
