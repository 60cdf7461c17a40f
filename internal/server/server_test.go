package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"neopixel-controller/internal/core"
	"neopixel-controller/internal/effects"
	"neopixel-controller/internal/lua"
	"neopixel-controller/internal/schedule"
)

type testServer struct {
	*Server
	http  *httptest.Server
	queue *core.Queue
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	dir := t.TempDir()
	q := core.NewQueue(1)
	status := func() Status {
		return Status{Settings: core.DefaultSettings(), Scheduler: "idle"}
	}
	s := NewServer(q, effects.NewRegistry(), schedule.New(q, nil, filepath.Join(dir, "schedules.json")),
		lua.NewLibrary(filepath.Join(dir, "scripts")), status, "0", dir, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go s.Hub.Run(ctx)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		cancel()
	})
	return &testServer{Server: s, http: ts, queue: q}
}

func (ts *testServer) do(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, ts.http.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestStateAndEffects(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodGet, "/api/state", "")
	var st Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatal(err)
	}
	if st.Scheduler != "idle" || st.Settings.Mode != core.ModeOff {
		t.Errorf("unexpected state %+v", st)
	}

	resp = ts.do(t, http.MethodGet, "/api/effects", "")
	var list []EffectInfo
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatal(err)
	}
	found := false
	for _, e := range list {
		if e.Name == "breathe" {
			found = e.NeedsColor
		}
	}
	if len(list) != 10 || !found {
		t.Errorf("unexpected effects %+v", list)
	}
}

func TestCommandEndpoint(t *testing.T) {
	ts := newTestServer(t)

	if resp := ts.do(t, http.MethodPost, "/api/command", " fire "); resp.StatusCode != http.StatusAccepted {
		t.Fatalf("got status %d", resp.StatusCode)
	}
	if resp := ts.do(t, http.MethodPost, "/api/command", "off"); resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("full queue should be rejected, got %d", resp.StatusCode)
	}
	if resp := ts.do(t, http.MethodPost, "/api/command", "  "); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty command should be rejected, got %d", resp.StatusCode)
	}
	if got := <-ts.queue.Out(); got != "fire" {
		t.Errorf("queued %q", got)
	}
}

func TestScheduleEndpoints(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodPost, "/api/schedules", `{"spec":"0 22 * * *","command":"off"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("got status %d", resp.StatusCode)
	}
	var entry schedule.Entry
	if err := json.NewDecoder(resp.Body).Decode(&entry); err != nil {
		t.Fatal(err)
	}

	if resp := ts.do(t, http.MethodPost, "/api/schedules", `{"spec":"never","command":"off"}`); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid spec should be rejected, got %d", resp.StatusCode)
	}
	if got := ts.schedules.List(); len(got) != 1 || got[0].Command != "off" {
		t.Errorf("unexpected schedules %+v", got)
	}

	path := "/api/schedules/" + jsonNumber(entry.ID)
	if resp := ts.do(t, http.MethodDelete, path, ""); resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete got %d", resp.StatusCode)
	}
	if resp := ts.do(t, http.MethodDelete, path, ""); resp.StatusCode != http.StatusNotFound {
		t.Errorf("second delete got %d", resp.StatusCode)
	}
}

func jsonNumber(n int) string {
	data, _ := json.Marshal(n)
	return string(data)
}

func TestScriptEndpoints(t *testing.T) {
	ts := newTestServer(t)
	code := "needs_color = true\nfunction frame(n) fill(color()) end\n"

	if resp := ts.do(t, http.MethodPut, "/api/scripts/glow", code); resp.StatusCode != http.StatusOK {
		t.Fatalf("save got %d", resp.StatusCode)
	}
	if resp := ts.do(t, http.MethodPut, "/api/scripts/broken", "function frame("); resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("broken script got %d", resp.StatusCode)
	}

	resp := ts.do(t, http.MethodGet, "/api/scripts", "")
	var names []string
	if err := json.NewDecoder(resp.Body).Decode(&names); err != nil {
		t.Fatal(err)
	}
	if len(names) != 1 || names[0] != "glow" {
		t.Errorf("unexpected scripts %v", names)
	}

	if resp := ts.do(t, http.MethodDelete, "/api/scripts/glow", ""); resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete got %d", resp.StatusCode)
	}
	if resp := ts.do(t, http.MethodGet, "/api/scripts/glow", ""); resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing script got %d", resp.StatusCode)
	}
}

func TestWebSocketCommandsAndNotifications(t *testing.T) {
	ts := newTestServer(t)

	url := "ws" + strings.TrimPrefix(ts.http.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var msg Message
	if err := conn.ReadJSON(&msg); err != nil || msg.Type != MsgStatus {
		t.Fatalf("expected status message, got %+v (%v)", msg, err)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("rainbow\n")); err != nil {
		t.Fatal(err)
	}
	select {
	case got := <-ts.queue.Out():
		if got != "rainbow" {
			t.Errorf("queued %q", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("command not queued")
	}

	deadline := time.Now().Add(5 * time.Second)
	for !ts.Hub.Connected() {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if err := ts.Hub.Send("Speed set to 40\n"); err != nil {
		t.Fatal(err)
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatal(err)
	}
	if msg.Type != MsgNotify || msg.Payload != "Speed set to 40" {
		t.Errorf("unexpected message %+v", msg)
	}
}
