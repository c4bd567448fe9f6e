package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/patchbay-vj/patchbay/internal/render"
	"github.com/patchbay-vj/patchbay/internal/store"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	st := store.New(render.NewManager(render.NullCompiler{}))
	status := st.AssignContent(context.Background(), 0, 0, store.AssignRequest{Content: "shader"})
	if !status.OK() {
		t.Fatalf("seed assign failed: %s", status.Message)
	}

	srv := NewServer(st, "127.0.0.1:0")
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return srv, ts
}

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	return env
}

func TestServer_StateQueryEchoesToken(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{name: "numeric token", token: `42`},
		{name: "string token", token: `"req-7"`},
		{name: "structured token", token: `{"seq":3,"origin":"pad"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ts := newTestServer(t)
			conn := dialWS(t, ts)

			msg := `{"token":` + tt.token + `,"type":"state"}`
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				t.Fatalf("write: %v", err)
			}

			env := readEnvelope(t, conn)
			if env.Type != MsgState {
				t.Fatalf("reply type = %q, want state", env.Type)
			}
			if !bytes.Equal(bytes.TrimSpace(env.Token), []byte(tt.token)) {
				t.Errorf("token = %s, want %s echoed unchanged", env.Token, tt.token)
			}

			var snap store.StateSnapshot
			if err := json.Unmarshal(env.Payload, &snap); err != nil {
				t.Fatalf("payload unmarshal: %v", err)
			}
			if len(snap.Tabs) != 1 {
				t.Errorf("snapshot tabs = %d, want 1", len(snap.Tabs))
			}
		})
	}
}

func TestServer_WSThumbnail(t *testing.T) {
	_, ts := newTestServer(t)
	conn := dialWS(t, ts)

	msg := `{"token":1,"type":"thumbnail","payload":{"tabIndex":0,"slotIndex":0}}`
	if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		t.Fatalf("write: %v", err)
	}

	env := readEnvelope(t, conn)
	if env.Type != MsgThumbnail {
		t.Fatalf("reply type = %q, want thumbnail", env.Type)
	}
	var reply ThumbnailReply
	if err := json.Unmarshal(env.Payload, &reply); err != nil {
		t.Fatalf("payload unmarshal: %v", err)
	}
	if len(reply.Image) == 0 {
		t.Error("thumbnail reply carries no image")
	}
}

func TestServer_WSCommand(t *testing.T) {
	srv, ts := newTestServer(t)
	conn := dialWS(t, ts)

	msg := `{"token":9,"type":"command","payload":{"action":"setParam","tab":0,"slot":0,"name":"speed","value":0.8}}`
	if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		t.Fatalf("write: %v", err)
	}

	env := readEnvelope(t, conn)
	if env.Type != MsgStatus {
		t.Fatalf("reply type = %q, want status", env.Type)
	}

	data, _ := srv.store.SlotData(0, 0)
	if data.RuntimeParams["speed"] != 0.8 {
		t.Errorf("command did not apply: %v", data.RuntimeParams)
	}
}

func TestServer_WSUnknownType(t *testing.T) {
	_, ts := newTestServer(t)
	conn := dialWS(t, ts)

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"token":1,"type":"teleport"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}

	env := readEnvelope(t, conn)
	if env.Type != MsgError {
		t.Errorf("reply type = %q, want error", env.Type)
	}
}

func TestServer_NotifyStateChanged(t *testing.T) {
	srv, ts := newTestServer(t)
	conn := dialWS(t, ts)

	// The client registers on upgrade; wait until the server sees it.
	deadline := time.Now().Add(2 * time.Second)
	for srv.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	srv.NotifyStateChanged()

	env := readEnvelope(t, conn)
	if env.Type != MsgStateChanged {
		t.Errorf("broadcast type = %q, want stateChanged", env.Type)
	}
}

func TestServer_HTTPState(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/state")
	if err != nil {
		t.Fatalf("GET /api/state: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var snap store.StateSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(snap.Tabs) != 1 {
		t.Errorf("tabs = %d, want 1", len(snap.Tabs))
	}
}

func TestServer_HTTPThumbnail(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/thumbnail/0/0")
	if err != nil {
		t.Fatalf("GET thumbnail: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type = %q", ct)
	}
	img, _ := io.ReadAll(resp.Body)
	if len(img) == 0 {
		t.Error("empty thumbnail body")
	}

	// Empty position has no renderer to capture from.
	resp2, err := http.Get(ts.URL + "/api/thumbnail/0/5")
	if err != nil {
		t.Fatalf("GET thumbnail: %v", err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusNotFound {
		t.Errorf("status for empty slot = %d, want 404", resp2.StatusCode)
	}
}
