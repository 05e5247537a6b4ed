package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sgs-online/sgs-server-go/internal/config"
	"github.com/sgs-online/sgs-server-go/internal/game/card"
	"github.com/sgs-online/sgs-server-go/internal/game/catalog"
	"github.com/sgs-online/sgs-server-go/internal/game/decision"
	"github.com/sgs-online/sgs-server-go/internal/game/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type testServer struct {
	t       *testing.T
	hub     *Hub
	manager *decision.Manager
	http    *httptest.Server
	room    *table.Table
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zaptest.NewLogger(t)

	hub := NewHub(config.WebSocketConfig{Codec: "json", ReadLimit: 64 << 10, SendBuffer: 32}, JSONCodec{}, nil, logger)
	manager := decision.NewManager(catalog.NewStandard(), hub, decision.Options{}, logger)
	hub.Bind(manager)

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(NewRouter(config.HTTPConfig{}, hub, manager, logger))
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})

	room := table.New(logger)
	for _, name := range []string{"liubei", "guanyu"} {
		require.NoError(t, room.AddPlayer(name, 4))
	}
	return &testServer{t: t, hub: hub, manager: manager, http: srv, room: room}
}

func (ts *testServer) dial(player string) *websocket.Conn {
	ts.t.Helper()
	url := "ws" + strings.TrimPrefix(ts.http.URL, "http") + "/ws?player=" + player
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(ts.t, err)
	ts.t.Cleanup(func() { conn.Close() })

	require.Eventually(ts.t, func() bool {
		_, ok := ts.manager.Session(player)
		return ok
	}, 2*time.Second, 10*time.Millisecond)
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame map[string]any
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func TestWebSocketDecisionRoundTrip(t *testing.T) {
	ts := newTestServer(t)
	jink := ts.room.NewCard("Jink", card.Heart, 2)
	require.NoError(t, ts.room.Deal("liubei", jink.ID))

	conn := ts.dial("liubei")
	s, ok := ts.manager.Session("liubei")
	require.True(t, ok)
	results, err := s.Begin(ts.room, decision.Request{Kind: decision.KindResponse, Requestor: "liubei", Pattern: "Jink!"})
	require.NoError(t, err)
	req, _ := s.Outstanding()

	frame := readFrame(t, conn)
	assert.Equal(t, FrameSnapshot, frame["type"])
	assert.Equal(t, req.ID, frame["request_id"])
	assert.NotEmpty(t, frame["digest"])
	data := frame["data"].(map[string]any)
	assert.Equal(t, true, data["is_initial"])
	assert.Equal(t, false, data["cancel_enabled"])

	// A forced response cannot be cancelled: the snapshot is republished
	// and the error follows.
	require.NoError(t, conn.WriteJSON(map[string]any{
		"type": "system_button", "request_id": req.ID, "args": []any{false},
	}))
	assert.Equal(t, FrameSnapshot, readFrame(t, conn)["type"])
	frame = readFrame(t, conn)
	assert.Equal(t, FrameError, frame["type"])
	assert.Equal(t, "FailedPrecondition", frame["code"])

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type": "card_pick", "request_id": req.ID, "args": []any{"liubei", jink.ID, false},
	}))
	frame = readFrame(t, conn)
	assert.Equal(t, FrameSnapshot, frame["type"])
	assert.Equal(t, true, frame["data"].(map[string]any)["ok_enabled"])

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type": "system_button", "request_id": req.ID, "args": []any{true},
	}))
	frame = readFrame(t, conn)
	assert.Equal(t, FrameClosed, frame["type"])
	assert.Equal(t, true, frame["data"].(map[string]any)["committed"])

	res := <-results
	assert.True(t, res.Committed)
	require.NotNil(t, res.Card)
	assert.Equal(t, jink.ID, res.Card.ID)
}

func TestWebSocketProtocolErrors(t *testing.T) {
	ts := newTestServer(t)
	conn := ts.dial("liubei")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("nope")))
	frame := readFrame(t, conn)
	assert.Equal(t, FrameError, frame["type"])
	assert.Equal(t, "InvalidArgument", frame["code"])

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "dashboard_change", "request_id": "r0"}))
	frame = readFrame(t, conn)
	assert.Equal(t, "NotFound", frame["code"])
	assert.Equal(t, "r0", frame["request_id"])
}

func TestReconnectResendsSnapshot(t *testing.T) {
	ts := newTestServer(t)
	ts.dial("liubei")
	s, _ := ts.manager.Session("liubei")
	_, err := s.Begin(ts.room, decision.Request{Kind: decision.KindChooseTarget, Requestor: "liubei", Targets: []string{"guanyu"}, Min: 1, Max: 1})
	require.NoError(t, err)
	req, _ := s.Outstanding()

	// A second connection for the same player takes over the session.
	second := ts.dial("liubei")
	frame := readFrame(t, second)
	assert.Equal(t, FrameSnapshot, frame["type"])
	assert.Equal(t, req.ID, frame["request_id"])
	assert.Equal(t, false, frame["data"].(map[string]any)["is_initial"])

	require.NoError(t, second.WriteJSON(map[string]any{"type": "resync"}))
	assert.Equal(t, req.ID, readFrame(t, second)["request_id"])
}

func TestDisconnectCancelsDecision(t *testing.T) {
	ts := newTestServer(t)
	conn := ts.dial("liubei")
	s, _ := ts.manager.Session("liubei")
	results, err := s.Begin(ts.room, decision.Request{Kind: decision.KindChooseTarget, Requestor: "liubei", Targets: []string{"guanyu"}, Min: 1, Max: 1})
	require.NoError(t, err)

	require.NoError(t, conn.Close())
	select {
	case res := <-results:
		assert.False(t, res.Committed)
	case <-time.After(2 * time.Second):
		t.Fatal("decision was not cancelled on disconnect")
	}
	assert.Empty(t, ts.hub.Players())
}

func TestHTTPEndpoints(t *testing.T) {
	ts := newTestServer(t)
	ts.dial("liubei")
	s, _ := ts.manager.Session("liubei")
	_, err := s.Begin(ts.room, decision.Request{Kind: decision.KindChooseTarget, Requestor: "liubei", Targets: []string{"guanyu"}, Min: 1, Max: 1})
	require.NoError(t, err)

	get := func(path string, out any) int {
		resp, err := http.Get(ts.http.URL + path)
		require.NoError(t, err)
		defer resp.Body.Close()
		if out != nil {
			require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
		}
		return resp.StatusCode
	}

	var health struct {
		Status  string   `json:"status"`
		Players []string `json:"players"`
	}
	assert.Equal(t, http.StatusOK, get("/healthz", &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, []string{"liubei"}, health.Players)

	var listing struct {
		Decisions []decision.OutstandingDecision `json:"decisions"`
	}
	assert.Equal(t, http.StatusOK, get("/api/decisions", &listing))
	require.Len(t, listing.Decisions, 1)
	assert.Equal(t, "choose_target", listing.Decisions[0].Kind)

	var snap Frame
	assert.Equal(t, http.StatusOK, get("/api/decisions/liubei", &snap))
	assert.Equal(t, FrameSnapshot, snap.Type)
	assert.NotEmpty(t, snap.Digest)
	assert.Equal(t, http.StatusNotFound, get("/api/decisions/guanyu", nil))

	assert.Equal(t, http.StatusBadRequest, get("/ws", nil))
}
