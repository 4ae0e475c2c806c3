package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wendellvieira/rpg-ai-sub001/internal/dice"
	"github.com/wendellvieira/rpg-ai-sub001/internal/dispatch"
	"github.com/wendellvieira/rpg-ai-sub001/internal/logger"
	"github.com/wendellvieira/rpg-ai-sub001/internal/metrics"
	"github.com/wendellvieira/rpg-ai-sub001/internal/server"
	"github.com/wendellvieira/rpg-ai-sub001/internal/session"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	sess, err := session.New(session.Options{Source: dice.Sequence(4), Logger: logger.Discard()})
	require.NoError(t, err)
	exp := metrics.New()
	t.Cleanup(exp.Attach(sess.Dispatcher()))

	ts := httptest.NewServer(server.New(sess, exp, "").Handler())
	t.Cleanup(ts.Close)
	return ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// next reads until a message of the wanted type arrives.
func next(t *testing.T, conn *websocket.Conn, want string) server.Outbound {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var m server.Outbound
		require.NoError(t, conn.ReadJSON(&m))
		if m.Type == want {
			return m
		}
	}
}

func TestWebsocketLine(t *testing.T) {
	conn := dial(t, newServer(t))

	require.NoError(t, conn.WriteJSON(server.Inbound{Line: "roll_dice by: gm dice: 2d6+1"}))
	m := next(t, conn, "response")
	require.NotNil(t, m.Response)
	assert.True(t, m.Response.Success, m.Response.Error)

	result := m.Response.Result.(map[string]any)
	assert.EqualValues(t, 9, result["total"])
}

func TestWebsocketRequestNeedsContext(t *testing.T) {
	conn := dial(t, newServer(t))

	req := dispatch.ActionRequest{ID: "r1", Method: "get_state", Params: dispatch.Params{}}
	require.NoError(t, conn.WriteJSON(server.Inbound{Request: &req}))
	m := next(t, conn, "response")
	assert.Equal(t, dispatch.CodeMissingContext, m.Response.Code)

	req.ID = "r2"
	require.NoError(t, conn.WriteJSON(server.Inbound{Request: &req, Context: dispatch.NewActionContext("main", "gm", 0, 1)}))
	m = next(t, conn, "response")
	assert.True(t, m.Response.Success, m.Response.Error)
}

func TestWebsocketStreamsEvents(t *testing.T) {
	conn := dial(t, newServer(t))

	require.NoError(t, conn.WriteJSON(server.Inbound{Line: "dance"}))
	m := next(t, conn, "event")
	require.NotNil(t, m.Event)
	assert.Equal(t, dispatch.EventError, m.Event.Type)
}

func TestWebsocketRejectsEmptyMessage(t *testing.T) {
	conn := dial(t, newServer(t))

	require.NoError(t, conn.WriteJSON(server.Inbound{}))
	m := next(t, conn, "error")
	assert.Contains(t, m.Error, "request or a line")
}

func TestCatalogAndMetricsRoutes(t *testing.T) {
	ts := newServer(t)

	resp, err := http.Get(ts.URL + "/catalog")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	var catalog []dispatch.FunctionDef
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&catalog))
	assert.NotEmpty(t, catalog)

	mresp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer mresp.Body.Close()
	assert.Equal(t, http.StatusOK, mresp.StatusCode)
}

func TestStateRoute(t *testing.T) {
	sess, err := session.New(session.Options{Source: dice.Sequence(4), Logger: logger.Discard()})
	require.NoError(t, err)
	_, err = sess.Execute(context.Background(), "join by: gm sheet: fighter")
	require.NoError(t, err)

	ts := httptest.NewServer(server.New(sess, nil, "").Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/state")
	require.NoError(t, err)
	defer resp.Body.Close()

	var view server.StateView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	assert.Equal(t, "12/12", view.HP["fighter"])
	assert.True(t, view.Dispatcher.Enabled)
	assert.NotEmpty(t, view.Dispatcher.Methods)
	assert.Empty(t, view.Scheduler.Order)
}
