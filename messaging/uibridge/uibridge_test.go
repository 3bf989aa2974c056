package uibridge

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orgmachine/engine/notifications"
	"orgmachine/messaging/refreshbus"
	"orgmachine/orgmachine"
)

func testServer(t *testing.T) (*Bridge, *refreshbus.Bus, *notifications.List, *httptest.Server) {
	t.Helper()
	bus := refreshbus.New()
	list := notifications.NewList()
	bridge := New(bus, list)
	server := httptest.NewServer(cors.Default().Handler(bridge.router))
	t.Cleanup(server.Close)
	return bridge, bus, list, server
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestSnapshotEndpoint(t *testing.T) {
	bridge, _, _, server := testServer(t)
	bridge.Serve("taskboard", func() interface{} {
		return map[string]interface{}{"projects": []string{"P1"}}
	})

	resp, err := http.Get(server.URL + "/scopes/taskboard")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, []interface{}{"P1"}, body["projects"])

	missing, err := http.Get(server.URL + "/scopes/nope")
	require.NoError(t, err)
	missing.Body.Close()
	assert.Equal(t, 404, missing.StatusCode)
}

func TestRefreshEventsPushedToClients(t *testing.T) {
	bridge, bus, _, server := testServer(t)
	conn := dial(t, server)
	require.Eventually(t, func() bool { return bridge.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	bus.Emit(refreshbus.TaskClaimed, map[string]interface{}{"taskId": "T1"})

	var frame Frame
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, "refresh", frame.Type)
	assert.Equal(t, refreshbus.TaskClaimed, frame.Event)
	assert.Equal(t, "T1", frame.Data["taskId"])
}

func TestNotificationChangesPushedToClients(t *testing.T) {
	bridge, _, list, server := testServer(t)
	conn := dial(t, server)
	require.Eventually(t, func() bool { return bridge.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	list.Pending("Claim Task", "Claiming...")

	var frame Frame
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, "notifications", frame.Type)
	require.Len(t, frame.Notifications, 1)
	assert.Equal(t, "Claim Task", frame.Notifications[0].Title)
}

func TestWalletFramesReachTheHandler(t *testing.T) {
	bridge, _, _, server := testServer(t)
	got := make(chan orgmachine.WalletState, 1)
	bridge.OnWallet(func(w orgmachine.WalletState) { got <- w })

	conn := dial(t, server)
	require.NoError(t, conn.WriteJSON(Inbound{
		Type:      "wallet",
		Address:   "0xme",
		ChainID:   8453,
		HasSigner: true,
	}))

	select {
	case wallet := <-got:
		assert.Equal(t, "0xme", wallet.Address)
		assert.Equal(t, int64(8453), wallet.ChainID)
		assert.True(t, wallet.HasSigner)
	case <-time.After(2 * time.Second):
		t.Fatal("wallet frame never reached the handler")
	}
}

func TestDroppedClientLeavesRegistry(t *testing.T) {
	bridge, _, _, server := testServer(t)
	conn := dial(t, server)
	require.Eventually(t, func() bool { return bridge.ClientCount() == 1 }, time.Second, 10*time.Millisecond)
	conn.Close()
	require.Eventually(t, func() bool { return bridge.ClientCount() == 0 }, time.Second, 10*time.Millisecond)
}
