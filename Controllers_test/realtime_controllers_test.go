package Controllers_test

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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/dinein-lifecycle/models"
	"github.com/yeremiapane/dinein-lifecycle/realtime"
)

type socketMessage struct {
	Event string                 `json:"event"`
	Data  map[string]interface{} `json:"data"`
}

func (s *testServer) dialSocket(path, token string) *websocket.Conn {
	s.t.Helper()
	srv := httptest.NewServer(s.app.Router)
	s.t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path + "?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(s.t, err)
	s.t.Cleanup(func() { conn.Close() })
	return conn
}

func (s *testServer) registerKitchen() string {
	s.t.Helper()
	w, response := s.request(http.MethodPost, "/devices/kitchen", nil, "X-Registration-Key", registrationKey)
	require.Equal(s.t, http.StatusCreated, w.Code)
	return response["data"].(map[string]interface{})["token"].(string)
}

// readEvent skips broadcasts until event arrives.
func readEvent(t *testing.T, conn *websocket.Conn, event string) socketMessage {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		conn.SetReadDeadline(deadline)
		var msg socketMessage
		require.NoError(t, conn.ReadJSON(&msg), "waiting for %s", event)
		if msg.Event == event {
			return msg
		}
	}
}

func TestSocketAuthorization(t *testing.T) {
	s := setupServer(t, false)
	_, tableToken := s.registerTable("A1", 4)
	s.registerTable("B1", 4)
	_, clientToken := s.registerClient("Rina")
	kitchenToken := s.registerKitchen()

	w, response := s.request(http.MethodGet, "/ws/kitchen", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "token tidak ditemukan", response["message"])

	w, _ = s.request(http.MethodGet, "/ws/kitchen?token=palsu", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.request(http.MethodGet, "/ws/kitchen", nil, "Authorization", "Bearer "+tableToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.request(http.MethodGet, "/ws/tables/A1?token="+kitchenToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, response = s.request(http.MethodGet, "/ws/tables/B1?token="+tableToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "token belongs to another table", response["message"])

	w, _ = s.request(http.MethodGet, "/ws/tables/Z9?token="+clientToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestKitchenSocketReceivesOrders(t *testing.T) {
	s := setupServer(t, false)
	nasi := s.seedMenuItem("Nasi Goreng", "25000")
	_, _, sessionID := s.seated("A1")

	kitchen := s.dialSocket("/ws/kitchen", s.registerKitchen())
	require.Eventually(t, func() bool {
		_, ok, err := s.app.Bindings.Current(context.Background(), models.EndpointRoleKitchen)
		return err == nil && ok
	}, 2*time.Second, 10*time.Millisecond)

	order := s.placeOrder(sessionID, gin.H{"menu_item_id": nasi.ID, "quantity": 1})
	msg := readEvent(t, kitchen, realtime.EventNewOrder)
	assert.Equal(t, order["id"], msg.Data["id"])

	// dapur mengubah status lewat socket
	update, err := json.Marshal(gin.H{
		"event": realtime.EventUpdateOrderStatus,
		"data":  gin.H{"orderId": order["id"], "status": "preparing"},
	})
	require.NoError(t, err)
	require.NoError(t, kitchen.WriteMessage(websocket.TextMessage, update))

	msg = readEvent(t, kitchen, realtime.EventOrderStatusUpdated)
	assert.Equal(t, order["id"], msg.Data["order_id"])
	assert.Equal(t, "preparing", msg.Data["status"])
	assert.Equal(t, "pending", msg.Data["previous_status"])

	require.NoError(t, kitchen.WriteMessage(websocket.TextMessage, []byte(`{"event":"dance"}`)))
	msg = readEvent(t, kitchen, realtime.EventError)
	assert.Equal(t, "unknown event", msg.Data["message"])

	require.NoError(t, kitchen.WriteMessage(websocket.TextMessage, []byte(`{"event":"update_order_status","data":{"orderId":"missing","status":"preparing"}}`)))
	msg = readEvent(t, kitchen, realtime.EventError)
	assert.Equal(t, "NOT_FOUND", msg.Data["kind"])
}

func TestTableSocketFollowsSession(t *testing.T) {
	s := setupServer(t, false)
	nasi := s.seedMenuItem("Nasi Goreng", "25000")
	tableID, tableToken := s.registerTable("A1", 4)
	clientID, _ := s.registerClient("Rina")

	device := s.dialSocket("/ws/tables/A1", tableToken)
	group := realtime.GroupForTable(tableID)
	require.Eventually(t, func() bool { return s.app.Hub.GroupSize(group) == 1 }, 2*time.Second, 10*time.Millisecond)

	sessionID := s.startSession("A1", clientID)
	msg := readEvent(t, device, realtime.EventSessionStarted)
	assert.Equal(t, sessionID, msg.Data["session_id"])

	order := s.placeOrder(sessionID, gin.H{"menu_item_id": nasi.ID, "quantity": 1})
	w, _ := s.request(http.MethodPatch, "/orders/"+order["id"].(string)+"/status", gin.H{"status": "ready_for_pickup"})
	require.Equal(t, http.StatusOK, w.Code)

	msg = readEvent(t, device, realtime.EventOrderStatusUpdated)
	assert.Equal(t, "ready_for_pickup", msg.Data["status"])

	w, _ = s.request(http.MethodPost, "/sessions/"+sessionID+"/bill", nil)
	require.Equal(t, http.StatusOK, w.Code)
	msg = readEvent(t, device, realtime.EventBillReady)
	assert.Equal(t, "25000", msg.Data["total"])

	w, _ = s.request(http.MethodPost, "/sessions/"+sessionID+"/end", nil)
	require.Equal(t, http.StatusOK, w.Code)
	msg = readEvent(t, device, realtime.EventSessionEnded)
	assert.Equal(t, "closed", msg.Data["status"])
}
