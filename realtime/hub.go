// Package realtime delivers lifecycle events to the kitchen display and to the
// devices of each table over websockets.
package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/yeremiapane/dinein-lifecycle/utils"
)

const (
	writeWait      = 10 * time.Second
	sendBufferSize = 64
)

// Transport addresses one endpoint, one group or every connection.
type Transport interface {
	EmitToEndpoint(ctx context.Context, endpointID, event string, payload interface{}) error
	EmitToGroup(ctx context.Context, group, event string, payload interface{}) error
	EmitToAll(ctx context.Context, event string, payload interface{}) error
}

// Client is one websocket connection. All writes go through its send channel
// so a connection is only ever written by its own pump.
type Client struct {
	ID   string
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

// Hub menampung semua koneksi lokal beserta grupnya
type Hub struct {
	clients map[string]*Client
	groups  map[string]map[string]*Client
	mutex   sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		groups:  make(map[string]map[string]*Client),
	}
}

// Register adds conn under endpointID and joins it to groups. A previous
// connection with the same id is closed.
func (h *Hub) Register(conn *websocket.Conn, endpointID string, groups ...string) *Client {
	c := &Client{
		ID:   endpointID,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		done: make(chan struct{}),
	}

	h.mutex.Lock()
	old := h.clients[endpointID]
	h.clients[endpointID] = c
	for _, g := range groups {
		if h.groups[g] == nil {
			h.groups[g] = make(map[string]*Client)
		}
		h.groups[g][endpointID] = c
	}
	h.mutex.Unlock()

	if old != nil {
		old.close()
	}
	go c.writePump()
	return c
}

// Unregister removes c if it is still the registered connection for its id.
func (h *Hub) Unregister(c *Client) {
	h.mutex.Lock()
	if h.clients[c.ID] == c {
		delete(h.clients, c.ID)
	}
	for g, members := range h.groups {
		if members[c.ID] == c {
			delete(members, c.ID)
		}
		if len(members) == 0 {
			delete(h.groups, g)
		}
	}
	h.mutex.Unlock()
	c.close()
}

// ConnectionCount returns the number of local connections.
func (h *Hub) ConnectionCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// GroupSize returns the number of local connections in group.
func (h *Hub) GroupSize(group string) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.groups[group])
}

// HasEndpoint reports whether endpointID is connected to this process.
func (h *Hub) HasEndpoint(endpointID string) bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	_, ok := h.clients[endpointID]
	return ok
}

func (h *Hub) EmitToEndpoint(_ context.Context, endpointID, event string, payload interface{}) error {
	data, err := encode(event, payload)
	if err != nil {
		return err
	}
	h.deliverToEndpoint(endpointID, data)
	return nil
}

func (h *Hub) EmitToGroup(_ context.Context, group, event string, payload interface{}) error {
	data, err := encode(event, payload)
	if err != nil {
		return err
	}
	h.deliverToGroup(group, data)
	return nil
}

func (h *Hub) EmitToAll(_ context.Context, event string, payload interface{}) error {
	data, err := encode(event, payload)
	if err != nil {
		return err
	}
	h.deliverToAll(data)
	return nil
}

func (h *Hub) deliverToEndpoint(endpointID string, data []byte) bool {
	h.mutex.RLock()
	c, ok := h.clients[endpointID]
	h.mutex.RUnlock()
	if !ok {
		return false
	}
	c.enqueue(data)
	return true
}

func (h *Hub) deliverToGroup(group string, data []byte) {
	h.mutex.RLock()
	members := make([]*Client, 0, len(h.groups[group]))
	for _, c := range h.groups[group] {
		members = append(members, c)
	}
	h.mutex.RUnlock()

	for _, c := range members {
		c.enqueue(data)
	}
}

func (h *Hub) deliverToAll(data []byte) {
	h.mutex.RLock()
	all := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		all = append(all, c)
	}
	h.mutex.RUnlock()

	for _, c := range all {
		c.enqueue(data)
	}
}

// Close disconnects every local connection.
func (h *Hub) Close() {
	h.mutex.Lock()
	clients := h.clients
	h.clients = make(map[string]*Client)
	h.groups = make(map[string]map[string]*Client)
	h.mutex.Unlock()

	for _, c := range clients {
		c.close()
	}
}

// Send queues a message for this connection only.
func (c *Client) Send(event string, payload interface{}) error {
	data, err := encode(event, payload)
	if err != nil {
		return err
	}
	c.enqueue(data)
	return nil
}

func (c *Client) enqueue(data []byte) {
	select {
	case <-c.done:
	case c.send <- data:
	default:
		utils.InfoLogger.WithField("endpoint_id", c.ID).Warn("Send buffer full, dropping message")
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for {
		select {
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				utils.ErrorLogger.WithField("endpoint_id", c.ID).Errorf("Error sending message to client: %v", err)
				c.close()
				return
			}
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (c *Client) close() {
	c.once.Do(func() { close(c.done) })
}

// Done is closed when the connection has been unregistered or superseded.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

func encode(event string, payload interface{}) ([]byte, error) {
	return json.Marshal(Message{Event: event, Data: payload})
}
