package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/yeremiapane/dinein-lifecycle/middlewares"
	"github.com/yeremiapane/dinein-lifecycle/models"
	"github.com/yeremiapane/dinein-lifecycle/realtime"
	"github.com/yeremiapane/dinein-lifecycle/services"
	"github.com/yeremiapane/dinein-lifecycle/utils"
	"golang.org/x/time/rate"
)

const socketEventTimeout = 10 * time.Second

type inboundMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type RealtimeController struct {
	Hub      *realtime.Hub
	Bindings *realtime.BindingRegistry
	Engine   *services.Engine
	Queries  *services.Queries
	Upgrader websocket.Upgrader
	// EventLimit and EventBurst bound inbound events per connection.
	EventLimit rate.Limit
	EventBurst int
}

func NewRealtimeController(hub *realtime.Hub, bindings *realtime.BindingRegistry, engine *services.Engine, queries *services.Queries) *RealtimeController {
	return &RealtimeController{
		Hub:      hub,
		Bindings: bindings,
		Engine:   engine,
		Queries:  queries,
		Upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // perangkat diautentikasi lewat token
			},
		},
		EventLimit: rate.Every(100 * time.Millisecond),
		EventBurst: 10,
	}
}

// KitchenSocket -> koneksi layar dapur. Koneksi terbaru menggantikan yang lama.
func (rc *RealtimeController) KitchenSocket(c *gin.Context) {
	ws, err := rc.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	endpointID := uuid.NewString()
	client := rc.Hub.Register(ws, endpointID)
	if err := rc.Bindings.Register(c.Request.Context(), models.EndpointRoleKitchen, endpointID); err != nil {
		utils.ErrorLogger.Errorf("Failed to bind kitchen endpoint: %v", err)
		rc.Hub.Unregister(client)
		return
	}
	utils.InfoLogger.WithField("endpoint_id", endpointID).Info("Kitchen display connected")

	defer func() {
		rc.Hub.Unregister(client)
		ctx, cancel := context.WithTimeout(context.Background(), socketEventTimeout)
		defer cancel()
		if err := rc.Bindings.Release(ctx, models.EndpointRoleKitchen, endpointID); err != nil {
			utils.ErrorLogger.Errorf("Failed to release kitchen endpoint: %v", err)
		}
		utils.InfoLogger.WithField("endpoint_id", endpointID).Info("Kitchen display disconnected")
	}()

	limiter := rate.NewLimiter(rc.EventLimit, rc.EventBurst)
	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			return
		}
		if !limiter.Allow() {
			client.Send(realtime.EventError, gin.H{"message": "too many events"})
			continue
		}

		var msg inboundMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			client.Send(realtime.EventError, gin.H{"message": "malformed message"})
			continue
		}
		rc.handleKitchenEvent(client, msg)
	}
}

func (rc *RealtimeController) handleKitchenEvent(client *realtime.Client, msg inboundMessage) {
	switch msg.Event {
	case realtime.EventUpdateOrderStatus:
		var data struct {
			OrderID string `json:"orderId"`
			Status  string `json:"status"`
		}
		if err := json.Unmarshal(msg.Data, &data); err != nil || data.OrderID == "" {
			client.Send(realtime.EventError, gin.H{"message": "orderId and status are required", "event": msg.Event})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), socketEventTimeout)
		defer cancel()
		if _, err := rc.Engine.UpdateOrderStatus(ctx, data.OrderID, data.Status); err != nil {
			client.Send(realtime.EventError, socketError(msg.Event, err))
		}
	default:
		client.Send(realtime.EventError, gin.H{"message": "unknown event", "event": msg.Event})
	}
}

func socketError(event string, err error) gin.H {
	var se *services.Error
	if errors.As(err, &se) && se.Kind != services.KindUnexpected {
		return gin.H{"event": event, "message": se.Message, "kind": se.Kind}
	}
	utils.ErrorLogger.Errorf("Socket event %s failed: %v", event, err)
	return gin.H{"event": event, "message": "Internal server error"}
}

// TableSocket -> perangkat meja dan pelanggan bergabung ke grup meja
func (rc *RealtimeController) TableSocket(c *gin.Context) {
	code := c.Param("table_id")
	if role := c.GetString(middlewares.ContextRole); role == utils.RoleTable && c.GetString(middlewares.ContextTableCode) != code {
		utils.AbortWithStatus(c, http.StatusForbidden, "token belongs to another table")
		return
	}

	table, err := rc.Queries.TableByCode(c.Request.Context(), code)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	ws, err := rc.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := rc.Hub.Register(ws, uuid.NewString(), realtime.GroupForTable(table.ID))
	defer rc.Hub.Unregister(client)

	// Table devices only listen; inbound frames are read to detect disconnects.
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			return
		}
	}
}
