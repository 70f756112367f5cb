package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/dinein-lifecycle/controllers"
	"github.com/yeremiapane/dinein-lifecycle/middlewares"
	"github.com/yeremiapane/dinein-lifecycle/realtime"
	"github.com/yeremiapane/dinein-lifecycle/services"
	"github.com/yeremiapane/dinein-lifecycle/utils"
)

// Dependencies are the components the HTTP layer talks to.
type Dependencies struct {
	Engine          *services.Engine
	Queries         *services.Queries
	Dispatcher      *services.Dispatcher
	Reconciler      *services.Reconciler
	Hub             *realtime.Hub
	Bindings        *realtime.BindingRegistry
	Tokens          *utils.TokenIssuer
	RegistrationKey string
	AllowedOrigin   string
	// RateLimit is an ulule/limiter formatted rate; empty disables limiting.
	RateLimit string
}

func SetupRouter(deps Dependencies) (*gin.Engine, error) {
	r := gin.New()
	r.Use(gin.Recovery())

	// Apply security middlewares
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares(deps.AllowedOrigin))
	r.Use(middlewares.LoggerMiddleware())
	if deps.RateLimit != "" {
		limiter, err := middlewares.NewRateLimiter(deps.RateLimit)
		if err != nil {
			return nil, err
		}
		r.Use(limiter)
	}

	// Inisialisasi controller
	deviceCtrl := controllers.NewDeviceController(deps.Engine, deps.Tokens)
	clientCtrl := controllers.NewClientController(deps.Engine, deps.Queries, deps.Tokens)
	sessionCtrl := controllers.NewSessionController(deps.Engine, deps.Queries)
	orderCtrl := controllers.NewOrderController(deps.Engine, deps.Queries)
	billCtrl := controllers.NewBillController(deps.Engine)
	tableCtrl := controllers.NewTableController(deps.Engine, deps.Queries)
	reservationCtrl := controllers.NewReservationController(deps.Engine, deps.Queries)
	kitchenCtrl := controllers.NewKitchenController(deps.Queries)
	adminCtrl := controllers.NewAdminController(deps.Dispatcher, deps.Reconciler)
	realtimeCtrl := controllers.NewRealtimeController(deps.Hub, deps.Bindings, deps.Engine, deps.Queries)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// -- DEVICES --
	devices := r.Group("/devices")
	devices.Use(middlewares.RegistrationKeyMiddleware(deps.RegistrationKey))
	{
		devices.POST("/tables", deviceCtrl.RegisterTable)
		devices.POST("/kitchen", deviceCtrl.RegisterKitchen)
	}

	// -- CLIENTS --
	r.POST("/clients", clientCtrl.RegisterClient)
	r.GET("/clients/:client_id/orders", clientCtrl.GetClientOrders)
	r.GET("/clients/:client_id/ratings", clientCtrl.GetClientRatings)
	r.GET("/clients/:client_id/reservations", clientCtrl.GetClientReservations)

	// -- SESSIONS --
	r.POST("/sessions", sessionCtrl.StartSession)
	r.GET("/sessions/:session_id/orders", sessionCtrl.GetSessionOrders)
	r.POST("/sessions/:session_id/orders/:order_id", sessionCtrl.AttachOrder)
	r.POST("/sessions/:session_id/bill", sessionCtrl.GenerateBill)
	r.POST("/sessions/:session_id/end", sessionCtrl.EndSession)

	// -- ORDERS --
	r.POST("/orders", orderCtrl.PlaceOrder)
	r.GET("/orders/:order_id", orderCtrl.GetOrderByID)
	r.PATCH("/orders/:order_id/status", orderCtrl.UpdateOrderStatus)
	r.PATCH("/orders/:order_id/payment", orderCtrl.UpdatePaymentStatus)
	r.POST("/orders/:order_id/ratings", orderCtrl.SubmitRatings)

	// -- BILLS --
	r.PATCH("/bills/:bill_id/settle", billCtrl.SettleBill)

	// -- TABLES --
	r.GET("/tables/:table_id", tableCtrl.GetTable)
	r.PATCH("/tables/:table_id/status", tableCtrl.UpdateTableStatus)
	r.DELETE("/tables/:table_id", tableCtrl.DeactivateTable)

	// -- RESERVATIONS --
	r.POST("/reservations", reservationCtrl.CreateReservation)
	r.GET("/reservations/availability", reservationCtrl.GetAvailability)

	// -- KITCHEN --
	r.GET("/kitchen/orders/active", kitchenCtrl.GetActiveOrders)
	r.GET("/kitchen/orders/completed", kitchenCtrl.GetCompletedOrders)

	// -- WEBSOCKET --
	ws := r.Group("/ws")
	ws.Use(middlewares.DeviceAuthMiddleware(deps.Tokens))
	{
		ws.GET("/kitchen", middlewares.RequireRole(utils.RoleKitchen), realtimeCtrl.KitchenSocket)
		ws.GET("/tables/:table_id", middlewares.RequireRole(utils.RoleTable, utils.RoleClient), realtimeCtrl.TableSocket)
	}

	// -- ADMIN --
	admin := r.Group("/admin")
	{
		admin.GET("/dispatcher/metrics", adminCtrl.GetDispatcherMetrics)
		admin.POST("/reconcile", adminCtrl.Reconcile)
	}

	return r, nil
}
