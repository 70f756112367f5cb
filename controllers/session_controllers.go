package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/dinein-lifecycle/services"
	"github.com/yeremiapane/dinein-lifecycle/utils"
)

type SessionController struct {
	Engine  *services.Engine
	Queries *services.Queries
}

func NewSessionController(engine *services.Engine, queries *services.Queries) *SessionController {
	return &SessionController{Engine: engine, Queries: queries}
}

// StartSession -> duduk di meja, membuka sesi baru
func (sc *SessionController) StartSession(c *gin.Context) {
	var req struct {
		TableID  string `json:"tableId" binding:"required"`
		ClientID string `json:"clientId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBadRequest(c, err)
		return
	}

	session, err := sc.Engine.StartSession(c.Request.Context(), req.TableID, req.ClientID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.InfoLogger.Printf("Session %s started at table %s", session.ID, req.TableID)
	utils.RespondJSON(c, http.StatusCreated, "Session started", "session", session)
}

// GetSessionOrders -> sesi beserta seluruh order-nya
func (sc *SessionController) GetSessionOrders(c *gin.Context) {
	view, err := sc.Queries.SessionOrders(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Session orders", "data", view)
}

// GenerateBill -> membuat tagihan sesi (idempotent)
func (sc *SessionController) GenerateBill(c *gin.Context) {
	bill, err := sc.Engine.GenerateBill(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Bill generated", "bill", bill)
}

// EndSession -> menutup sesi dan meja masuk status cleaning
func (sc *SessionController) EndSession(c *gin.Context) {
	result, err := sc.Engine.EndTableSession(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Session ended", "data", result)
}

// AttachOrder -> mengulang penautan order ke sesi
func (sc *SessionController) AttachOrder(c *gin.Context) {
	session, err := sc.Engine.AttachOrder(c.Request.Context(), c.Param("session_id"), c.Param("order_id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order attached", "session", session)
}
