package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/dinein-lifecycle/services"
	"github.com/yeremiapane/dinein-lifecycle/utils"
)

type ClientController struct {
	Engine  *services.Engine
	Queries *services.Queries
	Tokens  *utils.TokenIssuer
}

func NewClientController(engine *services.Engine, queries *services.Queries, tokens *utils.TokenIssuer) *ClientController {
	return &ClientController{Engine: engine, Queries: queries, Tokens: tokens}
}

// RegisterClient -> mendaftarkan pelanggan, token dipakai untuk bergabung ke grup meja
func (cc *ClientController) RegisterClient(c *gin.Context) {
	var req struct {
		Name  string `json:"name" binding:"required"`
		Phone string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBadRequest(c, err)
		return
	}

	client, err := cc.Engine.RegisterClient(c.Request.Context(), req.Name, req.Phone)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	token, err := cc.Tokens.GenerateToken(client.ID, utils.RoleClient, "")
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Client registered", "data", gin.H{
		"client": client,
		"token":  token,
	})
}

func (cc *ClientController) GetClientOrders(c *gin.Context) {
	orders, err := cc.Queries.UserOrders(c.Request.Context(), c.Param("client_id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Client orders", "orders", orders)
}

func (cc *ClientController) GetClientRatings(c *gin.Context) {
	ratings, err := cc.Queries.UserRatings(c.Request.Context(), c.Param("client_id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Client ratings", "ratings", ratings)
}

func (cc *ClientController) GetClientReservations(c *gin.Context) {
	reservations, err := cc.Queries.UserReservations(c.Request.Context(), c.Param("client_id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Client reservations", "reservations", reservations)
}
