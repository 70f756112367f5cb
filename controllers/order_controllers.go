package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/dinein-lifecycle/services"
	"github.com/yeremiapane/dinein-lifecycle/utils"
)

type OrderController struct {
	Engine  *services.Engine
	Queries *services.Queries
}

func NewOrderController(engine *services.Engine, queries *services.Queries) *OrderController {
	return &OrderController{Engine: engine, Queries: queries}
}

// PlaceOrder -> buat order baru
func (oc *OrderController) PlaceOrder(c *gin.Context) {
	var draft services.OrderDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		utils.RespondBadRequest(c, err)
		return
	}

	order, err := oc.Engine.PlaceOrder(c.Request.Context(), draft)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.InfoLogger.Printf("Order %s placed (%s, total=%s)", order.ID, order.OrderType, order.Total.StringFixed(2))
	utils.RespondJSON(c, http.StatusCreated, "Order placed", "order", order)
}

// GetOrderByID -> detail order
func (oc *OrderController) GetOrderByID(c *gin.Context) {
	order, err := oc.Queries.OrderDetail(c.Request.Context(), c.Param("order_id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order detail", "order", order)
}

// UpdateOrderStatus -> update status order (dapur)
func (oc *OrderController) UpdateOrderStatus(c *gin.Context) {
	var body struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondBadRequest(c, err)
		return
	}

	change, err := oc.Engine.UpdateOrderStatus(c.Request.Context(), c.Param("order_id"), body.Status)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	message := "Order status updated"
	if !change.Changed {
		message = "Order status unchanged"
	}
	utils.RespondJSON(c, http.StatusOK, message, "data", change)
}

// UpdatePaymentStatus -> update status pembayaran order
func (oc *OrderController) UpdatePaymentStatus(c *gin.Context) {
	var body struct {
		PaymentStatus string `json:"payment_status" binding:"required"`
		PaymentID     string `json:"payment_id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondBadRequest(c, err)
		return
	}

	order, err := oc.Engine.UpdatePaymentStatus(c.Request.Context(), c.Param("order_id"), body.PaymentStatus, body.PaymentID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Payment status updated", "order", order)
}

// SubmitRatings -> rating per item untuk order yang sudah diantar
func (oc *OrderController) SubmitRatings(c *gin.Context) {
	var body struct {
		Ratings []services.ItemRatingDraft `json:"ratings" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondBadRequest(c, err)
		return
	}

	order, err := oc.Engine.SubmitRatings(c.Request.Context(), c.Param("order_id"), body.Ratings)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Ratings submitted", "order", order)
}
