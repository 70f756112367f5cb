package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/dinein-lifecycle/services"
	"github.com/yeremiapane/dinein-lifecycle/utils"
)

type KitchenController struct {
	Queries *services.Queries
}

func NewKitchenController(queries *services.Queries) *KitchenController {
	return &KitchenController{Queries: queries}
}

// GetActiveOrders -> antrian dapur (pending sampai ready_for_pickup)
func (kc *KitchenController) GetActiveOrders(c *gin.Context) {
	queue, err := kc.Queries.KitchenActiveOrders(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Active kitchen orders", "data", queue)
}

// GetCompletedOrders -> order yang sudah diantar atau dibatalkan
func (kc *KitchenController) GetCompletedOrders(c *gin.Context) {
	queue, err := kc.Queries.KitchenCompletedOrders(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Completed kitchen orders", "data", queue)
}
