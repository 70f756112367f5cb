package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/dinein-lifecycle/services"
	"github.com/yeremiapane/dinein-lifecycle/utils"
)

type BillController struct {
	Engine *services.Engine
}

func NewBillController(engine *services.Engine) *BillController {
	return &BillController{Engine: engine}
}

// SettleBill -> mencatat pembayaran tagihan oleh kasir
func (bc *BillController) SettleBill(c *gin.Context) {
	var body struct {
		PaymentStatus string `json:"payment_status" binding:"required"`
		PaymentMethod string `json:"payment_method"`
		ProcessedBy   string `json:"processed_by"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondBadRequest(c, err)
		return
	}

	bill, err := bc.Engine.SettleBill(c.Request.Context(), c.Param("bill_id"), body.PaymentStatus, body.PaymentMethod, body.ProcessedBy)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.InfoLogger.Printf("Bill %s settled as %s", bill.ID, bill.PaymentStatus)
	utils.RespondJSON(c, http.StatusOK, "Bill updated", "bill", bill)
}
