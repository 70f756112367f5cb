package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/dinein-lifecycle/services"
	"github.com/yeremiapane/dinein-lifecycle/utils"
)

type ReservationController struct {
	Engine  *services.Engine
	Queries *services.Queries
}

func NewReservationController(engine *services.Engine, queries *services.Queries) *ReservationController {
	return &ReservationController{Engine: engine, Queries: queries}
}

func (rc *ReservationController) CreateReservation(c *gin.Context) {
	var draft services.ReservationDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		utils.RespondBadRequest(c, err)
		return
	}

	reservation, err := rc.Engine.CreateReservation(c.Request.Context(), draft)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Reservation created", "reservation", reservation)
}

// GetAvailability -> meja yang masih bisa dipesan untuk tanggal dan jumlah tamu
func (rc *ReservationController) GetAvailability(c *gin.Context) {
	guests, err := strconv.Atoi(c.DefaultQuery("guests", "1"))
	if err != nil {
		utils.RespondError(c, services.InvalidInput("guests must be a number"))
		return
	}

	view, err := rc.Queries.Availability(c.Request.Context(), c.Query("date"), guests)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Availability", "data", view)
}
