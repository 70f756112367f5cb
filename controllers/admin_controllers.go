package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/dinein-lifecycle/services"
	"github.com/yeremiapane/dinein-lifecycle/utils"
)

type AdminController struct {
	Dispatcher *services.Dispatcher
	Reconciler *services.Reconciler
}

func NewAdminController(dispatcher *services.Dispatcher, reconciler *services.Reconciler) *AdminController {
	return &AdminController{Dispatcher: dispatcher, Reconciler: reconciler}
}

// GetDispatcherMetrics -> metrik antrian side effect
func (ac *AdminController) GetDispatcherMetrics(c *gin.Context) {
	utils.RespondJSON(c, http.StatusOK, "Dispatcher metrics", "metrics", ac.Dispatcher.GetMetrics())
}

// Reconcile -> menjalankan satu putaran rekonsiliasi sekarang
func (ac *AdminController) Reconcile(c *gin.Context) {
	report, err := ac.Reconciler.RunOnce(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Reconciliation finished", "report", report)
}
