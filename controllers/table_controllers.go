package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/dinein-lifecycle/services"
	"github.com/yeremiapane/dinein-lifecycle/utils"
)

type TableController struct {
	Engine  *services.Engine
	Queries *services.Queries
}

func NewTableController(engine *services.Engine, queries *services.Queries) *TableController {
	return &TableController{Engine: engine, Queries: queries}
}

// GetTable -> detail meja berdasarkan kode meja
func (tc *TableController) GetTable(c *gin.Context) {
	table, err := tc.Queries.TableByCode(c.Request.Context(), c.Param("table_id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table detail", "table", table)
}

// UpdateTableStatus -> update status meja
func (tc *TableController) UpdateTableStatus(c *gin.Context) {
	var body struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondBadRequest(c, err)
		return
	}

	table, err := tc.Engine.UpdateTableStatus(c.Request.Context(), c.Param("table_id"), body.Status)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.InfoLogger.Printf("Table %s status changed to %s", table.TableCode, table.Status)
	utils.RespondJSON(c, http.StatusOK, "Table status updated", "table", table)
}

// DeactivateTable -> meja tidak dihapus, hanya dinonaktifkan
func (tc *TableController) DeactivateTable(c *gin.Context) {
	table, err := tc.Engine.DeactivateTable(c.Request.Context(), c.Param("table_id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table deactivated", "table", table)
}
