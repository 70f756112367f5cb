package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yeremiapane/dinein-lifecycle/services"
	"github.com/yeremiapane/dinein-lifecycle/utils"
)

type DeviceController struct {
	Engine *services.Engine
	Tokens *utils.TokenIssuer
}

func NewDeviceController(engine *services.Engine, tokens *utils.TokenIssuer) *DeviceController {
	return &DeviceController{Engine: engine, Tokens: tokens}
}

// RegisterTable -> perangkat meja mendaftar dan menerima token
func (dc *DeviceController) RegisterTable(c *gin.Context) {
	var req struct {
		TableID  string `json:"tableId" binding:"required"`
		Capacity int    `json:"capacity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBadRequest(c, err)
		return
	}

	table, err := dc.Engine.RegisterTable(c.Request.Context(), req.TableID, req.Capacity)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	token, err := dc.Tokens.GenerateToken(table.ID, utils.RoleTable, table.TableCode)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.InfoLogger.Printf("Table device registered: %s", table.TableCode)
	utils.RespondJSON(c, http.StatusCreated, "Table registered", "data", gin.H{
		"table": table,
		"token": token,
	})
}

// RegisterKitchen -> token untuk layar dapur
func (dc *DeviceController) RegisterKitchen(c *gin.Context) {
	deviceID := uuid.NewString()
	token, err := dc.Tokens.GenerateToken(deviceID, utils.RoleKitchen, "")
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Kitchen registered", "data", gin.H{
		"device_id": deviceID,
		"token":     token,
	})
}
