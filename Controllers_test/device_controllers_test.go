package Controllers_test

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/dinein-lifecycle/utils"
)

func TestRegisterTableDevice(t *testing.T) {
	s := setupServer(t, false)

	w, response := s.request(http.MethodPost, "/devices/tables", gin.H{"tableId": "A1"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid registration key", response["message"])

	w, _ = s.request(http.MethodPost, "/devices/tables", gin.H{"tableId": "A1"}, "X-Registration-Key", "salah")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.request(http.MethodPost, "/devices/tables", gin.H{}, "X-Registration-Key", registrationKey)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, response = s.request(http.MethodPost, "/devices/tables", gin.H{"tableId": "A1"}, "X-Registration-Key", registrationKey)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Table registered", response["message"])

	data := response["data"].(map[string]interface{})
	table := data["table"].(map[string]interface{})
	assert.Equal(t, float64(4), table["capacity"])

	claims, err := s.app.Tokens.ParseToken(data["token"].(string))
	require.NoError(t, err)
	assert.Equal(t, utils.RoleTable, claims.Role)
	assert.Equal(t, "A1", claims.TableCode)
	assert.Equal(t, table["id"], claims.Subject)

	// daftar ulang dengan kode yang sama
	again, _ := s.registerTable("A1", 8)
	assert.Equal(t, table["id"], again)
}

func TestRegisterKitchenDevice(t *testing.T) {
	s := setupServer(t, false)

	w, response := s.request(http.MethodPost, "/devices/kitchen", nil, "X-Registration-Key", registrationKey)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Kitchen registered", response["message"])

	data := response["data"].(map[string]interface{})
	claims, err := s.app.Tokens.ParseToken(data["token"].(string))
	require.NoError(t, err)
	assert.Equal(t, utils.RoleKitchen, claims.Role)
	assert.Equal(t, data["device_id"], claims.Subject)
}
