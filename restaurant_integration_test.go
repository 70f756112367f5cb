package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/dinein-lifecycle/app"
	"github.com/yeremiapane/dinein-lifecycle/config"
	"github.com/yeremiapane/dinein-lifecycle/models"
	"github.com/yeremiapane/dinein-lifecycle/store"
	"github.com/yeremiapane/dinein-lifecycle/testutil"
	"github.com/yeremiapane/dinein-lifecycle/utils"
)

func TestMain(m *testing.M) {
	utils.InitLogger()
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func integrationConfig(dsn string) config.Config {
	return config.Config{
		Server: config.ServerConfig{InstanceID: "integration", AllowedOrigin: "*", RateLimit: "1000-S"},
		DB:     config.DBConfig{Driver: "sqlite", DSN: dsn},
		Auth:   config.AuthConfig{JWTSecret: "integration-secret", TokenTTL: time.Hour},
		Engine: config.EngineConfig{
			OrderTransitionPolicy: "strict",
			DeliveryFee:           "10000",
			DispatcherQueueSize:   128,
			InvalidationTimeout:   time.Second,
			ReconcileInterval:     time.Hour,
		},
		Cache: config.DefaultCacheTTLs(),
	}
}

// TestEndToEndIntegration menguji alur utama:
// 1. Daftar meja dan pelanggan
// 2. Mulai sesi dan pesan
// 3. Dapur memproses order sampai diantar
// 4. Tagihan dibuat lalu dibayar
// 5. Meja dibersihkan dan siap dipakai lagi
func TestEndToEndIntegration(t *testing.T) {
	cfg := integrationConfig(filepath.Join(t.TempDir(), "dinein.db"))
	db, err := openDB(cfg, true)
	require.NoError(t, err)

	_, rdb := testutil.NewRedis(t)
	a, err := app.New(cfg, db, rdb)
	require.NoError(t, err)
	a.Start()
	defer a.Stop()

	menu := seedMenu(t, a.Store)

	call(t, a, http.MethodPost, "/devices/tables", gin.H{"tableId": "VIP-1", "capacity": 2}, http.StatusCreated)
	client := call(t, a, http.MethodPost, "/clients", gin.H{"name": "Andi"}, http.StatusCreated)
	clientID := client["data"].(map[string]interface{})["client"].(map[string]interface{})["id"].(string)

	started := call(t, a, http.MethodPost, "/sessions", gin.H{"tableId": "VIP-1", "clientId": clientID}, http.StatusCreated)
	sessionID := started["session"].(map[string]interface{})["id"].(string)

	placed := call(t, a, http.MethodPost, "/orders", gin.H{
		"session_id": sessionID,
		"items":      []gin.H{{"menu_item_id": menu.ID, "quantity": 2}},
	}, http.StatusCreated)
	orderID := placed["order"].(map[string]interface{})["id"].(string)

	// order antar-jemput tidak masuk sesi dan kena ongkir
	delivery := call(t, a, http.MethodPost, "/orders", gin.H{
		"order_type": "Delivery",
		"client_id":  clientID,
		"items":      []gin.H{{"menu_item_id": menu.ID, "quantity": 1}},
	}, http.StatusCreated)
	assert.Equal(t, "28000", delivery["order"].(map[string]interface{})["total"])

	// kebijakan strict: tidak boleh melompati tahap
	call(t, a, http.MethodPatch, "/orders/"+orderID+"/status", gin.H{"status": "delivered"}, http.StatusConflict)
	for _, status := range []string{"confirmed", "preparing", "ready_for_pickup", "delivered"} {
		call(t, a, http.MethodPatch, "/orders/"+orderID+"/status", gin.H{"status": status}, http.StatusOK)
	}

	sessionView := call(t, a, http.MethodGet, "/sessions/"+sessionID+"/orders", nil, http.StatusOK)
	data := sessionView["data"].(map[string]interface{})
	assert.Len(t, data["orders"], 1)
	assert.Equal(t, "36000", data["total_amount"])

	generated := call(t, a, http.MethodPost, "/sessions/"+sessionID+"/bill", nil, http.StatusOK)
	bill := generated["bill"].(map[string]interface{})
	assert.Equal(t, "36000", bill["total"])

	call(t, a, http.MethodPatch, "/bills/"+bill["id"].(string)+"/settle", gin.H{
		"payment_status": "paid",
		"payment_method": "qris",
	}, http.StatusOK)

	table := call(t, a, http.MethodGet, "/tables/VIP-1", nil, http.StatusOK)["table"].(map[string]interface{})
	assert.Equal(t, "cleaning", table["status"])
	assert.Nil(t, table["current_session_id"])

	call(t, a, http.MethodPatch, "/tables/VIP-1/status", gin.H{"status": "available"}, http.StatusOK)

	// meja siap untuk tamu berikutnya
	next := call(t, a, http.MethodPost, "/clients", gin.H{"name": "Budi"}, http.StatusCreated)
	nextID := next["data"].(map[string]interface{})["client"].(map[string]interface{})["id"].(string)
	call(t, a, http.MethodPost, "/sessions", gin.H{"tableId": "VIP-1", "clientId": nextID}, http.StatusCreated)

	report := call(t, a, http.MethodPost, "/admin/reconcile", nil, http.StatusOK)["report"].(map[string]interface{})
	assert.Equal(t, float64(0), report["reattached"])
}

func TestMigrateCommand(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "migrate.db")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_DSN", dsn)

	cmd := newRootCommand()
	cmd.SetArgs([]string{"migrate"})
	require.NoError(t, cmd.Execute())

	db, err := openDB(integrationConfig(dsn), false)
	require.NoError(t, err)
	for _, model := range []interface{}{&models.Table{}, &models.TableSession{}, &models.Order{}, &models.Bill{}} {
		assert.True(t, db.Migrator().HasTable(model))
	}
}

func seedMenu(t *testing.T, st *store.Store) *models.MenuItem {
	t.Helper()
	return testutil.SeedMenuItem(t, st, "Ayam Bakar", "18000", true)
}

func call(t *testing.T, a *app.App, method, path string, body interface{}, expected int) map[string]interface{} {
	t.Helper()

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}

	req, err := http.NewRequest(method, path, bytes.NewBuffer(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, expected, w.Code, "%s %s: %v", method, path, response)
	return response
}
