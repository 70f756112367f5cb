package Controllers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/dinein-lifecycle/app"
	"github.com/yeremiapane/dinein-lifecycle/config"
	"github.com/yeremiapane/dinein-lifecycle/models"
	"github.com/yeremiapane/dinein-lifecycle/testutil"
	"github.com/yeremiapane/dinein-lifecycle/utils"
)

const registrationKey = "rahasia-perangkat"

func TestMain(m *testing.M) {
	utils.InitLogger()
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func testConfig() config.Config {
	return config.Config{
		Server: config.ServerConfig{InstanceID: "test", AllowedOrigin: "*"},
		Auth: config.AuthConfig{
			JWTSecret:       "test-secret",
			RegistrationKey: registrationKey,
			TokenTTL:        time.Hour,
		},
		Engine: config.EngineConfig{
			OrderTransitionPolicy: "permissive",
			DeliveryFee:           "0",
			DispatcherQueueSize:   64,
			InvalidationTimeout:   time.Second,
			ReconcileInterval:     time.Hour,
		},
		Cache: config.DefaultCacheTTLs(),
	}
}

type testServer struct {
	t   *testing.T
	app *app.App
	mr  *miniredis.Miniredis
}

// setupServer builds the whole application on an in-memory database. With
// withCache the read path goes through miniredis.
func setupServer(t *testing.T, withCache bool) *testServer {
	t.Helper()
	db := testutil.NewDB(t)

	var mr *miniredis.Miniredis
	var rdb *redis.Client
	if withCache {
		mr, rdb = testutil.NewRedis(t)
	}

	a, err := app.New(testConfig(), db, rdb)
	require.NoError(t, err)
	a.Start()
	t.Cleanup(a.Stop)

	return &testServer{t: t, app: a, mr: mr}
}

func (s *testServer) request(method, path string, body interface{}, headers ...string) (*httptest.ResponseRecorder, map[string]interface{}) {
	s.t.Helper()

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(s.t, err)
	}

	req, err := http.NewRequest(method, path, bytes.NewBuffer(payload))
	require.NoError(s.t, err)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	s.app.Router.ServeHTTP(w, req)

	var response map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &response))
	}
	return w, response
}

// registerTable goes through the device endpoint and returns the table UUID
// and the device token.
func (s *testServer) registerTable(code string, capacity int) (string, string) {
	s.t.Helper()
	w, response := s.request(http.MethodPost, "/devices/tables",
		gin.H{"tableId": code, "capacity": capacity},
		"X-Registration-Key", registrationKey)
	require.Equal(s.t, http.StatusCreated, w.Code, response)

	data := response["data"].(map[string]interface{})
	table := data["table"].(map[string]interface{})
	return table["id"].(string), data["token"].(string)
}

func (s *testServer) registerClient(name string) (string, string) {
	s.t.Helper()
	w, response := s.request(http.MethodPost, "/clients", gin.H{"name": name, "phone": "0812"})
	require.Equal(s.t, http.StatusCreated, w.Code, response)

	data := response["data"].(map[string]interface{})
	client := data["client"].(map[string]interface{})
	return client["id"].(string), data["token"].(string)
}

func (s *testServer) startSession(code, clientID string) string {
	s.t.Helper()
	w, response := s.request(http.MethodPost, "/sessions", gin.H{"tableId": code, "clientId": clientID})
	require.Equal(s.t, http.StatusCreated, w.Code, response)
	return response["session"].(map[string]interface{})["id"].(string)
}

func (s *testServer) placeOrder(sessionID string, items ...gin.H) map[string]interface{} {
	s.t.Helper()
	w, response := s.request(http.MethodPost, "/orders", gin.H{
		"session_id": sessionID,
		"items":      items,
	})
	require.Equal(s.t, http.StatusCreated, w.Code, response)
	return response["order"].(map[string]interface{})
}

func (s *testServer) seedMenuItem(name, price string) *models.MenuItem {
	return testutil.SeedMenuItem(s.t, s.app.Store, name, price, true)
}

// seated registers a table and a client and opens a session between them.
func (s *testServer) seated(code string) (tableID, clientID, sessionID string) {
	s.t.Helper()
	tableID, _ = s.registerTable(code, 4)
	clientID, _ = s.registerClient("Guest " + code)
	sessionID = s.startSession(code, clientID)
	return tableID, clientID, sessionID
}
