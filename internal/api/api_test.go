package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BerylCAtieno/synapse/internal/auth"
	"github.com/BerylCAtieno/synapse/internal/llm"
	"github.com/BerylCAtieno/synapse/internal/logger"
	"github.com/BerylCAtieno/synapse/internal/services"
	"github.com/BerylCAtieno/synapse/internal/store"
	"github.com/BerylCAtieno/synapse/internal/telemetry"
)

const secret = "api-test-secret"

type stubCompleter struct{ reply string }

func (s stubCompleter) Provider() string { return "OpenAI" }
func (s stubCompleter) Model() string    { return "gpt-4o-mini" }
func (s stubCompleter) Complete(context.Context, string) (string, error) {
	return s.reply, nil
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logger.Nop()

	db, err := store.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()), log)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	registry, err := llm.NewRegistry("gpt-4o-mini", stubCompleter{
		reply: `[{"actor":"brand","text":"Yours for 999.","sentiment":0.5},{"actor":"consumer","text":"Counter: 799?","sentiment":0.1}]`,
	})
	require.NoError(t, err)

	campaigns := store.NewCampaignRepo(db, log)
	personas := store.NewPersonaRepo(db, log)
	metrics := telemetry.New()
	catalog := services.NewCatalogService(log, campaigns, personas)
	sims := services.NewSimulationService(log, campaigns, personas, store.NewSimulationRepo(db, log), registry, metrics, 10)

	return NewRouter(RouterConfig{
		Log:               log,
		CORSOrigins:       []string{"*"},
		AuthMiddleware:    auth.NewMiddleware(log, auth.NewVerifier(secret)),
		Metrics:           metrics,
		SimulationHandler: NewSimulationHandler(log, sims),
		CampaignHandler:   NewCampaignHandler(log, catalog),
		PersonaHandler:    NewPersonaHandler(log, catalog),
		DemoHandler:       NewDemoHandler(),
	})
}

func bearer(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	return "Bearer " + token
}

func do(t *testing.T, r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealthAndMetrics(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())

	w = do(t, r, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "synapse_http_requests_total")
}

func TestDemoFlow(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/api/demo", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	catalog := decode(t, w)
	assert.Len(t, catalog["campaigns"], 3)
	assert.Len(t, catalog["personas"], 3)

	w = do(t, r, http.MethodPost, "/api/simulations", "", map[string]string{
		"campaignId": "demo-smartwatch-x",
		"personaId":  "demo-urban-saver",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	sim := decode(t, w)["simulation"].(map[string]any)
	assert.Equal(t, "counter", sim["outcome"])
	assert.Equal(t, "demo", sim["model"])
	assert.Len(t, sim["transcript"], 4)
}

func TestRemoteFlow(t *testing.T) {
	r := newTestRouter(t)
	token := bearer(t, uuid.New())

	w := do(t, r, http.MethodPost, "/api/campaigns", token, map[string]any{
		"name":         "Membership push",
		"product_name": "Premium Membership",
		"price":        999,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	campaign := decode(t, w)["campaign"].(map[string]any)
	assert.Equal(t, "draft", campaign["status"])
	assert.Equal(t, "INR", campaign["currency"])
	assert.EqualValues(t, 999, campaign["price"])
	campaignID := campaign["id"].(string)

	w = do(t, r, http.MethodPost, "/api/personas", token, map[string]any{"name": "Student", "age": 21})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	personaID := decode(t, w)["persona"].(map[string]any)["id"].(string)

	run := map[string]string{"campaignId": campaignID, "personaId": personaID}

	w = do(t, r, http.MethodPost, "/api/simulations", "", run)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Not authenticated"}`, w.Body.String())

	w = do(t, r, http.MethodPost, "/api/simulations", token, run)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	sim := decode(t, w)["simulation"].(map[string]any)
	assert.Equal(t, "counter", sim["outcome"])
	metrics := sim["metrics"].(map[string]any)
	assert.InDelta(t, 0.5, metrics["acceptanceRate"], 1e-9)
	assert.InDelta(t, 0.3, metrics["sentimentAvg"], 1e-9)

	w = do(t, r, http.MethodGet, "/api/campaigns/"+campaignID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["campaign"].(map[string]any)["simulation_count"])

	w = do(t, r, http.MethodGet, "/api/simulations?campaign_id="+campaignID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["simulations"], 1)

	w = do(t, r, http.MethodPatch, "/api/campaigns/"+campaignID+"/status", token, map[string]string{"status": "archived"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "archived", decode(t, w)["campaign"].(map[string]any)["status"])

	w = do(t, r, http.MethodPut, "/api/personas/"+personaID, token, map[string]any{"trust_score": 0.9})
	require.Equal(t, http.StatusOK, w.Code)
	assert.InDelta(t, 0.9, decode(t, w)["persona"].(map[string]any)["trust_score"], 1e-9)

	stranger := bearer(t, uuid.New())
	for _, path := range []string{"/api/campaigns/" + campaignID, "/api/personas/" + personaID} {
		w = do(t, r, http.MethodGet, path, stranger, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
		w = do(t, r, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}
	w = do(t, r, http.MethodPost, "/api/simulations", stranger, run)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestErrorResponses(t *testing.T) {
	r := newTestRouter(t)
	token := bearer(t, uuid.New())

	w := do(t, r, http.MethodPost, "/api/simulations", token, map[string]string{
		"campaignId": uuid.NewString(),
		"personaId":  uuid.NewString(),
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Campaign or persona not found"}`, w.Body.String())

	req := httptest.NewRequest(http.MethodPost, "/api/simulations", bytes.NewBufferString("{"))
	req.Header.Set("Authorization", token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	w = do(t, r, http.MethodGet, "/api/simulations?limit=abc", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodGet, "/api/campaigns", "Bearer garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, r, http.MethodPost, "/api/campaigns", token, map[string]any{"name": "missing product"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/simulations", nil)
	req.Header.Set("Origin", "https://dashboard.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "authorization,x-client-info,apikey,content-type")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}
