package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paseoapp/walk-api/internal/handler/health"
	paymenthandler "github.com/paseoapp/walk-api/internal/handler/payment"
	walkhandler "github.com/paseoapp/walk-api/internal/handler/walk"
	"github.com/paseoapp/walk-api/internal/middleware"
	"github.com/paseoapp/walk-api/internal/model"
	"github.com/paseoapp/walk-api/internal/repository/postgres"
	"github.com/paseoapp/walk-api/internal/service/payment"
	"github.com/paseoapp/walk-api/internal/service/walk"
	"github.com/paseoapp/walk-api/internal/testutil"
	"github.com/paseoapp/walk-api/pkg/auth"
	"github.com/paseoapp/walk-api/pkg/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Msg     string          `json:"msg"`
	Error   bool            `json:"error"`
	Warning bool            `json:"warning"`
	Data    json.RawMessage `json:"data"`
}

type testAPI struct {
	t      *testing.T
	engine *gin.Engine
	store  *postgres.Store
	jwt    auth.JWTService
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	store := testutil.NewStore(t)
	loc := testutil.Santiago(t)
	// Wednesday 2024-05-15 10:00 in Santiago.
	clock := testutil.NewClock(time.Date(2024, 5, 15, 10, 0, 0, 0, loc))
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg, "walks", "")
	jwtSvc := auth.NewJWTService("test-secret", "walks", time.Hour)

	walkSvc := walk.NewService(store, walk.Config{Location: loc, Now: clock.Now}, m, nil)
	paymentSvc := payment.NewService(store, nil, payment.Config{Now: clock.Now}, m, nil)

	r := NewRouter(
		middleware.NewAuthMiddleware(jwtSvc),
		health.NewHandler(reg, map[string]health.Pinger{"database": store}),
		walkhandler.NewHandler(walkSvc),
		paymenthandler.NewHandler(paymentSvc),
		RouterConfig{
			CORSConfig: middleware.DefaultCORSConfig(),
			Registerer: reg,
		},
	)
	r.Setup()

	return &testAPI{t: t, engine: r.Engine(), store: store, jwt: jwtSvc}
}

func (a *testAPI) token(user *model.User) string {
	a.t.Helper()
	token, err := a.jwt.GenerateAccessToken(user.ID, int(user.RoleID))
	require.NoError(a.t, err)
	return token
}

func (a *testAPI) do(method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)

	var env envelope
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func (a *testAPI) chargeOf(walkID uuid.UUID) *model.Payment {
	a.t.Helper()
	payments, err := a.store.Payments().List(context.Background(), &model.PaymentFilters{WalkID: &walkID})
	require.NoError(a.t, err)
	require.Len(a.t, payments, 1)
	return payments[0]
}

func createWalkBody(petID uuid.UUID) map[string]interface{} {
	return map[string]interface{}{
		"walk_type":  "fijo",
		"pet_id":     petID,
		"start_time": "14:00",
		"duration":   30,
		"days":       []string{"lunes", "jueves"},
	}
}

func TestWalkAndPaymentFlow(t *testing.T) {
	api := newTestAPI(t)
	client := testutil.CreateClient(t, api.store)
	walker := testutil.CreateWalker(t, api.store, 5000, "")
	admin := testutil.CreateAdmin(t, api.store)
	pet := testutil.CreatePet(t, api.store, client.ID, "")

	w, env := api.do(http.MethodPost, "/api/v1/walks", api.token(client), createWalkBody(pet.ID))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.False(t, env.Error)
	var created model.CreateWalkResponse
	require.NoError(t, json.Unmarshal(env.Data, &created))
	require.NotEqual(t, uuid.Nil, created.WalkID)
	assert.JSONEq(t, `{"walk_id":"`+created.WalkID.String()+`"}`, string(env.Data))

	w, env = api.do(http.MethodGet, "/api/v1/walks/"+created.WalkID.String(), api.token(client), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var fetched model.Walk
	require.NoError(t, json.Unmarshal(env.Data, &fetched))
	assert.Len(t, fetched.Days, 2)

	w, env = api.do(http.MethodGet, "/api/v1/walks", api.token(walker), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var open []model.Walk
	require.NoError(t, json.Unmarshal(env.Data, &open))
	require.Len(t, open, 1)
	assert.Equal(t, created.WalkID, open[0].ID)

	w, _ = api.do(http.MethodPut, "/api/v1/walks/"+created.WalkID.String()+"/status", api.token(walker),
		map[string]string{"status": "confirmado"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	charge := api.chargeOf(created.WalkID)
	assert.Equal(t, int64(10000), charge.Amount)

	w, env = api.do(http.MethodPut, "/api/v1/payments/"+charge.ID.String()+"/status", api.token(client),
		map[string]string{"status": "paid"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.False(t, env.Error)
	var result struct {
		Payment    model.Payment    `json:"payment"`
		Settlement model.Settlement `json:"settlement"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.True(t, result.Payment.WalkerAssigned)
	assert.Equal(t, int64(9000), result.Settlement.WalkerAmount)
	assert.Equal(t, int64(1000), result.Settlement.CommissionAmount)
	assert.Equal(t, int64(14000), result.Settlement.Balance)

	w, env = api.do(http.MethodPost, "/api/v1/payments/"+charge.ID.String()+"/assign", api.token(admin), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.True(t, env.Error)
	assert.Equal(t, payment.ErrAlreadyAssigned.Message, env.Msg)

	profile, err := api.store.WalkerProfiles().Get(context.Background(), walker.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(14000), profile.Balance)

	w, env = api.do(http.MethodGet, "/api/v1/payments", api.token(walker), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var walkerPayments []model.Payment
	require.NoError(t, json.Unmarshal(env.Data, &walkerPayments))
	assert.Len(t, walkerPayments, 2, "charge and payout rows of the assigned walk")
}

func TestPaymentPaidWithoutWalkerWarns(t *testing.T) {
	api := newTestAPI(t)
	client := testutil.CreateClient(t, api.store)
	pet := testutil.CreatePet(t, api.store, client.ID, "")

	w, env := api.do(http.MethodPost, "/api/v1/walks", api.token(client), createWalkBody(pet.ID))
	require.Equal(t, http.StatusCreated, w.Code)
	var created model.CreateWalkResponse
	require.NoError(t, json.Unmarshal(env.Data, &created))
	charge := api.chargeOf(created.WalkID)

	w, env = api.do(http.MethodPut, "/api/v1/payments/"+charge.ID.String()+"/status", api.token(client),
		map[string]string{"status": "paid"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Error)
	assert.True(t, env.Warning)
	assert.Contains(t, env.Msg, payment.ErrNoWalkerAssigned.Message)

	stored, err := api.store.Payments().Get(context.Background(), charge.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPaid, stored.Status)
	assert.False(t, stored.WalkerAssigned)
}

func TestRequestErrors(t *testing.T) {
	api := newTestAPI(t)
	client := testutil.CreateClient(t, api.store)
	walker := testutil.CreateWalker(t, api.store, 0, "")
	pet := testutil.CreatePet(t, api.store, client.ID, "")

	w, env := api.do(http.MethodGet, "/api/v1/walks", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.True(t, env.Error)

	w, _ = api.do(http.MethodGet, "/api/v1/walks/not-a-uuid", api.token(client), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = api.do(http.MethodGet, "/api/v1/walks/"+uuid.NewString(), api.token(client), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = api.do(http.MethodPost, "/api/v1/walks", api.token(walker), createWalkBody(pet.ID))
	assert.Equal(t, http.StatusForbidden, w.Code)

	body := createWalkBody(pet.ID)
	body["days"] = []string{"lunes"}
	w, env = api.do(http.MethodPost, "/api/v1/walks", api.token(client), body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, walk.ErrFixedNeedsTwoDays.Message, env.Msg)

	w, _ = api.do(http.MethodPut, "/api/v1/payments/"+uuid.NewString()+"/status", api.token(client),
		map[string]string{"status": "refunded"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = api.do(http.MethodPost, "/api/v1/payments/"+uuid.NewString()+"/assign", api.token(client), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	api := newTestAPI(t)

	w, _ := api.do(http.MethodGet, "/api/v1/health/live", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1.0", w.Header().Get("X-API-Version"))
	assert.NotEmpty(t, w.Header().Get(middleware.HeaderXRequestID))

	w, _ = api.do(http.MethodGet, "/api/v1/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = api.do(http.MethodGet, "/api/v1/health/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "walks_http_requests_total")
}
