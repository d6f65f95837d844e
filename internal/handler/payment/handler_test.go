package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paseoapp/walk-api/internal/authz"
	"github.com/paseoapp/walk-api/internal/middleware"
	"github.com/paseoapp/walk-api/internal/model"
	paymentsvc "github.com/paseoapp/walk-api/internal/service/payment"
)

type stubService struct {
	settlement *model.Settlement
	settleErr  error
}

func (s *stubService) Get(context.Context, authz.Actor, uuid.UUID) (*model.Payment, error) {
	return nil, paymentsvc.ErrPaymentNotFound
}

func (s *stubService) List(context.Context, authz.Actor, string) ([]*model.Payment, error) {
	return []*model.Payment{}, nil
}

func (s *stubService) UpdateStatus(context.Context, authz.Actor, uuid.UUID, *model.UpdatePaymentStatusRequest) (*paymentsvc.StatusUpdate, error) {
	return &paymentsvc.StatusUpdate{SettlementErr: errors.New("db gone")}, nil
}

func (s *stubService) Settle(context.Context, authz.Actor, uuid.UUID) (*model.Settlement, error) {
	return s.settlement, s.settleErr
}

func newEngine(svc Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextActor, authz.Actor{UserID: uuid.New(), Role: model.RoleAdmin})
		c.Next()
	})
	NewHandler(svc).RegisterRoutes(r.Group(""))
	return r
}

func call(r *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var out map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func TestAssignPayment_NotificationFailureIsWarning(t *testing.T) {
	settlement := &model.Settlement{PaymentID: uuid.New(), WalkerAmount: 9000, CommissionAmount: 1000, Balance: 14000}
	r := newEngine(&stubService{
		settlement: settlement,
		settleErr:  paymentsvc.ErrNotificationFailed.Wrap(errors.New("smtp down")),
	})

	w, body := call(r, http.MethodPost, "/payments/"+settlement.PaymentID.String()+"/assign", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["error"])
	assert.Equal(t, true, body["warning"])
	assert.Equal(t, paymentsvc.ErrNotificationFailed.Message, body["msg"])
	data, ok := body["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(14000), data["balance"])
}

func TestAssignPayment_HardFailure(t *testing.T) {
	r := newEngine(&stubService{settleErr: paymentsvc.ErrPaymentNotConfirmed})

	w, body := call(r, http.MethodPost, "/payments/"+uuid.NewString()+"/assign", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, true, body["error"])
	assert.NotContains(t, body, "warning")
	assert.NotContains(t, body, "data")
}

func TestUpdatePaymentStatus_InternalSettlementErrorIsGeneric(t *testing.T) {
	r := newEngine(&stubService{})

	w, body := call(r, http.MethodPut, "/payments/"+uuid.NewString()+"/status", `{"status":"paid"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["warning"])
	assert.NotContains(t, body["msg"], "db gone")
}

func TestUpdatePaymentStatus_BadBody(t *testing.T) {
	r := newEngine(&stubService{})

	w, _ := call(r, http.MethodPut, "/payments/"+uuid.NewString()+"/status", `{"status":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
