package payment

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/paseoapp/walk-api/internal/authz"
	"github.com/paseoapp/walk-api/internal/handler"
	"github.com/paseoapp/walk-api/internal/model"
	paymentsvc "github.com/paseoapp/walk-api/internal/service/payment"
	apperrors "github.com/paseoapp/walk-api/pkg/errors"
	"github.com/paseoapp/walk-api/pkg/httputil"
)

type Service interface {
	Get(ctx context.Context, actor authz.Actor, id uuid.UUID) (*model.Payment, error)
	List(ctx context.Context, actor authz.Actor, status string) ([]*model.Payment, error)
	UpdateStatus(ctx context.Context, actor authz.Actor, id uuid.UUID, req *model.UpdatePaymentStatusRequest) (*paymentsvc.StatusUpdate, error)
	Settle(ctx context.Context, actor authz.Actor, id uuid.UUID) (*model.Settlement, error)
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	payments := r.Group("/payments")
	{
		payments.GET("", h.ListPayments)
		payments.GET("/:id", h.GetPayment)
		payments.PUT("/:id/status", h.UpdatePaymentStatus)
		payments.POST("/:id/assign", h.AssignPayment)
	}
}

func (h *Handler) ListPayments(c *gin.Context) {
	actor, ok := handler.CurrentActor(c)
	if !ok {
		return
	}

	payments, err := h.service.List(c.Request.Context(), actor, c.Query("status"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, "Pagos obtenidos", payments)
}

func (h *Handler) GetPayment(c *gin.Context) {
	actor, ok := handler.CurrentActor(c)
	if !ok {
		return
	}
	id, ok := handler.PathID(c)
	if !ok {
		return
	}

	p, err := h.service.Get(c.Request.Context(), actor, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, "Pago obtenido", p)
}

// UpdatePaymentStatus answers 200 with a warning when the status changed but
// the chained settlement could not run. The change is not rolled back, so
// callers must not retry.
func (h *Handler) UpdatePaymentStatus(c *gin.Context) {
	actor, ok := handler.CurrentActor(c)
	if !ok {
		return
	}
	id, ok := handler.PathID(c)
	if !ok {
		return
	}
	var req model.UpdatePaymentStatusRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	result, err := h.service.UpdateStatus(c.Request.Context(), actor, id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	if result.SettlementErr != nil {
		msg := "Estado del pago actualizado, pero no se pudo asignar al paseador"
		if appErr, ok := apperrors.As(result.SettlementErr); ok && appErr.Kind != apperrors.KindInternal {
			msg += ": " + appErr.Message
		} else {
			_ = c.Error(result.SettlementErr)
		}
		httputil.RespondWithWarning(c, msg, result)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, "Estado del pago actualizado", result)
}

func (h *Handler) AssignPayment(c *gin.Context) {
	actor, ok := handler.CurrentActor(c)
	if !ok {
		return
	}
	id, ok := handler.PathID(c)
	if !ok {
		return
	}

	settlement, err := h.service.Settle(c.Request.Context(), actor, id)
	if err != nil && settlement != nil {
		// The payout committed and only the notification failed.
		httputil.RespondWithErrorData(c, err, settlement)
		return
	}
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, "Pago asignado al paseador", settlement)
}
