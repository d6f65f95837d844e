package walk

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/paseoapp/walk-api/internal/authz"
	"github.com/paseoapp/walk-api/internal/handler"
	"github.com/paseoapp/walk-api/internal/model"
	"github.com/paseoapp/walk-api/pkg/httputil"
)

type Service interface {
	Create(ctx context.Context, actor authz.Actor, req *model.CreateWalkRequest) (*model.Walk, error)
	Get(ctx context.Context, actor authz.Actor, id uuid.UUID) (*model.Walk, error)
	List(ctx context.Context, actor authz.Actor, status string) ([]*model.Walk, error)
	UpdateStatus(ctx context.Context, actor authz.Actor, id uuid.UUID, req *model.UpdateWalkStatusRequest) (*model.Walk, error)
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	walks := r.Group("/walks")
	{
		walks.POST("", h.CreateWalk)
		walks.GET("", h.ListWalks)
		walks.GET("/:id", h.GetWalk)
		walks.PUT("/:id/status", h.UpdateWalkStatus)
	}
}

func (h *Handler) CreateWalk(c *gin.Context) {
	actor, ok := handler.CurrentActor(c)
	if !ok {
		return
	}
	var req model.CreateWalkRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	walk, err := h.service.Create(c.Request.Context(), actor, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, "Paseo creado exitosamente", model.CreateWalkResponse{WalkID: walk.ID})
}

func (h *Handler) ListWalks(c *gin.Context) {
	actor, ok := handler.CurrentActor(c)
	if !ok {
		return
	}

	walks, err := h.service.List(c.Request.Context(), actor, c.Query("status"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, "Paseos obtenidos", walks)
}

func (h *Handler) GetWalk(c *gin.Context) {
	actor, ok := handler.CurrentActor(c)
	if !ok {
		return
	}
	id, ok := handler.PathID(c)
	if !ok {
		return
	}

	walk, err := h.service.Get(c.Request.Context(), actor, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, "Paseo obtenido", walk)
}

func (h *Handler) UpdateWalkStatus(c *gin.Context) {
	actor, ok := handler.CurrentActor(c)
	if !ok {
		return
	}
	id, ok := handler.PathID(c)
	if !ok {
		return
	}
	var req model.UpdateWalkStatusRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	walk, err := h.service.UpdateStatus(c.Request.Context(), actor, id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, "Estado del paseo actualizado", walk)
}
