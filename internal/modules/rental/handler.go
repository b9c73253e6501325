package rental

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"equiprent/internal/middleware"
	"equiprent/internal/pkg/response"
	"equiprent/internal/pkg/validator"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(protected *gin.RouterGroup) {
	rentals := protected.Group("/rentals")
	{
		rentals.POST("", h.Create)
		rentals.GET("", h.ListMine)
		rentals.GET("/:id", h.Get)
		rentals.POST("/:id/cancel", h.Cancel)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateRentalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ErrorWithDetails(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Invalid rental", errs)
		return
	}
	r, err := h.service.Create(c.Request.Context(), c.GetInt64(middleware.ContextUserID), req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, r)
}

func (h *Handler) ListMine(c *gin.Context) {
	list, err := h.service.ListByCustomer(c.Request.Context(), c.GetInt64(middleware.ContextUserID))
	if err != nil {
		response.Internal(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"rentals": list})
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	r, err := h.service.Get(c.Request.Context(), c.GetInt64(middleware.ContextUserID), id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, r)
}

func (h *Handler) Cancel(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	r, err := h.service.Cancel(c.Request.Context(), c.GetInt64(middleware.ContextUserID), id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, r)
}

func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid rental ID")
		return 0, false
	}
	return id, true
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Check item ids and dates")
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Rental or item not found")
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Not your rental")
	case errors.Is(err, ErrItemUnavailable):
		response.Error(c, http.StatusConflict, "ITEM_UNAVAILABLE", "An item is not available")
	case errors.Is(err, ErrInvalidStatus):
		response.Error(c, http.StatusConflict, "INVALID_STATUS", "Rental can no longer be cancelled")
	default:
		response.Internal(c, err)
	}
}
