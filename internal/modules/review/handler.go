package review

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"equiprent/internal/domain"
	"equiprent/internal/middleware"
	"equiprent/internal/pkg/response"
	"equiprent/internal/pkg/validator"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(public, protected *gin.RouterGroup) {
	if public != nil {
		public.GET("/equipment/:id/reviews", h.ListByEquipment)
	}
	if protected != nil {
		protected.POST("/equipment/:id/reviews", h.Submit)
		protected.PUT("/equipment/:id/reviews", h.Edit)
		protected.DELETE("/equipment/:id/reviews", h.Remove)
	}
}

type reviewWrite func(ctx context.Context, customerID, equipmentID int64, rating int32, comment string) (*domain.Review, *domain.Equipment, error)

func (h *Handler) Submit(c *gin.Context) {
	h.write(c, http.StatusCreated, h.svc.Submit)
}

func (h *Handler) Edit(c *gin.Context) {
	h.write(c, http.StatusOK, h.svc.Edit)
}

func (h *Handler) write(c *gin.Context, status int, fn reviewWrite) {
	equipmentID, ok := equipmentParam(c)
	if !ok {
		return
	}
	var req SubmitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ErrorWithDetails(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Invalid review", errs)
		return
	}

	rv, eq, err := fn(c.Request.Context(), c.GetInt64(middleware.ContextUserID), equipmentID, req.Rating, req.Comment)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, status, SubmitReviewResponse{
		Review:        rv,
		AverageRating: eq.AverageRating,
		TotalReviews:  eq.TotalReviews,
	})
}

func (h *Handler) Remove(c *gin.Context) {
	equipmentID, ok := equipmentParam(c)
	if !ok {
		return
	}
	if err := h.svc.Remove(c.Request.Context(), c.GetInt64(middleware.ContextUserID), equipmentID); err != nil {
		writeError(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) ListByEquipment(c *gin.Context) {
	equipmentID, ok := equipmentParam(c)
	if !ok {
		return
	}
	list, err := h.svc.ListByEquipment(c.Request.Context(), equipmentID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"reviews": list})
}

func equipmentParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid equipment ID")
		return 0, false
	}
	return id, true
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Rating must be between 1 and 5")
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Equipment or review not found")
	case errors.Is(err, ErrConflict):
		response.Error(c, http.StatusConflict, "REVIEW_EXISTS", "You have already reviewed this equipment")
	case errors.Is(err, ErrBusy):
		response.Error(c, http.StatusConflict, "TRY_AGAIN", "The review changed concurrently, try again")
	default:
		response.Internal(c, err)
	}
}
