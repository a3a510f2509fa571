package quotes

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"quotes-backend/internal/shared/server/middleware"
	"quotes-backend/internal/shared/server/respond"
	"quotes-backend/internal/vendors"
)

// Handler exposes the quote listing and workflow endpoints.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes attaches the quote routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/quotes", h.list)
	rg.GET("/quotes/:id", h.detail)
	rg.PATCH("/quotes/:id", h.update)
	rg.POST("/quotes/:id/cancel", h.cancel)
}

func (h *Handler) list(c *gin.Context) {
	vendorID := middleware.VendorIDFromContext(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	list, err := h.svc.List(c.Request.Context(), vendorID, limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list quotes", nil)
		return
	}

	out := make([]QuoteDTO, 0, len(list))
	for _, q := range list {
		out = append(out, ToDTO(q))
	}
	respond.JSON(c, http.StatusOK, gin.H{"quotes": out})
}

func (h *Handler) detail(c *gin.Context) {
	vendorID := middleware.VendorIDFromContext(c)

	q, err := h.svc.Detail(c.Request.Context(), vendorID, c.Param("id"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, ToDTO(q))
}

type updateRequest struct {
	Summary *string `json:"summary"`
	Notes   *string `json:"notes"`
	Status  *string `json:"status"`
}

func (h *Handler) update(c *gin.Context) {
	vendorID := middleware.VendorIDFromContext(c)

	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if req.Summary == nil && req.Notes == nil && req.Status == nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "nothing to update", nil)
		return
	}

	q, err := h.svc.Update(c.Request.Context(), vendorID, c.Param("id"), WorkflowUpdate{
		Summary: req.Summary,
		Notes:   req.Notes,
		Status:  req.Status,
	})
	if err != nil {
		h.renderError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, ToDTO(q))
}

func (h *Handler) cancel(c *gin.Context) {
	vendorID := middleware.VendorIDFromContext(c)

	q, err := h.svc.CancelReminders(c.Request.Context(), vendorID, c.Param("id"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, ToDTO(q))
}

func (h *Handler) renderError(c *gin.Context, err error) {
	var verr *ValidationError
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "quote not found", nil)
	case errors.As(err, &verr):
		respond.Error(c, http.StatusUnprocessableEntity, "validation_error", "invalid update", gin.H{
			"violations": verr.Violations,
		})
	case errors.Is(err, vendors.ErrNotAuthorized):
		respond.Error(c, http.StatusForbidden, "vendor_not_authorized", "salesperson has not granted calendar access", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to update quote", nil)
	}
}
