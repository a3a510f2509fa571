package admin

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"quotes-backend/internal/quotes"
	"quotes-backend/internal/shared/server/middleware"
	"quotes-backend/internal/shared/server/respond"
)

// Handler exposes the admin reporting endpoints.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes attaches the admin routes behind the admin gate.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	admin := rg.Group("/admin", middleware.RequireAdmin())
	admin.GET("/quotes", h.list)
	admin.GET("/kpis", h.kpis)
	admin.GET("/export.xlsx", h.export)
}

type itemDTO struct {
	quotes.QuoteDTO
	VendorID    string `json:"vendorId"`
	VendorName  string `json:"vendorName,omitempty"`
	VendorEmail string `json:"vendorEmail,omitempty"`
}

func (h *Handler) list(c *gin.Context) {
	filter, err := filterFromQuery(c)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}

	items, err := h.svc.ListItems(c.Request.Context(), filter)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list quotes", nil)
		return
	}

	out := make([]itemDTO, 0, len(items))
	for _, item := range items {
		out = append(out, itemDTO{
			QuoteDTO:    quotes.ToDTO(item.Quote),
			VendorID:    item.Quote.VendorID,
			VendorName:  item.VendorName,
			VendorEmail: item.VendorEmail,
		})
	}
	respond.JSON(c, http.StatusOK, gin.H{"quotes": out})
}

func (h *Handler) kpis(c *gin.Context) {
	filter, err := filterFromQuery(c)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}

	kpis, err := h.svc.KPIs(c.Request.Context(), filter)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to compute KPIs", nil)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"kpis": kpis})
}

func (h *Handler) export(c *gin.Context) {
	filter, err := filterFromQuery(c)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}

	data, err := h.svc.ExportXLSX(c.Request.Context(), filter)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to build export", nil)
		return
	}

	fileName := "cotizaciones-" + time.Now().UTC().Format("20060102") + ".xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+fileName+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func filterFromQuery(c *gin.Context) (quotes.AdminFilter, error) {
	filter := quotes.AdminFilter{
		VendorID: c.Query("vendorId"),
		Status:   c.Query("status"),
	}
	if filter.Status != "" {
		switch filter.Status {
		case quotes.StatusPending, quotes.StatusClosed, quotes.StatusLost:
		default:
			return quotes.AdminFilter{}, fmt.Errorf("unknown status %q", filter.Status)
		}
	}
	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return quotes.AdminFilter{}, fmt.Errorf("invalid from date %q", raw)
		}
		filter.From = t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return quotes.AdminFilter{}, fmt.Errorf("invalid to date %q", raw)
		}
		filter.To = t
	}
	return filter, nil
}
