package uploads

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"quotes-backend/internal/extract"
	"quotes-backend/internal/quotes"
	"quotes-backend/internal/scheduler"
	"quotes-backend/internal/shared/server/respond"
	"quotes-backend/internal/shared/telemetry"
	"quotes-backend/internal/shared/util"
	"quotes-backend/internal/vendors"
)

const maxUploadBytes = 10 << 20

// Handler exposes the quotation upload endpoint.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes attaches the upload route.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/quotes", h.upload)
}

type eventResultDTO struct {
	Tag      string `json:"tag"`
	Outcome  string `json:"outcome"`
	EventID  string `json:"eventId,omitempty"`
	HTMLLink string `json:"htmlLink,omitempty"`
	Error    string `json:"error,omitempty"`
}

type uploadResponse struct {
	QuoteID     string           `json:"quoteId,omitempty"`
	QuoteNumber string           `json:"quoteNumber"`
	VendorID    string           `json:"vendorId"`
	Duplicate   bool             `json:"duplicate"`
	Events      []eventResultDTO `json:"events"`
}

func (h *Handler) upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	if fileHeader.Size > maxUploadBytes {
		respond.Error(c, http.StatusRequestEntityTooLarge, "validation_error", "file exceeds size limit", nil)
		return
	}
	if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".pdf") {
		respond.Error(c, http.StatusBadRequest, "validation_error", "only PDF files are accepted", nil)
		return
	}

	fileName, err := util.SanitizeFileName(fileHeader.Filename)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid file name", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "failed to read file", nil)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "failed to read file", nil)
		return
	}

	result, err := h.svc.ProcessUpload(c.Request.Context(), fileName, data)
	if err != nil {
		h.renderError(c, err)
		return
	}

	status := http.StatusCreated
	if result.Duplicate {
		status = http.StatusOK
	}
	respond.JSON(c, status, toUploadResponse(result))
}

func (h *Handler) renderError(c *gin.Context, err error) {
	var verr *quotes.ValidationError
	switch {
	case errors.Is(err, extract.ErrDecode):
		respond.Error(c, http.StatusBadRequest, "decode_error", "could not read the PDF", nil)
	case errors.As(err, &verr):
		respond.Error(c, http.StatusUnprocessableEntity, "validation_error", "quotation is incomplete or invalid", gin.H{
			"violations": verr.Violations,
		})
	case errors.Is(err, vendors.ErrNotAuthorized):
		respond.Error(c, http.StatusForbidden, "vendor_not_authorized", "salesperson has not granted calendar access", nil)
	default:
		telemetry.Error("uploads.pipeline_failed", map[string]any{
			"error":      err.Error(),
			"request_id": c.GetString("requestId"),
		})
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to process quotation", nil)
	}
}

func toUploadResponse(res PipelineResult) uploadResponse {
	out := uploadResponse{
		QuoteID:     res.QuoteID,
		QuoteNumber: res.QuoteNumber,
		VendorID:    res.VendorID,
		Duplicate:   res.Duplicate,
		Events:      make([]eventResultDTO, 0, len(res.Events)),
	}
	for _, ev := range res.Events {
		dto := eventResultDTO{
			Tag:      ev.Tag,
			Outcome:  ev.Outcome,
			EventID:  ev.EventID,
			HTMLLink: ev.HTMLLink,
		}
		if ev.Outcome == scheduler.OutcomeFailed && ev.Err != nil {
			dto.Error = ev.Err.Error()
		}
		out.Events = append(out.Events, dto)
	}
	return out
}
