package handler

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/jonesrussell/north-cloud/traffic-gate/internal/apierror"
	"github.com/jonesrussell/north-cloud/traffic-gate/internal/domain"
	"github.com/jonesrussell/north-cloud/traffic-gate/internal/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/traffic-gate/internal/ledger"
	"github.com/jonesrussell/north-cloud/traffic-gate/internal/validation"
)

// ClickReader is the read side of the click ledger.
type ClickReader interface {
	Get(id string) (domain.ClickRecord, error)
	List(f ledger.Filter, limit, offset int) ledger.Page
}

// AdminHandler serves the authenticated click queries.
type AdminHandler struct {
	clicks  ClickReader
	metrics ValidationRecorder
}

// NewAdminHandler creates an AdminHandler. metrics may be nil.
func NewAdminHandler(clicks ClickReader, metrics ValidationRecorder) *AdminHandler {
	return &AdminHandler{clicks: clicks, metrics: metrics}
}

// GetClick handles GET /v1/click/:id.
func (h *AdminHandler) GetClick(c *gin.Context) {
	record, err := h.clicks.Get(c.Param("id"))
	if errors.Is(err, ledger.ErrNotFound) {
		apierror.NotFound(c, "Click not found")
		return
	}
	if err != nil {
		logger.FromContext(c.Request.Context()).Error("Click lookup failed", logger.Error(err))
		apierror.Internal(c)
		return
	}

	c.JSON(http.StatusOK, record)
}

// ListClicks handles GET /v1/clicks.
func (h *AdminHandler) ListClicks(c *gin.Context) {
	query, err := url.ParseQuery(c.Request.URL.RawQuery)
	if err != nil {
		h.rejected(c.Request.Context())
		apierror.Validation(c, http.StatusUnprocessableEntity, "Invalid parameter format", map[string]string{"query": err.Error()})
		return
	}

	params, errs := validation.ParseListParams(query)
	if !errs.Empty() {
		h.rejected(c.Request.Context())
		apierror.Validation(c, http.StatusUnprocessableEntity, errs.Message(), errs.Details())
		return
	}

	page := h.clicks.List(ledger.Filter{
		CampaignID: params.CampaignID,
		Sub1:       params.Sub1,
		Sub2:       params.Sub2,
		IsValid:    params.IsValid,
	}, params.Limit, params.Offset)

	c.JSON(http.StatusOK, page)
}

func (h *AdminHandler) rejected(ctx context.Context) {
	if h.metrics != nil {
		h.metrics.RecordValidationFailure(ctx, "clicks")
	}
}
