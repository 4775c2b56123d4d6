package handler

import (
	"context"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"github.com/jonesrussell/north-cloud/traffic-gate/internal/apierror"
	"github.com/jonesrussell/north-cloud/traffic-gate/internal/clientctx"
	"github.com/jonesrussell/north-cloud/traffic-gate/internal/domain"
	"github.com/jonesrussell/north-cloud/traffic-gate/internal/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/traffic-gate/internal/pipeline"
	"github.com/jonesrussell/north-cloud/traffic-gate/internal/validation"
)

// InternalTestHeader switches the click endpoint to a JSON response when set
// to any non-empty value.
const InternalTestHeader = "X-Internal-Test"

// Tracker runs a validated click through the screening pipeline.
type Tracker interface {
	Track(ctx context.Context, params validation.ClickParams, client clientctx.Context, rawQuery string) (pipeline.Result, error)
}

// ValidationRecorder counts rejected requests.
type ValidationRecorder interface {
	RecordValidationFailure(ctx context.Context, endpoint string)
}

// ClickResponse is the body returned in internal-test mode.
type ClickResponse struct {
	Status      string             `json:"status"`
	To          string             `json:"to"`
	ClickRecord domain.ClickRecord `json:"click_record"`
}

// ClickHandler handles GET /v1/click.
type ClickHandler struct {
	tracker Tracker
	metrics ValidationRecorder
}

// NewClickHandler creates a ClickHandler. metrics may be nil.
func NewClickHandler(tracker Tracker, metrics ValidationRecorder) *ClickHandler {
	return &ClickHandler{tracker: tracker, metrics: metrics}
}

// HandleClick validates the request, screens it and answers with exactly one
// of: JSON (internal-test header), HTML (test_mode=1) or a 302 redirect.
func (h *ClickHandler) HandleClick(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.FromContext(ctx)

	query, err := url.ParseQuery(c.Request.URL.RawQuery)
	if err != nil {
		h.rejected(ctx)
		apierror.Validation(c, http.StatusBadRequest, "Malformed query string", map[string]string{"query": err.Error()})
		return
	}

	params, errs := validation.ParseClickParams(query)
	if !errs.Empty() {
		h.rejected(ctx)
		log.Info("Click rejected by validation", logger.Int("errors", len(errs)), logger.String("message", errs.Message()))
		apierror.Validation(c, http.StatusBadRequest, errs.Message(), errs.Details())
		return
	}

	result, err := h.tracker.Track(ctx, params, clientctx.Resolve(c.Request), c.Request.URL.RawQuery)
	if err != nil {
		log.Error("Click pipeline failed", logger.Error(err), logger.Int("campaign_id", params.CampaignID))
		apierror.Internal(c)
		return
	}

	switch {
	case c.GetHeader(InternalTestHeader) != "":
		c.JSON(http.StatusOK, ClickResponse{
			Status:      verdictStatus(result.Record),
			To:          result.Destination,
			ClickRecord: result.Record,
		})
	case params.TestMode:
		c.Render(http.StatusOK, render.HTML{
			Template: pages,
			Name:     verdictTemplate,
			Data: gin.H{
				"Status": verdictStatus(result.Record),
				"Record": result.Record,
				"To":     result.Destination,
			},
		})
	default:
		c.Redirect(http.StatusFound, result.Destination)
	}
}

func (h *ClickHandler) rejected(ctx context.Context) {
	if h.metrics != nil {
		h.metrics.RecordValidationFailure(ctx, "click")
	}
}

func verdictStatus(r domain.ClickRecord) string {
	if r.Valid() {
		return "valid"
	}
	return "invalid"
}
