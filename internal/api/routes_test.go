package api_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jonesrussell/north-cloud/traffic-gate/internal/api"
	"github.com/jonesrussell/north-cloud/traffic-gate/internal/auth"
	"github.com/jonesrussell/north-cloud/traffic-gate/internal/campaign"
	"github.com/jonesrussell/north-cloud/traffic-gate/internal/config"
	"github.com/jonesrussell/north-cloud/traffic-gate/internal/fraud"
	"github.com/jonesrussell/north-cloud/traffic-gate/internal/handler"
	"github.com/jonesrussell/north-cloud/traffic-gate/internal/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/traffic-gate/internal/ledger"
	"github.com/jonesrussell/north-cloud/traffic-gate/internal/pipeline"
	"github.com/jonesrussell/north-cloud/traffic-gate/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret = "routes-test-secret"
	browserUA  = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 Chrome/121.0 Safari/537.36"
)

type fixture struct {
	server  http.Handler
	ledger  *ledger.Ledger
	jwt     *auth.JWTManager
	metrics *telemetry.Provider
}

func newFixture(t *testing.T, maxRequests int) *fixture {
	t.Helper()

	done := make(chan struct{})
	t.Cleanup(func() { close(done) })

	l := ledger.New()
	metrics := telemetry.NewProvider()
	tracker := pipeline.NewTracker(
		fraud.NewClassifier(fraud.NewSignatureMatcher(fraud.DefaultBotSignatures)),
		fraud.NewFilterEngine(),
		fraud.NewScorer(),
		campaign.NewCache(campaign.Defaults{
			WhiteURL: "https://safe.example.com/",
			BlackURL: "https://offer.example.com/",
		}, nil),
		l,
		pipeline.WithTelemetry(metrics),
	)
	jwtManager := auth.NewJWTManager(testSecret, time.Hour)

	cfg := &config.Config{Service: config.ServiceConfig{Name: "traffic-gate", Port: 8000, Version: "test"}}
	server := api.NewServer(api.Routes{
		Click:         handler.NewClickHandler(tracker, metrics),
		Admin:         handler.NewAdminHandler(l, metrics),
		Health:        handler.NewHealthHandler("traffic-gate"),
		Verifier:      jwtManager,
		RequiredScope: auth.ScopeTrafficRead,
		Telemetry:     metrics,
		RateLimit:     api.RateLimit{MaxRequests: maxRequests, Window: time.Minute},
		Done:          done,
	}, cfg, logger.NewNop(), nil)

	return &fixture{server: server.Router(), ledger: l, jwt: jwtManager, metrics: metrics}
}

func (f *fixture) do(t *testing.T, target, token string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, target, http.NoBody)
	req.RemoteAddr = "198.51.100.20:5000"
	req.Header.Set("User-Agent", browserUA)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.server.ServeHTTP(w, req)
	return w
}

func (f *fixture) token(t *testing.T, scopes ...string) string {
	t.Helper()

	tok, err := f.jwt.GenerateToken("ops", scopes...)
	require.NoError(t, err)
	return tok
}

func TestRoutes_ClickThenAdminLookup(t *testing.T) {
	f := newFixture(t, 100)

	w := f.do(t, "/v1/click?cid=3&sub1=email", "")
	require.Equal(t, http.StatusFound, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	require.Equal(t, 1, f.ledger.Len())

	page := f.ledger.List(ledger.Filter{}, 1, 0)
	id := page.Clicks[0].ID
	assert.Contains(t, w.Header().Get("Location"), "click_id="+id)

	tok := f.token(t, auth.ScopeTrafficRead)

	w = f.do(t, "/v1/click/"+id, tok)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"sub1":"email"`)

	w = f.do(t, "/v1/clicks?cid=3", tok)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":1`)
}

func TestRoutes_AdminRequiresScope(t *testing.T) {
	f := newFixture(t, 100)

	w := f.do(t, "/v1/clicks", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(t, "/v1/clicks", "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(t, "/v1/clicks", f.token(t, "campaigns:write"))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"FORBIDDEN"`)
}

func TestRoutes_ClickRateLimited(t *testing.T) {
	f := newFixture(t, 2)

	for range 2 {
		require.Equal(t, http.StatusFound, f.do(t, "/v1/click", "").Code)
	}

	w := f.do(t, "/v1/click", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.Metrics.RateLimited), 0)

	// Admin routes are not rate limited.
	assert.Equal(t, http.StatusOK, f.do(t, "/v1/clicks", f.token(t, auth.ScopeTrafficRead)).Code)
}

func TestRoutes_MetricsAndHealth(t *testing.T) {
	f := newFixture(t, 0)

	require.Equal(t, http.StatusFound, f.do(t, "/v1/click?bot_user_agent=1", "").Code)

	w := f.do(t, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "traffic_gate_clicks_total"))

	w = f.do(t, "/v1/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, "/mock-offer-page?click_id=abc", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
