package apierror_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jonesrussell/north-cloud/traffic-gate/internal/apierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidation_WritesEnvelopeWithDetails(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	apierror.Validation(c, http.StatusBadRequest, "bad input", map[string]string{"cid": "Invalid campaign ID"})

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.True(t, c.IsAborted())

	var env apierror.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, apierror.CodeValidation, env.Error.Code)
	assert.Equal(t, "bad input", env.Error.Message)
	assert.Equal(t, "Invalid campaign ID", env.Error.Details["cid"])
}

func TestInternal_OmitsDetails(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	apierror.Internal(c)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t,
		`{"error":{"code":"INTERNAL_ERROR","message":"An unexpected error occurred"}}`,
		w.Body.String())
}
