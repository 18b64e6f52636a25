package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-family-activity-suggestions/internal/types"
)

func setupResponseTest() (*httptest.ResponseRecorder, *http.Request) {
	var req *http.Request
	middleware.RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		req = r
	})).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	return httptest.NewRecorder(), req
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) types.Response {
	t.Helper()
	var body types.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestErrorResponse(t *testing.T) {
	rec, req := setupResponseTest()

	ErrorResponse(rec, req, http.StatusNotFound, "family not found")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	body := decodeResponse(t, rec)
	assert.False(t, body.Success)
	assert.Equal(t, "family not found", body.Error)
	assert.NotEmpty(t, body.RequestID)
	assert.Empty(t, body.Fields)
}

func TestValidationErrorResponse(t *testing.T) {
	t.Run("lists offending fields", func(t *testing.T) {
		rec, req := setupResponseTest()

		err := fmt.Errorf("decode profile: %w", types.NewValidationError("child_age", "must be between 0 and 18"))
		ValidationErrorResponse(rec, req, err)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeResponse(t, rec)
		assert.Equal(t, "validation failed", body.Error)
		assert.Equal(t, map[string]string{"child_age": "must be between 0 and 18"}, body.Fields)
	})

	t.Run("plain error keeps its message", func(t *testing.T) {
		rec, req := setupResponseTest()

		ValidationErrorResponse(rec, req, errors.New("request body must not be empty"))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeResponse(t, rec)
		assert.Equal(t, "request body must not be empty", body.Error)
		assert.Nil(t, body.Fields)
	})
}
