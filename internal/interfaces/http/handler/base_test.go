package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bazaar/backend/internal/domain/shared"
	"github.com/bazaar/backend/internal/interfaces/http/dto"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func performJSON(t *testing.T, handlerFn gin.HandlerFunc) (*httptest.ResponseRecorder, dto.Response) {
	t.Helper()

	router := gin.New()
	router.GET("/test", handlerFn)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	router.ServeHTTP(w, req)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func TestBaseHandler_Success(t *testing.T) {
	h := &BaseHandler{}
	w, resp := performJSON(t, func(c *gin.Context) {
		h.Success(c, gin.H{"value": "ok"})
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
	assert.Nil(t, resp.Error)
}

func TestBaseHandler_HandleError_DomainError(t *testing.T) {
	h := &BaseHandler{}

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", shared.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"concurrency conflict", shared.ErrConcurrencyConflict, http.StatusConflict, "CONCURRENCY_CONFLICT"},
		{"insufficient stock", shared.NewDomainError("INSUFFICIENT_STOCK", "Not enough stock"), http.StatusUnprocessableEntity, "INSUFFICIENT_STOCK"},
		{"invalid transition", shared.NewDomainError("INVALID_TRANSITION", "Cannot go there"), http.StatusUnprocessableEntity, "INVALID_TRANSITION"},
		{"bad input", shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive"), http.StatusBadRequest, "INVALID_QUANTITY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := performJSON(t, func(c *gin.Context) {
				h.HandleError(c, tt.err)
			})

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestBaseHandler_HandleError_WrappedDomainError(t *testing.T) {
	h := &BaseHandler{}
	wrapped := errors.Join(errors.New("save failed"), shared.ErrNotFound)

	w, resp := performJSON(t, func(c *gin.Context) {
		h.HandleError(c, wrapped)
	})

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}

func TestBaseHandler_HandleError_UnknownError(t *testing.T) {
	h := &BaseHandler{}

	w, resp := performJSON(t, func(c *gin.Context) {
		h.HandleError(c, errors.New("driver: connection reset"))
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeInternal, resp.Error.Code)
	assert.NotContains(t, resp.Error.Message, "driver")
}
