package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(t *testing.T, fn func(c *gin.Context)) (*httptest.ResponseRecorder, *gin.Context) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	fn(c)
	return w, c
}

func TestResponders(t *testing.T) {
	tests := []struct {
		name        string
		fn          func(c *gin.Context)
		wantStatus  int
		wantCode    string
		wantMessage string
	}{
		{"unauthorized default", func(c *gin.Context) { Unauthorized(c, "") }, http.StatusUnauthorized, ErrCodeUnauthorized, "Authentication required"},
		{"invalid credentials", InvalidCredentials, http.StatusBadRequest, ErrCodeInvalidCredentials, "Invalid username or password"},
		{"forbidden", func(c *gin.Context) { Forbidden(c, "nope") }, http.StatusForbidden, ErrCodeForbidden, "nope"},
		{"not found default", func(c *gin.Context) { NotFound(c, "") }, http.StatusNotFound, ErrCodeNotFound, "Resource not found"},
		{"bad request", func(c *gin.Context) { BadRequest(c, "bad limit") }, http.StatusBadRequest, ErrCodeInvalidInput, "bad limit"},
		{"conflict", func(c *gin.Context) { Conflict(c, "") }, http.StatusConflict, ErrCodeConflict, "Resource conflict"},
		{"too many requests", TooManyRequests, http.StatusTooManyRequests, ErrCodeTooManyRequests, "Too many requests, slow down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, c := record(t, tt.fn)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.True(t, c.IsAborted())

			var body APIError
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body.Code)
			assert.Equal(t, tt.wantMessage, body.Message)
			assert.Nil(t, body.Details)
		})
	}
}

func TestBadRequestWithDetails(t *testing.T) {
	w, _ := record(t, func(c *gin.Context) {
		BadRequestWithDetails(c, "invalid fields", map[string]string{"title": "required"})
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"code":"INVALID_INPUT","message":"invalid fields","details":{"title":"required"}}`, w.Body.String())
}

func TestInternalError_HidesCause(t *testing.T) {
	w, c := record(t, func(c *gin.Context) {
		InternalError(c, stderrors.New("dial tcp: connection refused"))
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
	require.Len(t, c.Errors, 1)
	assert.EqualError(t, c.Errors[0].Err, "dial tcp: connection refused")
}

func TestRespondWithError_EchoesRequestID(t *testing.T) {
	w, _ := record(t, func(c *gin.Context) {
		c.Set("request_id", "req-42")
		NotFound(c, "Task not found")
	})

	assert.JSONEq(t, `{"code":"NOT_FOUND","message":"Task not found","request_id":"req-42"}`, w.Body.String())
}
