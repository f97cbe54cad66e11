package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestDomainError_IsMatchesKindSentinel(t *testing.T) {
	errWindowClosed := Precondition("check-in window has closed")
	wrapped := fmt.Errorf("check in: %w", errWindowClosed)

	assert.True(t, stderrors.Is(wrapped, errWindowClosed))
	assert.True(t, stderrors.Is(wrapped, ErrPrecondition))
	assert.False(t, stderrors.Is(wrapped, ErrConflict))
	assert.False(t, stderrors.Is(wrapped, Precondition("check-in window has closed")))
}

func TestKindOf(t *testing.T) {
	kind, ok := KindOf(fmt.Errorf("load task: %w", context.DeadlineExceeded))
	assert.True(t, ok)
	assert.Equal(t, KindUnavailable, kind)

	_, ok = KindOf(stderrors.New("boom"))
	assert.False(t, ok)
}

func TestRespond_StatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		err    error
		status int
		code   string
	}{
		{Validation("price must be positive"), http.StatusBadRequest, ErrCodeInvalidInput},
		{Precondition("task is not open"), http.StatusUnprocessableEntity, ErrCodePreconditionFailed},
		{ConflictError("task already assigned"), http.StatusConflict, ErrCodeConflict},
		{Authorization("not the task owner"), http.StatusForbidden, ErrCodeForbidden},
		{NotFoundError("task not found"), http.StatusNotFound, ErrCodeNotFound},
		{Unavailable("store", context.DeadlineExceeded), http.StatusServiceUnavailable, ErrCodeServiceUnavailable},
		{stderrors.New("unexpected"), http.StatusInternalServerError, ErrCodeInternalError},
	}

	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/api/tasks/1/offers", nil)

		Respond(c, tc.err)

		assert.Equal(t, tc.status, w.Code, tc.err.Error())
		assert.Contains(t, w.Body.String(), tc.code)
	}
}
