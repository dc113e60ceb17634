package response

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"lead-crm/internal/domain"
)

func TestFromError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		msg    string
	}{
		{domain.Validation("bad", domain.FieldError{Field: "email", Message: "is required"}), http.StatusBadRequest, "bad"},
		{domain.Unauthorized("who"), http.StatusUnauthorized, "who"},
		{domain.Forbidden("no"), http.StatusForbidden, "no"},
		{domain.NotFound("Lead not found"), http.StatusNotFound, "Lead not found"},
		{domain.Conflict("dup"), http.StatusConflict, "dup"},
		{domain.Internal("db exploded", errors.New("conn reset")), http.StatusInternalServerError, ServerError},
		{errors.New("raw"), http.StatusInternalServerError, ServerError},
		{domain.Internal("list leads failed", context.DeadlineExceeded), http.StatusGatewayTimeout, TimedOut},
		{fmt.Errorf("find: %w", context.DeadlineExceeded), http.StatusGatewayTimeout, TimedOut},
	}
	for _, tc := range cases {
		status, body := FromError(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
		assert.False(t, body.Success)
		assert.Equal(t, tc.msg, body.Message)
	}

	_, body := FromError(domain.Validation("bad", domain.FieldError{Field: "email", Message: "is required"}))
	assert.Equal(t, []domain.FieldError{{Field: "email", Message: "is required"}}, body.Errors)
}
