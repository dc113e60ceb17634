package response

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"lead-crm/internal/domain"
)

// Envelope is the body of every failed request.
type Envelope struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Errors  []domain.FieldError `json:"errors,omitempty"`
}

func Error(msg string, fields ...domain.FieldError) Envelope {
	return Envelope{Success: false, Message: msg, Errors: fields}
}

// ServerError is the only message a 500 ever carries.
const ServerError = "Server error"

// TimedOut is the message of a 504.
const TimedOut = "Request timed out"

// FromError maps err to its status and envelope. Internal details never leak.
func FromError(err error) (int, Envelope) {
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout, Error(TimedOut)
	}
	k := domain.KindOf(err)
	status := StatusOf(k)
	if k == domain.KindInternal {
		return status, Error(ServerError)
	}
	var de *domain.Error
	if errors.As(err, &de) {
		return status, Error(de.Error(), de.Fields...)
	}
	return status, Error(err.Error())
}

// Abort writes err as the response and stops the handler chain.
func Abort(c *gin.Context, err error) {
	status, body := FromError(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, body)
}

// Message is the success body of operations that return only a message.
type Message struct {
	Message string `json:"message"`
}
