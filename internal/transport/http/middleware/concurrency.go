package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/semaphore"

	resp "lead-crm/internal/transport/http/response"
)

// ConcurrencyLimit caps in-flight requests to protect the store. A request
// waits for a slot until its context ends, then gets 503.
func ConcurrencyLimit(max int64) gin.HandlerFunc {
	if max <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	sem := semaphore.NewWeighted(max)
	return func(c *gin.Context) {
		if err := sem.Acquire(c.Request.Context(), 1); err != nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, resp.Error("Server busy"))
			return
		}
		defer sem.Release(1)
		c.Next()
	}
}
