package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	resp "lead-crm/internal/transport/http/response"
)

const msgBodyTooLarge = "Request body too large"

// MaxBodyBytes rejects declared oversize bodies up front and caps the reader
// for the rest; binders turn the cap into a 413.
func MaxBodyBytes(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if n <= 0 {
			c.Next()
			return
		}
		if c.Request.ContentLength > n {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, resp.Error(msgBodyTooLarge))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
	}
}
