package middleware

import (
	"net/http"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	resp "lead-crm/internal/transport/http/response"
)

// Recovery logs panics through zap and answers with the standard 500 envelope.
// Stack traces are only logged outside production.
func Recovery(l *zap.Logger, stack bool) gin.HandlerFunc {
	return ginzap.CustomRecoveryWithZap(l, stack, func(c *gin.Context, _ any) {
		c.AbortWithStatusJSON(http.StatusInternalServerError, resp.Error(resp.ServerError))
	})
}
