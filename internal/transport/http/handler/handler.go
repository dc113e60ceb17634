package handler

import (
	"github.com/gin-gonic/gin"

	"lead-crm/internal/domain"
)

// Guards are the middleware handlers attach to their route groups.
type Guards struct {
	Session gin.HandlerFunc // valid, unrevoked session
	Admin   gin.HandlerFunc // session holder must be an admin
}

var adminOnly = []domain.Role{domain.RoleAdmin}

// items never returns nil so empty pages encode as [].
func items[T any](p domain.Paged[T]) []T {
	if p.Items == nil {
		return []T{}
	}
	return p.Items
}
