package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"lead-crm/internal/core/auth"
	"lead-crm/internal/domain"
	resp "lead-crm/internal/transport/http/response"
)

const (
	keyPrincipal = "principal"
	keyClaims    = "claims"
)

// Authenticator resolves a raw session token to the principal behind it.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (domain.Principal, *auth.Claims, error)
}

// AuthJWT requires a valid, unrevoked session and attaches the principal.
func AuthJWT(a Authenticator, s Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := s.TokenFrom(c)
		if tok == "" {
			resp.Abort(c, domain.Unauthorized("Not authorized, no token"))
			return
		}
		p, claims, err := a.Authenticate(c.Request.Context(), tok)
		if err != nil {
			resp.Abort(c, err)
			return
		}
		c.Set(keyPrincipal, p)
		c.Set(keyClaims, claims)
		c.Next()
	}
}

// RequireRole lets only principals holding role through.
func RequireRole(role domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := PrincipalFrom(c)
		if !ok {
			resp.Abort(c, domain.Unauthorized("Not authorized, no token"))
			return
		}
		if p.Role != role {
			resp.Abort(c, domain.Forbidden("Not authorized as an "+string(role)))
			return
		}
		c.Next()
	}
}

func PrincipalFrom(c *gin.Context) (domain.Principal, bool) {
	v, ok := c.Get(keyPrincipal)
	if !ok {
		return domain.Principal{}, false
	}
	p, ok := v.(domain.Principal)
	return p, ok
}

func ClaimsFrom(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(keyClaims)
	if !ok {
		return nil, false
	}
	cl, ok := v.(*auth.Claims)
	return cl, ok && cl != nil
}
