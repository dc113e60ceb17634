package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"lead-crm/internal/core/config"
)

// Session decides where the token travels: an HTTP-only cookie or the
// Authorization header. Exactly one is active.
type Session struct {
	Bearer     bool
	CookieName string
	Secure     bool
	SameSite   http.SameSite
	Domain     string
}

func NewSession(j config.JWT) Session {
	s := Session{
		Bearer:     strings.EqualFold(j.Transport, "bearer"),
		CookieName: j.Cookie.Name,
		Secure:     j.Cookie.Secure,
		Domain:     j.Cookie.Domain,
	}
	if s.CookieName == "" {
		s.CookieName = "access_token"
	}
	switch strings.ToLower(j.Cookie.SameSite) {
	case "strict":
		s.SameSite = http.SameSiteStrictMode
	case "none":
		// browsers drop SameSite=None cookies that are not Secure
		s.SameSite, s.Secure = http.SameSiteNoneMode, true
	default:
		s.SameSite = http.SameSiteLaxMode
	}
	return s
}

func (s Session) TokenFrom(c *gin.Context) string {
	if s.Bearer {
		ah := c.GetHeader("Authorization")
		if len(ah) > 7 && strings.EqualFold(ah[:7], "Bearer ") {
			return strings.TrimSpace(ah[7:])
		}
		return ""
	}
	v, err := c.Cookie(s.CookieName)
	if err != nil {
		return ""
	}
	return v
}

// Set stores the token client-side; it is a no-op in bearer mode.
func (s Session) Set(c *gin.Context, token string, exp time.Time) {
	if s.Bearer {
		return
	}
	c.SetSameSite(s.SameSite)
	c.SetCookie(s.CookieName, token, int(time.Until(exp).Seconds()), "/", s.Domain, s.Secure, true)
}

func (s Session) Clear(c *gin.Context) {
	if s.Bearer {
		return
	}
	c.SetSameSite(s.SameSite)
	c.SetCookie(s.CookieName, "", -1, "/", s.Domain, s.Secure, true)
}
