package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lead-crm/internal/domain"
	"lead-crm/internal/service"
	"lead-crm/internal/transport/http/ez"
	mdw "lead-crm/internal/transport/http/middleware"
)

type AuthHandler struct {
	svc   *service.AuthService
	sess  mdw.Session
	guard Guards
	log   *zap.Logger
}

func NewAuthHandler(svc *service.AuthService, sess mdw.Session, g Guards, l *zap.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, sess: sess, guard: g, log: l}
}

func (h *AuthHandler) Priority() int { return 10 }

type userOut struct {
	Success bool         `json:"success"`
	User    *domain.User `json:"user"`
	// Token is only returned in bearer mode; cookie mode keeps it out of JS.
	Token string `json:"token,omitempty"`
}

type messageOut struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// MountAPI: /auth/register, /auth/login, /auth/logout, /auth/me
func (h *AuthHandler) MountAPI(api *gin.RouterGroup) {
	pub := ez.New(api.Group("/auth"), h.log)

	ez.RegisterAction(pub, ez.Action[service.RegisterInput, userOut]{
		Method: http.MethodPost,
		Path:   "/register",
		Binder: ez.BindJSON,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, _ domain.Principal, in *service.RegisterInput) (userOut, error) {
			u, err := h.svc.Register(c.Request.Context(), *in)
			if err != nil {
				return userOut{}, err
			}
			return userOut{Success: true, User: u}, nil
		},
	})

	ez.RegisterAction(pub, ez.Action[service.LoginInput, userOut]{
		Method: http.MethodPost,
		Path:   "/login",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, _ domain.Principal, in *service.LoginInput) (userOut, error) {
			s, err := h.svc.Login(c.Request.Context(), *in)
			if err != nil {
				return userOut{}, err
			}
			h.sess.Set(c, s.Token, s.ExpiresAt)
			out := userOut{Success: true, User: s.User}
			if h.sess.Bearer {
				out.Token = s.Token
			}
			return out, nil
		},
	})

	authed := pub.Group("", h.guard.Session)

	ez.RegisterAction(authed, ez.Action[struct{}, messageOut]{
		Method: http.MethodPost,
		Path:   "/logout",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ domain.Principal, _ *struct{}) (messageOut, error) {
			if cl, ok := mdw.ClaimsFrom(c); ok && cl.ExpiresAt != nil {
				if err := h.svc.Logout(c.Request.Context(), cl.ID, cl.ExpiresAt.Time); err != nil {
					return messageOut{}, err
				}
			}
			h.sess.Clear(c)
			return messageOut{Success: true, Message: "Logged out successfully"}, nil
		},
	})

	ez.RegisterAction(authed, ez.Action[struct{}, userOut]{
		Method: http.MethodGet,
		Path:   "/me",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, p domain.Principal, _ *struct{}) (userOut, error) {
			u, err := h.svc.Me(c.Request.Context(), p)
			if err != nil {
				return userOut{}, err
			}
			return userOut{Success: true, User: u}, nil
		},
	})
}
