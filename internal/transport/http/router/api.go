package router

import (
	"net/http"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"lead-crm/internal/core/config"
	"lead-crm/internal/core/server"
	"lead-crm/internal/domain"
	"lead-crm/internal/service"
	"lead-crm/internal/transport/http/handler"
	mdw "lead-crm/internal/transport/http/middleware"
	resp "lead-crm/internal/transport/http/response"
)

type Deps struct {
	Log    *zap.Logger
	Config *config.Config
	Auth   *service.AuthService
	Leads  *service.LeadService
	Staff  *service.StaffService
	// Sentry is true once sentry.Init has succeeded.
	Sentry bool
}

func NewAPIEngine(d Deps) *gin.Engine {
	cfg := d.Config
	prod := cfg.App.IsProd()
	r := server.NewRouter(server.Options{Prod: prod, AllowOrigins: cfg.CORS.AllowOrigins})

	r.Use(mdw.Recovery(d.Log, !prod))
	if d.Sentry {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	r.Use(
		mdw.RequestID(),
		mdw.SecureHeaders(),
		mdw.Metrics(),
		mdw.AccessLog(d.Log),
		mdw.ConcurrencyLimit(cfg.App.HTTP.MaxInflight),
		mdw.MaxBodyBytes(cfg.App.HTTP.MaxBodyBytes),
		mdw.Timeout(time.Duration(cfg.App.HTTP.RequestTimeoutSec)*time.Second),
	)

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, resp.Error("Not found - "+c.Request.URL.Path))
	})

	sess := mdw.NewSession(cfg.JWT)
	guards := handler.Guards{
		Session: mdw.AuthJWT(d.Auth, sess),
		Admin:   mdw.RequireRole(domain.RoleAdmin),
	}

	var reg Registry
	reg.Register(
		handler.NewAuthHandler(d.Auth, sess, guards, d.Log),
		handler.NewLeadHandler(d.Leads, guards, d.Log),
		handler.NewStaffHandler(d.Staff, guards, d.Log),
	)
	reg.MountAPI(r.Group("/api"))

	return r
}
