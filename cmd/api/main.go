package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"lead-crm/internal/core/auth"
	"lead-crm/internal/core/cache"
	"lead-crm/internal/core/config"
	"lead-crm/internal/core/logger"
	"lead-crm/internal/core/server"
	"lead-crm/internal/repo"
	"lead-crm/internal/service"
	"lead-crm/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log, cleanup := logger.New(logger.FromConfig(cfg.Log))
	defer cleanup()
	undo := logger.RedirectStdLog(log, zapcore.InfoLevel)
	defer undo()

	sentryOn := initSentry(cfg, log)
	if sentryOn {
		defer sentry.Flush(2 * time.Second)
	}

	// Store (fatal on failure)
	ctx := context.Background()
	store, err := repo.Open(ctx, cfg.DB, log)
	if err != nil {
		log.Fatal("store open", zap.String("driver", cfg.DB.Driver), zap.Error(err))
	}
	log.Info("store ready", zap.String("driver", cfg.DB.Driver))

	jwter := &auth.JWTer{Secret: []byte(cfg.JWT.Secret), Issuer: cfg.JWT.Issuer, TTL: cfg.JWT.TTL()}

	var revoker auth.Revoker = auth.NopRevoker{}
	if cfg.Redis.Addr != "" {
		rc := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := rc.Ping(pctx)
		cancel()
		if err != nil {
			log.Fatal("redis ping", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		defer rc.Close()
		revoker = rc
		log.Info("token revocation enabled", zap.String("redis", cfg.Redis.Addr))
	} else {
		log.Warn("redis.addr not set; logout only clears the client cookie")
	}

	r := router.NewAPIEngine(router.Deps{
		Log:    log,
		Config: cfg,
		Auth:   service.NewAuthService(store.Users, jwter, revoker, log),
		Leads:  service.NewLeadService(store.Leads, store.Users, log),
		Staff:  service.NewStaffService(store.Users, log),
		Sentry: sentryOn,
	})

	h := cfg.App.HTTP
	addr := server.Addr(h.Host, h.Port)
	srv := server.BuildServer(addr, r,
		time.Duration(h.ReadTimeoutSec)*time.Second,
		time.Duration(h.WriteTimeoutSec)*time.Second,
		time.Duration(h.IdleTimeoutSec)*time.Second,
	)

	host4human := h.Host
	if host4human == "" || host4human == "0.0.0.0" {
		host4human = "127.0.0.1"
	}
	baseURL := "http://" + host4human + ":" + fmt.Sprint(h.Port)
	log.Info("api starting",
		zap.String("addr", addr),
		zap.String("env", cfg.App.Env),
		zap.String("health", baseURL+"/health"),
		zap.String("api", baseURL+"/api"),
	)

	go func() {
		if err := server.StartHTTP(srv, log); err != nil {
			log.Fatal("api start FAILED", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	if err := server.Shutdown(srv, 10*time.Second); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.Close(cctx); err != nil {
		log.Warn("store close", zap.Error(err))
	}
	log.Info("api stopped gracefully")
}

func initSentry(cfg *config.Config, l *zap.Logger) bool {
	if cfg.Sentry.DSN == "" {
		return false
	}
	env := cfg.Sentry.Env
	if env == "" {
		env = cfg.App.Env
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.Sentry.DSN,
		Environment:      env,
		ServerName:       cfg.App.Name,
		AttachStacktrace: true,
	}); err != nil {
		l.Warn("sentry disabled", zap.Error(err))
		return false
	}
	return true
}
