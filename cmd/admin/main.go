// Command admin creates the first admin account, or promotes an existing
// user, against the configured store.
//
//	admin -email root@example.com -name Root -password 's3cret!'
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"lead-crm/internal/core/auth"
	"lead-crm/internal/core/config"
	"lead-crm/internal/core/logger"
	"lead-crm/internal/repo"
	"lead-crm/internal/service"
)

func main() {
	email := flag.String("email", "", "admin email (required)")
	name := flag.String("name", "Admin", "display name")
	password := flag.String("password", "", "password, 6-72 chars (required)")
	flag.Parse()
	if *email == "" || *password == "" {
		flag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load()
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log, cleanup := logger.New(logger.FromConfig(cfg.Log))
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	store, err := repo.Open(ctx, cfg.DB, log)
	if err != nil {
		log.Fatal("store open", zap.String("driver", cfg.DB.Driver), zap.Error(err))
	}
	defer func() { _ = store.Close(context.Background()) }()

	jwter := &auth.JWTer{Secret: []byte(cfg.JWT.Secret), Issuer: cfg.JWT.Issuer, TTL: cfg.JWT.TTL()}
	svc := service.NewAuthService(store.Users, jwter, nil, log)

	u, created, err := svc.BootstrapAdmin(ctx, *name, *email, *password)
	if err != nil {
		log.Error("bootstrap admin FAILED", zap.Error(err))
		cleanup()
		os.Exit(1)
	}
	if created {
		fmt.Printf("created admin %s (%s)\n", u.Email, u.ID)
	} else {
		fmt.Printf("promoted %s (%s) to admin\n", u.Email, u.ID)
	}
}
