package repo

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"lead-crm/internal/core/config"
	"lead-crm/internal/core/database"
	"lead-crm/internal/domain"
)

// Store bundles the repositories of one backend.
type Store struct {
	Users domain.UserRepository
	Leads domain.LeadRepository
	Close func(context.Context) error
}

func noClose(context.Context) error { return nil }

// Open builds the repositories selected by db.driver.
func Open(ctx context.Context, c config.DB, l *zap.Logger) (*Store, error) {
	switch c.Driver {
	case "memory":
		l.Warn("using in-memory store; data is lost on restart")
		return &Store{Users: NewMemoryUserRepo(), Leads: NewMemoryLeadRepo(), Close: noClose}, nil

	case "mongo":
		client, db, err := database.NewMongo(ctx, database.MongoOpts{
			URI:         c.DSN,
			Database:    c.Database,
			MaxPoolSize: uint64(max(0, c.MaxOpenConns)),
		})
		if err != nil {
			return nil, err
		}
		ictx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := EnsureMongoIndexes(ictx, db, l); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, fmt.Errorf("ensure indexes: %w", err)
		}
		return &Store{
			Users: NewMongoUserRepo(db),
			Leads: NewMongoLeadRepo(db),
			Close: client.Disconnect,
		}, nil

	case "postgres", "mysql":
		db, err := database.NewGorm(database.Opts{
			Driver:             c.Driver,
			DSN:                c.DSN,
			Username:           c.Username,
			Password:           c.Password,
			MaxOpenConns:       c.MaxOpenConns,
			MaxIdleConns:       c.MaxIdleConns,
			ConnMaxLifetimeMin: c.ConnMaxLifetimeMin,
			LogLevel:           c.LogLevel,
		}, l)
		if err != nil {
			return nil, err
		}
		if c.AutoMigrate {
			if err := db.AutoMigrate(GormModels()...); err != nil {
				return nil, fmt.Errorf("automigrate: %w", err)
			}
			l.Info("automigrate done")
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		return &Store{
			Users: NewUserRepo(db),
			Leads: NewLeadRepo(db),
			Close: func(context.Context) error { return sqlDB.Close() },
		}, nil
	}
	return nil, fmt.Errorf("%w: %q", database.ErrUnsupportedDriver, c.Driver)
}
