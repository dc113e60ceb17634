package repo

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// EnsureMongoIndexes is called at startup and is idempotent. Problems from
// every collection are aggregated so startup can fail fast with all of them.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database, l *zap.Logger) error {
	var problems []string

	users := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("uniq_users_email").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "role", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_users_role_created"),
		},
	}
	leads := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}},
			Options: options.Index().SetName("idx_leads_created"),
		},
		{
			Keys:    bson.D{{Key: "assigned_to", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_leads_assignee_created"),
		},
	}

	for coll, models := range map[string][]mongo.IndexModel{usersCollection: users, leadsCollection: leads} {
		names, err := db.Collection(coll).Indexes().CreateMany(ctx, models)
		if err != nil {
			problems = append(problems, coll+": "+err.Error())
			continue
		}
		l.Info("indexes ensured", zap.String("collection", coll), zap.Strings("names", names))
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}
