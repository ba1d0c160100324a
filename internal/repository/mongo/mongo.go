// Package mongo implements the repository interfaces on MongoDB.
//
// It is the document-store backend selected with database.driver=mongo. The
// collections mirror the SQLite tables one to one. Without multi-document
// transactions (a standalone mongod has none), redemption relies on
// conditional updates; see AccountStore.Redeem.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/sakif/gitcord/internal/repository"
)

var _ repository.Store = (*DB)(nil)

const (
	collUsers       = "users"
	collCodes       = "codes"
	collMessages    = "messages"
	collLogs        = "logs"
	collFeedback    = "feedback"
	collPremium     = "user_premium"
	collStats       = "user_stats"
	collRedemptions = "code_redemptions"
)

type DB struct {
	client *mongo.Client
	db     *mongo.Database
}

// New connects, verifies the connection and creates indexes.
func New(ctx context.Context, uri, database string) (*DB, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri).SetTimeout(10 * time.Second))
	if err != nil {
		return nil, fmt.Errorf("mongo: connecting: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: pinging: %w", err)
	}

	db := &DB{client: client, db: client.Database(database)}
	if err := db.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: creating indexes: %w", err)
	}
	return db, nil
}

func (db *DB) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return db.client.Disconnect(ctx)
}

func (db *DB) Ping(ctx context.Context) error {
	return db.client.Ping(ctx, readpref.Primary())
}

func (db *DB) Users() repository.UserRepository {
	return &UserStore{coll: db.db.Collection(collUsers)}
}

func (db *DB) Codes() repository.CodeRepository {
	return &CodeStore{coll: db.db.Collection(collCodes)}
}

func (db *DB) Messages() repository.MessageRepository {
	return &MessageStore{coll: db.db.Collection(collMessages)}
}

func (db *DB) AuditLogs() repository.AuditLogRepository {
	return &AuditLogStore{coll: db.db.Collection(collLogs)}
}

func (db *DB) Feedback() repository.FeedbackRepository {
	return &FeedbackStore{coll: db.db.Collection(collFeedback)}
}

func (db *DB) Accounts() repository.AccountRepository {
	return &AccountStore{
		codes:       db.db.Collection(collCodes),
		premium:     db.db.Collection(collPremium),
		stats:       db.db.Collection(collStats),
		redemptions: db.db.Collection(collRedemptions),
	}
}

func (db *DB) ensureIndexes(ctx context.Context) error {
	unique := func(keys bson.D) mongo.IndexModel {
		return mongo.IndexModel{Keys: keys, Options: options.Index().SetUnique(true)}
	}

	indexes := map[string][]mongo.IndexModel{
		collUsers: {
			unique(bson.D{{Key: "github_id", Value: 1}}),
			unique(bson.D{{Key: "username_lower", Value: 1}}),
			// Hidden emails are stored absent, so only real addresses collide.
			{
				Keys: bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetUnique(true).
					SetPartialFilterExpression(bson.M{"email": bson.M{"$type": "string"}}),
			},
		},
		collCodes: {
			unique(bson.D{{Key: "code", Value: 1}}),
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
		},
		collMessages: {
			{Keys: bson.D{{Key: "recipient_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		collLogs: {
			{Keys: bson.D{{Key: "actor_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		collRedemptions: {
			unique(bson.D{{Key: "code_id", Value: 1}, {Key: "user_id", Value: 1}}),
		},
	}

	for name, models := range indexes {
		if _, err := db.db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// findPage applies the shared limit/offset rules and newest-first order.
func findPage(opts repository.ListOptions) *options.FindOptionsBuilder {
	limit, offset := repository.ClampLimit(opts)
	return options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
