package mongo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/xid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/sakif/gitcord/internal/apperror"
	"github.com/sakif/gitcord/internal/model"
	"github.com/sakif/gitcord/internal/repository"
)

var _ repository.AuditLogRepository = (*AuditLogStore)(nil)

type AuditLogStore struct {
	coll *mongo.Collection
}

// logDoc keeps Detail as a JSON string so it round-trips byte for byte.
type logDoc struct {
	ID         string    `bson:"_id"`
	ActorID    string    `bson:"actor_id"`
	Action     string    `bson:"action"`
	Method     string    `bson:"method"`
	Endpoint   string    `bson:"endpoint"`
	StatusCode int       `bson:"status_code"`
	Detail     string    `bson:"detail"`
	CreatedAt  time.Time `bson:"created_at"`
}

func (s *AuditLogStore) Append(ctx context.Context, entry *model.Log) error {
	if !entry.Action.Valid() {
		return apperror.ValidationFailed("action", fmt.Sprintf("unknown log action %q", entry.Action))
	}
	if !model.ValidLogMethod(entry.Method) {
		return apperror.ValidationFailed("method", fmt.Sprintf("unsupported log method %q", entry.Method))
	}

	entry.ID = xid.New().String()
	entry.CreatedAt = time.Now().UTC()
	entry.Detail = repository.RawDetail(entry.Detail)

	doc := logDoc{
		ID:         entry.ID,
		ActorID:    entry.ActorID,
		Action:     string(entry.Action),
		Method:     entry.Method,
		Endpoint:   entry.Endpoint,
		StatusCode: entry.StatusCode,
		Detail:     string(entry.Detail),
		CreatedAt:  entry.CreatedAt,
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("mongo: appending log: %w", err)
	}
	return nil
}

func (s *AuditLogStore) ListByActor(ctx context.Context, actorID string, opts repository.ListOptions) ([]model.Log, error) {
	cur, err := s.coll.Find(ctx, bson.M{"actor_id": actorID}, findPage(opts))
	if err != nil {
		return nil, fmt.Errorf("mongo: listing logs: %w", err)
	}
	var docs []logDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo: decoding logs: %w", err)
	}

	entries := make([]model.Log, 0, len(docs))
	for _, d := range docs {
		entries = append(entries, model.Log{
			ID:         d.ID,
			ActorID:    d.ActorID,
			Action:     model.LogAction(d.Action),
			Method:     d.Method,
			Endpoint:   d.Endpoint,
			StatusCode: d.StatusCode,
			Detail:     json.RawMessage(d.Detail),
			CreatedAt:  d.CreatedAt,
		})
	}
	return entries, nil
}
