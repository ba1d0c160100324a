package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/sakif/gitcord/internal/apperror"
	"github.com/sakif/gitcord/internal/model"
	"github.com/sakif/gitcord/internal/repository"
)

var _ repository.MessageRepository = (*MessageStore)(nil)

type MessageStore struct {
	coll *mongo.Collection
}

func (s *MessageStore) Create(ctx context.Context, msg *model.Message) error {
	msg.ID = xid.New().String()
	msg.CreatedAt = time.Now().UTC()
	msg.Read = false
	msg.ReadAt = nil

	if _, err := s.coll.InsertOne(ctx, msg); err != nil {
		return fmt.Errorf("mongo: creating message: %w", err)
	}
	return nil
}

func (s *MessageStore) ListForRecipient(ctx context.Context, recipientID string, opts repository.ListOptions) ([]model.Message, error) {
	cur, err := s.coll.Find(ctx, bson.M{"recipient_id": recipientID}, findPage(opts))
	if err != nil {
		return nil, fmt.Errorf("mongo: listing messages: %w", err)
	}
	msgs := make([]model.Message, 0)
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, fmt.Errorf("mongo: decoding messages: %w", err)
	}
	return msgs, nil
}

// MarkRead sets read_at only on the first call, matching the SQLite backend.
func (s *MessageStore) MarkRead(ctx context.Context, id, recipientID string, at time.Time) error {
	filter := bson.M{"_id": id, "recipient_id": recipientID}

	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id, "recipient_id": recipientID, "read": false},
		bson.M{"$set": bson.M{"read": true, "read_at": at.UTC()}},
	)
	if err != nil {
		return fmt.Errorf("mongo: marking message %s read: %w", id, err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	n, err := s.coll.CountDocuments(ctx, filter)
	if err != nil {
		return fmt.Errorf("mongo: checking message %s: %w", id, err)
	}
	if n == 0 {
		return apperror.NotFound("message", id)
	}
	return nil
}

func (s *MessageStore) Count(ctx context.Context) (total, unread int64, err error) {
	total, err = s.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, 0, fmt.Errorf("mongo: counting messages: %w", err)
	}
	unread, err = s.coll.CountDocuments(ctx, bson.M{"read": false})
	if err != nil {
		return 0, 0, fmt.Errorf("mongo: counting unread messages: %w", err)
	}
	return total, unread, nil
}
