package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/sakif/gitcord/internal/model"
	"github.com/sakif/gitcord/internal/repository"
)

var _ repository.FeedbackRepository = (*FeedbackStore)(nil)

type FeedbackStore struct {
	coll *mongo.Collection
}

func (s *FeedbackStore) Create(ctx context.Context, fb *model.Feedback) error {
	fb.ID = xid.New().String()
	fb.CreatedAt = time.Now().UTC()
	if _, err := s.coll.InsertOne(ctx, fb); err != nil {
		return fmt.Errorf("mongo: creating feedback: %w", err)
	}
	return nil
}

func (s *FeedbackStore) List(ctx context.Context, opts repository.ListOptions) ([]model.Feedback, error) {
	cur, err := s.coll.Find(ctx, bson.M{}, findPage(opts))
	if err != nil {
		return nil, fmt.Errorf("mongo: listing feedback: %w", err)
	}
	out := make([]model.Feedback, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("mongo: decoding feedback: %w", err)
	}
	return out, nil
}
