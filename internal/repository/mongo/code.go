package mongo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/sakif/gitcord/internal/apperror"
	"github.com/sakif/gitcord/internal/model"
	"github.com/sakif/gitcord/internal/repository"
)

var _ repository.CodeRepository = (*CodeStore)(nil)

type CodeStore struct {
	coll *mongo.Collection
}

func (s *CodeStore) Create(ctx context.Context, code *model.Code) error {
	code.ID = xid.New().String()
	code.Code = strings.ToUpper(strings.TrimSpace(code.Code))
	code.CreatedAt = time.Now().UTC()
	if code.UsageLimit < 1 {
		code.UsageLimit = 1
	}

	if _, err := s.coll.InsertOne(ctx, code); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperror.ConflictMessage(fmt.Sprintf("code %s already exists", code.Code))
		}
		return fmt.Errorf("mongo: creating code: %w", err)
	}
	return nil
}

func (s *CodeStore) GetByCode(ctx context.Context, code string) (*model.Code, error) {
	normalised := strings.ToUpper(strings.TrimSpace(code))
	var found model.Code
	if err := s.coll.FindOne(ctx, bson.M{"code": normalised}).Decode(&found); err != nil {
		if isNoDocuments(err) {
			return nil, apperror.NotFound("code", normalised)
		}
		return nil, fmt.Errorf("mongo: getting code %s: %w", normalised, err)
	}
	return &found, nil
}

func (s *CodeStore) List(ctx context.Context) ([]model.Code, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: listing codes: %w", err)
	}
	codes := make([]model.Code, 0)
	if err := cur.All(ctx, &codes); err != nil {
		return nil, fmt.Errorf("mongo: decoding codes: %w", err)
	}
	return codes, nil
}

func (s *CodeStore) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("mongo: deleting code %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return apperror.NotFound("code", id)
	}
	return nil
}
