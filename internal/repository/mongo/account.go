package mongo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/sakif/gitcord/internal/apperror"
	"github.com/sakif/gitcord/internal/model"
	"github.com/sakif/gitcord/internal/repository"
)

var _ repository.AccountRepository = (*AccountStore)(nil)

type AccountStore struct {
	codes       *mongo.Collection
	premium     *mongo.Collection
	stats       *mongo.Collection
	redemptions *mongo.Collection
}

func (s *AccountStore) Premium(ctx context.Context, userID string) (*model.UserPremium, error) {
	p := &model.UserPremium{UserID: userID}
	if err := s.premium.FindOne(ctx, bson.M{"_id": userID}).Decode(p); err != nil && !isNoDocuments(err) {
		return nil, fmt.Errorf("mongo: loading premium for %s: %w", userID, err)
	}
	return p, nil
}

func (s *AccountStore) Stats(ctx context.Context, userID string) (*model.UserStats, error) {
	st := &model.UserStats{UserID: userID}
	if err := s.stats.FindOne(ctx, bson.M{"_id": userID}).Decode(st); err != nil && !isNoDocuments(err) {
		return nil, fmt.Errorf("mongo: loading stats for %s: %w", userID, err)
	}
	return st, nil
}

func (s *AccountStore) IncrementProfileViews(ctx context.Context, userID string) error {
	_, err := s.stats.UpdateByID(ctx, userID,
		bson.M{"$inc": bson.M{"profile_views": int64(1)}},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("mongo: incrementing profile views for %s: %w", userID, err)
	}
	return nil
}

// Redeem applies the same rules as the SQLite backend with conditional
// single-document updates instead of a transaction:
//
//   - the unique (code_id, user_id) redemption record claims the user's turn
//   - used_count only increments while below usage_limit ($expr guard)
//   - if the guard fails the claim is released again
//
// Credit and premium updates happen after the code is consumed. A crash in
// between leaves a consumed code without its credit, never the reverse.
func (s *AccountStore) Redeem(ctx context.Context, code, userID string, now time.Time) (*model.Redemption, error) {
	normalised := strings.ToUpper(strings.TrimSpace(code))
	now = now.UTC()

	var found model.Code
	if err := s.codes.FindOne(ctx, bson.M{"code": normalised}).Decode(&found); err != nil {
		if isNoDocuments(err) {
			return nil, apperror.NotFound("code", normalised)
		}
		return nil, fmt.Errorf("mongo: loading code %s: %w", normalised, err)
	}
	if found.Exhausted() {
		return nil, apperror.ConflictMessage(fmt.Sprintf("code %s has no uses left", found.Code))
	}

	claimID := found.ID + ":" + userID
	_, err := s.redemptions.InsertOne(ctx, bson.M{
		"_id": claimID, "code_id": found.ID, "user_id": userID, "redeemed_at": now,
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperror.ConflictMessage(fmt.Sprintf("code %s already redeemed", found.Code))
		}
		return nil, fmt.Errorf("mongo: recording redemption: %w", err)
	}

	res, err := s.codes.UpdateOne(ctx, consumeFilter(found.ID), bson.M{"$inc": bson.M{"used_count": 1}})
	if err != nil || res.MatchedCount == 0 {
		_, _ = s.redemptions.DeleteOne(ctx, bson.M{"_id": claimID})
		if err != nil {
			return nil, fmt.Errorf("mongo: consuming code %s: %w", found.Code, err)
		}
		return nil, apperror.ConflictMessage(fmt.Sprintf("code %s has no uses left", found.Code))
	}
	found.UsedCount++

	_, err = s.stats.UpdateByID(ctx, userID,
		bson.M{"$inc": bson.M{"credits": found.Credit}},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return nil, fmt.Errorf("mongo: crediting user %s: %w", userID, err)
	}

	if found.Premium && found.PremiumDays > 0 {
		current, err := s.Premium(ctx, userID)
		if err != nil {
			return nil, err
		}
		var currentExpiry *time.Time
		if current.IsPremium {
			currentExpiry = current.ExpiresAt
		}
		expires := repository.ExtendPremium(currentExpiry, now, found.PremiumDays)
		_, err = s.premium.UpdateByID(ctx, userID,
			bson.M{"$set": bson.M{"is_premium": true, "expires_at": expires}},
			options.UpdateOne().SetUpsert(true),
		)
		if err != nil {
			return nil, fmt.Errorf("mongo: extending premium for %s: %w", userID, err)
		}
	}

	stats, err := s.Stats(ctx, userID)
	if err != nil {
		return nil, err
	}
	premium, err := s.Premium(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &model.Redemption{Code: &found, Stats: stats, Premium: premium}, nil
}

// consumeFilter matches the code only while it still has uses left.
func consumeFilter(codeID string) bson.M {
	return bson.M{"_id": codeID, "$expr": bson.M{"$lt": bson.A{"$used_count", "$usage_limit"}}}
}
