package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sakif/gitcord/internal/apperror"
	"github.com/sakif/gitcord/internal/model"
	"github.com/sakif/gitcord/internal/repository"
)

const MaxCodeLength = 64

// CreateCodeInput mirrors the create request body. Pointer fields distinguish
// "absent" from a zero value: credit 0 is allowed, a missing credit is not.
type CreateCodeInput struct {
	Code        *string `json:"code"`
	Credit      *int64  `json:"credit"`
	Premium     *bool   `json:"premium"`
	PremiumDays *int    `json:"premiumDays"`
	UsageLimit  *int    `json:"usageLimit"`
}

type CodeService struct {
	codes    repository.CodeRepository
	accounts repository.AccountRepository
	now      func() time.Time
	logger   *zap.Logger
}

func NewCodeService(codes repository.CodeRepository, accounts repository.AccountRepository, logger *zap.Logger) *CodeService {
	return &CodeService{
		codes:    codes,
		accounts: accounts,
		now:      time.Now,
		logger:   logger.Named("codes"),
	}
}

// Create validates the input and inserts one code created by actorID.
func (s *CodeService) Create(ctx context.Context, actorID string, in CreateCodeInput) (*model.Code, error) {
	var missing []string
	if in.Code == nil || strings.TrimSpace(*in.Code) == "" {
		missing = append(missing, "code")
	}
	if in.Credit == nil {
		missing = append(missing, "credit")
	}
	if len(missing) > 0 {
		return nil, apperror.MissingFields(missing...)
	}

	code := &model.Code{
		Code:       strings.ToUpper(strings.TrimSpace(*in.Code)),
		Credit:     *in.Credit,
		UsageLimit: 1,
		CreatedBy:  actorID,
	}
	if len(code.Code) > MaxCodeLength {
		return nil, apperror.ValidationFailed("code", fmt.Sprintf("code must be at most %d characters", MaxCodeLength))
	}
	if code.Credit < 0 {
		return nil, apperror.ValidationFailed("credit", "credit must not be negative")
	}
	if in.Premium != nil {
		code.Premium = *in.Premium
	}
	if in.PremiumDays != nil {
		if *in.PremiumDays < 0 {
			return nil, apperror.ValidationFailed("premiumDays", "premiumDays must not be negative")
		}
		code.PremiumDays = *in.PremiumDays
	}
	if in.UsageLimit != nil {
		if *in.UsageLimit < 1 {
			return nil, apperror.ValidationFailed("usageLimit", "usageLimit must be at least 1")
		}
		code.UsageLimit = *in.UsageLimit
	}

	if err := s.codes.Create(ctx, code); err != nil {
		return nil, fmt.Errorf("service/code: creating %s: %w", code.Code, err)
	}
	s.logger.Info("code created", zap.String("code", code.Code), zap.String("created_by", actorID))
	return code, nil
}

// Delete removes the code with the given id.
func (s *CodeService) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return apperror.MissingFields("id")
	}
	if err := s.codes.Delete(ctx, id); err != nil {
		return fmt.Errorf("service/code: deleting %s: %w", id, err)
	}
	return nil
}

// List returns every code, newest first.
func (s *CodeService) List(ctx context.Context) ([]model.Code, error) {
	codes, err := s.codes.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/code: listing: %w", err)
	}
	return codes, nil
}

// Redeem consumes one use of code for userID.
func (s *CodeService) Redeem(ctx context.Context, userID, code string) (*model.Redemption, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apperror.MissingFields("code")
	}
	r, err := s.accounts.Redeem(ctx, code, userID, s.now())
	if err != nil {
		return nil, fmt.Errorf("service/code: redeeming %s: %w", code, err)
	}
	s.logger.Info("code redeemed", zap.String("code", r.Code.Code), zap.String("user_id", userID))
	return r, nil
}
