package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sakif/gitcord/internal/apperror"
	"github.com/sakif/gitcord/internal/model"
	"github.com/sakif/gitcord/internal/repository"
)

const MaxFeedbackLength = 5000

type FeedbackInput struct {
	Content  *string                `json:"content"`
	Consent  *bool                  `json:"consent"`
	Category model.FeedbackCategory `json:"category"`
}

type FeedbackService struct {
	feedback repository.FeedbackRepository
}

func NewFeedbackService(feedback repository.FeedbackRepository) *FeedbackService {
	return &FeedbackService{feedback: feedback}
}

// Submit stores feedback from userID. Consent must be given explicitly.
func (s *FeedbackService) Submit(ctx context.Context, userID string, in FeedbackInput) (*model.Feedback, error) {
	var missing []string
	if in.Content == nil || strings.TrimSpace(*in.Content) == "" {
		missing = append(missing, "content")
	}
	if in.Consent == nil {
		missing = append(missing, "consent")
	}
	if len(missing) > 0 {
		return nil, apperror.MissingFields(missing...)
	}
	if !*in.Consent {
		return nil, apperror.ValidationFailed("consent", "consent is required to submit feedback")
	}
	if len(*in.Content) > MaxFeedbackLength {
		return nil, apperror.ValidationFailed("content", fmt.Sprintf("content must be at most %d characters", MaxFeedbackLength))
	}
	if !in.Category.Valid() {
		return nil, apperror.ValidationFailed("category", fmt.Sprintf("unknown category %q", in.Category))
	}

	fb := &model.Feedback{
		UserID:   userID,
		Content:  strings.TrimSpace(*in.Content),
		Consent:  true,
		Category: in.Category,
	}
	if err := s.feedback.Create(ctx, fb); err != nil {
		return nil, fmt.Errorf("service/feedback: creating: %w", err)
	}
	return fb, nil
}

func (s *FeedbackService) List(ctx context.Context, opts repository.ListOptions) ([]model.Feedback, error) {
	out, err := s.feedback.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("service/feedback: listing: %w", err)
	}
	return out, nil
}
