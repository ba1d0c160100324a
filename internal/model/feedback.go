package model

import "time"

// FeedbackCategory is optional; the empty string means "uncategorised".
type FeedbackCategory string

const (
	FeedbackBug     FeedbackCategory = "bug"
	FeedbackFeature FeedbackCategory = "feature"
	FeedbackGeneral FeedbackCategory = "general"
	FeedbackOther   FeedbackCategory = "other"
)

func (c FeedbackCategory) Valid() bool {
	switch c {
	case "", FeedbackBug, FeedbackFeature, FeedbackGeneral, FeedbackOther:
		return true
	}
	return false
}

type Feedback struct {
	ID        string           `json:"id"        bson:"_id"`
	UserID    string           `json:"userId"    bson:"user_id"`
	Content   string           `json:"content"   bson:"content"`
	Consent   bool             `json:"consent"   bson:"consent"`
	Category  FeedbackCategory `json:"category"  bson:"category,omitempty"`
	CreatedAt time.Time        `json:"createdAt" bson:"created_at"`
}
