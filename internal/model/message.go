package model

import "time"

// Message is an internal notification addressed to one user.
type Message struct {
	ID          string     `json:"id"          bson:"_id"`
	RecipientID string     `json:"recipientId" bson:"recipient_id"`
	Subject     string     `json:"subject"     bson:"subject"`
	Content     string     `json:"content"     bson:"content"`
	Read        bool       `json:"read"        bson:"read"`
	ReadAt      *time.Time `json:"readAt"      bson:"read_at,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"   bson:"created_at"`
}

// MessageStats is the aggregate returned to moderators.
type MessageStats struct {
	TotalUsers          int64 `json:"totalUsers"`
	TotalMessages       int64 `json:"totalMessages"`
	TotalUnreadMessages int64 `json:"totalUnreadMessages"`
}
