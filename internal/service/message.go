package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sakif/gitcord/internal/apperror"
	"github.com/sakif/gitcord/internal/model"
	"github.com/sakif/gitcord/internal/repository"
)

const MaxMessageLength = 10000

type SendMessageInput struct {
	RecipientID string `json:"recipientId"`
	Subject     string `json:"subject"`
	Content     string `json:"content"`
}

type MessageService struct {
	users    repository.UserRepository
	messages repository.MessageRepository
	now      func() time.Time
}

func NewMessageService(users repository.UserRepository, messages repository.MessageRepository) *MessageService {
	return &MessageService{users: users, messages: messages, now: time.Now}
}

// Stats counts users, messages and unread messages.
func (s *MessageService) Stats(ctx context.Context) (*model.MessageStats, error) {
	users, err := s.users.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/message: counting users: %w", err)
	}
	total, unread, err := s.messages.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/message: counting messages: %w", err)
	}
	return &model.MessageStats{
		TotalUsers:          users,
		TotalMessages:       total,
		TotalUnreadMessages: unread,
	}, nil
}

// Send delivers a message to an existing user.
func (s *MessageService) Send(ctx context.Context, in SendMessageInput) (*model.Message, error) {
	in.RecipientID = strings.TrimSpace(in.RecipientID)
	in.Subject = strings.TrimSpace(in.Subject)

	var missing []string
	if in.RecipientID == "" {
		missing = append(missing, "recipientId")
	}
	if in.Subject == "" {
		missing = append(missing, "subject")
	}
	if strings.TrimSpace(in.Content) == "" {
		missing = append(missing, "content")
	}
	if len(missing) > 0 {
		return nil, apperror.MissingFields(missing...)
	}
	if len(in.Content) > MaxMessageLength {
		return nil, apperror.ValidationFailed("content", fmt.Sprintf("content must be at most %d characters", MaxMessageLength))
	}

	if _, err := s.users.GetByID(ctx, in.RecipientID); err != nil {
		return nil, fmt.Errorf("service/message: loading recipient: %w", err)
	}

	msg := &model.Message{
		RecipientID: in.RecipientID,
		Subject:     in.Subject,
		Content:     in.Content,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("service/message: creating: %w", err)
	}
	return msg, nil
}

// Inbox lists the caller's messages, newest first.
func (s *MessageService) Inbox(ctx context.Context, userID string, opts repository.ListOptions) ([]model.Message, error) {
	msgs, err := s.messages.ListForRecipient(ctx, userID, opts)
	if err != nil {
		return nil, fmt.Errorf("service/message: listing inbox: %w", err)
	}
	return msgs, nil
}

// MarkRead marks one of the caller's messages read.
func (s *MessageService) MarkRead(ctx context.Context, userID, id string) error {
	if strings.TrimSpace(id) == "" {
		return apperror.MissingFields("id")
	}
	if err := s.messages.MarkRead(ctx, id, userID, s.now()); err != nil {
		return fmt.Errorf("service/message: marking %s read: %w", id, err)
	}
	return nil
}
