package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/sakif/gitcord/internal/apperror"
	"github.com/sakif/gitcord/internal/model"
	"github.com/sakif/gitcord/internal/repository"
)

func TestAuditLogAppendAndList(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	entry := &model.Log{
		ActorID:    "mod1",
		Action:     model.ActionCreateCode,
		Method:     "POST",
		Endpoint:   "/api/code/create",
		StatusCode: 201,
		Detail:     json.RawMessage(`{"code":"WELCOME"}`),
	}
	if err := db.AuditLogs().Append(ctx, entry); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := db.AuditLogs().Append(ctx, &model.Log{
		ActorID: "mod1", Action: model.ActionListCodes, Method: "GET", Endpoint: "/api/code/getAll", StatusCode: 200,
	}); err != nil {
		t.Fatalf("Append() without detail error = %v", err)
	}

	entries, err := db.AuditLogs().ListByActor(ctx, "mod1", repository.ListOptions{})
	if err != nil {
		t.Fatalf("ListByActor() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("ListByActor() returned %d, want 2", len(entries))
	}
	if string(entries[0].Detail) != "null" {
		t.Errorf("Detail of newest = %s, want null", entries[0].Detail)
	}
	if string(entries[1].Detail) != `{"code":"WELCOME"}` {
		t.Errorf("Detail = %s, want stored verbatim", entries[1].Detail)
	}
}

func TestAuditLogAppend_RejectsUnknownEnums(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		entry model.Log
	}{
		{"bad action", model.Log{Action: "HACK", Method: "GET"}},
		{"bad method", model.Log{Action: model.ActionDeleteCode, Method: "TRACE"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := db.AuditLogs().Append(ctx, &tt.entry)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("Append() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestFeedbackCreateAndList(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	fb := &model.Feedback{UserID: "u1", Content: "love it", Consent: true, Category: model.FeedbackGeneral}
	if err := db.Feedback().Create(ctx, fb); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	list, err := db.Feedback().List(ctx, repository.ListOptions{Limit: 10})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 1 || list[0].Category != model.FeedbackGeneral || !list[0].Consent {
		t.Errorf("List() = %+v", list)
	}
}
