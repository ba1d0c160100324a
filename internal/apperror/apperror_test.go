package apperror

import (
	"errors"
	"testing"
)

// Table-driven: each case checks that errors.Is() sees the right sentinel
// through the AppError wrapper.
func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("code", "abc123"),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("isPrivate", "isPrivate must be a boolean"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "MissingFields wraps ErrValidation",
			err:       MissingFields("code", "credit"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "Conflict wraps ErrConflict",
			err:       Conflict("code", "WELCOME"),
			target:    ErrConflict,
			wantMatch: true,
		},
		{
			name:      "Unauthorized wraps ErrUnauthorized",
			err:       Unauthorized("no session"),
			target:    ErrUnauthorized,
			wantMatch: true,
		},
		{
			name:      "Upstream wraps ErrUpstream",
			err:       Upstream("github", errors.New("status 502")),
			target:    ErrUpstream,
			wantMatch: true,
		},
		{
			name:      "NotFound does NOT match ErrValidation",
			err:       NotFound("code", "abc123"),
			target:    ErrValidation,
			wantMatch: false,
		},
		{
			name:      "Forbidden does NOT match ErrUnauthorized",
			err:       Forbidden("moderators only"),
			target:    ErrUnauthorized,
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errors.Is(tt.err, tt.target)
			if got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		err         *AppError
		wantMessage string
	}{
		{
			name:        "NotFound message includes resource and id",
			err:         NotFound("code", "abc123"),
			wantMessage: "code not found with id abc123",
		},
		{
			name:        "MissingFields lists every field",
			err:         MissingFields("code", "credit"),
			wantMessage: "Missing required fields: code, credit",
		},
		{
			name:        "Upstream hides the cause",
			err:         Upstream("github", errors.New("dial tcp: refused")),
			wantMessage: "github request failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMessage {
				t.Errorf("Error() = %q, want %q", got, tt.wantMessage)
			}
		})
	}
}

func TestUpstreamKeepsCause(t *testing.T) {
	cause := errors.New("status 503")
	err := Upstream("github", cause)

	if !errors.Is(err, cause) {
		t.Errorf("errors.Is(Upstream, cause) = false, want true")
	}
}

func TestValidationFailedField(t *testing.T) {
	err := ValidationFailed("isPrivate", "isPrivate must be a boolean")

	if err.Field != "isPrivate" {
		t.Errorf("Field = %q, want %q", err.Field, "isPrivate")
	}
}
