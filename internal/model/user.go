// Package model defines the data structures used throughout the application.
package model

import "time"

// Roles a user can hold. Role is informational; admin endpoints are gated on
// IsModerator, not on Role.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a Gitcord account.
//
// GitHub OAuth is the only identity provider, so GitHubID is the stable
// external key. We still generate our own internal string ID (xid) so that
// other tables never depend on GitHub's numbering scheme.
//
// WHY Email string AND UNIQUE?
// GitHub returns an empty email when the user hides it. Repositories store
// the empty string as NULL so the UNIQUE constraint only applies to real
// addresses.
//
// The encrypted GitHub access token is deliberately not part of this struct:
// it never leaves the repository/auth layers and must not be serialised.
type User struct {
	ID          string    `json:"id"          bson:"_id"`
	GitHubID    int64     `json:"githubId"    bson:"github_id"`
	Username    string    `json:"username"    bson:"username"`
	Email       string    `json:"email"       bson:"email,omitempty"`
	Name        string    `json:"name"        bson:"name"`
	AvatarURL   string    `json:"avatarUrl"   bson:"avatar_url"`
	Role        string    `json:"role"        bson:"role"`
	IsModerator bool      `json:"isModerator" bson:"is_moderator"`
	IsPrivate   bool      `json:"isPrivate"   bson:"is_private"`
	CreatedAt   time.Time `json:"createdAt"   bson:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt"   bson:"updated_at"`
}
