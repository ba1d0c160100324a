package model

import "time"

// UserPremium and UserStats are one-to-one satellites of User, keyed by the
// user's internal ID. A missing row reads as the zero value.

type UserPremium struct {
	UserID    string     `json:"userId"    bson:"_id"`
	IsPremium bool       `json:"isPremium" bson:"is_premium"`
	ExpiresAt *time.Time `json:"expiresAt" bson:"expires_at,omitempty"`
}

// Active reports whether premium is in effect at now.
func (p *UserPremium) Active(now time.Time) bool {
	return p.IsPremium && p.ExpiresAt != nil && p.ExpiresAt.After(now)
}

type UserStats struct {
	UserID       string `json:"userId"       bson:"_id"`
	Credits      int64  `json:"credits"      bson:"credits"`
	ProfileViews int64  `json:"profileViews" bson:"profile_views"`
}

// Account bundles a user with its satellites, as returned by /api/me.
type Account struct {
	User    *User        `json:"user"`
	Premium *UserPremium `json:"premium"`
	Stats   *UserStats   `json:"stats"`
}

// Redemption is the outcome of redeeming a code.
type Redemption struct {
	Code    *Code        `json:"code"`
	Stats   *UserStats   `json:"stats"`
	Premium *UserPremium `json:"premium"`
}
