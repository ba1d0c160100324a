package model

import "time"

// Code is a redemption code. Code strings are stored uppercase and are
// unique; one row is identified by either its ID or its code string.
//
// A code can be redeemed UsageLimit times in total. Each redemption adds
// Credit to the redeemer's UserStats and, when Premium is set, extends their
// UserPremium by PremiumDays.
type Code struct {
	ID          string    `json:"id"          bson:"_id"`
	Code        string    `json:"code"        bson:"code"`
	Credit      int64     `json:"credit"      bson:"credit"`
	Premium     bool      `json:"premium"     bson:"premium"`
	PremiumDays int       `json:"premiumDays" bson:"premium_days"`
	UsageLimit  int       `json:"usageLimit"  bson:"usage_limit"`
	UsedCount   int       `json:"usedCount"   bson:"used_count"`
	CreatedBy   string    `json:"createdBy"   bson:"created_by"`
	CreatedAt   time.Time `json:"createdAt"   bson:"created_at"`
}

// Exhausted reports whether every allowed redemption has been used.
func (c *Code) Exhausted() bool {
	return c.UsedCount >= c.UsageLimit
}
