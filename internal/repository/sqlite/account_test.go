package sqlite

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sakif/gitcord/internal/apperror"
	"github.com/sakif/gitcord/internal/model"
)

func TestAccount_ZeroValuesForNewUser(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	p, err := db.Accounts().Premium(ctx, "nobody")
	if err != nil {
		t.Fatalf("Premium() error = %v", err)
	}
	if p.IsPremium || p.ExpiresAt != nil {
		t.Errorf("Premium() = %+v, want zero", p)
	}

	s, err := db.Accounts().Stats(ctx, "nobody")
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if s.Credits != 0 || s.ProfileViews != 0 {
		t.Errorf("Stats() = %+v, want zero", s)
	}
}

func TestAccount_IncrementProfileViews(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := db.Accounts().IncrementProfileViews(ctx, "u1"); err != nil {
			t.Fatalf("IncrementProfileViews() error = %v", err)
		}
	}
	s, _ := db.Accounts().Stats(ctx, "u1")
	if s.ProfileViews != 3 {
		t.Errorf("ProfileViews = %d, want 3", s.ProfileViews)
	}
}

func TestRedeem_CreditsAndConsumes(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	createTestCode(t, db, "CREDIT", 25)

	r, err := db.Accounts().Redeem(ctx, "credit", "u1", time.Now())
	if err != nil {
		t.Fatalf("Redeem() error = %v", err)
	}
	if r.Stats.Credits != 25 {
		t.Errorf("Credits = %d, want 25", r.Stats.Credits)
	}
	if r.Code.UsedCount != 1 {
		t.Errorf("UsedCount = %d, want 1", r.Code.UsedCount)
	}
	if r.Premium.IsPremium {
		t.Error("non-premium code must not grant premium")
	}

	_, err = db.Accounts().Redeem(ctx, "CREDIT", "u2", time.Now())
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("Redeem() of exhausted code error = %v, want ErrConflict", err)
	}
}

func TestRedeem_SameUserTwice(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	if err := db.Codes().Create(ctx, &model.Code{Code: "MULTI", Credit: 1, UsageLimit: 5}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := db.Accounts().Redeem(ctx, "MULTI", "u1", time.Now()); err != nil {
		t.Fatalf("first Redeem() error = %v", err)
	}
	_, err := db.Accounts().Redeem(ctx, "MULTI", "u1", time.Now())
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("second Redeem() error = %v, want ErrConflict", err)
	}

	// The failed attempt rolled back: still one use consumed, one credit.
	c, _ := db.Codes().GetByCode(ctx, "MULTI")
	if c.UsedCount != 1 {
		t.Errorf("UsedCount = %d, want 1", c.UsedCount)
	}
	s, _ := db.Accounts().Stats(ctx, "u1")
	if s.Credits != 1 {
		t.Errorf("Credits = %d, want 1", s.Credits)
	}
}

func TestRedeem_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Accounts().Redeem(context.Background(), "NOPE", "u1", time.Now())
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Redeem() error = %v, want ErrNotFound", err)
	}
}

func TestRedeem_PremiumExtendsFromLaterExpiry(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	for _, code := range []string{"PREM1", "PREM2"} {
		if err := db.Codes().Create(ctx, &model.Code{Code: code, Premium: true, PremiumDays: 10}); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r, err := db.Accounts().Redeem(ctx, "PREM1", "u1", now)
	if err != nil {
		t.Fatalf("Redeem() error = %v", err)
	}
	if !r.Premium.IsPremium || r.Premium.ExpiresAt == nil {
		t.Fatalf("Premium = %+v, want active", r.Premium)
	}
	if want := now.AddDate(0, 0, 10); !r.Premium.ExpiresAt.Equal(want) {
		t.Errorf("ExpiresAt = %v, want %v", r.Premium.ExpiresAt, want)
	}

	r, err = db.Accounts().Redeem(ctx, "PREM2", "u1", now.AddDate(0, 0, 2))
	if err != nil {
		t.Fatalf("Redeem() error = %v", err)
	}
	if want := now.AddDate(0, 0, 20); !r.Premium.ExpiresAt.Equal(want) {
		t.Errorf("stacked ExpiresAt = %v, want %v", r.Premium.ExpiresAt, want)
	}
}

func TestRedeem_ConcurrentNeverOvershoots(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	if err := db.Codes().Create(ctx, &model.Code{Code: "RACE", Credit: 1, UsageLimit: 3}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			userID := string(rune('a' + i))
			if _, err := db.Accounts().Redeem(ctx, "RACE", userID, time.Now()); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	if ok != 3 {
		t.Errorf("successful redemptions = %d, want 3", ok)
	}
	c, _ := db.Codes().GetByCode(ctx, "RACE")
	if c.UsedCount != 3 {
		t.Errorf("UsedCount = %d, want 3", c.UsedCount)
	}
}
