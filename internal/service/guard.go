package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Fussballversager/data-pipeline-buddy/internal/domain"
	"github.com/Fussballversager/data-pipeline-buddy/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrDuplicatePeriod = errors.New("a plan for this period already exists")
	ErrCreateInFlight  = errors.New("a plan for this period is already being created")
	ErrQuotaExceeded   = errors.New("month plan limit reached")
)

// --- Identity guard ---

// IdentityGuard rejects a second plan for a period that already has one
// under the same parent.
type IdentityGuard struct {
	months repository.MonthPlanRepository
	weeks  repository.WeekPlanRepository
	days   repository.DayPlanRepository
}

func NewIdentityGuard(stores repository.Stores) *IdentityGuard {
	return &IdentityGuard{months: stores.Months, weeks: stores.Weeks, days: stores.Days}
}

// CheckDuplicate reports whether a plan for key already exists under
// parentID. localSiblings holds the period strings the caller already has
// loaded; a hit there answers without asking the store.
func (g *IdentityGuard) CheckDuplicate(ctx context.Context, userID, parentID primitive.ObjectID, key domain.PeriodKey, localSiblings []string) (bool, error) {
	period := key.String()
	for _, sibling := range localSiblings {
		if sibling == period {
			return true, nil
		}
	}

	switch key.Tier {
	case domain.TierMonth:
		return g.months.ExistsForPeriod(ctx, userID, period)
	case domain.TierWeek:
		return g.weeks.ExistsForPeriod(ctx, userID, parentID, key.Week)
	case domain.TierDay:
		return g.days.ExistsForPeriod(ctx, userID, parentID, period)
	}
	return false, domain.ErrUnknownTier
}

// --- Quota ---

// QuotaStatus describes how many month plans a user holds against their
// allowance.
type QuotaStatus struct {
	Count     int  `json:"count"`
	Allowance int  `json:"allowance"`
	CanCreate bool `json:"canCreate"`
}

// QuotaError is returned when a month plan would exceed the allowance.
type QuotaError struct {
	Status QuotaStatus
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("%s (%d of %d)", ErrQuotaExceeded, e.Status.Count, e.Status.Allowance)
}

func (e *QuotaError) Unwrap() error { return ErrQuotaExceeded }

// CanCreate applies the allowance to month plans only. Weeks and days are
// not limited.
func CanCreate(tier domain.Tier, currentCount, allowance int) bool {
	if tier != domain.TierMonth {
		return true
	}
	return currentCount < allowance
}

// NewQuotaStatus derives the status from a fresh count.
func NewQuotaStatus(count, allowance int) QuotaStatus {
	return QuotaStatus{
		Count:     count,
		Allowance: allowance,
		CanCreate: CanCreate(domain.TierMonth, count, allowance),
	}
}

// --- In-flight creations ---

// inflight tracks creations that have been accepted but not yet stored, so
// a double submit of the same key is refused instead of racing the store.
type inflight struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func newInflight() *inflight {
	return &inflight{keys: make(map[string]struct{})}
}

func (f *inflight) acquire(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, busy := f.keys[key]; busy {
		return false
	}
	f.keys[key] = struct{}{}
	return true
}

func (f *inflight) release(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.keys, key)
}

func creationKey(userID, parentID primitive.ObjectID, key domain.PeriodKey) string {
	return userID.Hex() + "/" + parentID.Hex() + "/" + string(key.Tier) + ":" + key.String()
}
