package domain

import (
	"errors"
	"strings"
)

// Tier is a level in the plan hierarchy.
type Tier string

const (
	TierMonth Tier = "month"
	TierWeek  Tier = "week"
	TierDay   Tier = "day"
)

var ErrUnknownTier = errors.New("unknown plan tier")

// tierLabels is the only place the display vocabulary lives.
var tierLabels = map[Tier]string{
	TierMonth: "Monat",
	TierWeek:  "Woche",
	TierDay:   "Tag",
}

// Label returns the display label used in generation payloads and the UI.
// Unknown tiers return an empty string.
func (t Tier) Label() string {
	return tierLabels[t]
}

// Valid reports whether t is one of the three known tiers.
func (t Tier) Valid() bool {
	_, ok := tierLabels[t]
	return ok
}

// Parent returns the tier one level up. Months have no parent.
func (t Tier) Parent() (Tier, bool) {
	switch t {
	case TierWeek:
		return TierMonth, true
	case TierDay:
		return TierWeek, true
	}
	return "", false
}

// ParseTier accepts either the technical name ("week") or the display
// label ("Woche"), case-insensitively. Only used at the API boundary.
func ParseTier(raw string) (Tier, error) {
	v := strings.TrimSpace(raw)
	for tier, label := range tierLabels {
		if strings.EqualFold(v, string(tier)) || strings.EqualFold(v, label) {
			return tier, nil
		}
	}
	return "", ErrUnknownTier
}
