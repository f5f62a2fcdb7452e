package service

import (
	"context"

	"github.com/Fussballversager/data-pipeline-buddy/internal/domain"
	"github.com/Fussballversager/data-pipeline-buddy/internal/repository"
)

// ReadinessProbe looks for the row the generator writes last for a tier.
//
//	month: any week under the month
//	week:  any day under the week
//	day:   the cool-down section (index 8)
type ReadinessProbe struct {
	weeks    repository.WeekPlanRepository
	days     repository.DayPlanRepository
	sections repository.SectionRepository
}

func NewReadinessProbe(stores repository.Stores) *ReadinessProbe {
	return &ReadinessProbe{weeks: stores.Weeks, days: stores.Days, sections: stores.Sections}
}

// CheckPlanReady reports whether the generated content for ref is present.
func (p *ReadinessProbe) CheckPlanReady(ctx context.Context, ref domain.PlanRef) (bool, error) {
	switch ref.Tier {
	case domain.TierMonth:
		return p.weeks.HasAnyForMonth(ctx, ref.ID)
	case domain.TierWeek:
		return p.days.HasAnyForWeek(ctx, ref.ID)
	case domain.TierDay:
		return p.sections.ExistsAtIndex(ctx, ref.ID, domain.SectionCoolDown)
	}
	return false, domain.ErrUnknownTier
}
