package service

import (
	"context"
	"sort"

	"github.com/Fussballversager/data-pipeline-buddy/internal/domain"
	"github.com/Fussballversager/data-pipeline-buddy/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Workspace is one user's loaded plan hierarchy. It is built per request,
// patched in place by creates and deletes, and never shared between users.
type Workspace struct {
	UserID primitive.ObjectID
	Months []domain.MonthPlan
	Weeks  []domain.WeekPlanView
	Days   []domain.DayPlan
}

// LoadWorkspace reads the user's months, weeks and days with section counts.
func LoadWorkspace(ctx context.Context, stores repository.Stores, userID primitive.ObjectID) (*Workspace, error) {
	months, err := stores.Months.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	weeks, err := stores.Weeks.ListViews(ctx, userID)
	if err != nil {
		return nil, err
	}
	days, err := stores.Days.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := fillSectionCounts(ctx, stores.Sections, days); err != nil {
		return nil, err
	}
	return &Workspace{UserID: userID, Months: months, Weeks: weeks, Days: days}, nil
}

func fillSectionCounts(ctx context.Context, sections repository.SectionRepository, days []domain.DayPlan) error {
	if len(days) == 0 {
		return nil
	}
	ids := make([]primitive.ObjectID, len(days))
	for i, d := range days {
		ids[i] = d.ID
	}
	counts, err := sections.CountByDays(ctx, ids)
	if err != nil {
		return err
	}
	for i := range days {
		days[i].SectionCount = counts[days[i].ID]
	}
	return nil
}

// CanCreateWeek is true once a month exists to hold the week.
func (w *Workspace) CanCreateWeek() bool { return len(w.Months) > 0 }

// CanCreateDay is true once a week exists to hold the day.
func (w *Workspace) CanCreateDay() bool { return len(w.Weeks) > 0 }

// Quota re-derives the month plan quota from the loaded months.
func (w *Workspace) Quota(allowance int) QuotaStatus {
	return NewQuotaStatus(len(w.Months), allowance)
}

// Siblings returns the period strings already used under parentID.
func (w *Workspace) Siblings(tier domain.Tier, parentID primitive.ObjectID) []string {
	var out []string
	switch tier {
	case domain.TierMonth:
		for _, m := range w.Months {
			out = append(out, m.PeriodString())
		}
	case domain.TierWeek:
		for _, v := range w.Weeks {
			if v.MonthPlanID == parentID {
				out = append(out, v.PeriodString())
			}
		}
	case domain.TierDay:
		for _, d := range w.Days {
			if d.WeekPlanID == parentID {
				out = append(out, d.PeriodString())
			}
		}
	}
	return out
}

func (w *Workspace) month(id primitive.ObjectID) (domain.MonthPlan, bool) {
	for _, m := range w.Months {
		if m.ID == id {
			return m, true
		}
	}
	return domain.MonthPlan{}, false
}

// WeeksOf returns the weeks under a month ordered by calendar week.
func (w *Workspace) WeeksOf(monthID primitive.ObjectID) []domain.WeekPlanView {
	out := []domain.WeekPlanView{}
	for _, v := range w.Weeks {
		if v.MonthPlanID == monthID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CalendarWeek < out[j].CalendarWeek })
	return out
}

// DaysOf returns the days under a week ordered by date.
func (w *Workspace) DaysOf(weekID primitive.ObjectID) []domain.DayPlan {
	out := []domain.DayPlan{}
	for _, d := range w.Days {
		if d.WeekPlanID == weekID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TrainingDate < out[j].TrainingDate })
	return out
}

func (w *Workspace) addMonth(m domain.MonthPlan) { w.Months = append(w.Months, m) }

func (w *Workspace) addWeek(p domain.WeekPlan) {
	view := domain.WeekPlanView{WeekPlan: p}
	if m, ok := w.month(p.MonthPlanID); ok {
		view.MonthPeriod = m.Period
	}
	w.Weeks = append(w.Weeks, view)
}

func (w *Workspace) addDay(d domain.DayPlan) {
	w.Days = append(w.Days, d)
	for i := range w.Weeks {
		if w.Weeks[i].ID == d.WeekPlanID {
			w.Weeks[i].DayCount++
		}
	}
}

// remove drops a plan and everything under it, mirroring the store cascade.
func (w *Workspace) remove(ref domain.PlanRef) {
	switch ref.Tier {
	case domain.TierMonth:
		w.Months = filter(w.Months, func(m domain.MonthPlan) bool { return m.ID != ref.ID })
		for _, v := range w.WeeksOf(ref.ID) {
			w.remove(domain.PlanRef{Tier: domain.TierWeek, ID: v.ID})
		}
	case domain.TierWeek:
		w.Weeks = filter(w.Weeks, func(v domain.WeekPlanView) bool { return v.ID != ref.ID })
		w.Days = filter(w.Days, func(d domain.DayPlan) bool { return d.WeekPlanID != ref.ID })
	case domain.TierDay:
		var weekID primitive.ObjectID
		w.Days = filter(w.Days, func(d domain.DayPlan) bool {
			if d.ID == ref.ID {
				weekID = d.WeekPlanID
				return false
			}
			return true
		})
		for i := range w.Weeks {
			if w.Weeks[i].ID == weekID && w.Weeks[i].DayCount > 0 {
				w.Weeks[i].DayCount--
			}
		}
	}
}

func filter[T any](items []T, keep func(T) bool) []T {
	out := items[:0]
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}
