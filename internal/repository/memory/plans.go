package memory

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/Fussballversager/data-pipeline-buddy/internal/domain"
	"github.com/Fussballversager/data-pipeline-buddy/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Month plans ---

type monthRepo struct{ s *Store }

func (r monthRepo) Create(_ context.Context, plan *domain.MonthPlan) (primitive.ObjectID, error) {
	if plan.UserID == primitive.NilObjectID || plan.Period == "" {
		return primitive.NilObjectID, errors.New("month plan requires userId and period")
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, m := range r.s.months {
		if m.UserID == plan.UserID && m.Period == plan.Period {
			return primitive.NilObjectID, repository.ErrDuplicatePeriod
		}
	}
	plan.ID = primitive.NewObjectID()
	plan.CreatedAt = r.s.now()
	plan.UpdatedAt = plan.CreatedAt
	plan.LastRunAt = nil
	r.s.months[plan.ID] = *plan
	return plan.ID, nil
}

func (r monthRepo) GetByID(_ context.Context, id, userID primitive.ObjectID) (*domain.MonthPlan, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	m, ok := r.s.months[id]
	if !ok || m.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return &m, nil
}

func (r monthRepo) ListByUser(_ context.Context, userID primitive.ObjectID) ([]domain.MonthPlan, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	plans := []domain.MonthPlan{}
	for _, m := range r.s.months {
		if m.UserID == userID {
			plans = append(plans, m)
		}
	}
	sort.Slice(plans, func(i, j int) bool { return plans[i].Period < plans[j].Period })
	return plans, nil
}

func (r monthRepo) CountByUser(ctx context.Context, userID primitive.ObjectID) (int, error) {
	plans, err := r.ListByUser(ctx, userID)
	return len(plans), err
}

func (r monthRepo) ExistsForPeriod(_ context.Context, userID primitive.ObjectID, period string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, m := range r.s.months {
		if m.UserID == userID && m.Period == period {
			return true, nil
		}
	}
	return false, nil
}

func (r monthRepo) Update(_ context.Context, plan *domain.MonthPlan) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.months[plan.ID]
	if !ok || m.UserID != plan.UserID {
		return repository.ErrNotFound
	}
	m.TrainingParameters = plan.TrainingParameters
	m.UpdatedAt = r.s.now()
	r.s.months[m.ID] = m
	return nil
}

func (r monthRepo) MarkGenerated(_ context.Context, id primitive.ObjectID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.months[id]
	if !ok {
		return repository.ErrNotFound
	}
	m.LastRunAt = advance(m.LastRunAt, at)
	r.s.months[id] = m
	return nil
}

func (r monthRepo) Delete(_ context.Context, id, userID primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.months[id]
	if !ok || m.UserID != userID {
		return repository.ErrNotFound
	}
	r.s.deleteMonthLocked(id)
	return nil
}

// --- Week plans ---

type weekRepo struct{ s *Store }

func (r weekRepo) Create(_ context.Context, plan *domain.WeekPlan) (primitive.ObjectID, error) {
	if plan.UserID == primitive.NilObjectID || plan.MonthPlanID == primitive.NilObjectID || plan.CalendarWeek == 0 {
		return primitive.NilObjectID, errors.New("week plan requires userId, monthPlanId, and calendarWeek")
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, w := range r.s.weeks {
		if w.UserID == plan.UserID && w.MonthPlanID == plan.MonthPlanID && w.CalendarWeek == plan.CalendarWeek {
			return primitive.NilObjectID, repository.ErrDuplicatePeriod
		}
	}
	plan.ID = primitive.NewObjectID()
	plan.CreatedAt = r.s.now()
	plan.UpdatedAt = plan.CreatedAt
	plan.LastRunAt = nil
	r.s.weeks[plan.ID] = *plan
	return plan.ID, nil
}

func (r weekRepo) GetByID(_ context.Context, id, userID primitive.ObjectID) (*domain.WeekPlan, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	w, ok := r.s.weeks[id]
	if !ok || w.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return &w, nil
}

func (r weekRepo) ListByMonth(_ context.Context, monthPlanID, userID primitive.ObjectID) ([]domain.WeekPlan, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	plans := []domain.WeekPlan{}
	for _, w := range r.s.weeks {
		if w.MonthPlanID == monthPlanID && w.UserID == userID {
			plans = append(plans, w)
		}
	}
	sort.Slice(plans, func(i, j int) bool { return plans[i].CalendarWeek < plans[j].CalendarWeek })
	return plans, nil
}

func (r weekRepo) ListViews(_ context.Context, userID primitive.ObjectID) ([]domain.WeekPlanView, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	views := []domain.WeekPlanView{}
	for _, w := range r.s.weeks {
		if w.UserID != userID {
			continue
		}
		v := domain.WeekPlanView{WeekPlan: w, MonthPeriod: r.s.months[w.MonthPlanID].Period}
		for _, d := range r.s.days {
			if d.WeekPlanID == w.ID {
				v.DayCount++
			}
		}
		views = append(views, v)
	}
	sort.Slice(views, func(i, j int) bool {
		if views[i].MonthPeriod != views[j].MonthPeriod {
			return views[i].MonthPeriod < views[j].MonthPeriod
		}
		return views[i].CalendarWeek < views[j].CalendarWeek
	})
	return views, nil
}

func (r weekRepo) ExistsForPeriod(_ context.Context, userID, monthPlanID primitive.ObjectID, calendarWeek int) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, w := range r.s.weeks {
		if w.UserID == userID && w.MonthPlanID == monthPlanID && w.CalendarWeek == calendarWeek {
			return true, nil
		}
	}
	return false, nil
}

func (r weekRepo) HasAnyForMonth(_ context.Context, monthPlanID primitive.ObjectID) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, w := range r.s.weeks {
		if w.MonthPlanID == monthPlanID {
			return true, nil
		}
	}
	return false, nil
}

func (r weekRepo) Update(_ context.Context, plan *domain.WeekPlan) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	w, ok := r.s.weeks[plan.ID]
	if !ok || w.UserID != plan.UserID {
		return repository.ErrNotFound
	}
	w.TrainingParameters = plan.TrainingParameters
	w.TrainingGoal = plan.TrainingGoal
	w.Focus1, w.Focus2, w.Focus3 = plan.Focus1, plan.Focus2, plan.Focus3
	w.WeekStart = plan.WeekStart
	w.UpdatedAt = r.s.now()
	r.s.weeks[w.ID] = w
	return nil
}

func (r weekRepo) MarkGenerated(_ context.Context, id primitive.ObjectID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	w, ok := r.s.weeks[id]
	if !ok {
		return repository.ErrNotFound
	}
	w.LastRunAt = advance(w.LastRunAt, at)
	r.s.weeks[id] = w
	return nil
}

func (r weekRepo) Delete(_ context.Context, id, userID primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	w, ok := r.s.weeks[id]
	if !ok || w.UserID != userID {
		return repository.ErrNotFound
	}
	r.s.deleteWeekLocked(id)
	return nil
}

// --- Day plans ---

type dayRepo struct{ s *Store }

func (r dayRepo) Create(_ context.Context, plan *domain.DayPlan) (primitive.ObjectID, error) {
	if plan.UserID == primitive.NilObjectID || plan.WeekPlanID == primitive.NilObjectID || plan.TrainingDate == "" {
		return primitive.NilObjectID, errors.New("day plan requires userId, weekPlanId, and trainingDate")
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, d := range r.s.days {
		if d.UserID == plan.UserID && d.WeekPlanID == plan.WeekPlanID && d.TrainingDate == plan.TrainingDate {
			return primitive.NilObjectID, repository.ErrDuplicatePeriod
		}
	}
	plan.ID = primitive.NewObjectID()
	plan.CreatedAt = r.s.now()
	plan.UpdatedAt = plan.CreatedAt
	plan.LastRunAt = nil
	plan.SectionCount = 0
	r.s.days[plan.ID] = *plan
	return plan.ID, nil
}

func (r dayRepo) GetByID(_ context.Context, id, userID primitive.ObjectID) (*domain.DayPlan, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	d, ok := r.s.days[id]
	if !ok || d.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return &d, nil
}

func (r dayRepo) ListByWeek(_ context.Context, weekPlanID, userID primitive.ObjectID) ([]domain.DayPlan, error) {
	return r.filter(func(d domain.DayPlan) bool { return d.WeekPlanID == weekPlanID && d.UserID == userID }), nil
}

func (r dayRepo) ListByUser(_ context.Context, userID primitive.ObjectID) ([]domain.DayPlan, error) {
	return r.filter(func(d domain.DayPlan) bool { return d.UserID == userID }), nil
}

func (r dayRepo) filter(match func(domain.DayPlan) bool) []domain.DayPlan {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	plans := []domain.DayPlan{}
	for _, d := range r.s.days {
		if match(d) {
			plans = append(plans, d)
		}
	}
	sort.Slice(plans, func(i, j int) bool { return plans[i].TrainingDate < plans[j].TrainingDate })
	return plans
}

func (r dayRepo) ExistsForPeriod(_ context.Context, userID, weekPlanID primitive.ObjectID, trainingDate string) (bool, error) {
	found := r.filter(func(d domain.DayPlan) bool {
		return d.UserID == userID && d.WeekPlanID == weekPlanID && d.TrainingDate == trainingDate
	})
	return len(found) > 0, nil
}

func (r dayRepo) HasAnyForWeek(_ context.Context, weekPlanID primitive.ObjectID) (bool, error) {
	found := r.filter(func(d domain.DayPlan) bool { return d.WeekPlanID == weekPlanID })
	return len(found) > 0, nil
}

func (r dayRepo) Update(_ context.Context, plan *domain.DayPlan) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.days[plan.ID]
	if !ok || d.UserID != plan.UserID {
		return repository.ErrNotFound
	}
	d.DayNumber = plan.DayNumber
	d.TrainingGoal = plan.TrainingGoal
	d.Focus1, d.Focus2, d.Focus3 = plan.Focus1, plan.Focus2, plan.Focus3
	d.RosterSize = plan.RosterSize
	d.UpdatedAt = r.s.now()
	r.s.days[d.ID] = d
	return nil
}

func (r dayRepo) MarkGenerated(_ context.Context, id primitive.ObjectID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.days[id]
	if !ok {
		return repository.ErrNotFound
	}
	d.LastRunAt = advance(d.LastRunAt, at)
	r.s.days[id] = d
	return nil
}

func (r dayRepo) Delete(_ context.Context, id, userID primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.days[id]
	if !ok || d.UserID != userID {
		return repository.ErrNotFound
	}
	r.s.deleteDayLocked(id)
	return nil
}
