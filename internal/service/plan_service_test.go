package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Fussballversager/data-pipeline-buddy/internal/domain"
	"github.com/Fussballversager/data-pipeline-buddy/internal/repository"
	"github.com/Fussballversager/data-pipeline-buddy/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// countingMonths counts store round trips of the duplicate check.
type countingMonths struct {
	repository.MonthPlanRepository
	mu     sync.Mutex
	exists int
}

func (c *countingMonths) ExistsForPeriod(ctx context.Context, userID primitive.ObjectID, period string) (bool, error) {
	c.mu.Lock()
	c.exists++
	c.mu.Unlock()
	return c.MonthPlanRepository.ExistsForPeriod(ctx, userID, period)
}

// blockingMonths holds Create until released.
type blockingMonths struct {
	repository.MonthPlanRepository
	entered chan struct{}
	release chan struct{}
}

func (b *blockingMonths) Create(ctx context.Context, plan *domain.MonthPlan) (primitive.ObjectID, error) {
	close(b.entered)
	<-b.release
	return b.MonthPlanRepository.Create(ctx, plan)
}

func TestCreateMonth(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects a second plan for the same month", func(t *testing.T) {
		e := newEnv(t)
		ws := e.workspace(t)

		_, err := e.plans.CreateMonth(ctx, ws, service.MonthInput{Period: "2025-09"})
		require.NoError(t, err)
		_, err = e.plans.CreateMonth(ctx, ws, service.MonthInput{Period: "2025-09"})
		assert.ErrorIs(t, err, service.ErrDuplicatePeriod)

		n, err := e.stores.Months.CountByUser(ctx, e.userID)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("loaded siblings answer without the store", func(t *testing.T) {
		e := newEnv(t)
		counter := &countingMonths{MonthPlanRepository: e.stores.Months}
		e.stores.Months = counter
		plans := service.NewPlanService(e.stores, testQuota)
		ws, err := plans.Workspace(ctx, e.userID)
		require.NoError(t, err)

		_, err = plans.CreateMonth(ctx, ws, service.MonthInput{Period: "2025-09"})
		require.NoError(t, err)
		assert.Equal(t, 1, counter.exists)

		_, err = plans.CreateMonth(ctx, ws, service.MonthInput{Period: "2025-09"})
		assert.ErrorIs(t, err, service.ErrDuplicatePeriod)
		assert.Equal(t, 1, counter.exists)
	})

	t.Run("a stale workspace still hits the store check", func(t *testing.T) {
		e := newEnv(t)
		stale := e.workspace(t)
		_, err := e.plans.CreateMonth(ctx, e.workspace(t), service.MonthInput{Period: "2025-10"})
		require.NoError(t, err)

		_, err = e.plans.CreateMonth(ctx, stale, service.MonthInput{Period: "2025-10"})
		assert.ErrorIs(t, err, service.ErrDuplicatePeriod)
	})

	t.Run("malformed periods never reach the store", func(t *testing.T) {
		e := newEnv(t)
		for _, raw := range []string{"2025-13", "1999-05", "09/2025", ""} {
			_, err := e.plans.CreateMonth(ctx, e.workspace(t), service.MonthInput{Period: raw})
			assert.ErrorIs(t, err, domain.ErrInvalidPeriod, raw)

			var fe *domain.FormatError
			assert.True(t, errors.As(err, &fe), raw)
		}
		n, _ := e.stores.Months.CountByUser(ctx, e.userID)
		assert.Zero(t, n)
	})

	t.Run("a concurrent double submit is refused", func(t *testing.T) {
		e := newEnv(t)
		blocker := &blockingMonths{MonthPlanRepository: e.stores.Months, entered: make(chan struct{}), release: make(chan struct{})}
		e.stores.Months = blocker
		plans := service.NewPlanService(e.stores, testQuota)

		wsA, err := plans.Workspace(ctx, e.userID)
		require.NoError(t, err)
		wsB, err := plans.Workspace(ctx, e.userID)
		require.NoError(t, err)

		done := make(chan error, 1)
		go func() {
			_, err := plans.CreateMonth(ctx, wsA, service.MonthInput{Period: "2025-11"})
			done <- err
		}()
		<-blocker.entered

		_, err = plans.CreateMonth(ctx, wsB, service.MonthInput{Period: "2025-11"})
		assert.ErrorIs(t, err, service.ErrCreateInFlight)

		close(blocker.release)
		require.NoError(t, <-done)
	})
}

func TestMonthQuota(t *testing.T) {
	ctx := context.Background()

	t.Run("limit blocks creation until a month is deleted", func(t *testing.T) {
		e := newEnv(t)
		ws := e.workspace(t)

		first, err := e.plans.CreateMonth(ctx, ws, service.MonthInput{Period: "2025-08"})
		require.NoError(t, err)
		_, err = e.plans.CreateMonth(ctx, ws, service.MonthInput{Period: "2025-09"})
		require.NoError(t, err)

		_, err = e.plans.CreateMonth(ctx, ws, service.MonthInput{Period: "2025-10"})
		var qe *service.QuotaError
		require.ErrorAs(t, err, &qe)
		assert.ErrorIs(t, err, service.ErrQuotaExceeded)
		assert.Equal(t, service.QuotaStatus{Count: 2, Allowance: 2, CanCreate: false}, qe.Status)

		ref := domain.PlanRef{Tier: domain.TierMonth, ID: first.ID}
		assert.ErrorIs(t, e.plans.Delete(ctx, ws, ref, false), service.ErrDeleteNotConfirmed)
		require.NoError(t, e.plans.Delete(ctx, ws, ref, true))

		quota, err := e.plans.Quota(ctx, ws)
		require.NoError(t, err)
		assert.True(t, quota.CanCreate)
		assert.Equal(t, 1, quota.Count)

		_, err = e.plans.CreateMonth(ctx, ws, service.MonthInput{Period: "2025-10"})
		assert.NoError(t, err)
	})

	t.Run("user allowance beats the default", func(t *testing.T) {
		e := newEnv(t)
		user, err := e.stores.Users.GetByID(ctx, e.userID)
		require.NoError(t, err)
		user.MonthPlanQuota = intPtr(1)
		require.NoError(t, e.stores.Users.UpdateProfile(ctx, user))

		ws := e.workspace(t)
		_, err = e.plans.CreateMonth(ctx, ws, service.MonthInput{Period: "2025-09"})
		require.NoError(t, err)
		_, err = e.plans.CreateMonth(ctx, ws, service.MonthInput{Period: "2025-10"})
		assert.ErrorIs(t, err, service.ErrQuotaExceeded)
	})

	t.Run("weeks and days are never limited", func(t *testing.T) {
		assert.True(t, service.CanCreate(domain.TierWeek, 100, 0))
		assert.True(t, service.CanCreate(domain.TierDay, 100, 0))
		assert.False(t, service.CanCreate(domain.TierMonth, 0, 0))
	})
}

func TestCreateWeek(t *testing.T) {
	ctx := context.Background()

	t.Run("requires an existing month", func(t *testing.T) {
		e := newEnv(t)
		ws := e.workspace(t)
		_, err := e.plans.CreateWeek(ctx, ws, service.WeekInput{MonthPlanID: primitive.NewObjectID(), CalendarWeek: "37"})
		assert.ErrorIs(t, err, service.ErrParentNotFound)

		_, err = e.plans.CreateMonth(ctx, ws, service.MonthInput{Period: "2025-09"})
		require.NoError(t, err)
		_, err = e.plans.CreateWeek(ctx, ws, service.WeekInput{MonthPlanID: primitive.NewObjectID(), CalendarWeek: "37"})
		assert.ErrorIs(t, err, service.ErrParentNotFound)
	})

	t.Run("snapshots inherited parameters and derives the week start", func(t *testing.T) {
		e := newEnv(t)
		require.NoError(t, e.stores.Preferences.Upsert(ctx, &domain.TrainingPreferences{
			UserID:             e.userID,
			TrainingParameters: domain.TrainingParameters{RosterSize: intPtr(20), AgeGroup: strPtr("U13")},
		}))
		ws := e.workspace(t)
		month, err := e.plans.CreateMonth(ctx, ws, service.MonthInput{
			Period: "2025-09",
			Params: domain.TrainingParameters{Philosophy: strPtr("Ballbesitz"), AgeGroup: strPtr("U14")},
		})
		require.NoError(t, err)

		week, err := e.plans.CreateWeek(ctx, ws, service.WeekInput{
			MonthPlanID:  month.ID,
			CalendarWeek: "37",
			TrainingGoal: "Pressing",
			Params:       domain.TrainingParameters{RosterSize: intPtr(16)},
		})
		require.NoError(t, err)

		assert.Equal(t, 37, week.CalendarWeek)
		assert.Equal(t, 16, *week.RosterSize)
		assert.Equal(t, "U14", *week.AgeGroup)
		assert.Equal(t, "Ballbesitz", *week.Philosophy)
		require.NotNil(t, week.WeekStart)
		assert.Equal(t, time.Date(2025, time.September, 8, 0, 0, 0, 0, time.UTC), *week.WeekStart)

		assert.True(t, ws.CanCreateDay())
		require.Len(t, ws.WeeksOf(month.ID), 1)
		assert.Equal(t, "2025-09", ws.WeeksOf(month.ID)[0].MonthPeriod)
	})

	t.Run("same calendar week under different months is allowed", func(t *testing.T) {
		e := newEnv(t)
		ws := e.workspace(t)
		a, err := e.plans.CreateMonth(ctx, ws, service.MonthInput{Period: "2025-09"})
		require.NoError(t, err)
		b, err := e.plans.CreateMonth(ctx, ws, service.MonthInput{Period: "2025-10"})
		require.NoError(t, err)

		_, err = e.plans.CreateWeek(ctx, ws, service.WeekInput{MonthPlanID: a.ID, CalendarWeek: "40"})
		require.NoError(t, err)
		_, err = e.plans.CreateWeek(ctx, ws, service.WeekInput{MonthPlanID: b.ID, CalendarWeek: "40"})
		require.NoError(t, err)
		_, err = e.plans.CreateWeek(ctx, ws, service.WeekInput{MonthPlanID: b.ID, CalendarWeek: "40"})
		assert.ErrorIs(t, err, service.ErrDuplicatePeriod)
		_, err = e.plans.CreateWeek(ctx, ws, service.WeekInput{MonthPlanID: b.ID, CalendarWeek: "54"})
		assert.ErrorIs(t, err, domain.ErrInvalidPeriod)
	})
}

func TestCreateDay(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	_, week, first := e.hierarchy(t)
	ws := e.workspace(t)

	assert.Equal(t, 1, first.DayNumber)

	second, err := e.plans.CreateDay(ctx, ws, service.DayInput{WeekPlanID: week.ID, TrainingDate: "2025-09-11", TrainingGoal: "Umschalten"})
	require.NoError(t, err)
	assert.Equal(t, 2, second.DayNumber)

	_, err = e.plans.CreateDay(ctx, ws, service.DayInput{WeekPlanID: week.ID, TrainingDate: "2025-09-11"})
	assert.ErrorIs(t, err, service.ErrDuplicatePeriod)

	_, err = e.plans.CreateDay(ctx, ws, service.DayInput{WeekPlanID: week.ID, TrainingDate: "2025-02-30"})
	assert.ErrorIs(t, err, domain.ErrInvalidPeriod)

	_, err = e.plans.CreateDay(ctx, ws, service.DayInput{WeekPlanID: primitive.NewObjectID(), TrainingDate: "2025-09-12"})
	assert.ErrorIs(t, err, service.ErrParentNotFound)
}

func TestUpdatePlans(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	month, week, day := e.hierarchy(t)

	updated, err := e.plans.UpdateMonth(ctx, e.userID, month.ID, domain.TrainingParameters{Focus: strPtr("Spielaufbau")})
	require.NoError(t, err)
	assert.Equal(t, "Spielaufbau", *updated.Focus)

	w, err := e.plans.UpdateWeek(ctx, e.userID, week.ID, service.WeekUpdate{GoalUpdate: service.GoalUpdate{Focus2: strPtr("Kopfball")}})
	require.NoError(t, err)
	assert.Equal(t, "Kopfball", w.Focus2)

	d, err := e.plans.UpdateDay(ctx, e.userID, day.ID, service.DayUpdate{RosterSize: intPtr(12)})
	require.NoError(t, err)
	assert.Equal(t, 12, *d.RosterSize)

	_, err = e.plans.UpdateMonth(ctx, primitive.NewObjectID(), month.ID, domain.TrainingParameters{})
	assert.ErrorIs(t, err, service.ErrPlanNotFound)
}

func TestDeleteCascadesThroughWorkspace(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	month, week, day := e.hierarchy(t)
	e.addSections(t, day.ID, 0, 1, 8)
	ws := e.workspace(t)

	require.NoError(t, e.plans.Delete(ctx, ws, domain.PlanRef{Tier: domain.TierMonth, ID: month.ID}, true))

	assert.Empty(t, ws.Months)
	assert.Empty(t, ws.Weeks)
	assert.Empty(t, ws.Days)
	assert.False(t, ws.CanCreateWeek())

	_, err := e.plans.GetWeek(ctx, e.userID, week.ID)
	assert.ErrorIs(t, err, service.ErrPlanNotFound)
	sections, err := e.stores.Sections.ListByDay(ctx, day.ID)
	require.NoError(t, err)
	assert.Empty(t, sections)

	err = e.plans.Delete(ctx, ws, domain.PlanRef{Tier: domain.TierMonth, ID: month.ID}, true)
	assert.ErrorIs(t, err, service.ErrPlanNotFound)
}
