package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/Fussballversager/data-pipeline-buddy/internal/domain"
	"github.com/Fussballversager/data-pipeline-buddy/internal/repository"
	"github.com/Fussballversager/data-pipeline-buddy/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func seedHierarchy(t *testing.T, store *memory.Store, userID primitive.ObjectID) (month domain.MonthPlan, week domain.WeekPlan, days []domain.DayPlan) {
	t.Helper()
	ctx := context.Background()

	month = domain.MonthPlan{UserID: userID, Period: "2025-09"}
	_, err := store.Months().Create(ctx, &month)
	require.NoError(t, err)

	week = domain.WeekPlan{UserID: userID, MonthPlanID: month.ID, CalendarWeek: 37}
	_, err = store.Weeks().Create(ctx, &week)
	require.NoError(t, err)

	for _, date := range []string{"2025-09-09", "2025-09-11"} {
		day := domain.DayPlan{UserID: userID, WeekPlanID: week.ID, TrainingDate: date}
		_, err = store.Days().Create(ctx, &day)
		require.NoError(t, err)
		days = append(days, day)
	}
	return month, week, days
}

func TestDeleteWeekCascadesToDays(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	userID := primitive.NewObjectID()
	_, week, days := seedHierarchy(t, store, userID)

	for i := 0; i <= domain.SectionCoolDown; i++ {
		require.NoError(t, store.Sections().Upsert(ctx, &domain.Section{UserID: userID, DayPlanID: days[0].ID, Index: i}))
	}

	require.NoError(t, store.Weeks().Delete(ctx, week.ID, userID))

	remaining, err := store.Days().ListByWeek(ctx, week.ID, userID)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	sections, err := store.Sections().ListByDay(ctx, days[0].ID)
	require.NoError(t, err)
	assert.Empty(t, sections)

	_, err = store.Days().GetByID(ctx, days[1].ID, userID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDeleteMonthCascadesToWeeks(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	userID := primitive.NewObjectID()
	month, week, _ := seedHierarchy(t, store, userID)

	t.Run("other users cannot delete", func(t *testing.T) {
		err := store.Months().Delete(ctx, month.ID, primitive.NewObjectID())
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	require.NoError(t, store.Months().Delete(ctx, month.ID, userID))

	_, err := store.Weeks().GetByID(ctx, week.ID, userID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	all, err := store.Days().ListByUser(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestUniquePeriodPerParent(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	userID := primitive.NewObjectID()
	month, week, _ := seedHierarchy(t, store, userID)

	_, err := store.Months().Create(ctx, &domain.MonthPlan{UserID: userID, Period: "2025-09"})
	assert.ErrorIs(t, err, repository.ErrDuplicatePeriod)

	_, err = store.Weeks().Create(ctx, &domain.WeekPlan{UserID: userID, MonthPlanID: month.ID, CalendarWeek: 37})
	assert.ErrorIs(t, err, repository.ErrDuplicatePeriod)

	_, err = store.Days().Create(ctx, &domain.DayPlan{UserID: userID, WeekPlanID: week.ID, TrainingDate: "2025-09-09"})
	assert.ErrorIs(t, err, repository.ErrDuplicatePeriod)

	// Another coach may use the same month.
	_, err = store.Months().Create(ctx, &domain.MonthPlan{UserID: primitive.NewObjectID(), Period: "2025-09"})
	assert.NoError(t, err)
}

func TestMarkGeneratedOnlyMovesForward(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	userID := primitive.NewObjectID()
	month, _, _ := seedHierarchy(t, store, userID)

	later := time.Date(2025, 9, 10, 12, 0, 0, 0, time.UTC)
	earlier := later.Add(-time.Hour)

	require.NoError(t, store.Months().MarkGenerated(ctx, month.ID, later))
	require.NoError(t, store.Months().MarkGenerated(ctx, month.ID, earlier))

	got, err := store.Months().GetByID(ctx, month.ID, userID)
	require.NoError(t, err)
	require.NotNil(t, got.LastRunAt)
	assert.True(t, got.LastRunAt.Equal(later))
}

func TestWeekViewsJoinMonthAndCountDays(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	userID := primitive.NewObjectID()
	_, week, _ := seedHierarchy(t, store, userID)

	views, err := store.Weeks().ListViews(ctx, userID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, week.ID, views[0].ID)
	assert.Equal(t, "2025-09", views[0].MonthPeriod)
	assert.Equal(t, 2, views[0].DayCount)
}

func TestLatestOKMediaWins(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	sectionID := primitive.NewObjectID()

	for _, m := range []domain.SectionMedia{
		{SectionID: sectionID, ObjectKey: "a.svg", Status: domain.MediaStatusOK},
		{SectionID: sectionID, ObjectKey: "b.svg", Status: domain.MediaStatusOK},
		{SectionID: sectionID, ObjectKey: "c.svg", Status: "failed"},
	} {
		_, err := store.SectionMedia().Create(ctx, &m)
		require.NoError(t, err)
	}

	latest, err := store.SectionMedia().LatestOK(ctx, []primitive.ObjectID{sectionID})
	require.NoError(t, err)
	assert.Equal(t, "b.svg", latest[sectionID].ObjectKey)
}
