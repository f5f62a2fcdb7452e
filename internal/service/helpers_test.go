package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Fussballversager/data-pipeline-buddy/internal/domain"
	"github.com/Fussballversager/data-pipeline-buddy/internal/generation"
	"github.com/Fussballversager/data-pipeline-buddy/internal/repository"
	"github.com/Fussballversager/data-pipeline-buddy/internal/repository/memory"
	"github.com/Fussballversager/data-pipeline-buddy/internal/service"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testQuota = 2

type env struct {
	store  *memory.Store
	stores repository.Stores
	plans  service.PlanService
	userID primitive.ObjectID
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := memory.NewStore()
	stores := store.Bundle()

	user := &domain.User{Name: "Coach", Email: "coach@example.com", PasswordHash: "x"}
	_, err := stores.Users.Create(context.Background(), user)
	require.NoError(t, err)

	return &env{
		store:  store,
		stores: stores,
		plans:  service.NewPlanService(stores, testQuota),
		userID: user.ID,
	}
}

func (e *env) workspace(t *testing.T) *service.Workspace {
	t.Helper()
	ws, err := e.plans.Workspace(context.Background(), e.userID)
	require.NoError(t, err)
	return ws
}

// hierarchy creates month 2025-09 with week 37 and one day under it.
func (e *env) hierarchy(t *testing.T) (*domain.MonthPlan, *domain.WeekPlan, *domain.DayPlan) {
	t.Helper()
	ctx := context.Background()
	ws := e.workspace(t)

	month, err := e.plans.CreateMonth(ctx, ws, service.MonthInput{Period: "2025-09"})
	require.NoError(t, err)
	week, err := e.plans.CreateWeek(ctx, ws, service.WeekInput{MonthPlanID: month.ID, CalendarWeek: "37"})
	require.NoError(t, err)
	day, err := e.plans.CreateDay(ctx, ws, service.DayInput{WeekPlanID: week.ID, TrainingDate: "2025-09-09"})
	require.NoError(t, err)
	return month, week, day
}

func (e *env) addSections(t *testing.T, dayID primitive.ObjectID, indices ...int) {
	t.Helper()
	for _, i := range indices {
		sec := &domain.Section{UserID: e.userID, DayPlanID: dayID, Index: i, Organisation: "Hütchen; Leibchen"}
		require.NoError(t, e.stores.Sections.Upsert(context.Background(), sec))
	}
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

// fakeScheduler records waits instead of sleeping. onWait runs after each
// wait and is where tests change the store between checks.
type fakeScheduler struct {
	mu     sync.Mutex
	waits  int
	onWait func(n int)
}

func (f *fakeScheduler) Wait(ctx context.Context, _ time.Duration) error {
	f.mu.Lock()
	f.waits++
	n := f.waits
	f.mu.Unlock()
	if f.onWait != nil {
		f.onWait(n)
	}
	return ctx.Err()
}

func (f *fakeScheduler) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.waits
}

type fakeDispatcher struct {
	mu       sync.Mutex
	payloads []generation.Payload
	err      error
}

func (d *fakeDispatcher) Dispatch(_ context.Context, _ string, payload generation.Payload) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.payloads = append(d.payloads, payload)
	return d.err
}

func (d *fakeDispatcher) last() generation.Payload {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.payloads[len(d.payloads)-1]
}

// fakeStorage signs nothing and returns predictable URLs.
type fakeStorage struct{}

func (fakeStorage) GeneratePresignedUploadURL(_ context.Context, key, _ string, _ time.Duration) (string, error) {
	return "https://upload.test/" + key, nil
}

func (fakeStorage) GeneratePresignedDownloadURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://sketch.test/" + key, nil
}
