package repository

import (
	"context"
	"time"

	"github.com/Fussballversager/data-pipeline-buddy/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for the repository layer
var (
	ErrNotFound        = RepositoryError("not found")
	ErrUpdateFailed    = RepositoryError("update failed")
	ErrDeleteFailed    = RepositoryError("delete failed")
	ErrDuplicatePeriod = RepositoryError("a plan for this period already exists")
	ErrDuplicateKey    = RepositoryError("duplicate key")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	UpdateProfile(ctx context.Context, user *domain.User) error
}

// PreferencesRepository stores the per-user baseline training parameters.
type PreferencesRepository interface {
	GetByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.TrainingPreferences, error)
	Upsert(ctx context.Context, prefs *domain.TrainingPreferences) error
}

// MonthPlanRepository handles the root tier. Delete removes all descendants.
type MonthPlanRepository interface {
	Create(ctx context.Context, plan *domain.MonthPlan) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id, userID primitive.ObjectID) (*domain.MonthPlan, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.MonthPlan, error)
	CountByUser(ctx context.Context, userID primitive.ObjectID) (int, error)
	ExistsForPeriod(ctx context.Context, userID primitive.ObjectID, period string) (bool, error)
	Update(ctx context.Context, plan *domain.MonthPlan) error
	MarkGenerated(ctx context.Context, id primitive.ObjectID, at time.Time) error
	Delete(ctx context.Context, id, userID primitive.ObjectID) error
}

// WeekPlanRepository handles weeks under a month. Delete removes all descendants.
type WeekPlanRepository interface {
	Create(ctx context.Context, plan *domain.WeekPlan) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id, userID primitive.ObjectID) (*domain.WeekPlan, error)
	ListByMonth(ctx context.Context, monthPlanID, userID primitive.ObjectID) ([]domain.WeekPlan, error)
	// ListViews returns the user's weeks joined with their month period and day count.
	ListViews(ctx context.Context, userID primitive.ObjectID) ([]domain.WeekPlanView, error)
	ExistsForPeriod(ctx context.Context, userID, monthPlanID primitive.ObjectID, calendarWeek int) (bool, error)
	HasAnyForMonth(ctx context.Context, monthPlanID primitive.ObjectID) (bool, error)
	Update(ctx context.Context, plan *domain.WeekPlan) error
	MarkGenerated(ctx context.Context, id primitive.ObjectID, at time.Time) error
	Delete(ctx context.Context, id, userID primitive.ObjectID) error
}

// DayPlanRepository handles days under a week. Delete removes all descendants.
type DayPlanRepository interface {
	Create(ctx context.Context, plan *domain.DayPlan) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id, userID primitive.ObjectID) (*domain.DayPlan, error)
	ListByWeek(ctx context.Context, weekPlanID, userID primitive.ObjectID) ([]domain.DayPlan, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.DayPlan, error)
	ExistsForPeriod(ctx context.Context, userID, weekPlanID primitive.ObjectID, trainingDate string) (bool, error)
	HasAnyForWeek(ctx context.Context, weekPlanID primitive.ObjectID) (bool, error)
	Update(ctx context.Context, plan *domain.DayPlan) error
	MarkGenerated(ctx context.Context, id primitive.ObjectID, at time.Time) error
	Delete(ctx context.Context, id, userID primitive.ObjectID) error
}

// SectionRepository handles the ordered sections of a day.
type SectionRepository interface {
	// Upsert writes the section at (dayPlanId, index), replacing any previous content.
	Upsert(ctx context.Context, section *domain.Section) error
	ListByDay(ctx context.Context, dayPlanID primitive.ObjectID) ([]domain.Section, error)
	CountByDays(ctx context.Context, dayPlanIDs []primitive.ObjectID) (map[primitive.ObjectID]int, error)
	ExistsAtIndex(ctx context.Context, dayPlanID primitive.ObjectID, index int) (bool, error)
}

// SectionMediaRepository stores sketch references for sections.
type SectionMediaRepository interface {
	Create(ctx context.Context, media *domain.SectionMedia) (primitive.ObjectID, error)
	// LatestOK returns the newest media with status ok per section id.
	LatestOK(ctx context.Context, sectionIDs []primitive.ObjectID) (map[primitive.ObjectID]domain.SectionMedia, error)
}

// Stores bundles one implementation of every repository.
type Stores struct {
	Users        UserRepository
	Preferences  PreferencesRepository
	Months       MonthPlanRepository
	Weeks        WeekPlanRepository
	Days         DayPlanRepository
	Sections     SectionRepository
	SectionMedia SectionMediaRepository
}
