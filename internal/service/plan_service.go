package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Fussballversager/data-pipeline-buddy/internal/domain"
	"github.com/Fussballversager/data-pipeline-buddy/internal/generation"
	"github.com/Fussballversager/data-pipeline-buddy/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrPlanNotFound       = errors.New("plan not found")
	ErrParentNotFound     = errors.New("parent plan not found")
	ErrDeleteNotConfirmed = errors.New("deletion must be confirmed")
)

// --- Inputs ---

// MonthInput creates a month plan.
type MonthInput struct {
	Period string
	Params domain.TrainingParameters
}

// WeekInput creates a week plan under MonthPlanID.
type WeekInput struct {
	MonthPlanID  primitive.ObjectID
	CalendarWeek string
	WeekStart    *time.Time
	TrainingGoal string
	Focus        [3]string
	Params       domain.TrainingParameters
}

// DayInput creates a day plan under WeekPlanID. DayNumber 0 means "next".
type DayInput struct {
	WeekPlanID   primitive.ObjectID
	TrainingDate string
	DayNumber    int
	TrainingGoal string
	Focus        [3]string
	RosterSize   *int
}

// GoalUpdate changes the goal fields of a week or day. Nil leaves a field as is.
type GoalUpdate struct {
	TrainingGoal *string
	Focus1       *string
	Focus2       *string
	Focus3       *string
}

// WeekUpdate edits a week plan.
type WeekUpdate struct {
	GoalUpdate
	WeekStart *time.Time
	Params    domain.TrainingParameters
}

// DayUpdate edits a day plan.
type DayUpdate struct {
	GoalUpdate
	DayNumber  *int
	RosterSize *int
}

// --- Service Interface ---

// PlanService owns the lifecycle of month, week and day plans.
type PlanService interface {
	Workspace(ctx context.Context, userID primitive.ObjectID) (*Workspace, error)
	Quota(ctx context.Context, ws *Workspace) (QuotaStatus, error)

	CreateMonth(ctx context.Context, ws *Workspace, in MonthInput) (*domain.MonthPlan, error)
	CreateWeek(ctx context.Context, ws *Workspace, in WeekInput) (*domain.WeekPlan, error)
	CreateDay(ctx context.Context, ws *Workspace, in DayInput) (*domain.DayPlan, error)

	GetMonth(ctx context.Context, userID, id primitive.ObjectID) (*domain.MonthPlan, error)
	GetWeek(ctx context.Context, userID, id primitive.ObjectID) (*domain.WeekPlan, error)
	GetDay(ctx context.Context, userID, id primitive.ObjectID) (*domain.DayPlan, error)

	UpdateMonth(ctx context.Context, userID, id primitive.ObjectID, params domain.TrainingParameters) (*domain.MonthPlan, error)
	UpdateWeek(ctx context.Context, userID, id primitive.ObjectID, in WeekUpdate) (*domain.WeekPlan, error)
	UpdateDay(ctx context.Context, userID, id primitive.ObjectID, in DayUpdate) (*domain.DayPlan, error)

	// Delete removes the plan and everything beneath it. confirmed must be
	// true; the caller is expected to have asked the user.
	Delete(ctx context.Context, ws *Workspace, ref domain.PlanRef, confirmed bool) error
}

// --- Service Implementation ---

type planService struct {
	stores       repository.Stores
	guard        *IdentityGuard
	creating     *inflight
	defaultQuota int
}

// NewPlanService creates a new instance of planService. defaultQuota applies
// to users without an allowance of their own.
func NewPlanService(stores repository.Stores, defaultQuota int) PlanService {
	if defaultQuota < 0 {
		defaultQuota = 0
	}
	return &planService{
		stores:       stores,
		guard:        NewIdentityGuard(stores),
		creating:     newInflight(),
		defaultQuota: defaultQuota,
	}
}

func (s *planService) Workspace(ctx context.Context, userID primitive.ObjectID) (*Workspace, error) {
	return LoadWorkspace(ctx, s.stores, userID)
}

func (s *planService) Quota(ctx context.Context, ws *Workspace) (QuotaStatus, error) {
	allowance, err := s.allowance(ctx, ws.UserID)
	if err != nil {
		return QuotaStatus{}, err
	}
	return ws.Quota(allowance), nil
}

func (s *planService) allowance(ctx context.Context, userID primitive.ObjectID) (int, error) {
	user, err := s.stores.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return s.defaultQuota, nil
		}
		return 0, err
	}
	if user.MonthPlanQuota != nil {
		return *user.MonthPlanQuota, nil
	}
	return s.defaultQuota, nil
}

// === Creation ===

// admit runs the checks shared by every tier: the in-flight guard first,
// then the duplicate check. The returned release must be called once the
// insert has finished.
func (s *planService) admit(ctx context.Context, ws *Workspace, parentID primitive.ObjectID, key domain.PeriodKey) (func(), error) {
	ck := creationKey(ws.UserID, parentID, key)
	if !s.creating.acquire(ck) {
		return nil, ErrCreateInFlight
	}
	release := func() { s.creating.release(ck) }

	exists, err := s.guard.CheckDuplicate(ctx, ws.UserID, parentID, key, ws.Siblings(key.Tier, parentID))
	if err != nil {
		release()
		return nil, err
	}
	if exists {
		release()
		return nil, ErrDuplicatePeriod
	}
	return release, nil
}

func mapCreateError(err error) error {
	if errors.Is(err, repository.ErrDuplicatePeriod) {
		return ErrDuplicatePeriod
	}
	return err
}

func (s *planService) CreateMonth(ctx context.Context, ws *Workspace, in MonthInput) (*domain.MonthPlan, error) {
	key, err := domain.ParsePeriod(domain.TierMonth, in.Period)
	if err != nil {
		return nil, err
	}

	quota, err := s.Quota(ctx, ws)
	if err != nil {
		return nil, err
	}
	if !quota.CanCreate {
		return nil, &QuotaError{Status: quota}
	}

	release, err := s.admit(ctx, ws, primitive.NilObjectID, key)
	if err != nil {
		return nil, err
	}
	defer release()

	plan := &domain.MonthPlan{
		UserID:             ws.UserID,
		Period:             key.String(),
		TrainingParameters: in.Params,
	}
	if _, err := s.stores.Months.Create(ctx, plan); err != nil {
		return nil, mapCreateError(err)
	}
	ws.addMonth(*plan)
	log.Printf("INFO: Month plan %s created for user %s (%s)", plan.ID.Hex(), ws.UserID.Hex(), plan.Period)
	return plan, nil
}

func (s *planService) CreateWeek(ctx context.Context, ws *Workspace, in WeekInput) (*domain.WeekPlan, error) {
	key, err := domain.ParsePeriod(domain.TierWeek, in.CalendarWeek)
	if err != nil {
		return nil, err
	}
	if !ws.CanCreateWeek() {
		return nil, ErrParentNotFound
	}
	month, err := s.stores.Months.GetByID(ctx, in.MonthPlanID, ws.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrParentNotFound
		}
		return nil, err
	}

	release, err := s.admit(ctx, ws, month.ID, key)
	if err != nil {
		return nil, err
	}
	defer release()

	baseline, err := s.baseline(ctx, ws.UserID)
	if err != nil {
		return nil, err
	}

	weekStart := in.WeekStart
	if weekStart == nil {
		start := isoWeekStart(month.Period, key.Week)
		weekStart = &start
	}

	// Inherited parameters are snapshotted at creation.
	params := generation.Layer(generation.Layer(baseline, month.TrainingParameters), in.Params)
	plan := &domain.WeekPlan{
		UserID:             ws.UserID,
		MonthPlanID:        month.ID,
		CalendarWeek:       key.Week,
		WeekStart:          weekStart,
		TrainingGoal:       in.TrainingGoal,
		Focus1:             in.Focus[0],
		Focus2:             in.Focus[1],
		Focus3:             in.Focus[2],
		TrainingParameters: params,
	}
	if _, err := s.stores.Weeks.Create(ctx, plan); err != nil {
		return nil, mapCreateError(err)
	}
	ws.addWeek(*plan)
	log.Printf("INFO: Week plan %s (KW %d) created under month %s", plan.ID.Hex(), plan.CalendarWeek, month.ID.Hex())
	return plan, nil
}

func (s *planService) CreateDay(ctx context.Context, ws *Workspace, in DayInput) (*domain.DayPlan, error) {
	key, err := domain.ParsePeriod(domain.TierDay, in.TrainingDate)
	if err != nil {
		return nil, err
	}
	if !ws.CanCreateDay() {
		return nil, ErrParentNotFound
	}
	week, err := s.stores.Weeks.GetByID(ctx, in.WeekPlanID, ws.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrParentNotFound
		}
		return nil, err
	}

	release, err := s.admit(ctx, ws, week.ID, key)
	if err != nil {
		return nil, err
	}
	defer release()

	dayNumber := in.DayNumber
	if dayNumber <= 0 {
		dayNumber = len(ws.DaysOf(week.ID)) + 1
	}
	plan := &domain.DayPlan{
		UserID:       ws.UserID,
		WeekPlanID:   week.ID,
		TrainingDate: key.String(),
		DayNumber:    dayNumber,
		TrainingGoal: in.TrainingGoal,
		Focus1:       in.Focus[0],
		Focus2:       in.Focus[1],
		Focus3:       in.Focus[2],
		RosterSize:   in.RosterSize,
	}
	if _, err := s.stores.Days.Create(ctx, plan); err != nil {
		return nil, mapCreateError(err)
	}
	ws.addDay(*plan)
	log.Printf("INFO: Day plan %s (%s) created under week %s", plan.ID.Hex(), plan.TrainingDate, week.ID.Hex())
	return plan, nil
}

// baseline returns the user's stored preferences, or nothing when unset.
func (s *planService) baseline(ctx context.Context, userID primitive.ObjectID) (domain.TrainingParameters, error) {
	return loadBaseline(ctx, s.stores.Preferences, userID)
}

func loadBaseline(ctx context.Context, prefs repository.PreferencesRepository, userID primitive.ObjectID) (domain.TrainingParameters, error) {
	p, err := prefs.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.TrainingParameters{}, nil
		}
		return domain.TrainingParameters{}, err
	}
	return p.TrainingParameters, nil
}

// isoWeekStart returns the Monday of an ISO week, choosing the ISO year
// closest to the month the week is planned in.
func isoWeekStart(monthPeriod string, week int) time.Time {
	anchor, err := time.Parse(domain.MonthLayout, monthPeriod)
	if err != nil {
		anchor = time.Now().UTC()
	}
	year := anchor.Year()
	switch {
	case anchor.Month() == time.December && week == 1:
		year++
	case anchor.Month() == time.January && week >= 52:
		year--
	}

	// January 4th always falls in ISO week 1.
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	offset := (int(jan4.Weekday()) + 6) % 7
	return jan4.AddDate(0, 0, -offset+(week-1)*7)
}

// === Reads ===

func mapGetError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrPlanNotFound
	}
	return err
}

func (s *planService) GetMonth(ctx context.Context, userID, id primitive.ObjectID) (*domain.MonthPlan, error) {
	plan, err := s.stores.Months.GetByID(ctx, id, userID)
	return plan, mapGetError(err)
}

func (s *planService) GetWeek(ctx context.Context, userID, id primitive.ObjectID) (*domain.WeekPlan, error) {
	plan, err := s.stores.Weeks.GetByID(ctx, id, userID)
	return plan, mapGetError(err)
}

func (s *planService) GetDay(ctx context.Context, userID, id primitive.ObjectID) (*domain.DayPlan, error) {
	plan, err := s.stores.Days.GetByID(ctx, id, userID)
	if err != nil {
		return nil, mapGetError(err)
	}
	days := []domain.DayPlan{*plan}
	if err := fillSectionCounts(ctx, s.stores.Sections, days); err != nil {
		return nil, err
	}
	return &days[0], nil
}

// === Updates ===

func (s *planService) UpdateMonth(ctx context.Context, userID, id primitive.ObjectID, params domain.TrainingParameters) (*domain.MonthPlan, error) {
	plan, err := s.GetMonth(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	plan.TrainingParameters = generation.Layer(plan.TrainingParameters, params)
	if err := s.stores.Months.Update(ctx, plan); err != nil {
		return nil, mapGetError(err)
	}
	return plan, nil
}

func (g GoalUpdate) apply(goal, f1, f2, f3 *string) {
	for _, pair := range []struct{ dst, src *string }{
		{goal, g.TrainingGoal}, {f1, g.Focus1}, {f2, g.Focus2}, {f3, g.Focus3},
	} {
		if pair.src != nil {
			*pair.dst = *pair.src
		}
	}
}

func (s *planService) UpdateWeek(ctx context.Context, userID, id primitive.ObjectID, in WeekUpdate) (*domain.WeekPlan, error) {
	plan, err := s.GetWeek(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	in.apply(&plan.TrainingGoal, &plan.Focus1, &plan.Focus2, &plan.Focus3)
	if in.WeekStart != nil {
		plan.WeekStart = in.WeekStart
	}
	plan.TrainingParameters = generation.Layer(plan.TrainingParameters, in.Params)
	if err := s.stores.Weeks.Update(ctx, plan); err != nil {
		return nil, mapGetError(err)
	}
	return plan, nil
}

func (s *planService) UpdateDay(ctx context.Context, userID, id primitive.ObjectID, in DayUpdate) (*domain.DayPlan, error) {
	plan, err := s.GetDay(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	in.apply(&plan.TrainingGoal, &plan.Focus1, &plan.Focus2, &plan.Focus3)
	if in.DayNumber != nil {
		plan.DayNumber = *in.DayNumber
	}
	if in.RosterSize != nil {
		plan.RosterSize = in.RosterSize
	}
	if err := s.stores.Days.Update(ctx, plan); err != nil {
		return nil, mapGetError(err)
	}
	return plan, nil
}

// === Deletion ===

func (s *planService) Delete(ctx context.Context, ws *Workspace, ref domain.PlanRef, confirmed bool) error {
	if !confirmed {
		return ErrDeleteNotConfirmed
	}

	var err error
	switch ref.Tier {
	case domain.TierMonth:
		err = s.stores.Months.Delete(ctx, ref.ID, ws.UserID)
	case domain.TierWeek:
		err = s.stores.Weeks.Delete(ctx, ref.ID, ws.UserID)
	case domain.TierDay:
		err = s.stores.Days.Delete(ctx, ref.ID, ws.UserID)
	default:
		return domain.ErrUnknownTier
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPlanNotFound
		}
		return fmt.Errorf("delete %s: %w", ref, err)
	}

	ws.remove(ref)
	log.Printf("INFO: %s plan %s deleted with all descendants", ref.Tier, ref.ID.Hex())
	return nil
}
